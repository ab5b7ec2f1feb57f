package editor

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAll(s *Store, ids ...string) {
	for _, id := range ids {
		s.Open(id, id+".go")
	}
}

func ids(tabs []Tab) []string {
	out := make([]string, len(tabs))
	for i, t := range tabs {
		out[i] = t.ID
	}
	return out
}

func TestOpenNeverDuplicates(t *testing.T) {
	s := NewStore()
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 500; i++ {
		s.Open(fmt.Sprintf("f%d", rng.Intn(8)), "x.go")

		seen := make(map[string]bool)
		for _, tab := range s.Tabs() {
			require.False(t, seen[tab.ID], "duplicate tab %s", tab.ID)
			seen[tab.ID] = true
		}
	}
	assert.LessOrEqual(t, s.Len(), 8)
}

func TestOpenExistingOnlyActivates(t *testing.T) {
	s := NewStore()
	openAll(s, "a", "b")

	added := s.Open("a", "renamed.go")

	assert.False(t, added)
	assert.Equal(t, "a", s.Active())
	assert.Equal(t, []string{"a", "b"}, ids(s.Tabs()))
	tab, _ := s.Get("a")
	assert.Equal(t, "a.go", tab.Name)
	assert.True(t, tab.Saved)
}

func TestNextActive(t *testing.T) {
	tests := []struct {
		name   string
		tabs   []string
		active string
		close  string
		want   string
	}{
		{"only tab", []string{"a"}, "a", "a", ""},
		{"inactive tab keeps selection", []string{"a", "b", "c"}, "b", "a", "b"},
		{"inactive last tab keeps selection", []string{"a", "b", "c"}, "a", "c", "a"},
		{"active middle selects following", []string{"a", "b", "c"}, "b", "b", "c"},
		{"active first selects following", []string{"a", "b", "c"}, "a", "a", "b"},
		{"active last selects preceding", []string{"a", "b", "c"}, "c", "c", "b"},
		{"unknown tab keeps selection", []string{"a", "b"}, "a", "z", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			openAll(s, tt.tabs...)
			require.True(t, s.SetActive(tt.active))

			assert.Equal(t, tt.want, s.NextActive(tt.close))
		})
	}
}

func TestRemove(t *testing.T) {
	s := NewStore()
	openAll(s, "a", "b", "c")
	s.SetActive("a")

	assert.True(t, s.Remove("b"))
	assert.Equal(t, "a", s.Active())
	assert.Equal(t, []string{"a", "c"}, ids(s.Tabs()))

	assert.True(t, s.Remove("a"))
	assert.Equal(t, "", s.Active())

	assert.False(t, s.Remove("missing"))
}

func TestTabsReturnsCopy(t *testing.T) {
	s := NewStore()
	openAll(s, "a")

	tabs := s.Tabs()
	tabs[0].Name = "changed"

	tab, _ := s.Get("a")
	assert.Equal(t, "a.go", tab.Name)
}

func TestSetSaved(t *testing.T) {
	s := NewStore()
	openAll(s, "a")

	assert.False(t, s.SetSaved("a", true), "new tabs start saved")
	assert.True(t, s.SetSaved("a", false))
	assert.False(t, s.SetSaved("a", false))
	assert.True(t, s.SetSaved("a", true))
	assert.False(t, s.SetSaved("missing", false))
}

func TestRenameKeepsID(t *testing.T) {
	s := NewStore()
	openAll(s, "a", "b")

	require.True(t, s.Rename("a", "main.go"))

	tab, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "main.go", tab.Name)
	assert.Equal(t, 0, s.Index("a"))
	assert.False(t, s.Rename("missing", "x.go"))
}

func TestSetActive(t *testing.T) {
	s := NewStore()
	openAll(s, "a", "b")

	assert.False(t, s.SetActive("missing"))
	assert.Equal(t, "b", s.Active())

	assert.True(t, s.SetActive(""))
	_, ok := s.ActiveTab()
	assert.False(t, ok)

	s.Clear()
	assert.Equal(t, 0, s.Len())
}
