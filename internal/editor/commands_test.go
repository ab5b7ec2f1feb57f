package editor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bretbouchard/sandbox/internal/editor"
	"github.com/bretbouchard/sandbox/internal/editor/headless"
)

func TestParseChord(t *testing.T) {
	tests := []struct {
		input string
		want  editor.Chord
	}{
		{"mod+s", editor.Chord{Key: "s", Mod: true}},
		{"Ctrl+Shift+G", editor.Chord{Key: "g", Mod: true, Shift: true}},
		{"cmd+alt+k", editor.Chord{Key: "k", Mod: true, Alt: true}},
		{"f5", editor.Chord{Key: "f5"}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := editor.ParseChord(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "mod+", "hyper+s"} {
		_, err := editor.ParseChord(bad)
		assert.Error(t, err, bad)
	}
}

func TestChordMatchesEitherModifier(t *testing.T) {
	save := editor.MustParseChord("mod+s")

	assert.True(t, save.Matches(&editor.KeyEvent{Key: "s", Ctrl: true}))
	assert.True(t, save.Matches(&editor.KeyEvent{Key: "S", Meta: true}))
	assert.False(t, save.Matches(&editor.KeyEvent{Key: "s"}))
	assert.False(t, save.Matches(&editor.KeyEvent{Key: "s", Ctrl: true, Shift: true}))
	assert.Equal(t, "mod+s", save.String())
}

func attachDispatcher(t *testing.T) (*headless.Widget, *editor.Dispatcher, *int, *int) {
	t.Helper()
	w := headless.NewWidget()
	d := editor.NewDispatcher(w, w, nil, editor.MustParseChord("mod+s"), editor.MustParseChord("mod+g"))

	saves, generates := 0, 0
	require.NoError(t, d.Attach(func() { saves++ }, func() { generates++ }))
	return w, d, &saves, &generates
}

func TestSaveShortcutIsDocumentLevel(t *testing.T) {
	w, _, saves, _ := attachDispatcher(t)
	w.Focused = false

	e := &editor.KeyEvent{Key: "s", Meta: true}
	w.Press(e)

	assert.Equal(t, 1, *saves)
	assert.True(t, e.DefaultPrevented())

	w.Press(&editor.KeyEvent{Key: "s"})
	assert.Equal(t, 1, *saves)
}

func TestGenerateIsWidgetCommand(t *testing.T) {
	w, _, _, generates := attachDispatcher(t)

	cmd, ok := w.Command(editor.CommandGenerate)
	require.True(t, ok)
	assert.Equal(t, editor.GeneratePrecondition, cmd.Precondition)
	assert.Equal(t, []editor.Chord{editor.MustParseChord("mod+g")}, w.Unbound())

	w.Press(&editor.KeyEvent{Key: "g", Ctrl: true})
	assert.Equal(t, 1, *generates)

	// widget commands need focus
	w.Focused = false
	w.Press(&editor.KeyEvent{Key: "g", Ctrl: true})
	assert.Equal(t, 1, *generates)
}

func TestCommandsRunByID(t *testing.T) {
	_, d, saves, generates := attachDispatcher(t)

	require.NoError(t, d.Registry().Run(editor.CommandSave))
	require.NoError(t, d.Registry().Run(editor.CommandGenerate))

	assert.Equal(t, 1, *saves)
	assert.Equal(t, 1, *generates)
}

func TestDetachReleasesBindings(t *testing.T) {
	w, d, saves, _ := attachDispatcher(t)

	d.Detach()

	assert.Equal(t, 0, w.Listeners())
	_, ok := w.Command(editor.CommandGenerate)
	assert.False(t, ok)
	assert.Empty(t, d.Registry().List())

	w.Press(&editor.KeyEvent{Key: "s", Ctrl: true})
	assert.Equal(t, 0, *saves)

	// attach again after detach
	assert.NoError(t, d.Attach(func() {}, func() {}))
	assert.Error(t, d.Attach(func() {}, func() {}))
}
