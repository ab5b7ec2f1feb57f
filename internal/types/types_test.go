package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() []Node {
	return []Node{
		NewFile("projects/sb/main.go", "main.go"),
		NewFolder("projects/sb/src", "src",
			NewFile("projects/sb/src/app.ts", "app.ts"),
			NewFolder("projects/sb/src/lib", "lib",
				NewFile("projects/sb/src/lib/util.ts", "util.ts"),
			),
		),
	}
}

func TestFind(t *testing.T) {
	tree := sampleTree()

	n, ok := Find(tree, "projects/sb/src/lib/util.ts")
	require.True(t, ok)
	assert.Equal(t, "util.ts", n.Name)

	_, ok = Find(tree, "projects/sb/missing")
	assert.False(t, ok)
}

func TestRemoveNode(t *testing.T) {
	tree := sampleTree()

	out, removed := RemoveNode(tree, "projects/sb/src/app.ts")
	require.True(t, removed)
	_, ok := Find(out, "projects/sb/src/app.ts")
	assert.False(t, ok)
	assert.Equal(t, 2, CountFiles(out))

	// the input is not modified
	assert.Equal(t, 3, CountFiles(tree))

	_, removed = RemoveNode(tree, "nope")
	assert.False(t, removed)
}

func TestRenameNodeKeepsID(t *testing.T) {
	tree := sampleTree()

	require.True(t, RenameNode(tree, "projects/sb/src/lib/util.ts", "helpers.ts"))
	n, ok := Find(tree, "projects/sb/src/lib/util.ts")
	require.True(t, ok)
	assert.Equal(t, "helpers.ts", n.Name)
}

func TestCloneTreeIsDeep(t *testing.T) {
	tree := sampleTree()
	clone := CloneTree(tree)

	clone[1].Children[0].Name = "changed.ts"

	assert.Equal(t, "app.ts", tree[1].Children[0].Name)
	assert.Nil(t, CloneTree(nil))
}

func TestWalkStops(t *testing.T) {
	visited := 0
	Walk(sampleTree(), func(n Node) bool {
		visited++
		return n.ID != "projects/sb/src"
	})
	assert.Equal(t, 2, visited)
}

func TestFrameRoundTrip(t *testing.T) {
	f, err := NewFrame(FrameEmit, "req_1", EventSaveFile, "projects/sb/main.go", "package main\n")
	require.NoError(t, err)

	data, err := Encode(f)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, FrameEmit, got.Type)
	assert.Equal(t, "req_1", got.ID)
	assert.Equal(t, EventSaveFile, got.Event)

	id, err := Arg[string](got.Args, 0)
	require.NoError(t, err)
	assert.Equal(t, "projects/sb/main.go", id)

	content, err := Arg[string](got.Args, 1)
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content)
}

func TestTreeArgDecodes(t *testing.T) {
	data := []byte(`{"type":"event","event":"loaded","args":[[{"id":"projects/sb/src","name":"src","type":"folder","children":[{"id":"projects/sb/src/a.ts","name":"a.ts","type":"file"}]}]]}`)

	f, err := Decode(data)
	require.NoError(t, err)

	tree, err := Arg[[]Node](f.Args, 0)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.True(t, tree[0].IsFolder())
	assert.Equal(t, "a.ts", tree[0].Children[0].Name)
}

func TestDecodeRejectsUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"shout"}`))
	assert.Error(t, err)

	_, err = Decode([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestArgMissing(t *testing.T) {
	_, err := Arg[string](nil, 0)
	assert.Error(t, err)
}
