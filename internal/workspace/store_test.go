package workspace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bretbouchard/sandbox/internal/types"
)

func seededStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	_, err := s.Put("sb1", "main.go", "package main\n")
	require.NoError(t, err)
	_, err = s.Put("sb1", "pkg/util.go", "package pkg\n")
	require.NoError(t, err)
	_, err = s.Put("sb1", "pkg/sub/deep.txt", "deep")
	require.NoError(t, err)
	return s
}

func TestStorePutBuildsFolders(t *testing.T) {
	s := seededStore(t)

	tree := s.Tree("sb1")
	require.Len(t, tree, 2)
	assert.Equal(t, "projects/sb1/main.go", tree[0].ID)
	assert.False(t, tree[0].IsFolder())

	pkg := tree[1]
	assert.Equal(t, "projects/sb1/pkg", pkg.ID)
	require.True(t, pkg.IsFolder())
	require.Len(t, pkg.Children, 2)
	assert.Equal(t, "projects/sb1/pkg/util.go", pkg.Children[0].ID)
	assert.Equal(t, "projects/sb1/pkg/sub", pkg.Children[1].ID)

	assert.Equal(t, StoreStats{Sandboxes: 1, Files: 3}, s.Stats())
}

func TestStorePutOverwritesAndRejectsConflicts(t *testing.T) {
	s := seededStore(t)

	node, err := s.Put("sb1", "main.go", "changed")
	require.NoError(t, err)
	assert.Equal(t, "projects/sb1/main.go", node.ID)
	content, err := s.Get("sb1", node.ID)
	require.NoError(t, err)
	assert.Equal(t, "changed", content)

	_, err = s.Put("sb1", "main.go/nested", "x")
	assert.ErrorIs(t, err, ErrExists)

	_, err = s.Put("sb1", "pkg", "x")
	assert.ErrorIs(t, err, ErrIsFolder)

	_, err = s.Put("sb1", "../escape", "x")
	assert.Error(t, err)
}

func TestStoreTreeIsACopy(t *testing.T) {
	s := seededStore(t)

	tree := s.Tree("sb1")
	tree[0].Name = "mutated"
	assert.Equal(t, "main.go", s.Tree("sb1")[0].Name)

	unknown := s.Tree("nope")
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestStoreGetAndSave(t *testing.T) {
	s := seededStore(t)

	require.NoError(t, s.Save("sb1", "projects/sb1/pkg/util.go", "package util\n"))
	content, err := s.Get("sb1", "projects/sb1/pkg/util.go")
	require.NoError(t, err)
	assert.Equal(t, "package util\n", content)

	_, err = s.Get("sb1", "projects/sb1/missing.go")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("other", "projects/sb1/main.go")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get("sb1", "projects/sb1/pkg")
	assert.ErrorIs(t, err, ErrIsFolder)

	assert.ErrorIs(t, s.Save("sb1", "projects/sb1/missing.go", "x"), ErrNotFound)
}

func TestStoreRenameKeepsID(t *testing.T) {
	s := seededStore(t)

	require.NoError(t, s.Rename("sb1", "projects/sb1/main.go", "app.go"))

	node, ok := types.Find(s.Tree("sb1"), "projects/sb1/main.go")
	require.True(t, ok)
	assert.Equal(t, "app.go", node.Name)

	content, err := s.Get("sb1", "projects/sb1/main.go")
	require.NoError(t, err)
	assert.Equal(t, "package main\n", content)

	assert.Error(t, s.Rename("sb1", "projects/sb1/main.go", "a/b"))
	assert.ErrorIs(t, s.Rename("sb1", "projects/sb1/nope", "x"), ErrNotFound)
}

func TestStoreDeleteFolderDropsContents(t *testing.T) {
	s := seededStore(t)

	tree, err := s.Delete("sb1", "projects/sb1/pkg")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, "projects/sb1/main.go", tree[0].ID)

	_, err = s.Get("sb1", "projects/sb1/pkg/sub/deep.txt")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, s.Stats().Files)

	_, err = s.Delete("sb1", "projects/sb1/pkg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreCreate(t *testing.T) {
	s := seededStore(t)

	node, err := s.Create("sb1", "notes.md")
	require.NoError(t, err)
	assert.Equal(t, "projects/sb1/notes.md", node.ID)

	content, err := s.Get("sb1", node.ID)
	require.NoError(t, err)
	assert.Empty(t, content)

	_, err = s.Create("sb1", "main.go")
	assert.ErrorIs(t, err, ErrExists)
	_, err = s.Create("sb1", "dir/file.go")
	assert.Error(t, err)
}
