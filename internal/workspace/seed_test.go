package workspace

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, data, 0o644))
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.go", []byte("package main\n\nfunc main() {}\n"))
	writeFile(t, dir, "pkg/util.go", []byte("package pkg\n"))
	writeFile(t, dir, ".git/HEAD", []byte("ref: refs/heads/main\n"))
	writeFile(t, dir, "node_modules/x/index.js", []byte("module.exports = 1\n"))
	writeFile(t, dir, "logo.png", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01"))
	writeFile(t, dir, "big.txt", []byte(strings.Repeat("a", MaxSeedFileSize+1)))

	store := NewStore()
	seeder, err := NewSeeder(store, []string{".git", ".git/**", "node_modules", "node_modules/**"}, nil)
	require.NoError(t, err)

	result, err := seeder.Seed(context.Background(), "sb1", dir)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, 2, result.Skipped)

	content, err := store.Get("sb1", "projects/sb1/pkg/util.go")
	require.NoError(t, err)
	assert.Equal(t, "package pkg\n", content)

	_, err = store.Get("sb1", "projects/sb1/.git/HEAD")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get("sb1", "projects/sb1/logo.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSeedRejectsBadPattern(t *testing.T) {
	_, err := NewSeeder(NewStore(), []string{"[unterminated"}, nil)
	assert.Error(t, err)
}

func TestSeedMissingDir(t *testing.T) {
	seeder, err := NewSeeder(NewStore(), nil, nil)
	require.NoError(t, err)

	_, err = seeder.Seed(context.Background(), "sb1", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestSeedCancelled(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", []byte("a"))

	seeder, err := NewSeeder(NewStore(), nil, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = seeder.Seed(ctx, "sb1", dir)
	assert.ErrorIs(t, err, context.Canceled)
}
