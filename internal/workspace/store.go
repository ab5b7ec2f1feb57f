package workspace

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/bretbouchard/sandbox/internal/shared/paths"
	"github.com/bretbouchard/sandbox/internal/types"
)

var (
	// ErrNotFound is returned for ids that are not in the sandbox tree
	ErrNotFound = errors.New("not found")
	// ErrExists is returned when creating a node whose id is taken
	ErrExists = errors.New("already exists")
	// ErrIsFolder is returned for content operations on a folder
	ErrIsFolder = errors.New("is a folder")
)

// Store keeps sandbox trees and file contents in memory
type Store struct {
	mu        sync.RWMutex
	sandboxes map[string]*sandbox
}

type sandbox struct {
	tree     []types.Node
	contents map[string]string
}

// StoreStats contains store statistics
type StoreStats struct {
	Sandboxes int `json:"sandboxes"`
	Files     int `json:"files"`
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{sandboxes: make(map[string]*sandbox)}
}

// sandbox returns the sandbox, creating it empty. Callers hold mu.
func (s *Store) sandbox(id string) *sandbox {
	sb, ok := s.sandboxes[id]
	if !ok {
		sb = &sandbox{contents: make(map[string]string)}
		s.sandboxes[id] = sb
	}
	return sb
}

// Tree returns a copy of a sandbox's tree
func (s *Store) Tree(sandboxID string) []types.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sb, ok := s.sandboxes[sandboxID]
	if !ok {
		return []types.Node{}
	}
	tree := types.CloneTree(sb.tree)
	if tree == nil {
		tree = []types.Node{}
	}
	return tree
}

// Get returns a file's content
func (s *Store) Get(sandboxID, fileID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sb, ok := s.sandboxes[sandboxID]
	if !ok {
		return "", fmt.Errorf("%s: %w", fileID, ErrNotFound)
	}
	if err := sb.checkFile(fileID); err != nil {
		return "", err
	}
	return sb.contents[fileID], nil
}

// Save replaces a file's content
func (s *Store) Save(sandboxID, fileID, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sb := s.sandbox(sandboxID)
	if err := sb.checkFile(fileID); err != nil {
		return err
	}
	sb.contents[fileID] = content
	return nil
}

// Rename changes a node's name. Its id is unchanged.
func (s *Store) Rename(sandboxID, id, name string) error {
	if err := paths.ValidateSegment("name", name); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !types.RenameNode(s.sandbox(sandboxID).tree, id, name) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a node, and everything below a folder, and returns the
// new tree
func (s *Store) Delete(sandboxID, id string) ([]types.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sb := s.sandbox(sandboxID)
	tree, ok := types.RemoveNode(sb.tree, id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	sb.tree = tree
	for fileID := range sb.contents {
		if fileID == id || strings.HasPrefix(fileID, id+"/") {
			delete(sb.contents, fileID)
		}
	}
	return types.CloneTree(sb.tree), nil
}

// Create adds an empty file at the sandbox root. An existing node with
// that name fails with ErrExists.
func (s *Store) Create(sandboxID, name string) (types.Node, error) {
	if err := paths.ValidateSegment("name", name); err != nil {
		return types.Node{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(sandboxID, []string{name}, "", false)
}

// Put stores a file at a slash-separated path below the sandbox root,
// creating folders along the way. An existing file keeps its id and gets
// the new content; a path through an existing file fails with ErrExists.
func (s *Store) Put(sandboxID, rel, content string) (types.Node, error) {
	segments := strings.Split(strings.Trim(rel, "/"), "/")
	for _, seg := range segments {
		if err := paths.ValidateSegment("path", seg); err != nil {
			return types.Node{}, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(sandboxID, segments, content, true)
}

// put walks segments from the sandbox root. Callers hold mu.
func (s *Store) put(sandboxID string, segments []string, content string, overwrite bool) (types.Node, error) {
	sb := s.sandbox(sandboxID)
	level := &sb.tree
	parent := paths.SandboxRoot(sandboxID)

	for i, seg := range segments {
		id := paths.ChildID(parent, seg)
		last := i == len(segments)-1

		idx := -1
		for j := range *level {
			if (*level)[j].ID == id {
				idx = j
				break
			}
		}

		switch {
		case idx < 0 && last:
			node := types.NewFile(id, seg)
			*level = append(*level, node)
			sb.contents[id] = content
			return node, nil
		case idx < 0:
			*level = append(*level, types.NewFolder(id, seg))
			idx = len(*level) - 1
		case last && (*level)[idx].IsFolder():
			return types.Node{}, fmt.Errorf("%s: %w", id, ErrIsFolder)
		case last && !overwrite:
			return types.Node{}, fmt.Errorf("%s: %w", id, ErrExists)
		case last:
			sb.contents[id] = content
			return (*level)[idx], nil
		case !(*level)[idx].IsFolder():
			return types.Node{}, fmt.Errorf("%s: %w", id, ErrExists)
		}

		level = &(*level)[idx].Children
		parent = id
	}
	return types.Node{}, fmt.Errorf("empty path: %w", ErrNotFound)
}

// Stats returns store statistics
func (s *Store) Stats() StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := StoreStats{Sandboxes: len(s.sandboxes)}
	for _, sb := range s.sandboxes {
		stats.Files += types.CountFiles(sb.tree)
	}
	return stats
}

func (sb *sandbox) checkFile(id string) error {
	node, ok := types.Find(sb.tree, id)
	if !ok {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if node.IsFolder() {
		return fmt.Errorf("%s: %w", id, ErrIsFolder)
	}
	return nil
}
