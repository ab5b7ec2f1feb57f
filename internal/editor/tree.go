package editor

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/bretbouchard/sandbox/internal/logging"
	"github.com/bretbouchard/sandbox/internal/shared/paths"
	"github.com/bretbouchard/sandbox/internal/types"
)

// ErrNotImplemented is returned by operations the workspace does not
// support yet
var ErrNotImplemented = errors.New("not implemented")

// Tree is the session's copy of the workspace file tree. Server snapshots
// replace it wholesale; the only local patches are optimistic file
// creation and renames.
type Tree struct {
	sandboxID string
	nodes     []types.Node
	logger    *logging.Logger
}

// NewTree creates an empty tree for a sandbox
func NewTree(sandboxID string, logger *logging.Logger) *Tree {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Tree{sandboxID: sandboxID, logger: logger}
}

// Nodes returns a copy of the tree
func (t *Tree) Nodes() []types.Node {
	return types.CloneTree(t.nodes)
}

// Replace swaps in an authoritative snapshot
func (t *Tree) Replace(nodes []types.Node) {
	t.nodes = types.CloneTree(nodes)
}

// Find returns the node with the given id
func (t *Tree) Find(id string) (types.Node, bool) {
	return types.Find(t.nodes, id)
}

// AddFile appends a file node at the sandbox root
func (t *Tree) AddFile(name string) (types.Node, error) {
	id := paths.FileID(t.sandboxID, name)
	if _, exists := t.Find(id); exists {
		return types.Node{}, fmt.Errorf("%w: %q already exists", ErrInvalidName, name)
	}
	node := types.NewFile(id, name)
	t.nodes = append(t.nodes, node)
	return node, nil
}

// Rename updates a node's name; its id is unchanged
func (t *Tree) Rename(id, name string) bool {
	return types.RenameNode(t.nodes, id, name)
}

// AddFolder is not supported by the workspace service.
func (t *Tree) AddFolder(name string) error {
	t.logger.DPanic("Folder creation is not implemented", zap.String("name", name))
	return fmt.Errorf("create folder %q: %w", name, ErrNotImplemented)
}

// DeleteFolder is not supported by the workspace service.
func (t *Tree) DeleteFolder(id string) error {
	t.logger.DPanic("Folder deletion is not implemented", zap.String("id", id))
	return fmt.Errorf("delete folder %q: %w", id, ErrNotImplemented)
}
