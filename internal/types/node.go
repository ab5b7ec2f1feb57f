package types

// NodeType distinguishes files from folders in the workspace tree
type NodeType string

const (
	NodeFile   NodeType = "file"
	NodeFolder NodeType = "folder"
)

// Node is one entry of the workspace file tree. Ids are path-like and
// unique within a workspace.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     NodeType `json:"type"`
	Children []Node   `json:"children,omitempty"`
}

// NewFile creates a file node
func NewFile(id, name string) Node {
	return Node{ID: id, Name: name, Type: NodeFile}
}

// NewFolder creates a folder node
func NewFolder(id, name string, children ...Node) Node {
	return Node{ID: id, Name: name, Type: NodeFolder, Children: children}
}

// IsFolder reports whether the node is a folder
func (n Node) IsFolder() bool {
	return n.Type == NodeFolder
}

// Walk visits every node depth-first, parents before children. Returning
// false from fn stops the walk.
func Walk(tree []Node, fn func(Node) bool) bool {
	for _, n := range tree {
		if !fn(n) {
			return false
		}
		if !Walk(n.Children, fn) {
			return false
		}
	}
	return true
}

// Find returns the node with the given id
func Find(tree []Node, id string) (Node, bool) {
	var found Node
	ok := false
	Walk(tree, func(n Node) bool {
		if n.ID == id {
			found, ok = n, true
			return false
		}
		return true
	})
	return found, ok
}

// CloneTree returns a deep copy of tree
func CloneTree(tree []Node) []Node {
	if tree == nil {
		return nil
	}
	out := make([]Node, len(tree))
	for i, n := range tree {
		out[i] = n
		out[i].Children = CloneTree(n.Children)
	}
	return out
}

// RemoveNode returns tree without the node with the given id
func RemoveNode(tree []Node, id string) ([]Node, bool) {
	out := make([]Node, 0, len(tree))
	removed := false
	for _, n := range tree {
		if n.ID == id {
			removed = true
			continue
		}
		if len(n.Children) > 0 {
			var r bool
			n.Children, r = RemoveNode(n.Children, id)
			removed = removed || r
		}
		out = append(out, n)
	}
	return out, removed
}

// RenameNode sets the name of the node with the given id in place. The id
// is left unchanged.
func RenameNode(tree []Node, id, name string) bool {
	for i := range tree {
		if tree[i].ID == id {
			tree[i].Name = name
			return true
		}
		if RenameNode(tree[i].Children, id, name) {
			return true
		}
	}
	return false
}

// CountFiles returns the number of file nodes in tree
func CountFiles(tree []Node) int {
	count := 0
	Walk(tree, func(n Node) bool {
		if n.Type == NodeFile {
			count++
		}
		return true
	})
	return count
}
