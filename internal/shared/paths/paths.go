package paths

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Projects is the root segment of every workspace file id
const Projects = "projects"

// LayoutExt is the extension of persisted tab layout files
const LayoutExt = ".yaml"

// SandboxRoot returns the id prefix shared by all files of a sandbox
func SandboxRoot(sandboxID string) string {
	return path.Join(Projects, sandboxID)
}

// FileID returns the id of a file created at the sandbox root
func FileID(sandboxID, name string) string {
	return path.Join(Projects, sandboxID, name)
}

// ChildID returns the id of an entry inside a folder id
func ChildID(parentID, name string) string {
	return path.Join(parentID, name)
}

// Base returns the last segment of a file id
func Base(id string) string {
	return path.Base(id)
}

// Rel returns id relative to its sandbox root, or false when id belongs to
// another sandbox.
func Rel(sandboxID, id string) (string, bool) {
	root := SandboxRoot(sandboxID) + "/"
	if !strings.HasPrefix(id, root) {
		return "", false
	}
	return strings.TrimPrefix(id, root), true
}

// LayoutFile returns the file a user's tab layout for a sandbox is kept in
func LayoutFile(layoutDir, userID, sandboxID string) string {
	return filepath.Join(layoutDir, userID, sandboxID+LayoutExt)
}

// ValidateSegment checks that a user or sandbox id is safe to use as a
// single path segment.
func ValidateSegment(kind, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if strings.ContainsAny(value, `/\`) || value == "." || value == ".." {
		return fmt.Errorf("%s %q contains invalid path components", kind, value)
	}
	return nil
}
