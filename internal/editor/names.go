package editor

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bretbouchard/sandbox/internal/types"
)

// ErrInvalidName is wrapped by every name validation failure
var ErrInvalidName = errors.New("invalid name")

// MaxNameLength bounds file and folder names
const MaxNameLength = 255

// NameValidator checks new file and folder names
type NameValidator struct {
	protected []string
}

// NewNameValidator creates a validator that also rejects names matching
// any of the protected glob patterns.
func NewNameValidator(protected []string) (*NameValidator, error) {
	for _, p := range protected {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid protected name pattern %q", p)
		}
	}
	return &NameValidator{protected: protected}, nil
}

// Validate checks newName as the replacement of oldName for a node of the
// given kind. An empty oldName validates a name for a new node.
func (v *NameValidator) Validate(newName, oldName string, kind types.NodeType) error {
	if err := ValidateName(newName, oldName, kind); err != nil {
		return err
	}
	for _, p := range v.protected {
		if matchProtected(p, newName) {
			return fmt.Errorf("%w: %q is protected", ErrInvalidName, newName)
		}
	}
	return nil
}

// ValidateName checks a file or folder name:
//   - not empty, not the old name, not longer than MaxNameLength
//   - only letters, digits, '_', '-' and '.'
//   - files carry an extension, folders do not
func ValidateName(newName, oldName string, kind types.NodeType) error {
	switch {
	case newName == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case newName == oldName:
		return fmt.Errorf("%w: name is unchanged", ErrInvalidName)
	case len(newName) > MaxNameLength:
		return fmt.Errorf("%w: name is longer than %d bytes", ErrInvalidName, MaxNameLength)
	case newName == "." || newName == "..":
		return fmt.Errorf("%w: %q is reserved", ErrInvalidName, newName)
	}

	for _, r := range newName {
		if !allowedNameRune(r) {
			return fmt.Errorf("%w: character %q is not allowed", ErrInvalidName, r)
		}
	}

	ext := path.Ext(newName)
	stem := strings.TrimSuffix(newName, ext)
	switch kind {
	case types.NodeFile:
		if ext == "" || ext == "." || stem == "" {
			return fmt.Errorf("%w: file name needs a name and an extension", ErrInvalidName)
		}
	case types.NodeFolder:
		if strings.Contains(newName, ".") {
			return fmt.Errorf("%w: folder name cannot contain '.'", ErrInvalidName)
		}
	default:
		return fmt.Errorf("%w: unknown node type %q", ErrInvalidName, kind)
	}
	return nil
}

func allowedNameRune(r rune) bool {
	return r >= 'a' && r <= 'z' ||
		r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' ||
		r == '_' || r == '-' || r == '.'
}

func matchProtected(pattern, name string) bool {
	ok, err := doublestar.Match(pattern, name)
	return err == nil && ok
}
