package utils

import (
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// Frame limits (in bytes)
const (
	DefaultMaxFrameSize = 8 * 1024 * 1024 // 8MB - a whole file travels in one saveFile frame
	MaxFrameDepth       = 64              // file trees nest one level per folder
)

var (
	// ErrFrameTooLarge is returned for frames over the configured size
	ErrFrameTooLarge = errors.New("frame too large")
	// ErrMalformedFrame is returned for frames that are not valid JSON
	ErrMalformedFrame = errors.New("malformed frame")
)

// FrameValidator validates channel frame size and structure
type FrameValidator struct {
	maxSize int
}

// NewFrameValidator creates a new validator with the specified max size.
// A non-positive size selects DefaultMaxFrameSize.
func NewFrameValidator(maxSize int) *FrameValidator {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &FrameValidator{maxSize: maxSize}
}

// MaxSize returns the configured frame size limit
func (v *FrameValidator) MaxSize() int {
	return v.maxSize
}

// ValidateSize checks if the data size is within limits
func (v *FrameValidator) ValidateSize(data []byte) error {
	if size := len(data); size > v.maxSize {
		return fmt.Errorf("%w: %d bytes exceeds maximum %d bytes", ErrFrameTooLarge, size, v.maxSize)
	}
	return nil
}

// ValidateFrame validates size, JSON structure and nesting depth
func (v *FrameValidator) ValidateFrame(data []byte) error {
	// Check size first (faster than parsing)
	if err := v.ValidateSize(data); err != nil {
		return err
	}
	if !sonic.Valid(data) {
		return ErrMalformedFrame
	}
	if depth := jsonDepth(data); depth > MaxFrameDepth {
		return fmt.Errorf("%w: nesting depth %d exceeds maximum %d", ErrMalformedFrame, depth, MaxFrameDepth)
	}
	return nil
}

// jsonDepth returns the maximum container nesting of valid JSON data.
func jsonDepth(data []byte) int {
	depth, max := 0, 0
	inString, escaped := false, false
	for _, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > max {
				max = depth
			}
		case '}', ']':
			depth--
		}
	}
	return max
}
