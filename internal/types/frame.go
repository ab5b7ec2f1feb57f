package types

import (
	"encoding/json"
	"fmt"

	"github.com/bytedance/sonic"
)

// FrameType identifies the role of a frame on the sync channel
type FrameType string

const (
	// FrameEmit is a client message; it carries an id when an ack is expected
	FrameEmit FrameType = "emit"
	// FrameAck answers an emit with the same id
	FrameAck FrameType = "ack"
	// FrameEvent is a server push
	FrameEvent FrameType = "event"
	// FrameError answers an emit with the same id when the handler failed
	FrameError FrameType = "error"
)

// Frame is the single wire message of the sync channel. Args stay raw
// until the receiver knows which types to decode them into.
type Frame struct {
	Type  FrameType         `json:"type"`
	ID    string            `json:"id,omitempty"`
	Event string            `json:"event,omitempty"`
	Args  []json.RawMessage `json:"args,omitempty"`
	Error string            `json:"error,omitempty"`
}

// NewFrame builds a frame, encoding each arg
func NewFrame(typ FrameType, id, event string, args ...any) (*Frame, error) {
	raw, err := EncodeArgs(args...)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", typ, event, err)
	}
	return &Frame{Type: typ, ID: id, Event: event, Args: raw}, nil
}

// EncodeArgs encodes each value as one raw argument
func EncodeArgs(args ...any) ([]json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]json.RawMessage, len(args))
	for i, arg := range args {
		data, err := sonic.Marshal(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode arg %d: %w", i, err)
		}
		out[i] = data
	}
	return out, nil
}

// DecodeArg decodes args[i] into v
func DecodeArg(args []json.RawMessage, i int, v any) error {
	if i >= len(args) {
		return fmt.Errorf("missing arg %d (have %d)", i, len(args))
	}
	if err := sonic.Unmarshal(args[i], v); err != nil {
		return fmt.Errorf("failed to decode arg %d: %w", i, err)
	}
	return nil
}

// Arg decodes args[i] as a T
func Arg[T any](args []json.RawMessage, i int) (T, error) {
	var v T
	err := DecodeArg(args, i, &v)
	return v, err
}

// Encode serializes a frame for the wire
func Encode(f *Frame) ([]byte, error) {
	data, err := sonic.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	return data, nil
}

// Decode parses a frame from the wire
func Decode(data []byte) (*Frame, error) {
	var f Frame
	if err := sonic.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode frame: %w", err)
	}
	switch f.Type {
	case FrameEmit, FrameAck, FrameEvent, FrameError:
	default:
		return nil, fmt.Errorf("failed to decode frame: unknown type %q", f.Type)
	}
	return &f, nil
}
