package channel

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is delivered when a request got no ack after every retry
	ErrTimeout = errors.New("request timed out")
	// ErrDisconnected is delivered to requests pending when the connection closed
	ErrDisconnected = errors.New("channel disconnected")
	// ErrNotConnected is returned for sends attempted while disconnected
	ErrNotConnected = errors.New("channel not connected")
)

// RemoteError is a failure reported by the workspace service for a request
type RemoteError struct {
	Event   string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("workspace: %s: %s", e.Event, e.Message)
}
