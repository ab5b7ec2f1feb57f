// Package id generates the identifiers the sync channel puts on the wire.
//
// Request ids are "req_" followed by a monotonic ULID, so they sort by
// creation time and a late ack can be aged from its id alone. Trace and
// span ids follow the same shape with their own prefixes. Client ids are
// random UUIDs naming one channel client to the workspace service.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Id prefixes
const (
	RequestPrefix = "req"
	TracePrefix   = "trace"
	SpanPrefix    = "span"
)

// RequestID correlates a channel request with its acknowledgement
type RequestID string

// ClientID identifies one channel client instance to the workspace service
type ClientID string

// source draws monotonic ULIDs; the monotonic reader is not safe for
// concurrent use
type source struct {
	mu      sync.Mutex
	entropy io.Reader
}

func newSource(entropy io.Reader) *source {
	return &source{entropy: ulid.Monotonic(entropy, 0)}
}

func (s *source) next(now time.Time) ulid.ULID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), s.entropy)
}

var requests = newSource(rand.Reader)

// NewRequestID returns a fresh request id
func NewRequestID() RequestID {
	return RequestID(RequestPrefix + "_" + requests.next(time.Now()).String())
}

func (r RequestID) String() string { return string(r) }

// NewTraceID returns a fresh trace id
func NewTraceID() string {
	return TracePrefix + "_" + requests.next(time.Now()).String()
}

// NewSpanID returns a fresh span id
func NewSpanID() string {
	return SpanPrefix + "_" + requests.next(time.Now()).String()
}

// Issued returns when the request id was generated
func (r RequestID) Issued() (time.Time, error) {
	rest, ok := strings.CutPrefix(string(r), RequestPrefix+"_")
	if !ok {
		return time.Time{}, fmt.Errorf("request id %q lacks the %s_ prefix", r, RequestPrefix)
	}
	parsed, err := ulid.ParseStrict(rest)
	if err != nil {
		return time.Time{}, fmt.Errorf("request id %q: %w", r, err)
	}
	return ulid.Time(parsed.Time()), nil
}

// NewClientID returns a random client id
func NewClientID() ClientID {
	return ClientID(uuid.NewString())
}

// ParseClientID accepts a client id sent by a peer
func ParseClientID(s string) (ClientID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid client id %q: %w", s, err)
	}
	return ClientID(u.String()), nil
}

func (c ClientID) String() string { return string(c) }
