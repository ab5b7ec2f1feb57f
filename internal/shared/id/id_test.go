package id

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDShape(t *testing.T) {
	a, b := NewRequestID(), NewRequestID()

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a.String(), "req_"))
	assert.Len(t, a.String(), len("req_")+26)
	// monotonic within a millisecond too
	assert.Greater(t, b.String(), a.String())
}

func TestRequestIDIssued(t *testing.T) {
	before := time.Now().UnixMilli()
	reqID := NewRequestID()
	after := time.Now().UnixMilli()

	issued, err := reqID.Issued()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, issued.UnixMilli(), before)
	assert.LessOrEqual(t, issued.UnixMilli(), after)

	for _, bad := range []RequestID{"", "req_nope", "01ARZ3NDEKTSV4RRFFQ69G5FAV", "sess_01ARZ3NDEKTSV4RRFFQ69G5FAV"} {
		_, err := bad.Issued()
		assert.Error(t, err, string(bad))
	}
}

func TestSourceIsDeterministicForFixedEntropy(t *testing.T) {
	now := time.UnixMilli(1_700_000_000_000)
	a := newSource(bytes.NewReader(make([]byte, 64))).next(now)
	b := newSource(bytes.NewReader(make([]byte, 64))).next(now)
	assert.Equal(t, a, b)
	assert.Equal(t, uint64(now.UnixMilli()), a.Time())
}

func TestConcurrentRequestIDs(t *testing.T) {
	const goroutines = 50
	const perGoroutine = 100

	var wg sync.WaitGroup
	ids := make(chan RequestID, goroutines*perGoroutine)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				ids <- NewRequestID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[RequestID]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*perGoroutine)
}

func TestTraceAndSpanIDs(t *testing.T) {
	trace, span := NewTraceID(), NewSpanID()

	assert.True(t, strings.HasPrefix(trace, "trace_"))
	assert.True(t, strings.HasPrefix(span, "span_"))
	assert.NotEqual(t, strings.TrimPrefix(trace, "trace_"), strings.TrimPrefix(span, "span_"))
}

func TestClientID(t *testing.T) {
	c := NewClientID()
	assert.NotEqual(t, c, NewClientID())

	parsed, err := ParseClientID(strings.ToUpper(c.String()))
	require.NoError(t, err)
	assert.Equal(t, c, parsed)

	_, err = ParseClientID("not-a-uuid")
	assert.Error(t, err)
}
