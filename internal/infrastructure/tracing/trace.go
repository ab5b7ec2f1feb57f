package tracing

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/bretbouchard/sandbox/internal/logging"
	"github.com/bretbouchard/sandbox/internal/shared/id"
)

// Propagation headers
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// DefaultBuffer is the collector queue length used when none is given
const DefaultBuffer = 1024

// Span is one timed operation within a trace
type Span struct {
	TraceID  string
	SpanID   string
	ParentID string
	Name     string
	Start    time.Time
	Duration time.Duration
	Status   int
	Err      error

	mu   sync.Mutex
	tags map[string]string
}

// Tag attaches a key/value pair to the span
func (s *Span) Tag(key, value string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.tags[key] = value
	s.mu.Unlock()
}

// Tags returns a copy of the span's tags
func (s *Span) Tags() map[string]string {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.tags))
	for k, v := range s.tags {
		out[k] = v
	}
	return out
}

// Fail marks the span as failed
func (s *Span) Fail(err error) {
	if s == nil || err == nil {
		return
	}
	s.Err = err
	if s.Status < http.StatusBadRequest {
		s.Status = http.StatusInternalServerError
	}
}

// Tracer starts spans and logs them once finished
type Tracer struct {
	service string
	logger  *logging.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	spans  chan *Span
	done   chan struct{}

	finished atomic.Int64
	dropped  atomic.Int64
}

// New creates a tracer for service and starts its collector. A buffer
// below one uses DefaultBuffer.
func New(service string, buffer int, logger *logging.Logger) *Tracer {
	if logger == nil {
		logger = logging.NewNop()
	}
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	t := &Tracer{
		service: service,
		logger:  logger.Component("tracing"),
		now:     time.Now,
		spans:   make(chan *Span, buffer),
		done:    make(chan struct{}),
	}
	go t.collect()
	return t
}

// Start opens a span named name. It joins the trace carried by ctx, or
// begins a new one, and returns a context carrying the new span.
func (t *Tracer) Start(ctx context.Context, name string) (*Span, context.Context) {
	if t == nil {
		return nil, ctx
	}
	traceID := TraceID(ctx)
	if traceID == "" {
		traceID = id.NewTraceID()
	}
	span := &Span{
		TraceID:  traceID,
		SpanID:   id.NewSpanID(),
		ParentID: SpanID(ctx),
		Name:     name,
		Start:    t.now(),
		tags:     map[string]string{"service": t.service},
	}
	return span, withIDs(ctx, traceID, span.SpanID)
}

// Finish ends span and queues it for logging. Spans finished after Close,
// or while the queue is full, are dropped.
func (t *Tracer) Finish(span *Span) {
	if t == nil || span == nil {
		return
	}
	span.Duration = t.now().Sub(span.Start)

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		t.dropped.Add(1)
		return
	}
	select {
	case t.spans <- span:
	default:
		t.dropped.Add(1)
		t.logger.Warn("Span buffer full, dropping span",
			zap.String("trace_id", span.TraceID),
			zap.String("operation", span.Name),
		)
	}
}

// Close stops accepting spans and waits for queued ones to be logged
func (t *Tracer) Close() {
	if t == nil {
		return
	}
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.spans)
	t.mu.Unlock()
	<-t.done
}

// Finished returns how many spans were logged
func (t *Tracer) Finished() int64 {
	if t == nil {
		return 0
	}
	return t.finished.Load()
}

// Dropped returns how many spans were discarded
func (t *Tracer) Dropped() int64 {
	if t == nil {
		return 0
	}
	return t.dropped.Load()
}

func (t *Tracer) collect() {
	defer close(t.done)
	for span := range t.spans {
		t.log(span)
		t.finished.Add(1)
	}
}

func (t *Tracer) log(span *Span) {
	fields := []zap.Field{
		zap.String("trace_id", span.TraceID),
		zap.String("span_id", span.SpanID),
		zap.String("operation", span.Name),
		zap.Duration("duration", span.Duration),
	}
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", span.ParentID))
	}
	if span.Status != 0 {
		fields = append(fields, zap.Int("status", span.Status))
	}
	for k, v := range span.Tags() {
		fields = append(fields, zap.String(k, v))
	}

	if span.Err != nil {
		t.logger.Warn("Span failed", append(fields, zap.Error(span.Err))...)
		return
	}
	t.logger.Debug("Span finished", fields...)
}

type contextKey int

const (
	traceIDKey contextKey = iota
	spanIDKey
)

func withIDs(ctx context.Context, traceID, spanID string) context.Context {
	ctx = context.WithValue(ctx, traceIDKey, traceID)
	return context.WithValue(ctx, spanIDKey, spanID)
}

// TraceID returns the trace id carried by ctx, or ""
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(traceIDKey).(string)
	return v
}

// SpanID returns the current span id carried by ctx, or ""
func SpanID(ctx context.Context) string {
	v, _ := ctx.Value(spanIDKey).(string)
	return v
}

// Ensure returns ctx unchanged if it carries a trace, or with a new trace
// id otherwise
func Ensure(ctx context.Context) context.Context {
	if TraceID(ctx) != "" {
		return ctx
	}
	return withIDs(ctx, id.NewTraceID(), "")
}

// Extract joins the trace named in the request headers, if any
func Extract(ctx context.Context, h http.Header) context.Context {
	traceID := h.Get(HeaderTraceID)
	if traceID == "" {
		return ctx
	}
	return withIDs(ctx, traceID, h.Get(HeaderSpanID))
}

// Inject writes the trace context of ctx into h
func Inject(ctx context.Context, h http.Header) {
	if traceID := TraceID(ctx); traceID != "" {
		h.Set(HeaderTraceID, traceID)
	}
	if spanID := SpanID(ctx); spanID != "" {
		h.Set(HeaderSpanID, spanID)
	}
}
