// Package eventloop runs posted functions one at a time on a single
// goroutine. The editor session's state is only touched from inside the
// loop, so channel callbacks, key handlers and front-end commands never
// race.
package eventloop

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/bretbouchard/sandbox/internal/logging"
)

// ErrClosed is returned when work is posted to a closed loop
var ErrClosed = errors.New("event loop closed")

// DefaultBuffer is the queue depth used when New is given zero
const DefaultBuffer = 256

// Loop is a serial executor
type Loop struct {
	queue  chan func()
	done   chan struct{}
	once   sync.Once
	logger *logging.Logger

	// overflow holds work posted while the queue was full. Once it is
	// non-empty every Post appends to it, so order is kept.
	mu       sync.Mutex
	overflow []func()
	wake     chan struct{}
}

// New creates a loop with a queue of the given depth
func New(buffer int, logger *logging.Logger) *Loop {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loop{
		queue:  make(chan func(), buffer),
		done:   make(chan struct{}),
		wake:   make(chan struct{}, 1),
		logger: logger.Component("eventloop"),
	}
}

// Run executes posted functions until ctx is cancelled or Close is called.
// A panicking function is logged and does not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			return ctx.Err()
		case <-l.done:
			return nil
		case fn := <-l.queue:
			l.run(fn)
		case <-l.wake:
			l.drain()
		}
	}
}

// drain runs everything already queued, then the overflow
func (l *Loop) drain() {
	for {
		select {
		case <-l.done:
			return
		case fn := <-l.queue:
			l.run(fn)
			continue
		default:
		}
		break
	}

	l.mu.Lock()
	batch := l.overflow
	l.overflow = nil
	l.mu.Unlock()
	if len(batch) > 0 {
		l.logger.Debug("Draining overflow", zap.Int("functions", len(batch)))
	}

	for _, fn := range batch {
		select {
		case <-l.done:
			return
		default:
		}
		l.run(fn)
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Recovered panic in event loop", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()
	fn()
}

// Post queues fn and reports false if the loop is closed. It never
// blocks, so functions running on the loop may post to it; work beyond
// the queue depth waits in an overflow list.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	l.mu.Lock()
	if len(l.overflow) == 0 {
		select {
		case l.queue <- fn:
			l.mu.Unlock()
			return true
		default:
		}
	}
	l.overflow = append(l.overflow, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// Do runs fn on the loop and waits for it to return. Do must not be called
// from inside the loop.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		// fn may have been the last item run before close
		select {
		case <-finished:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Close stops the loop. Queued functions that have not started are dropped.
func (l *Loop) Close() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed when the loop stops
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
