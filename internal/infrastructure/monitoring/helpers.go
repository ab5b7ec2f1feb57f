package monitoring

import "time"

// Timer measures a channel request from first send to completion
type Timer struct {
	start   time.Time
	metrics *Metrics
	event   string
}

// NewTimer creates a new timer. A nil metrics yields a timer that records
// nothing.
func NewTimer(metrics *Metrics, event string) *Timer {
	return &Timer{
		start:   time.Now(),
		metrics: metrics,
		event:   event,
	}
}

// Elapsed returns the time since the timer started
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop records the request with the given outcome
func (t *Timer) Stop(outcome string) {
	t.metrics.RecordChannelRequest(t.event, outcome, time.Since(t.start))
}
