package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errWrite = errors.New("write failed")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func fail() error    { return errWrite }
func succeed() error { return nil }

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		calls         []bool // true = success, false = failure
		expectedState State
		failures      uint32
	}{
		{"stays closed on successes", []bool{true, true, true}, StateClosed, 0},
		{"opens after consecutive failures", []bool{false, false, false}, StateOpen, 3},
		{"success resets the streak", []bool{false, false, true, false, false}, StateClosed, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newClock()
			breaker := New(Settings{Failures: 3, Cooldown: time.Minute, Now: clock.Now})

			for _, ok := range tt.calls {
				fn := fail
				if ok {
					fn = succeed
				}
				_ = breaker.Do(fn)
			}

			assert.Equal(t, tt.expectedState, breaker.State())
			assert.Equal(t, tt.failures, breaker.Failures())
		})
	}
}

func TestBreakerOpenFailsFast(t *testing.T) {
	breaker := New(Settings{Failures: 2, Cooldown: time.Minute})

	assert.ErrorIs(t, breaker.Do(fail), errWrite)
	assert.ErrorIs(t, breaker.Do(fail), errWrite)
	require.Equal(t, StateOpen, breaker.State())

	ran := false
	err := breaker.Do(func() error {
		ran = true
		return nil
	})

	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, ran)
}

func TestBreakerHalfOpenProbes(t *testing.T) {
	clock := newClock()
	breaker := New(Settings{Failures: 2, Probes: 2, Cooldown: 50 * time.Millisecond, Now: clock.Now})

	_ = breaker.Do(fail)
	_ = breaker.Do(fail)
	assert.Equal(t, StateOpen, breaker.State())

	clock.Advance(60 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, breaker.State())

	require.NoError(t, breaker.Do(succeed))
	assert.Equal(t, StateHalfOpen, breaker.State())
	require.NoError(t, breaker.Do(succeed))
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenLimitsProbes(t *testing.T) {
	clock := newClock()
	breaker := New(Settings{Failures: 1, Cooldown: time.Second, Now: clock.Now})

	_ = breaker.Do(fail)
	clock.Advance(time.Second)

	// the single probe slot is taken while the first probe runs
	err := breaker.Do(func() error {
		assert.ErrorIs(t, breaker.Do(succeed), ErrOpen)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StateClosed, breaker.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	clock := newClock()
	breaker := New(Settings{Failures: 1, Cooldown: time.Second, Now: clock.Now})

	_ = breaker.Do(fail)
	clock.Advance(2 * time.Second)
	require.Equal(t, StateHalfOpen, breaker.State())

	_ = breaker.Do(fail)
	assert.Equal(t, StateOpen, breaker.State())

	// the cooldown restarts from the failed probe
	clock.Advance(500 * time.Millisecond)
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerReset(t *testing.T) {
	breaker := New(Settings{Failures: 1, Cooldown: time.Hour})

	_ = breaker.Do(fail)
	require.Equal(t, StateOpen, breaker.State())

	breaker.Reset()
	assert.Equal(t, StateClosed, breaker.State())
	assert.NoError(t, breaker.Do(succeed))
}

func TestBreakerRecordsPanicsAsFailures(t *testing.T) {
	breaker := New(Settings{Failures: 1, Cooldown: time.Hour})

	assert.Panics(t, func() {
		_ = breaker.Do(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, breaker.State())
}

func TestBreakerCallbacks(t *testing.T) {
	clock := newClock()
	var transitions []string

	breaker := New(Settings{
		Failures: 2,
		Cooldown: 10 * time.Millisecond,
		Now:      clock.Now,
		OnStateChange: func(from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = breaker.Do(fail)
	_ = breaker.Do(fail)
	clock.Advance(20 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, breaker.State())

	_ = breaker.Do(succeed)
	assert.Equal(t, []string{"closed->open", "open->half-open", "half-open->closed"}, transitions)
}
