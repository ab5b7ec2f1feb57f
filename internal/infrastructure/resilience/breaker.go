package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned without running the call while the breaker is open,
// or while half-open with every probe slot taken.
var ErrOpen = errors.New("circuit breaker is open")

// State is the breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero values select the defaults.
type Settings struct {
	// Failures in a row that open the breaker (default 5)
	Failures uint32
	// Cooldown before an open breaker lets probes through (default 30s)
	Cooldown time.Duration
	// Probes that must succeed while half-open to close again (default 1)
	Probes uint32
	// OnStateChange is called with the breaker's lock held
	OnStateChange func(from, to State)
	Now           func() time.Time
}

// Breaker fails calls fast once the guarded peer has failed Failures times
// in a row. After Cooldown it admits Probes calls; if they all succeed it
// closes, and any probe failure reopens it.
type Breaker struct {
	settings Settings

	mu       sync.Mutex
	state    State
	streak   uint32 // consecutive failures while closed, successes while half-open
	inflight uint32 // admitted probes while half-open
	openedAt time.Time
}

// New creates a closed breaker
func New(settings Settings) *Breaker {
	if settings.Failures == 0 {
		settings.Failures = 5
	}
	if settings.Cooldown <= 0 {
		settings.Cooldown = 30 * time.Second
	}
	if settings.Probes == 0 {
		settings.Probes = 1
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}
	return &Breaker{settings: settings}
}

// State returns the current state, moving an open breaker whose cooldown
// has passed to half-open
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()
	return b.state
}

// Failures returns the current run of consecutive failures
func (b *Breaker) Failures() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateClosed {
		return b.settings.Failures
	}
	return b.streak
}

// Reset closes the breaker, as after a fresh connection to the peer
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.transition(StateClosed)
}

// Do runs fn unless the breaker rejects the call with ErrOpen. fn's error
// is returned as is; any non-nil error counts as a failure.
func (b *Breaker) Do(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}

	ok := false
	defer func() { b.record(probe, ok) }()

	err = fn()
	ok = err == nil
	return err
}

func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refresh()

	switch b.state {
	case StateOpen:
		return false, ErrOpen
	case StateHalfOpen:
		if b.inflight >= b.settings.Probes {
			return false, ErrOpen
		}
		b.inflight++
		return true, nil
	}
	return false, nil
}

func (b *Breaker) record(probe, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case probe && b.state != StateHalfOpen:
		// a Reset or another probe already decided the state
	case probe && !ok:
		b.transition(StateOpen)
	case probe:
		b.streak++
		if b.streak >= b.settings.Probes {
			b.transition(StateClosed)
		}
	case b.state != StateClosed:
	case ok:
		b.streak = 0
	default:
		b.streak++
		if b.streak >= b.settings.Failures {
			b.transition(StateOpen)
		}
	}
}

// refresh moves open to half-open once the cooldown has passed. Callers
// hold mu.
func (b *Breaker) refresh() {
	if b.state == StateOpen && !b.settings.Now().Before(b.openedAt.Add(b.settings.Cooldown)) {
		b.transition(StateHalfOpen)
	}
}

// transition enters state with fresh counters. Callers hold mu.
func (b *Breaker) transition(state State) {
	prev := b.state
	b.state = state
	b.streak = 0
	b.inflight = 0
	if state == StateOpen {
		b.openedAt = b.settings.Now()
	}
	if prev != state && b.settings.OnStateChange != nil {
		b.settings.OnStateChange(prev, state)
	}
}
