// Package breaker provides a minimal, thread-safe circuit breaker.
//
// States:
//   - Closed: requests flow normally; consecutive failures are counted.
//   - Open: requests are rejected without touching the upstream; after
//     RecoveryTimeout the next request is admitted as a single trial.
//   - HalfOpen: exactly one trial request is in flight; its success closes
//     the breaker, its failure reopens it.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the current circuit breaker state.
type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// ErrOpen is returned by Do and Run when the breaker rejects a call without
// invoking the protected function.
var ErrOpen = errors.New("circuit breaker is open")

// Config holds the circuit breaker parameters.
type Config struct {
	// FailureThreshold is the number of consecutive failures in Closed state
	// before the breaker trips to Open. Values <= 0 fall back to 5.
	FailureThreshold int

	// RecoveryTimeout is how long the breaker stays Open before admitting
	// a trial request. Values <= 0 fall back to 60s.
	RecoveryTimeout time.Duration
}

// Breaker is a minimal circuit breaker. All methods are safe for concurrent
// use. Breakers are independent; construct one per protected call path.
type Breaker struct {
	mu sync.Mutex

	cfg Config

	state       State
	failures    int  // consecutive failures
	trialActive bool // a HalfOpen trial is in flight
	lastFailure time.Time
	nowFunc     func() time.Time // for testing; defaults to time.Now
}

// New creates a Breaker with the given configuration.
func New(cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = 60 * time.Second
	}
	return &Breaker{
		cfg:     cfg,
		state:   Closed,
		nowFunc: time.Now,
	}
}

// State returns the current state of the breaker.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FailureCount returns the current consecutive-failure count.
func (b *Breaker) FailureCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// Allow reports whether a request is allowed through. It returns true when
// the breaker is Closed. In Open state it returns false until RecoveryTimeout
// has elapsed since the last failure; the first call after that becomes the
// HalfOpen trial. While a trial is in flight every other request is rejected.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		return true
	case Open:
		if b.now().Sub(b.lastFailure) >= b.cfg.RecoveryTimeout {
			b.state = HalfOpen
			b.trialActive = true
			return true
		}
		return false
	default: // HalfOpen
		if b.trialActive {
			return false
		}
		b.trialActive = true
		return true
	}
}

// OnSuccess records a successful request. A successful HalfOpen trial closes
// the breaker and resets the failure count.
func (b *Breaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures = 0
	case HalfOpen:
		b.state = Closed
		b.failures = 0
		b.trialActive = false
	}
}

// OnFailure records a failed request. In Closed state reaching the threshold
// trips the breaker; a failed HalfOpen trial reopens it and restarts the
// recovery window.
func (b *Breaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Closed:
		b.failures++
		if b.failures >= b.cfg.FailureThreshold {
			b.toOpen()
		}
	case HalfOpen:
		b.failures++
		b.toOpen()
	}
}

// Do runs fn under the breaker. When the breaker rejects the call it returns
// ErrOpen without invoking fn; otherwise fn's outcome is recorded.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if !b.Allow() {
		return ErrOpen
	}
	err := fn(ctx)
	if err != nil {
		b.OnFailure()
	} else {
		b.OnSuccess()
	}
	return err
}

// Run is the generic counterpart of [Breaker.Do] for calls that produce a value.
func Run[T any](ctx context.Context, b *Breaker, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if !b.Allow() {
		return zero, ErrOpen
	}
	v, err := fn(ctx)
	if err != nil {
		b.OnFailure()
		return zero, err
	}
	b.OnSuccess()
	return v, nil
}

// toOpen trips the breaker. Must be called with b.mu held.
func (b *Breaker) toOpen() {
	b.state = Open
	b.lastFailure = b.now()
	b.trialActive = false
}

func (b *Breaker) now() time.Time {
	if b.nowFunc != nil {
		return b.nowFunc()
	}
	return time.Now()
}
