// Package resilience provides the rate limiter that throttles profile
// searches and the circuit breaker that guards event publishing.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is a circuit breaker state.
type State int

const (
	StateClosed   State = iota // normal operation
	StateOpen                  // rejecting calls
	StateHalfOpen              // allowing probe calls
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerOpts configures the circuit breaker.
type BreakerOpts struct {
	// FailThreshold is how many consecutive failures trip the breaker.
	FailThreshold int
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// HalfOpenMax is the number of probe calls allowed while half-open.
	HalfOpenMax int
	// OnStateChange, if set, is called after every transition. It runs
	// with the breaker unlocked.
	OnStateChange func(from, to State)
}

// DefaultBreakerOpts provides sensible defaults.
var DefaultBreakerOpts = BreakerOpts{
	FailThreshold: 5,
	Timeout:       30 * time.Second,
	HalfOpenMax:   1,
}

// Breaker implements a circuit breaker with closed/open/half-open states.
type Breaker struct {
	mu        sync.Mutex
	opts      BreakerOpts
	state     State
	failures  int
	openedAt  time.Time
	probes    int
	now       func() time.Time
	pending   []transition
	notifying sync.Mutex
}

type transition struct{ from, to State }

// NewBreaker creates a circuit breaker with the given options.
func NewBreaker(opts BreakerOpts) *Breaker {
	if opts.FailThreshold <= 0 {
		opts.FailThreshold = DefaultBreakerOpts.FailThreshold
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBreakerOpts.Timeout
	}
	if opts.HalfOpenMax <= 0 {
		opts.HalfOpenMax = DefaultBreakerOpts.HalfOpenMax
	}
	return &Breaker{opts: opts, now: time.Now}
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	st := b.currentState()
	b.mu.Unlock()
	b.notify()
	return st
}

// Call executes f through the circuit breaker. While open, f is not called
// and ErrCircuitOpen is returned.
func (b *Breaker) Call(ctx context.Context, f func(context.Context) error) error {
	defer b.notify()

	b.mu.Lock()
	switch b.currentState() {
	case StateOpen:
		b.mu.Unlock()
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.probes >= b.opts.HalfOpenMax {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.probes++
	}
	b.mu.Unlock()

	err := f(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		if b.state == StateHalfOpen || b.failures >= b.opts.FailThreshold {
			b.setState(StateOpen)
			b.openedAt = b.now()
		}
		return err
	}
	if b.state == StateHalfOpen {
		b.setState(StateClosed)
	}
	b.failures = 0
	return nil
}

// currentState moves open to half-open once the timeout elapsed. Must hold mu.
func (b *Breaker) currentState() State {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.opts.Timeout {
		b.setState(StateHalfOpen)
	}
	return b.state
}

// setState records a transition for notify. Must hold mu.
func (b *Breaker) setState(to State) {
	if b.state == to {
		return
	}
	if b.opts.OnStateChange != nil {
		b.pending = append(b.pending, transition{b.state, to})
	}
	b.state = to
	b.failures = 0
	b.probes = 0
}

func (b *Breaker) notify() {
	if b.opts.OnStateChange == nil {
		return
	}
	b.notifying.Lock()
	defer b.notifying.Unlock()

	b.mu.Lock()
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, tr := range pending {
		b.opts.OnStateChange(tr.from, tr.to)
	}
}
