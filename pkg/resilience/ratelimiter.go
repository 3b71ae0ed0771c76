package resilience

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
)

var ErrRateLimited = errors.New("rate limited")

// LimiterOpts configures the token bucket rate limiter.
type LimiterOpts struct {
	// Rate is the number of tokens added per second. Zero or less disables
	// limiting.
	Rate float64
	// Burst is the maximum number of tokens (bucket capacity).
	Burst int
}

// Limiter is a token bucket over golang.org/x/time/rate.
type Limiter struct {
	rl  *rate.Limiter
	now func() time.Time
}

// NewLimiter creates a token bucket rate limiter that starts full.
func NewLimiter(opts LimiterOpts) *Limiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	limit := rate.Limit(opts.Rate)
	if opts.Rate <= 0 {
		limit = rate.Inf
	}
	return &Limiter{rl: rate.NewLimiter(limit, opts.Burst), now: time.Now}
}

// Allow reports whether a token is available and takes it.
func (l *Limiter) Allow() bool {
	return l.rl.AllowN(l.now(), 1)
}

// Call runs f if a token is available, otherwise returns ErrRateLimited
// without calling it.
func (l *Limiter) Call(ctx context.Context, f func(context.Context) error) error {
	if !l.Allow() {
		return ErrRateLimited
	}
	return f(ctx)
}
