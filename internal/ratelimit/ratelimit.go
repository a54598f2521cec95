// Package ratelimit paces outbound requests with golang.org/x/time/rate.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/fd1az/xrpl-liquidity/internal/apperror"
)

// Limiter paces calls to a single upstream.
type Limiter struct {
	name    string
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerMinute with a burst of a tenth of
// that, at least one.
func New(name string, requestsPerMinute int) *Limiter {
	rps := float64(requestsPerMinute) / 60.0
	burst := max(requestsPerMinute/10, 1)
	return NewWithBurst(name, rps, burst)
}

// NewWithBurst creates a limiter with an explicit per-second rate and burst.
// A non-positive rate disables limiting.
func NewWithBurst(name string, requestsPerSecond float64, burst int) *Limiter {
	limit := rate.Limit(requestsPerSecond)
	if requestsPerSecond <= 0 {
		limit = rate.Inf
	}
	return &Limiter{
		name:    name,
		limiter: rate.NewLimiter(limit, max(burst, 1)),
	}
}

// Wait blocks until a request may proceed. It fails with RATE_LIMITED when ctx
// ends first or its deadline leaves no room for the wait.
func (l *Limiter) Wait(ctx context.Context) error {
	if err := l.limiter.Wait(ctx); err != nil {
		return apperror.New(apperror.CodeRateLimited, apperror.WithContext(l.name), apperror.WithCause(err))
	}
	return nil
}

// Allow reports whether a request may proceed now without waiting.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Tokens returns the current number of available tokens.
func (l *Limiter) Tokens() float64 {
	return l.limiter.Tokens()
}

// SetLimit updates the rate limit.
func (l *Limiter) SetLimit(requestsPerMinute int) {
	l.limiter.SetLimit(rate.Limit(float64(requestsPerMinute) / 60.0))
}
