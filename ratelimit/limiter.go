// Package ratelimit provides a token-bucket rate limiter backed by
// golang.org/x/time/rate for gating requests against an upstream API.
//
// Capacity is expressed in requests per minute to match how most REST APIs
// publish their quotas. Tokens refill continuously (rpm/60 per second) and
// are computed lazily on each call, so the limiter stays correct across
// arbitrary gaps between calls. Tokens are fractional internally; only whole
// tokens are spent.
package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// Limiter wraps a token-bucket limiter that decides whether an outgoing
// request may proceed, and counts the outcomes.
type Limiter struct {
	lim *rate.Limiter
	rpm float64

	total    atomic.Uint64
	rejected atomic.Uint64
}

// Stats is a point-in-time snapshot of the limiter.
type Stats struct {
	Tokens           float64 `json:"tokens"`
	Capacity         int     `json:"capacity"`
	RequestsPerMin   float64 `json:"requests_per_minute"`
	TotalRequests    uint64  `json:"total_requests"`
	RejectedRequests uint64  `json:"rejected_requests"`
	SuccessRate      float64 `json:"success_rate"`
	RejectionRate    float64 `json:"rejection_rate"`
}

// NewLimiter creates a Limiter that permits rpm requests per minute with the
// given burst capacity. rpm values <= 0 fall back to 60; burst values <= 0
// fall back to a full minute's worth of tokens.
func NewLimiter(rpm float64, burst int) *Limiter {
	if rpm <= 0 {
		rpm = 60
	}
	if burst <= 0 {
		burst = max(int(rpm), 1)
	}
	return &Limiter{
		lim: rate.NewLimiter(rate.Limit(rpm/60), burst),
		rpm: rpm,
	}
}

// Allow reports whether a single request may proceed right now. It never
// blocks; a false return means the bucket held less than one whole token.
func (l *Limiter) Allow() bool {
	l.total.Add(1)
	if l.lim.Allow() {
		return true
	}
	l.rejected.Add(1)
	return false
}

// Wait blocks until a token is available or ctx is done. A cancelled wait
// counts as a rejection.
func (l *Limiter) Wait(ctx context.Context) error {
	l.total.Add(1)
	if err := l.lim.Wait(ctx); err != nil {
		l.rejected.Add(1)
		return err
	}
	return nil
}

// Tokens returns the number of tokens currently in the bucket. The value is
// fractional: it advances continuously between requests.
func (l *Limiter) Tokens() float64 {
	return l.lim.Tokens()
}

// TimeUntilNextToken returns zero when a whole token is already available,
// otherwise the refill interval for a single token (60/rpm seconds).
func (l *Limiter) TimeUntilNextToken() time.Duration {
	if l.lim.Tokens() >= 1 {
		return 0
	}
	return time.Duration(60 / l.rpm * float64(time.Second))
}

// Stats returns a snapshot of the limiter's counters and current tokens.
func (l *Limiter) Stats() Stats {
	total := l.total.Load()
	rejected := l.rejected.Load()

	s := Stats{
		Tokens:           l.lim.Tokens(),
		Capacity:         l.lim.Burst(),
		RequestsPerMin:   l.rpm,
		TotalRequests:    total,
		RejectedRequests: rejected,
	}
	if total > 0 {
		s.SuccessRate = float64(total-rejected) / float64(total)
		s.RejectionRate = float64(rejected) / float64(total)
	}
	return s
}
