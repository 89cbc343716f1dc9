// Package retry provides a generic retry helper with exponential backoff and
// jitter for use around upstream API calls. It is policy-free: callers decide
// which errors are retryable via the Config predicate.
package retry

import (
	"math"
	"math/rand"
	"time"
)

// Delay returns the back-off delay for the given attempt (0-indexed):
// BaseDelay * 2^attempt with optional jitter, capped at MaxDelay when set.
func Delay(cfg Config, attempt int) time.Duration {
	delay := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
	if max := float64(cfg.MaxDelay); max > 0 && delay > max {
		delay = max
	}
	if cfg.Jitter > 0 {
		// jitter adds up to +-Jitter fraction of the delay.
		delay += delay * cfg.Jitter * (rand.Float64()*2 - 1)
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}
