package retry

import (
	"context"
	"time"

	"github.com/markbsigler/restguard/apierr"
)

// Config controls the retry behaviour of [Do].
type Config struct {
	// MaxAttempts is the maximum number of times fn is called (including the
	// first attempt). Values <= 1 mean no retries.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Subsequent retries use
	// exponential back-off: BaseDelay * 2^attempt.
	BaseDelay time.Duration

	// MaxDelay caps the computed back-off delay. Zero means no cap.
	MaxDelay time.Duration

	// Jitter adds randomness to the delay. A value of 0.2 means +-20% of
	// the computed delay. Zero disables jitter.
	Jitter float64

	// Retryable decides whether an error is worth another attempt. Nil
	// falls back to [apierr.ShouldRetry], which admits timeouts, connection
	// failures and HTTP 500/502/503/504.
	Retryable func(error) bool
}

func (cfg Config) retryable(err error) bool {
	if cfg.Retryable != nil {
		return cfg.Retryable(err)
	}
	return apierr.ShouldRetry(err)
}

// Do calls fn up to cfg.MaxAttempts times, retrying only while the returned
// error is considered retryable. Between attempts an exponential back-off
// delay (with optional jitter) is applied.
//
// The context is checked before every retry; if ctx is done the function
// returns immediately with the context error.
func Do[T any](ctx context.Context, cfg Config, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(cfg.MaxAttempts, 1)

	for i := range attempts {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}

		// Last attempt — return immediately regardless of kind.
		if i == attempts-1 {
			return zero, err
		}

		if !cfg.retryable(err) {
			return zero, err
		}

		// Wait with back-off, but respect context cancellation.
		timer := time.NewTimer(Delay(cfg, i))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	// Unreachable, but keeps the compiler happy.
	return zero, nil
}
