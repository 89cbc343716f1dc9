package restguard

import "time"

// Recommended production values, applied by New when the corresponding
// option is absent.
const (
	DefaultCacheSize         = 1000
	DefaultTTL               = 5 * time.Minute
	DefaultRequestsPerMinute = 300
	DefaultBurst             = 10
	DefaultMaxAttempts       = 3
	DefaultBaseDelay         = time.Second
	DefaultFailureThreshold  = 5
	DefaultRecoveryTimeout   = 60 * time.Second
)

// DefaultOptions returns the recommended set of options for production use:
// a bounded local cache, a modest client-wide rate limit, three attempts
// with exponential backoff, and per-operation circuit breakers.
func DefaultOptions() []Option {
	return []Option{
		WithCacheSize(DefaultCacheSize),
		WithDefaultTTL(DefaultTTL),
		WithRateLimit(DefaultRequestsPerMinute, DefaultBurst),
		WithRetry(DefaultMaxAttempts, DefaultBaseDelay),
		WithBreaker(DefaultFailureThreshold, DefaultRecoveryTimeout),
	}
}
