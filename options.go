package restguard

import (
	"log/slog"
	"time"

	"github.com/markbsigler/restguard/cache"
	"github.com/markbsigler/restguard/metrics"
	"github.com/markbsigler/restguard/policy"
	"github.com/markbsigler/restguard/tracing"
)

// Option configures a Client.
type Option func(*config)

// WithCacheSize bounds the in-process cache to at most n entries.
func WithCacheSize(n int) Option {
	return func(c *config) {
		c.cacheSize = n
	}
}

// WithDefaultTTL sets the cache TTL used when neither the matched policy nor
// the call site specifies one.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.defaultTTL = ttl
	}
}

// WithBackend replaces the client's cache backend wholesale. It overrides
// WithCacheSize, WithDefaultTTL's backend construction, and WithRemote.
func WithBackend(b cache.Backend) Option {
	return func(c *config) {
		c.backend = b
	}
}

// WithRemote adds a remote cache tier backed by store, turning the client's
// cache into a two-tier composition. A nil codec falls back to msgpack; an
// empty namespace to [cache.DefaultNamespace].
func WithRemote(store cache.RemoteStore, codec cache.Codec, namespace string) Option {
	return func(c *config) {
		c.remoteStore = store
		c.remoteCodec = codec
		c.remoteNS = namespace
	}
}

// WithLocalTTLRatio sets the local tier's TTL as a fraction of the remote
// TTL in a two-tier cache. Values outside (0, 1] fall back to
// [cache.DefaultLocalTTLRatio].
func WithLocalTTLRatio(ratio float64) Option {
	return func(c *config) {
		c.localTTLRatio = ratio
	}
}

// WithRateLimit configures the client-wide token bucket: rpm sustained
// requests per minute with the given burst capacity.
func WithRateLimit(rpm float64, burst int) Option {
	return func(c *config) {
		c.rpm = rpm
		c.burst = burst
	}
}

// WithRateLimitWait makes an orchestrated call block until a token is
// available instead of failing fast with a rate-limit envelope.
func WithRateLimitWait() Option {
	return func(c *config) {
		c.waitForToken = true
	}
}

// WithRetry configures the backoff loop: maxAttempts total attempts with an
// exponential delay starting at baseDelay.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *config) {
		c.retryCfg.MaxAttempts = maxAttempts
		c.retryCfg.BaseDelay = baseDelay
	}
}

// WithRetryJitter adds up to ±fraction of randomness to each backoff delay.
func WithRetryJitter(fraction float64) Option {
	return func(c *config) {
		c.retryCfg.Jitter = fraction
	}
}

// WithBreaker configures the per-operation circuit breakers: threshold
// consecutive failures trip a breaker, which stays open for recoveryTimeout
// before admitting a trial request.
func WithBreaker(threshold int, recoveryTimeout time.Duration) Option {
	return func(c *config) {
		c.breakerCfg.FailureThreshold = threshold
		c.breakerCfg.RecoveryTimeout = recoveryTimeout
	}
}

// WithStaleOnError opts every operation into serving a stale cached value
// when the upstream call fails. Finer-grained opt-in is available per policy
// group.
func WithStaleOnError() Option {
	return func(c *config) {
		c.staleOnError = true
	}
}

// WithPolicies installs per-operation-group policies resolved on every call.
func WithPolicies(r *policy.Resolver) Option {
	return func(c *config) {
		c.policies = r
	}
}

// WithMiddleware appends transport middleware, applied in registration
// order around every upstream call.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *config) {
		c.middleware = append(c.middleware, mw...)
	}
}

// WithMetrics injects the metrics recorder the client reports to. Nil means
// no-op.
func WithMetrics(r metrics.Recorder) Option {
	return func(c *config) {
		c.metrics = r
	}
}

// WithLogger injects the structured logger used for retry, breaker and
// degradation events. Absent, the client logs nowhere.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithTracing enables OpenTelemetry spans around orchestrated calls.
func WithTracing(cfg *tracing.Config) Option {
	return func(c *config) {
		c.tracing = cfg
	}
}
