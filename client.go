package restguard

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/markbsigler/restguard/apierr"
	"github.com/markbsigler/restguard/cache"
	"github.com/markbsigler/restguard/contextx"
	"github.com/markbsigler/restguard/metrics"
	"github.com/markbsigler/restguard/policy"
	"github.com/markbsigler/restguard/ratelimit"
	"github.com/markbsigler/restguard/recovery"
	"github.com/markbsigler/restguard/tracing"
)

// Client orchestrates calls against a remote REST API: reads are served from
// the cache when possible, every upstream call passes the rate limiter, and
// failures go through classification, retry with backoff, and a circuit
// breaker per operation. Construct one Client per upstream API.
//
//	client := restguard.New(transport,
//		restguard.WithCacheSize(500),
//		restguard.WithRateLimit(120, 10),
//	)
//	body, err := client.Fetch(ctx, "get_assignments", "/assignments",
//		cache.P("srid", "X"))
type Client struct {
	transport TransportFunc
	backend   cache.Backend
	limiter   *ratelimit.Limiter
	handler   *recovery.Handler
	metrics   metrics.Recorder
	logger    *slog.Logger
	tracing   *tracing.Config
	policies  *policy.Resolver

	defaultTTL   time.Duration
	staleOnError bool
	waitForToken bool

	mu            sync.Mutex
	groupLimiters map[string]*ratelimit.Limiter
}

// New creates a Client around transport by applying the supplied functional
// [Option] values, filling everything left unset with the defaults from
// DefaultOptions.
func New(transport Transport, opts ...Option) *Client {
	cfg := &config{}
	for _, opt := range append(DefaultOptions(), opts...) {
		opt(cfg)
	}

	if cfg.metrics == nil {
		cfg.metrics = metrics.Noop{}
	}

	backend := cfg.backend
	if backend == nil {
		local := cache.NewLocal(cfg.cacheSize, cfg.defaultTTL)
		if cfg.remoteStore != nil {
			remote := cache.NewRemote(cfg.remoteStore, cfg.remoteNS, cfg.remoteCodec)
			backend = cache.NewTiered(local, remote, cfg.localTTLRatio)
		} else {
			backend = local
		}
	}

	handler := recovery.NewHandler(recovery.Config{
		Retry:   cfg.retryCfg,
		Breaker: cfg.breakerCfg,
		Metrics: cfg.metrics,
		Logger:  cfg.logger,
	})

	return &Client{
		transport:     Wrap(transport.Perform, cfg.middleware...),
		backend:       backend,
		limiter:       ratelimit.NewLimiter(cfg.rpm, cfg.burst),
		handler:       handler,
		metrics:       cfg.metrics,
		logger:        cfg.logger,
		tracing:       cfg.tracing,
		policies:      cfg.policies,
		defaultTTL:    cfg.defaultTTL,
		staleOnError:  cfg.staleOnError,
		waitForToken:  cfg.waitForToken,
		groupLimiters: make(map[string]*ratelimit.Limiter),
	}
}

// Fetch performs a cached read for the named operation. The cache key is
// derived from the operation name and params; a hit returns immediately
// without touching the upstream. On a miss the call passes the rate limiter,
// goes to the transport under the recovery policy, and on success is written
// through to the cache with the operation's TTL. When stale-on-error is
// enabled (client-wide or via the matched policy group) a still-held stale
// copy is served instead of the error envelope.
func (c *Client) Fetch(ctx context.Context, operation, path string, params ...cache.Param) (v []byte, err error) {
	ctx = c.prepare(ctx, operation)
	ctx, end := c.tracing.StartOperation(ctx, operation)
	defer func() { end(err) }()

	group, pol, matched := c.resolve(operation)
	if matched {
		ctx = contextx.WithGroup(ctx, group)
	}

	key := cache.Key(operation, params...)

	// Capture the stale candidate before the regular lookup: Get evicts
	// expired entries as a side effect, which would take the fallback copy
	// with it.
	var stale []byte
	var haveStale bool
	if c.staleAllowed(pol) {
		if sr, ok := c.backend.(cache.StaleReader); ok {
			stale, haveStale = sr.GetStale(ctx, key)
		}
	}

	if cached, ok, _ := c.backend.Get(ctx, key); ok {
		c.metrics.RecordCacheOperation(operation, true)
		tracing.AddEvent(ctx, "cache_hit")
		return cached, nil
	}
	c.metrics.RecordCacheOperation(operation, false)

	if err = c.gate(ctx, operation, c.limiterFor(group, pol)); err != nil {
		return nil, err
	}

	v, err = recovery.Execute(ctx, c.handler, operation, func(ctx context.Context) ([]byte, error) {
		return c.transport(ctx, http.MethodGet, path, nil)
	})
	if err == nil {
		_ = c.backend.Set(ctx, key, v, c.ttlFor(pol))
		return v, nil
	}

	if haveStale {
		if c.logger != nil {
			c.logger.Info("serving stale cache value",
				"operation", operation,
				"error", err)
		}
		tracing.AddEvent(ctx, "stale_serve")
		return stale, nil
	}
	return nil, err
}

// Execute performs a write operation. Writes bypass the cache entirely but
// still pass the rate limiter and the recovery policy. Callers invalidate
// read keys affected by the write via [Client.Invalidate].
func (c *Client) Execute(ctx context.Context, operation, method, path string, body []byte) (v []byte, err error) {
	ctx = c.prepare(ctx, operation)
	ctx, end := c.tracing.StartOperation(ctx, operation)
	defer func() { end(err) }()

	group, pol, matched := c.resolve(operation)
	if matched {
		ctx = contextx.WithGroup(ctx, group)
	}

	if err = c.gate(ctx, operation, c.limiterFor(group, pol)); err != nil {
		return nil, err
	}

	return recovery.Execute(ctx, c.handler, operation, func(ctx context.Context) ([]byte, error) {
		return c.transport(ctx, method, path, body)
	})
}

// Invalidate removes the cached value for an operation and its params,
// reporting whether an entry was removed.
func (c *Client) Invalidate(ctx context.Context, operation string, params ...cache.Param) (bool, error) {
	return c.backend.Delete(ctx, cache.Key(operation, params...))
}

// ClearCache empties the client's cache backend.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.backend.Clear(ctx)
}

// Backend exposes the client's cache backend for direct inspection, sweeps,
// and warm-up writes.
func (c *Client) Backend() cache.Backend {
	return c.backend
}

// CacheStats returns the cache backend's counters.
func (c *Client) CacheStats(ctx context.Context) (cache.Stats, error) {
	return c.backend.Stats(ctx)
}

// RateLimitStats returns the client-wide limiter's counters.
func (c *Client) RateLimitStats() ratelimit.Stats {
	return c.limiter.Stats()
}

// BreakerState reports the circuit breaker state for an operation.
// Operations never executed report closed.
func (c *Client) BreakerState(operation string) string {
	return c.handler.BreakerState(operation).String()
}

// prepare stamps a request ID (when the caller didn't provide one) and the
// operation name into ctx for log, metric and trace correlation.
func (c *Client) prepare(ctx context.Context, operation string) context.Context {
	if contextx.RequestIDFromContext(ctx) == "" {
		ctx = contextx.WithRequestID(ctx, contextx.NewRequestID())
	}
	return contextx.WithOperation(ctx, operation)
}

// resolve looks the operation up in the policy resolver, when one is
// configured.
func (c *Client) resolve(operation string) (string, *policy.Policy, bool) {
	if c.policies == nil {
		return "", nil, false
	}
	return c.policies.Resolve(operation)
}

// ttlFor picks the write-through TTL: the matched policy's TTL when set,
// the client default otherwise.
func (c *Client) ttlFor(pol *policy.Policy) time.Duration {
	if pol != nil && pol.TTL > 0 {
		return pol.TTL
	}
	return c.defaultTTL
}

func (c *Client) staleAllowed(pol *policy.Policy) bool {
	return c.staleOnError || (pol != nil && pol.StaleOnError)
}

// limiterFor returns the token bucket gating the operation: the group's own
// bucket when its policy carries a rate limit, the client-wide one
// otherwise. Group limiters are created lazily on first use.
func (c *Client) limiterFor(group string, pol *policy.Policy) *ratelimit.Limiter {
	if pol == nil || pol.RateLimit == nil {
		return c.limiter
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	l, ok := c.groupLimiters[group]
	if !ok {
		l = ratelimit.NewLimiter(pol.RateLimit.RequestsPerMinute, pol.RateLimit.Burst)
		c.groupLimiters[group] = l
	}
	return l
}

// gate acquires a token from lim, either blocking or failing fast depending
// on configuration. A fail-fast rejection comes back as a rate-limit
// envelope carrying the time until the next token.
func (c *Client) gate(ctx context.Context, operation string, lim *ratelimit.Limiter) error {
	if c.waitForToken {
		if err := lim.Wait(ctx); err != nil {
			return apierr.NewEnvelope(operation, err, 0)
		}
		return nil
	}

	if lim.Allow() {
		return nil
	}
	c.metrics.RecordError(operation, string(apierr.KindRateLimit))
	return &apierr.Envelope{
		IsError:    true,
		Kind:       apierr.KindRateLimit,
		Message:    "client-side rate limit exceeded",
		Operation:  operation,
		Timestamp:  time.Now().UTC(),
		RetryAfter: lim.TimeUntilNextToken().Seconds(),
	}
}
