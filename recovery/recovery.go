// Package recovery executes upstream calls under the full failure policy:
// classification, retry with exponential backoff, and one circuit breaker
// per operation. Every terminal failure comes back as an *apierr.Envelope,
// so callers branch on a failure kind instead of transport error types.
package recovery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/markbsigler/restguard/apierr"
	"github.com/markbsigler/restguard/breaker"
	"github.com/markbsigler/restguard/metrics"
	"github.com/markbsigler/restguard/retry"
)

// Config assembles the pieces of a Handler.
type Config struct {
	// Retry drives the backoff loop. Zero values get sensible defaults
	// (3 attempts, 1s base delay, 30s cap, no jitter).
	Retry retry.Config

	// Breaker parameterizes the per-operation circuit breakers.
	Breaker breaker.Config

	// Metrics receives request outcomes and classified failures. Nil means
	// no-op.
	Metrics metrics.Recorder

	// Logger, when set, records retries and terminal failures.
	Logger *slog.Logger
}

// Handler owns the retry configuration and one circuit breaker per protected
// operation. Breakers for different operations never share state.
type Handler struct {
	retryCfg   retry.Config
	breakerCfg breaker.Config
	metrics    metrics.Recorder
	logger     *slog.Logger

	mu       sync.Mutex
	breakers map[string]*breaker.Breaker
}

// NewHandler creates a Handler from cfg, filling unset fields with defaults.
func NewHandler(cfg Config) *Handler {
	if cfg.Retry.MaxAttempts <= 0 {
		cfg.Retry.MaxAttempts = 3
	}
	if cfg.Retry.BaseDelay <= 0 {
		cfg.Retry.BaseDelay = time.Second
	}
	if cfg.Retry.MaxDelay <= 0 {
		cfg.Retry.MaxDelay = 30 * time.Second
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Noop{}
	}
	return &Handler{
		retryCfg:   cfg.Retry,
		breakerCfg: cfg.Breaker,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		breakers:   make(map[string]*breaker.Breaker),
	}
}

// breakerFor returns the breaker guarding operation, creating it on first
// use.
func (h *Handler) breakerFor(operation string) *breaker.Breaker {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.breakers[operation]
	if !ok {
		b = breaker.New(h.breakerCfg)
		h.breakers[operation] = b
	}
	return b
}

// BreakerState reports the current breaker state for operation. Operations
// never executed report Closed.
func (h *Handler) BreakerState(operation string) breaker.State {
	return h.breakerFor(operation).State()
}

// Execute runs fn for the named operation under the handler's policy:
//
//   - An open breaker rejects the call before any attempt; the envelope
//     carries kind circuit_breaker_open and zero attempts.
//   - Non-retryable failures surface after exactly one attempt.
//   - Retryable failures are re-attempted with exponential backoff until
//     one succeeds or attempts run out; the envelope counts the attempts
//     actually made.
//   - A panic inside fn is captured and classified as an unknown failure
//     rather than crashing the caller.
//
// On success at any attempt the value is returned directly, no envelope.
func Execute[T any](ctx context.Context, h *Handler, operation string, fn func(context.Context) (T, error)) (T, error) {
	br := h.breakerFor(operation)
	start := time.Now()

	attempts := 0
	result, err := retry.Do(ctx, h.retryCfg, func(ctx context.Context) (T, error) {
		var zero T
		if !br.Allow() {
			return zero, breaker.ErrOpen
		}
		attempts++

		v, err := call(ctx, fn)
		if err != nil {
			br.OnFailure()
			if h.logger != nil {
				h.logger.Debug("attempt failed",
					"operation", operation,
					"attempt", attempts,
					"error", err)
			}
			return zero, err
		}
		br.OnSuccess()
		return v, nil
	})

	h.metrics.RecordRequest(operation, time.Since(start), err)
	if err == nil {
		return result, nil
	}

	env := apierr.NewEnvelope(operation, err, attempts)
	h.metrics.RecordError(operation, string(env.Kind))
	if h.logger != nil {
		h.logger.Warn("operation failed",
			"operation", operation,
			"kind", string(env.Kind),
			"attempts", env.AttemptsMade,
			"error", err)
	}
	var zero T
	return zero, env
}

// call invokes fn, converting a panic into an error so one misbehaving
// transport cannot take the process down.
func call[T any](ctx context.Context, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx)
}
