// Package contextx carries per-call values — request IDs, operation names,
// policy group names — through context.Context without exposing raw keys.
package contextx

import (
	"context"

	"github.com/google/uuid"
)

// NewRequestID returns a fresh unique request ID.
func NewRequestID() string {
	return uuid.NewString()
}

// WithRequestID returns a derived context that carries the given request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the request ID stored in ctx.
// It returns an empty string when no request ID is present.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
