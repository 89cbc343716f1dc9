// Package apierr classifies upstream API failures into a fixed taxonomy and
// normalizes them into the caller-facing error envelope. Transports report
// non-2xx responses as [*HTTPError]; everything else (timeouts, connection
// failures, gRPC status errors from gRPC-backed transports) is classified by
// error shape. Callers never need to inspect transport-specific error types:
// they receive an [*Envelope] and branch on its Kind.
package apierr

import (
	"fmt"
	"time"
)

// Kind identifies a failure category.
type Kind string

// The closed taxonomy of upstream failure kinds.
const (
	KindAuthentication Kind = "authentication_error"
	KindNotFound       Kind = "not_found_error"
	KindValidation     Kind = "validation_error"
	KindRateLimit      Kind = "rate_limit_error"
	KindTimeout        Kind = "timeout_error"
	KindConnection     Kind = "connection_error"
	KindServer         Kind = "server_error"
	KindUnknown        Kind = "unknown_error"
)

// KindCircuitOpen marks calls rejected by an open circuit breaker before any
// attempt was made. It is deliberately kept outside the upstream taxonomy:
// the upstream was never contacted.
const KindCircuitOpen Kind = "circuit_breaker_open"

// HTTPError is the failure shape transports return for non-2xx responses.
// StatusCode drives classification. The remaining fields are optional:
// RetryAfter carries a parsed Retry-After hint for 429 responses, and
// ValidationErrors carries structured details for 422 responses when the
// transport extracted them from the body.
type HTTPError struct {
	StatusCode       int
	Status           string // status line text, e.g. "503 Service Unavailable"
	Body             []byte
	RetryAfter       time.Duration
	ValidationErrors []string
}

func (e *HTTPError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("upstream returned %s", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}
