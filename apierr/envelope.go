package apierr

import (
	"errors"
	"fmt"
	"time"
)

// maxMessageLen bounds the human-readable message carried by an Envelope.
const maxMessageLen = 500

// defaultRetryAfter is suggested on rate-limit envelopes when the upstream
// response carried no Retry-After hint.
const defaultRetryAfter = 60 * time.Second

// Envelope is the normalized failure payload surfaced to callers instead of
// transport-specific errors. It implements error and wraps the original
// failure, so errors.Is/As keep working through it.
type Envelope struct {
	IsError          bool      `json:"error"`
	Kind             Kind      `json:"kind"`
	Message          string    `json:"message"`
	Operation        string    `json:"operation"`
	AttemptsMade     int       `json:"attempts_made"`
	StatusCode       int       `json:"status_code,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	RetryAfter       float64   `json:"retry_after,omitempty"` // seconds
	ValidationErrors []string  `json:"validation_errors,omitempty"`

	cause error
}

// NewEnvelope classifies err and builds the envelope for operation, tagged
// with the number of attempts actually made against the upstream.
func NewEnvelope(operation string, err error, attempts int) *Envelope {
	c := Classify(err)
	env := &Envelope{
		IsError:      true,
		Kind:         c.Kind,
		Message:      truncate(c.Message, maxMessageLen),
		Operation:    operation,
		AttemptsMade: attempts,
		StatusCode:   c.StatusCode,
		Timestamp:    time.Now().UTC(),
		cause:        err,
	}

	switch c.Kind {
	case KindRateLimit:
		ra := defaultRetryAfter
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
			ra = httpErr.RetryAfter
		}
		env.RetryAfter = ra.Seconds()
	case KindValidation:
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			env.ValidationErrors = httpErr.ValidationErrors
		}
	}
	return env
}

func (e *Envelope) Error() string {
	return fmt.Sprintf("%s [%s]: %s", e.Operation, e.Kind, e.Message)
}

// Unwrap exposes the original failure for errors.Is/As.
func (e *Envelope) Unwrap() error {
	return e.cause
}

// AsEnvelope extracts an Envelope from err's chain.
func AsEnvelope(err error) (*Envelope, bool) {
	var env *Envelope
	if errors.As(err, &env) {
		return env, true
	}
	return nil, false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
