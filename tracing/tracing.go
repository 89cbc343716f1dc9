// Package tracing provides OpenTelemetry spans around orchestrated upstream
// operations. It is entirely optional — tracing is only active when a
// [Config] is wired in via the client's WithTracing option; a nil Config is
// a no-op passthrough.
package tracing

import (
	"context"

	"github.com/markbsigler/restguard/contextx"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Config holds the OpenTelemetry configuration used when tracing
// orchestrated calls.
type Config struct {
	// TracerProvider supplies the Tracer used to create spans. When nil the
	// global otel.GetTracerProvider() is used.
	TracerProvider trace.TracerProvider
}

// tracer returns a configured [trace.Tracer].
func (c *Config) tracer() trace.Tracer {
	if c == nil {
		return noop.NewTracerProvider().Tracer("")
	}
	tp := c.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer("github.com/markbsigler/restguard/tracing")
}

// StartOperation opens a client span for the named upstream operation. The
// returned end function records err (when non-nil) on the span, sets its
// status, and ends it. A nil Config yields a no-op span, so callers never
// branch on whether tracing is configured.
func (c *Config) StartOperation(ctx context.Context, operation string) (context.Context, func(err error)) {
	ctx, span := c.tracer().Start(ctx, operation, trace.WithSpanKind(trace.SpanKindClient))

	attrs := []attribute.KeyValue{
		attribute.String("restguard.operation", operation),
	}
	if id := contextx.RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, attribute.String("restguard.request_id", id))
	}
	span.SetAttributes(attrs...)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()
	}
}

// AddEvent annotates the current span in ctx, for marking cache hits, stale
// serves, and retry sleeps along an operation's timeline.
func AddEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).AddEvent(name, trace.WithAttributes(attrs...))
}
