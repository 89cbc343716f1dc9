// Package restguard is a resilience layer between an application and a
// remote REST API. A [Client] bounds and accelerates repeated reads through
// a TTL/LRU cache (optionally backed by a shared remote tier), protects the
// upstream from overload through a token-bucket rate limiter, and converts
// transient failures into retried results or normalized error envelopes
// through retry-with-backoff and per-operation circuit breakers.
package restguard

import "context"

// Transport is the asynchronous HTTP capability the client orchestrates. It
// is consumed, never implemented, here: callers hand in their pre-configured
// HTTP client behind this interface. Non-2xx responses should be reported as
// [*apierr.HTTPError] so classification can see the status code.
type Transport interface {
	Perform(ctx context.Context, method, path string, body []byte) ([]byte, error)
}

// TransportFunc adapts a plain function to the Transport interface and is
// the unit of work middlewares wrap.
type TransportFunc func(ctx context.Context, method, path string, body []byte) ([]byte, error)

// Perform implements Transport.
func (f TransportFunc) Perform(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	return f(ctx, method, path, body)
}

// Middleware transforms a TransportFunc, allowing pre/post behavior
// composition: auth headers, request logging, body rewriting.
type Middleware func(TransportFunc) TransportFunc

// Chain composes middlewares from left to right, i.e., Chain(A, B)(t) => A(B(t)).
func Chain(mw ...Middleware) Middleware {
	return func(next TransportFunc) TransportFunc {
		for i := len(mw) - 1; i >= 0; i-- {
			next = mw[i](next)
		}
		return next
	}
}

// Wrap applies the middleware chain to a transport and returns the wrapped
// transport.
func Wrap(t TransportFunc, mw ...Middleware) TransportFunc {
	if len(mw) == 0 {
		return t
	}
	return Chain(mw...)(t)
}
