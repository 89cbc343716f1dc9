package apierr

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"

	"github.com/markbsigler/restguard/breaker"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Classification is the categorizer's verdict for a single failure.
type Classification struct {
	Kind       Kind
	StatusCode int // 0 when the failure was not an HTTP response
	Message    string
}

// Classify categorizes err. HTTP failures are classified by status code,
// everything else by error shape: context/network timeouts map to
// KindTimeout, refused or reset connections to KindConnection, and gRPC
// status errors by their code. Unrecognized failures map to KindUnknown.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: KindUnknown}
	}

	if errors.Is(err, breaker.ErrOpen) {
		return Classification{Kind: KindCircuitOpen, Message: err.Error()}
	}

	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return Classification{
			Kind:       kindForStatus(httpErr.StatusCode),
			StatusCode: httpErr.StatusCode,
			Message:    err.Error(),
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return Classification{Kind: KindTimeout, Message: err.Error()}
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return Classification{Kind: KindTimeout, Message: err.Error()}
	}

	if isConnectionFailure(err) {
		return Classification{Kind: KindConnection, Message: err.Error()}
	}

	if st, ok := status.FromError(err); ok {
		return Classification{Kind: kindForCode(st.Code()), Message: err.Error()}
	}

	return Classification{Kind: KindUnknown, Message: err.Error()}
}

// ShouldRetry reports whether the generic retry loop may re-attempt after
// err. Only transient failures qualify: HTTP 500/502/503/504, timeouts, and
// connection errors. Rate-limit responses are excluded; their envelope
// carries a retry_after hint for the caller instead.
func ShouldRetry(err error) bool {
	c := Classify(err)
	switch c.Kind {
	case KindTimeout, KindConnection:
		return true
	case KindServer:
		switch c.StatusCode {
		case 500, 502, 503, 504:
			return true
		}
	}
	return false
}

func kindForStatus(code int) Kind {
	switch {
	case code == 401:
		return KindAuthentication
	case code == 404:
		return KindNotFound
	case code == 422:
		return KindValidation
	case code == 429:
		return KindRateLimit
	case code >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// kindForCode maps gRPC status codes onto the taxonomy so the layer can wrap
// transports that speak gRPC to the upstream.
func kindForCode(code codes.Code) Kind {
	switch code {
	case codes.Unauthenticated:
		return KindAuthentication
	case codes.NotFound:
		return KindNotFound
	case codes.InvalidArgument:
		return KindValidation
	case codes.ResourceExhausted:
		return KindRateLimit
	case codes.DeadlineExceeded:
		return KindTimeout
	case codes.Unavailable:
		return KindConnection
	case codes.Internal, codes.Unknown, codes.Aborted, codes.DataLoss:
		return KindServer
	default:
		return KindUnknown
	}
}

func isConnectionFailure(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
