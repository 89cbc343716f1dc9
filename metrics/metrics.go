// Package metrics defines the hook interface the resilience layer calls to
// report what it did. The layer never implements collection itself: callers
// inject a Recorder (the Prometheus one here, or their own) and absent that
// a no-op stands in, so instrumentation never becomes a nil check at call
// sites.
package metrics

import "time"

// Recorder receives measurement callbacks from the client, the recovery
// handler and the cache layer. Implementations must be safe for concurrent
// use and must not panic.
type Recorder interface {
	// RecordRequest reports one upstream operation outcome with its total
	// duration (retries included).
	RecordRequest(operation string, duration time.Duration, err error)

	// RecordCacheOperation reports a cache lookup for an operation.
	RecordCacheOperation(operation string, hit bool)

	// RecordError reports a classified failure kind for an operation.
	RecordError(operation string, kind string)
}

// Noop discards every measurement.
type Noop struct{}

func (Noop) RecordRequest(string, time.Duration, error) {}
func (Noop) RecordCacheOperation(string, bool)          {}
func (Noop) RecordError(string, string)                 {}
