// Package cache provides the caching layer: a strict TTL-LRU store, a
// pluggable backend abstraction over it, and local, remote and two-tier
// backend implementations.
//
// Values are opaque byte slices; callers decide how domain objects map to
// bytes. The remote backend wraps an injected key/value store (Redis in
// production) and never propagates remote failures: unavailability degrades
// to misses and no-ops so the upstream API keeps working without its cache.
package cache

import (
	"context"
	"time"
)

// Backend is the uniform caching capability consumed by the client. All
// operations take a context because a backend may suspend on remote I/O.
type Backend interface {
	// Get retrieves a value by key. The boolean indicates a cache hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a value under key with the given TTL. A non-positive TTL
	// falls back to the backend's default.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// Delete removes key. The boolean reports whether an entry was removed.
	Delete(ctx context.Context, key string) (bool, error)

	// Clear removes every entry owned by this backend.
	Clear(ctx context.Context) error

	// Exists reports whether key holds a live (unexpired) entry.
	Exists(ctx context.Context, key string) (bool, error)

	// Stats returns a point-in-time snapshot of the backend's counters.
	Stats(ctx context.Context) (Stats, error)
}

// StaleReader is the optional capability of backends that can return an
// entry even after it expired, without evicting it or touching recency.
// The stale-on-error fallback uses it to serve the last known value when
// the upstream is down.
type StaleReader interface {
	GetStale(ctx context.Context, key string) ([]byte, bool)
}

// Stats is a point-in-time snapshot of a backend. Not every field applies
// to every backend: only the strict LRU tracks size and entry ages, only
// the remote backend counts soft errors, and only the two-tier backend
// fills the per-tier hit counters.
type Stats struct {
	Size        int           `json:"size"`
	MaxSize     int           `json:"max_size,omitempty"`
	Hits        uint64        `json:"hits"`
	Misses      uint64        `json:"misses"`
	Evictions   uint64        `json:"evictions"`
	Expirations uint64        `json:"expirations"`
	HitRate     float64       `json:"hit_rate"`
	OldestAge   time.Duration `json:"oldest_entry_age,omitempty"`

	// Errors counts remote operations absorbed by the fail-soft policy.
	Errors uint64 `json:"errors,omitempty"`

	// Per-tier hit attribution, filled by the two-tier backend.
	LocalHits  uint64 `json:"local_hits,omitempty"`
	RemoteHits uint64 `json:"remote_hits,omitempty"`
}
