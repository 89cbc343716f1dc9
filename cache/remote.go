package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"
)

// ErrNotFound is returned by RemoteStore implementations when a key is
// absent. The Remote backend turns it into a plain miss.
var ErrNotFound = errors.New("cache: key not found")

// RemoteStore is the pluggable key/value capability backing the Remote
// backend. Implementations surface real errors; the fail-soft policy lives
// in Remote, not here.
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) (bool, error)
	Exists(ctx context.Context, key string) (bool, error)

	// KeysByPrefix returns every key starting with prefix.
	KeysByPrefix(ctx context.Context, prefix string) ([]string, error)
}

// remoteRecord is what the Remote backend actually stores: the payload plus
// the write time, encoded through the configured codec.
type remoteRecord struct {
	Value    []byte    `json:"v" msgpack:"v"`
	StoredAt time.Time `json:"t" msgpack:"t"`
}

// DefaultNamespace prefixes remote keys when no namespace is configured.
const DefaultNamespace = "restguard"

// Remote is a Backend over a RemoteStore. Keys are namespaced so the backend
// can share a store with unrelated data, values are serialized through a
// selectable codec, and every operation fails soft: when the store is
// unreachable, reads degrade to misses and writes to no-ops, with an internal
// error counter recording each absorbed failure.
type Remote struct {
	store     RemoteStore
	namespace string
	codec     Codec

	hits   atomic.Uint64
	misses atomic.Uint64
	errs   atomic.Uint64
}

// NewRemote creates a Remote backend. An empty namespace falls back to
// DefaultNamespace; a nil codec to msgpack.
func NewRemote(store RemoteStore, namespace string, codec Codec) *Remote {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if codec == nil {
		codec = MsgpackCodec{}
	}
	return &Remote{
		store:     store,
		namespace: namespace,
		codec:     codec,
	}
}

func (b *Remote) key(key string) string {
	return b.namespace + ":" + key
}

// Get retrieves a value. Store failures and undecodable records count as
// misses.
func (b *Remote) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := b.store.Get(ctx, b.key(key))
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			b.errs.Add(1)
		}
		b.misses.Add(1)
		return nil, false, nil
	}

	var rec remoteRecord
	if err := b.codec.Unmarshal(data, &rec); err != nil {
		b.errs.Add(1)
		b.misses.Add(1)
		return nil, false, nil
	}
	b.hits.Add(1)
	return rec.Value, true, nil
}

// Set stores a value. Failures are absorbed.
func (b *Remote) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	data, err := b.codec.Marshal(remoteRecord{Value: val, StoredAt: time.Now().UTC()})
	if err != nil {
		b.errs.Add(1)
		return nil
	}
	if err := b.store.Set(ctx, b.key(key), data, ttl); err != nil {
		b.errs.Add(1)
	}
	return nil
}

// Delete removes a key. A store failure reports "not removed".
func (b *Remote) Delete(ctx context.Context, key string) (bool, error) {
	ok, err := b.store.Delete(ctx, b.key(key))
	if err != nil {
		b.errs.Add(1)
		return false, nil
	}
	return ok, nil
}

// Clear removes every key in this backend's namespace, leaving unrelated
// data in the shared store untouched.
func (b *Remote) Clear(ctx context.Context) error {
	keys, err := b.store.KeysByPrefix(ctx, b.namespace+":")
	if err != nil {
		b.errs.Add(1)
		return nil
	}
	for _, k := range keys {
		if _, err := b.store.Delete(ctx, k); err != nil {
			b.errs.Add(1)
		}
	}
	return nil
}

// Exists reports whether the key is present. Store failures report absent.
func (b *Remote) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := b.store.Exists(ctx, b.key(key))
	if err != nil {
		b.errs.Add(1)
		return false, nil
	}
	return ok, nil
}

// Stats returns the backend's hit/miss/error counters.
func (b *Remote) Stats(_ context.Context) (Stats, error) {
	hits := b.hits.Load()
	misses := b.misses.Load()
	s := Stats{
		Hits:   hits,
		Misses: misses,
		Errors: b.errs.Load(),
	}
	if total := hits + misses; total > 0 {
		s.HitRate = float64(hits) / float64(total)
	}
	return s, nil
}
