package cache

import (
	"context"
	"time"
)

// Local adapts the in-process LRU to the Backend interface. Operations never
// touch the network and never return errors.
type Local struct {
	lru *LRU
}

// NewLocal creates a Local backend over a fresh LRU.
func NewLocal(maxSize int, defaultTTL time.Duration) *Local {
	return &Local{lru: NewLRU(maxSize, defaultTTL)}
}

// NewLocalFromLRU wraps an existing LRU, for callers that also drive the
// sweep or inspect it directly.
func NewLocalFromLRU(lru *LRU) *Local {
	return &Local{lru: lru}
}

func (b *Local) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.lru.Get(key)
	return v, ok, nil
}

func (b *Local) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	b.lru.Set(key, val, ttl)
	return nil
}

func (b *Local) Delete(_ context.Context, key string) (bool, error) {
	return b.lru.Delete(key), nil
}

func (b *Local) Clear(_ context.Context) error {
	b.lru.Clear()
	return nil
}

func (b *Local) Exists(_ context.Context, key string) (bool, error) {
	return b.lru.Exists(key), nil
}

func (b *Local) Stats(_ context.Context) (Stats, error) {
	return b.lru.Stats(), nil
}

// GetStale implements StaleReader.
func (b *Local) GetStale(_ context.Context, key string) ([]byte, bool) {
	return b.lru.GetStale(key)
}

// CleanupExpired evicts expired entries, returning how many were removed.
func (b *Local) CleanupExpired() int {
	return b.lru.CleanupExpired()
}
