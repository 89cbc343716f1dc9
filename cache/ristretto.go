package cache

import (
	"bytes"
	"context"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

// Ristretto is an alternative local backend over dgraph's ristretto cache.
// Its TinyLFU admission is approximate: entries may be rejected or evicted
// out of strict LRU order, and statistics are best-effort. Prefer it over
// Local for read-heavy workloads where throughput matters more than
// deterministic eviction.
type Ristretto struct {
	rc         *ristretto.Cache[string, []byte]
	defaultTTL time.Duration
}

// NewRistretto creates a Ristretto backend holding roughly maxEntries
// entries (each entry has a cost of 1).
func NewRistretto(maxEntries int64, defaultTTL time.Duration) (*Ristretto, error) {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	rc, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}
	return &Ristretto{rc: rc, defaultTTL: defaultTTL}, nil
}

func (b *Ristretto) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := b.rc.Get(key)
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(v), true, nil
}

func (b *Ristretto) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = b.defaultTTL
	}
	b.rc.SetWithTTL(key, bytes.Clone(val), 1, ttl)
	b.rc.Wait()
	return nil
}

func (b *Ristretto) Delete(_ context.Context, key string) (bool, error) {
	_, present := b.rc.Get(key)
	b.rc.Del(key)
	return present, nil
}

func (b *Ristretto) Clear(_ context.Context) error {
	b.rc.Clear()
	return nil
}

func (b *Ristretto) Exists(_ context.Context, key string) (bool, error) {
	_, ok := b.rc.Get(key)
	return ok, nil
}

// Stats reports ristretto's own metrics. Size is not tracked: ristretto
// exposes no live entry count.
func (b *Ristretto) Stats(_ context.Context) (Stats, error) {
	m := b.rc.Metrics
	s := Stats{
		Hits:      m.Hits(),
		Misses:    m.Misses(),
		Evictions: m.KeysEvicted(),
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s, nil
}

// Close releases the underlying ristretto resources.
func (b *Ristretto) Close() {
	b.rc.Close()
}
