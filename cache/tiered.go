package cache

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// Tiered composes a fast local backend with a slower, shared remote one.
// Reads check local first and promote remote hits into local; writes land in
// both tiers, with the local copy expiring after a fraction of the remote
// TTL so it periodically re-validates against the authoritative remote tier.
type Tiered struct {
	local  Backend
	remote Backend
	ratio  float64 // local TTL as a fraction of the remote TTL

	localHits  atomic.Uint64
	remoteHits atomic.Uint64
	misses     atomic.Uint64
}

// DefaultLocalTTLRatio is the local-tier TTL fraction used when none is
// configured.
const DefaultLocalTTLRatio = 0.5

// NewTiered creates a two-tier backend. localTTLRatio values outside (0, 1]
// fall back to DefaultLocalTTLRatio.
func NewTiered(local, remote Backend, localTTLRatio float64) *Tiered {
	if localTTLRatio <= 0 || localTTLRatio > 1 {
		localTTLRatio = DefaultLocalTTLRatio
	}
	return &Tiered{
		local:  local,
		remote: remote,
		ratio:  localTTLRatio,
	}
}

// Get checks local first, then remote. A remote hit is promoted into local
// before returning, so the next read for the same key stays in-process. A
// remote failure never fails a get the local tier can serve.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, ok, err := t.local.Get(ctx, key); err == nil && ok {
		t.localHits.Add(1)
		return v, true, nil
	}

	v, ok, err := t.remote.Get(ctx, key)
	if err != nil || !ok {
		t.misses.Add(1)
		return nil, false, nil
	}
	t.remoteHits.Add(1)

	// Promote with zero TTL: the local tier applies its own default, which
	// is shorter-lived than the remote copy anyway.
	_ = t.local.Set(ctx, key, v, 0)
	return v, true, nil
}

// Set writes to both tiers concurrently. The local copy gets ratio x ttl so
// it expires sooner than the remote one.
func (t *Tiered) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	var g errgroup.Group
	g.Go(func() error {
		return t.local.Set(ctx, key, val, t.localTTL(ttl))
	})
	g.Go(func() error {
		return t.remote.Set(ctx, key, val, ttl)
	})
	return g.Wait()
}

// Delete removes key from both tiers, reporting success if either tier
// removed it.
func (t *Tiered) Delete(ctx context.Context, key string) (bool, error) {
	lok, _ := t.local.Delete(ctx, key)
	rok, _ := t.remote.Delete(ctx, key)
	return lok || rok, nil
}

// Clear empties both tiers.
func (t *Tiered) Clear(ctx context.Context) error {
	_ = t.local.Clear(ctx)
	_ = t.remote.Clear(ctx)
	return nil
}

// Exists checks local first, then remote. No promotion happens here.
func (t *Tiered) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := t.local.Exists(ctx, key); err == nil && ok {
		return true, nil
	}
	ok, _ := t.remote.Exists(ctx, key)
	return ok, nil
}

// Stats merges both tiers: size, capacity and eviction counters come from
// the local tier, the soft-error counter from the remote one, and the
// per-tier hit attribution from the composition itself.
func (t *Tiered) Stats(ctx context.Context) (Stats, error) {
	ls, _ := t.local.Stats(ctx)
	rs, _ := t.remote.Stats(ctx)

	localHits := t.localHits.Load()
	remoteHits := t.remoteHits.Load()
	misses := t.misses.Load()

	s := Stats{
		Size:        ls.Size,
		MaxSize:     ls.MaxSize,
		Hits:        localHits + remoteHits,
		Misses:      misses,
		Evictions:   ls.Evictions,
		Expirations: ls.Expirations,
		OldestAge:   ls.OldestAge,
		Errors:      rs.Errors,
		LocalHits:   localHits,
		RemoteHits:  remoteHits,
	}
	if total := s.Hits + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits) / float64(total)
	}
	return s, nil
}

// GetStale implements StaleReader by delegating to the local tier when it
// supports stale reads. The remote tier is never consulted: its entries
// disappear at expiry, so there is nothing stale to serve.
func (t *Tiered) GetStale(ctx context.Context, key string) ([]byte, bool) {
	if sr, ok := t.local.(StaleReader); ok {
		return sr.GetStale(ctx, key)
	}
	return nil, false
}

func (t *Tiered) localTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return 0
	}
	return time.Duration(float64(ttl) * t.ratio)
}
