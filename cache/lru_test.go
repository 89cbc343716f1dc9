package cache

import (
	"testing"
	"time"
)

func newTestLRU(maxSize int, defaultTTL time.Duration) (*LRU, *time.Time) {
	c := NewLRU(maxSize, defaultTTL)
	now := time.Now()
	c.nowFunc = func() time.Time { return now }
	return c, &now
}

func TestLRU_GetSet(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)

	if _, ok := c.Get("k1"); ok {
		t.Fatal("expected miss")
	}

	c.Set("k1", []byte("v1"), 0)
	val, ok := c.Get("k1")
	if !ok {
		t.Fatal("expected hit")
	}
	if string(val) != "v1" {
		t.Fatalf("got %q, want %q", val, "v1")
	}
}

func TestLRU_ReturnsCopy(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)
	c.Set("k", []byte("abc"), 0)

	v1, _ := c.Get("k")
	v1[0] = 'X'

	v2, _ := c.Get("k")
	if string(v2) != "abc" {
		t.Fatalf("caller mutation leaked into cache: got %q", v2)
	}
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestLRU(3, time.Minute)

	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), 0)
	c.Set("c", []byte("3"), 0)

	// Touch "a" so "b" becomes the least recently used.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected hit for a")
	}

	c.Set("d", []byte("4"), 0)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b evicted")
	}
	for _, k := range []string{"a", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to survive", k)
		}
	}
	if s := c.Stats(); s.Evictions != 1 {
		t.Fatalf("expected 1 eviction, got %d", s.Evictions)
	}
}

func TestLRU_TTLExpiry(t *testing.T) {
	c, now := newTestLRU(10, time.Minute)

	c.Set("ttl", []byte("temp"), 30*time.Second)

	*now = now.Add(29 * time.Second)
	if _, ok := c.Get("ttl"); !ok {
		t.Fatal("expected hit before TTL")
	}

	*now = now.Add(2 * time.Second) // 31s total
	if _, ok := c.Get("ttl"); ok {
		t.Fatal("expected miss after TTL")
	}

	// Expiry evicted the entry as a side effect.
	if n := c.Len(); n != 0 {
		t.Fatalf("expected empty cache after expiry, got %d entries", n)
	}
	s := c.Stats()
	if s.Expirations != 1 {
		t.Fatalf("expected 1 expiration, got %d", s.Expirations)
	}
}

func TestLRU_DefaultTTLApplied(t *testing.T) {
	c, now := newTestLRU(10, time.Minute)

	c.Set("k", []byte("v"), 0)

	*now = now.Add(30 * time.Second)
	if _, ok := c.Get("k"); !ok {
		t.Fatal("expected hit inside default TTL")
	}

	*now = now.Add(31 * time.Second)
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after default TTL")
	}
}

func TestLRU_OverwriteKeepsSingleEntry(t *testing.T) {
	c, _ := newTestLRU(2, time.Minute)

	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), 0)

	// Overwriting "a" refreshes its recency, so inserting "c" evicts "b".
	c.Set("a", []byte("1b"), 0)
	c.Set("c", []byte("3"), 0)

	if _, ok := c.Get("b"); ok {
		t.Fatal("expected b evicted")
	}
	v, ok := c.Get("a")
	if !ok {
		t.Fatal("expected a present")
	}
	if string(v) != "1b" {
		t.Fatalf("got %q, want %q", v, "1b")
	}
	if n := c.Len(); n != 2 {
		t.Fatalf("expected 2 entries, got %d", n)
	}
}

func TestLRU_Delete(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)

	c.Set("k", []byte("v"), 0)
	if !c.Delete("k") {
		t.Fatal("expected delete to report removal")
	}
	if c.Delete("k") {
		t.Fatal("expected delete of absent key to report false")
	}
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestLRU_Clear(t *testing.T) {
	c, _ := newTestLRU(10, time.Minute)

	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), 0)
	c.Clear()

	if n := c.Len(); n != 0 {
		t.Fatalf("expected empty cache, got %d entries", n)
	}
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected miss after clear")
	}
}

func TestLRU_ExistsMirrorsExpiryWithoutTouchingRecency(t *testing.T) {
	c, now := newTestLRU(2, time.Minute)

	c.Set("a", []byte("1"), 0)
	c.Set("b", []byte("2"), 0)

	// Exists must not refresh recency: "a" stays least recently used and
	// the next insert evicts it.
	if !c.Exists("a") {
		t.Fatal("expected a to exist")
	}
	c.Set("c", []byte("3"), 0)
	if _, ok := c.Get("a"); ok {
		t.Fatal("expected a evicted despite Exists call")
	}

	// Expired entries are reported absent and evicted on the spot.
	c.Set("ttl", []byte("v"), time.Second)
	*now = now.Add(2 * time.Second)
	if c.Exists("ttl") {
		t.Fatal("expected expired entry reported absent")
	}
	if _, stale := c.GetStale("ttl"); stale {
		t.Fatal("expected expired entry evicted by Exists")
	}
}

func TestLRU_GetStale(t *testing.T) {
	c, now := newTestLRU(10, time.Minute)

	c.Set("k", []byte("old"), time.Second)
	*now = now.Add(2 * time.Second)

	// The expired entry is still readable stale...
	v, ok := c.GetStale("k")
	if !ok {
		t.Fatal("expected stale read to succeed")
	}
	if string(v) != "old" {
		t.Fatalf("got %q, want %q", v, "old")
	}

	// ...until a regular Get evicts it.
	if _, ok := c.Get("k"); ok {
		t.Fatal("expected regular get to miss")
	}
	if _, ok := c.GetStale("k"); ok {
		t.Fatal("expected stale read to fail after eviction")
	}
}

func TestLRU_CleanupExpired(t *testing.T) {
	c, now := newTestLRU(10, time.Minute)

	c.Set("short1", []byte("1"), time.Second)
	c.Set("short2", []byte("2"), time.Second)
	c.Set("long", []byte("3"), time.Hour)

	*now = now.Add(2 * time.Second)

	if n := c.CleanupExpired(); n != 2 {
		t.Fatalf("expected 2 swept, got %d", n)
	}
	if n := c.Len(); n != 1 {
		t.Fatalf("expected 1 entry left, got %d", n)
	}
	if s := c.Stats(); s.Expirations != 2 {
		t.Fatalf("expected 2 expirations, got %d", s.Expirations)
	}
}

func TestLRU_Stats(t *testing.T) {
	c, now := newTestLRU(10, time.Minute)

	c.Set("a", []byte("1"), time.Hour)
	*now = now.Add(10 * time.Second)
	c.Set("b", []byte("2"), time.Hour)

	c.Get("a")       // hit
	c.Get("a")       // hit
	c.Get("missing") // miss

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Fatalf("expected 2 hits / 1 miss, got %d/%d", s.Hits, s.Misses)
	}
	if want := 2.0 / 3.0; s.HitRate != want {
		t.Fatalf("expected hit rate %v, got %v", want, s.HitRate)
	}
	if s.Size != 2 || s.MaxSize != 10 {
		t.Fatalf("expected size 2/10, got %d/%d", s.Size, s.MaxSize)
	}
	if s.OldestAge != 10*time.Second {
		t.Fatalf("expected oldest age 10s, got %v", s.OldestAge)
	}
}
