package cache

import (
	"bytes"
	"container/list"
	"sync"
	"time"
)

// entry is the bookkeeping record for a single cached value.
type entry struct {
	key          string
	value        []byte
	createdAt    time.Time
	expiresAt    time.Time
	accessCount  uint64
	lastAccessed time.Time
}

// LRU is a bounded in-process cache with per-entry TTL and strict
// least-recently-used eviction. A single mutex guards every operation, so
// eviction ordering is deterministic under concurrent access.
type LRU struct {
	mu sync.Mutex

	maxSize    int
	defaultTTL time.Duration

	entries map[string]*list.Element
	order   *list.List // front = most recently used

	hits        uint64
	misses      uint64
	evictions   uint64
	expirations uint64

	nowFunc func() time.Time // for testing; defaults to time.Now
}

// NewLRU creates an LRU holding at most maxSize entries. Entries stored
// without an explicit TTL expire after defaultTTL. maxSize values <= 0 fall
// back to 1000, defaultTTL values <= 0 to 5 minutes.
func NewLRU(maxSize int, defaultTTL time.Duration) *LRU {
	if maxSize <= 0 {
		maxSize = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}
	return &LRU{
		maxSize:    maxSize,
		defaultTTL: defaultTTL,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		nowFunc:    time.Now,
	}
}

// Get retrieves a value by key. A hit bumps the entry's access bookkeeping
// and moves it to the most-recently-used position. An expired entry is
// evicted on the spot and the call counts as a miss.
func (c *LRU) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	e := elem.Value.(*entry)
	now := c.nowFunc()
	if !now.Before(e.expiresAt) {
		c.removeElement(elem)
		c.expirations++
		c.misses++
		return nil, false
	}

	e.accessCount++
	e.lastAccessed = now
	c.order.MoveToFront(elem)
	c.hits++
	return bytes.Clone(e.value), true
}

// GetStale returns the value for key even when the entry has expired. It
// does not evict, does not touch recency or access bookkeeping, and does not
// count toward hit/miss statistics. Expired entries remain available to it
// until a regular Get/Exists touches them, a sweep runs, or LRU pressure
// pushes them out.
func (c *LRU) GetStale(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return bytes.Clone(elem.Value.(*entry).value), true
}

// Set stores a value under key. A non-positive ttl falls back to the cache's
// default. Overwriting an existing key replaces its entry in place; inserting
// a new key at capacity evicts the least-recently-used entry first.
func (c *LRU) Set(key string, val []byte, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	if elem, ok := c.entries[key]; ok {
		// Replace wholesale: a set re-creates the entry.
		elem.Value = &entry{
			key:          key,
			value:        bytes.Clone(val),
			createdAt:    now,
			expiresAt:    now.Add(ttl),
			lastAccessed: now,
		}
		c.order.MoveToFront(elem)
		return
	}

	if len(c.entries) >= c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.removeElement(oldest)
			c.evictions++
		}
	}

	elem := c.order.PushFront(&entry{
		key:          key,
		value:        bytes.Clone(val),
		createdAt:    now,
		expiresAt:    now.Add(ttl),
		lastAccessed: now,
	})
	c.entries[key] = elem
}

// Delete removes key and reports whether an entry (live or expired) was
// removed.
func (c *LRU) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Clear removes all entries. Cumulative counters survive.
func (c *LRU) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Exists reports whether key holds a live entry. It mirrors Get's expiry
// handling (an expired entry is evicted and reported absent) but does not
// touch recency or access bookkeeping.
func (c *LRU) Exists(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	if !c.nowFunc().Before(elem.Value.(*entry).expiresAt) {
		c.removeElement(elem)
		c.expirations++
		return false
	}
	return true
}

// CleanupExpired sweeps the cache and evicts every expired entry, returning
// how many were removed. Intended for periodic invocation by an external
// scheduler so expired entries don't linger until the next access.
func (c *LRU) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.nowFunc()
	removed := 0
	for elem := c.order.Back(); elem != nil; {
		prev := elem.Prev()
		if !now.Before(elem.Value.(*entry).expiresAt) {
			c.removeElement(elem)
			c.expirations++
			removed++
		}
		elem = prev
	}
	return removed
}

// Len returns the number of entries currently held, expired ones included.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache's counters.
func (c *LRU) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{
		Size:        len(c.entries),
		MaxSize:     c.maxSize,
		Hits:        c.hits,
		Misses:      c.misses,
		Evictions:   c.evictions,
		Expirations: c.expirations,
	}
	if total := c.hits + c.misses; total > 0 {
		s.HitRate = float64(c.hits) / float64(total)
	}

	now := c.nowFunc()
	for _, elem := range c.entries {
		if age := now.Sub(elem.Value.(*entry).createdAt); age > s.OldestAge {
			s.OldestAge = age
		}
	}
	return s
}

// removeElement must be called with c.mu held.
func (c *LRU) removeElement(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*entry).key)
}
