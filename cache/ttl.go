// Package cache provides a small bounded TTL cache used to trim repeated
// describe/metadata calls against the vendor API. Entries expire lazily on
// Get; capacity overflow evicts expired entries first, then the
// oldest-inserted live entry (deterministic, not LRU).
//
// The cache is an optimization only: every caller must behave correctly if
// it is cleared at any time.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	val V
	exp time.Time
	seq uint64 // insertion order, used for eviction
}

// TTL is a concurrency-safe, bounded, time-limited cache.
type TTL[K comparable, V any] struct {
	mu         sync.RWMutex
	data       map[K]entry[V]
	ttl        time.Duration
	maxEntries int
	seq        uint64
	nowTime    func() time.Time
}

// Option defines a function type to modify a TTL cache instance.
type Option[K comparable, V any] func(*TTL[K, V])

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime[K comparable, V any](nowFunc func() time.Time) Option[K, V] {
	return func(c *TTL[K, V]) {
		c.nowTime = nowFunc
	}
}

// New creates a cache holding at most maxEntries values, each valid for ttl
// after insertion.
func New[K comparable, V any](maxEntries int, ttl time.Duration, options ...Option[K, V]) *TTL[K, V] {
	c := &TTL[K, V]{
		data:       make(map[K]entry[V]),
		ttl:        ttl,
		maxEntries: maxEntries,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Get returns the cached value and true when present and not past its TTL.
// An expired entry behaves as a miss and is removed.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.data[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.nowTime().After(e.exp) {
		c.mu.Lock()
		// Re-check under the write lock: the entry may have been replaced.
		if cur, ok := c.data[key]; ok && cur.seq == e.seq {
			delete(c.data, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.val, true
}

// Put stores the value under key, evicting if at capacity. Capacity
// exhaustion is never an error.
func (c *TTL[K, V]) Put(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.data[key]; !exists && len(c.data) >= c.maxEntries {
		c.evictLocked()
	}
	c.seq++
	c.data[key] = entry[V]{val: val, exp: c.nowTime().Add(c.ttl), seq: c.seq}
}

// Delete removes a single entry if present.
func (c *TTL[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *TTL[K, V]) Clear() {
	c.mu.Lock()
	c.data = make(map[K]entry[V])
	c.mu.Unlock()
}

// Len returns the number of stored entries, expired ones included.
func (c *TTL[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// evictLocked frees at least one slot: drop all expired entries, and if none
// were expired drop the oldest-inserted one.
func (c *TTL[K, V]) evictLocked() {
	now := c.nowTime()
	removed := false
	for k, e := range c.data {
		if now.After(e.exp) {
			delete(c.data, k)
			removed = true
		}
	}
	if removed {
		return
	}

	var oldestKey K
	var oldestSeq uint64
	for k, e := range c.data {
		if oldestSeq == 0 || e.seq < oldestSeq {
			oldestKey = k
			oldestSeq = e.seq
		}
	}
	if oldestSeq != 0 {
		delete(c.data, oldestKey)
	}
}
