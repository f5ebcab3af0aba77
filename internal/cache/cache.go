// Package cache provides the best-effort in-memory order cache.
//
// The cache mirrors store entries keyed by order ID and is never the sole
// source of truth: it may be absent, flushed, or stale at any point with no
// correctness impact beyond performance. Growth is bounded by a scheduled
// full flush (see RunFlusher) rather than per-entry TTL or LRU.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/petstoreapp/order-service/internal/domain/order"
)

// Cache is a concurrency-safe map of order ID to order. Entries are cloned
// on the way in and out so callers never alias cached state.
type Cache struct {
	mu     sync.RWMutex
	orders map[string]*order.Order

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New returns an empty Cache.
func New() *Cache {
	return &Cache{orders: make(map[string]*order.Order)}
}

// Get returns a copy of the cached order and whether it was present.
func (c *Cache) Get(id string) (*order.Order, bool) {
	c.mu.RLock()
	o, ok := c.orders[id]
	c.mu.RUnlock()

	if !ok {
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return o.Clone(), true
}

// Set stores a copy of the order. Orders without an ID are ignored.
func (c *Cache) Set(o *order.Order) {
	if o == nil || o.ID == "" {
		return
	}
	c.mu.Lock()
	c.orders[o.ID] = o.Clone()
	c.mu.Unlock()
}

// Size returns the number of cached orders, exposed for the info endpoint.
func (c *Cache) Size() int {
	c.mu.RLock()
	n := len(c.orders)
	c.mu.RUnlock()
	return n
}

// Flush drops every entry. Safe to run concurrently with reads and writes;
// in-flight readers simply miss afterwards.
func (c *Cache) Flush() {
	c.mu.Lock()
	c.orders = make(map[string]*order.Order)
	c.mu.Unlock()
}

// Stats returns the cumulative hit and miss counts.
func (c *Cache) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
