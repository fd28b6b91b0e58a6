// Package cache holds slot-keyed responses in a size-bounded LRU whose
// entries also expire after a fixed TTL.
package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
)

type TTL[V any] struct {
	lruCache *lru.Cache
	ttl      time.Duration
	now      func() time.Time
}

type entry[V any] struct {
	val V
	ts  time.Time
}

func New[V any](maxEntries int, ttl time.Duration) (*TTL[V], error) {
	c, err := lru.New(maxEntries)
	if err != nil {
		return nil, err
	}
	return &TTL[V]{
		lruCache: c,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Get returns the value stored for slot. Expired entries are evicted.
func (c *TTL[V]) Get(slot uint64) (V, bool) {
	var zero V
	raw, ok := c.lruCache.Get(slot)
	if !ok {
		return zero, false
	}
	e := raw.(entry[V])
	if c.now().Sub(e.ts) > c.ttl {
		c.lruCache.Remove(slot)
		return zero, false
	}
	return e.val, true
}

func (c *TTL[V]) Add(slot uint64, v V) {
	c.lruCache.Add(slot, entry[V]{val: v, ts: c.now()})
}

func (c *TTL[V]) Len() int {
	return c.lruCache.Len()
}
