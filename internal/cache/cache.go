// Package cache is a typed TTL cache on ristretto, used to shield the
// upstream market-data API from repeated identical requests.
package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

type Cache[V any] struct {
	c   *ristretto.Cache
	ttl time.Duration
}

func New[V any](maxCost int64, ttl time.Duration) (*Cache[V], error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache[V]{c: c, ttl: ttl}, nil
}

func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.c.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	val, ok := v.(V)
	if !ok {
		var zero V
		return zero, false
	}
	return val, true
}

func (c *Cache[V]) Set(key string, val V) { c.c.SetWithTTL(key, val, 1, c.ttl) }

func (c *Cache[V]) Del(key string) { c.c.Del(key) }

// Wait flushes pending writes; only tests need it.
func (c *Cache[V]) Wait() { c.c.Wait() }
