// Package readcache caches values derived from the whole records table,
// such as the distinct book names, until the next write.
package readcache

import (
	"time"

	"github.com/patrickmn/go-cache"

	"cpindex/internal/indexer"
)

// Cache is an in-process cache backed by go-cache.
type Cache struct {
	c *cache.Cache
}

var _ indexer.Cache = (*Cache)(nil)

// New returns a cache whose entries expire after ttl. A zero ttl keeps
// entries until Flush.
func New(ttl time.Duration) *Cache {
	exp, cleanup := cache.NoExpiration, time.Duration(0)
	if ttl > 0 {
		exp, cleanup = ttl, 2*ttl
	}
	return &Cache{c: cache.New(exp, cleanup)}
}

func (c *Cache) Get(key string) (any, bool) { return c.c.Get(key) }
func (c *Cache) Set(key string, value any)  { c.c.Set(key, value, cache.DefaultExpiration) }
func (c *Cache) Flush()                     { c.c.Flush() }

// Len returns the number of cached entries.
func (c *Cache) Len() int { return c.c.ItemCount() }
