package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LossCache memoizes deterministic full-dataset losses. It is safe for
// concurrent use.
type LossCache struct {
	cache   *lru.Cache[CacheKey, float64]
	maxSize int
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewLossCache creates a new LRU loss cache
func NewLossCache(config *CacheConfig) (*LossCache, error) {
	if config == nil {
		config = DefaultCacheConfig()
	}

	cache, err := lru.New[CacheKey, float64](config.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}

	return &LossCache{cache: cache, maxSize: config.MaxSize}, nil
}

// Get retrieves a loss from the cache
func (c *LossCache) Get(key CacheKey) (float64, bool) {
	loss, ok := c.cache.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return loss, ok
}

// Set stores a loss, evicting the least recently used entry when full
func (c *LossCache) Set(key CacheKey, loss float64) {
	c.cache.Add(key, loss)
}

// Clear removes all values from the cache
func (c *LossCache) Clear() {
	c.cache.Purge()
}

// Len returns the number of items in the cache
func (c *LossCache) Len() int {
	return c.cache.Len()
}

// Stats returns cache statistics
func (c *LossCache) Stats() CacheStats {
	stats := CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Size:    c.cache.Len(),
		MaxSize: c.maxSize,
	}
	stats.CalculateHitRate()
	return stats
}
