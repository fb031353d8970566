package cache

import (
	"sync"
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/pagination"
)

var _ PageStore = (*BoundedPageCache)(nil)

// BoundedPageCache is an in-memory page cache holding at most Capacity
// entries. When a Put pushes it over capacity the entry with the oldest write
// timestamp is evicted; reads never refresh an entry's position. Entries
// written with equal timestamps leave in write order.
type BoundedPageCache struct {
	config CacheConfig

	mu      sync.RWMutex
	entries map[listquery.Key]Entry
	seq     uint64
	stats   *cacheStats
}

// cacheStats tracks cache performance metrics
type cacheStats struct {
	mu            sync.Mutex
	totalHits     int64
	totalMisses   int64
	evictionCount int64
}

// NewBoundedPageCache creates a cache from DefaultCacheConfig modified by opts.
func NewBoundedPageCache(opts ...Option) (*BoundedPageCache, error) {
	config := DefaultCacheConfig()
	for _, opt := range opts {
		opt(&config)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &BoundedPageCache{
		config:  config,
		entries: make(map[listquery.Key]Entry, config.Capacity+1),
		stats:   &cacheStats{},
	}, nil
}

// Get returns the entry stored under key.
func (c *BoundedPageCache) Get(key listquery.Key) (Entry, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok {
		c.recordHit()
	} else {
		c.recordMiss()
	}
	return entry, ok
}

// Put stores page under key, replacing any previous entry wholesale, and
// evicts until the cache is back within capacity.
func (c *BoundedPageCache) Put(key listquery.Key, page pagination.Page, timestamp time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.entries[key] = Entry{
		Page:      page,
		Timestamp: timestamp,
		seq:       c.seq,
	}

	for len(c.entries) > c.config.Capacity {
		c.evictOldest()
	}
}

// evictOldest removes the entry with the smallest (timestamp, seq). The scan
// is linear; capacity is small.
func (c *BoundedPageCache) evictOldest() {
	var (
		first     = true
		oldestKey listquery.Key
		oldest    Entry
	)
	for key, entry := range c.entries {
		if first || entry.olderThan(oldest) {
			oldestKey = key
			oldest = entry
		}
		first = false
	}
	delete(c.entries, oldestKey)
	c.recordEviction()
}

func (e Entry) olderThan(other Entry) bool {
	if e.Timestamp.Equal(other.Timestamp) {
		return e.seq < other.seq
	}
	return e.Timestamp.Before(other.Timestamp)
}

// Len returns the number of cached pages
func (c *BoundedPageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Keys returns the cached keys, oldest write first.
func (c *BoundedPageCache) Keys() []listquery.Key {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]listquery.Key, 0, len(c.entries))
	for key := range c.entries {
		keys = append(keys, key)
	}
	// insertion sort; at most Capacity elements
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && c.entries[keys[j]].olderThan(c.entries[keys[j-1]]); j-- {
			keys[j], keys[j-1] = keys[j-1], keys[j]
		}
	}
	return keys
}

// Stats returns a snapshot of the cache statistics
func (c *BoundedPageCache) Stats() CacheStats {
	keyCount := c.Len()

	c.stats.mu.Lock()
	defer c.stats.mu.Unlock()

	total := c.stats.totalHits + c.stats.totalMisses
	var hitRate, missRate float64
	if total > 0 {
		hitRate = float64(c.stats.totalHits) / float64(total)
		missRate = float64(c.stats.totalMisses) / float64(total)
	}

	return CacheStats{
		Name:          c.config.Name,
		Capacity:      c.config.Capacity,
		KeyCount:      keyCount,
		HitRate:       hitRate,
		MissRate:      missRate,
		EvictionCount: c.stats.evictionCount,
		TotalHits:     c.stats.totalHits,
		TotalMisses:   c.stats.totalMisses,
	}
}

func (c *BoundedPageCache) recordHit() {
	c.stats.mu.Lock()
	c.stats.totalHits++
	c.stats.mu.Unlock()
	cacheLookupsTotal.WithLabelValues(c.config.Name, "hit").Inc()
}

func (c *BoundedPageCache) recordMiss() {
	c.stats.mu.Lock()
	c.stats.totalMisses++
	c.stats.mu.Unlock()
	cacheLookupsTotal.WithLabelValues(c.config.Name, "miss").Inc()
}

func (c *BoundedPageCache) recordEviction() {
	c.stats.mu.Lock()
	c.stats.evictionCount++
	c.stats.mu.Unlock()
	cacheEvictionsTotal.WithLabelValues(c.config.Name).Inc()
}
