package cache

import (
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/pagination"
)

// PageStore is the storage contract of a list view. Implementations never
// perform I/O and never hand out an entry that is still being written.
type PageStore interface {
	// Get returns the entry for key. A miss is not an error.
	Get(key listquery.Key) (Entry, bool)
	// Put inserts or replaces the page for key, then evicts down to capacity.
	Put(key listquery.Key, page pagination.Page, timestamp time.Time)
	Len() int
	Stats() CacheStats
}

// Entry is one cached page. Entries are values: a Put replaces the whole
// entry and readers keep whatever copy they already hold.
type Entry struct {
	Page      pagination.Page `json:"page"`
	Timestamp time.Time       `json:"timestamp"`

	// seq orders writes that share a timestamp
	seq uint64
}

// CacheStats provides cache performance metrics
type CacheStats struct {
	Name          string  `json:"name"`
	Capacity      int     `json:"capacity"`
	KeyCount      int     `json:"keyCount"`
	HitRate       float64 `json:"hitRate"`
	MissRate      float64 `json:"missRate"`
	EvictionCount int64   `json:"evictionCount"`
	TotalHits     int64   `json:"totalHits"`
	TotalMisses   int64   `json:"totalMisses"`
}
