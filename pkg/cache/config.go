package cache

import (
	"errors"
	"fmt"
)

// DefaultCapacity is the number of pages a list view keeps around.
const DefaultCapacity = 12

var ErrInvalidCapacity = errors.New("cache: capacity must be at least 1")

// CacheConfig holds configuration for a bounded page cache
type CacheConfig struct {
	Name     string `json:"name"`     // metric label, usually the resource name
	Capacity int    `json:"capacity"` // maximum number of entries
}

// DefaultCacheConfig returns default cache configuration
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Name:     "default",
		Capacity: DefaultCapacity,
	}
}

// Validate rejects configurations that could never hold a page.
func (c CacheConfig) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidCapacity, c.Capacity)
	}
	return nil
}

// Option modifies a CacheConfig before it is validated
type Option func(*CacheConfig)

// WithCapacity sets the maximum number of entries.
func WithCapacity(capacity int) Option {
	return func(c *CacheConfig) {
		c.Capacity = capacity
	}
}

// WithName sets the name reported in stats and metrics.
func WithName(name string) Option {
	return func(c *CacheConfig) {
		if name != "" {
			c.Name = name
		}
	}
}
