package ratelimit

import (
	"strings"
	"time"
)

const (
	CategorySessions = "sessions" // opening a list view websocket
	CategoryViews    = "views"    // REST snapshots
	CategoryStats    = "stats"
	CategoryHealth   = "health"
	CategoryDefault  = "default"
)

// Config holds the configuration for rate limiting
type Config struct {
	// Limits per category. CategoryDefault is used for anything unmapped.
	Limits map[string]RateLimit `json:"limits"`

	// Routes maps "METHOD route pattern" to a category. A pattern ending in
	// "*" matches any route with that prefix.
	Routes map[string]string `json:"routes"`

	RedisKeyPrefix  string        `json:"redisKeyPrefix"`
	CleanupInterval time.Duration `json:"cleanupInterval"`
	Enabled         bool          `json:"enabled"`
}

// DefaultConfig returns a default rate limiting configuration
func DefaultConfig() *Config {
	return &Config{
		Limits: map[string]RateLimit{
			// every session keeps its own cache, so opening them is the expensive part
			CategorySessions: {Requests: 30, Window: time.Minute},
			CategoryViews:    {Requests: 120, Window: time.Minute},
			CategoryStats:    {Requests: 60, Window: time.Minute},
			CategoryHealth:   {Requests: 1000, Window: time.Minute},
			CategoryDefault:  {Requests: 60, Window: time.Minute},
		},
		Routes: map[string]string{
			"GET /api/v1/views/:resource/ws": CategorySessions,
			"GET /api/v1/views/:resource":    CategoryViews,
			"GET /api/v1/views/stats":        CategoryStats,
			"GET /api/v1/health":             CategoryHealth,
			"GET /metrics":                   CategoryHealth,
		},
		RedisKeyPrefix:  "ratelimit:",
		CleanupInterval: 5 * time.Minute,
		Enabled:         true,
	}
}

// CategoryFor maps a method and route pattern to a rate limit category
func (c *Config) CategoryFor(method, route string) string {
	key := strings.ToUpper(method) + " " + route
	if category, ok := c.Routes[key]; ok {
		return category
	}

	// longest wildcard wins so the result does not depend on map order
	best, bestLen := CategoryDefault, -1
	for pattern, category := range c.Routes {
		prefix, ok := strings.CutSuffix(pattern, "*")
		if ok && strings.HasPrefix(key, prefix) && len(prefix) > bestLen {
			best, bestLen = category, len(prefix)
		}
	}
	return best
}

// LimitFor returns the limit of category, falling back to the default.
func (c *Config) LimitFor(category string) RateLimit {
	if limit, ok := c.Limits[category]; ok && limit.Requests > 0 && limit.Window > 0 {
		return limit
	}
	if limit, ok := c.Limits[CategoryDefault]; ok && limit.Requests > 0 && limit.Window > 0 {
		return limit
	}
	return RateLimit{Requests: 60, Window: time.Minute}
}
