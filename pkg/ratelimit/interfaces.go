package ratelimit

import (
	"context"
	"time"
)

// RateLimiter decides whether a client may make another request in a category
type RateLimiter interface {
	Allow(ctx context.Context, clientID string, category string) (Decision, error)
	Limit(category string) RateLimit
	GetStats() RateLimiterStats
}

// RateLimit allows Requests per Window
type RateLimit struct {
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window"`
}

// Decision is the outcome of one Allow call
type Decision struct {
	Allowed    bool          `json:"allowed"`
	Remaining  int           `json:"remaining"`
	RetryAfter time.Duration `json:"retryAfter"`
}

// RateLimiterStats provides statistics about rate limiting
type RateLimiterStats struct {
	TotalRequests   int64   `json:"totalRequests"`
	BlockedRequests int64   `json:"blockedRequests"`
	BlockRate       float64 `json:"blockRate"`
	ActiveKeys      int     `json:"activeKeys"`
}

func statsFrom(total, blocked int64, activeKeys int) RateLimiterStats {
	stats := RateLimiterStats{
		TotalRequests:   total,
		BlockedRequests: blocked,
		ActiveKeys:      activeKeys,
	}
	if total > 0 {
		stats.BlockRate = float64(blocked) / float64(total)
	}
	return stats
}
