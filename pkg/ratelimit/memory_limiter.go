package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

var _ RateLimiter = (*MemoryRateLimiter)(nil)

// MemoryRateLimiter implements RateLimiter with per-process fixed windows.
// It is the fallback when Redis is not configured.
type MemoryRateLimiter struct {
	config  *Config
	now     func() time.Time
	total   atomic.Int64
	blocked atomic.Int64

	mu      sync.Mutex
	windows map[string]*window

	cancel context.CancelFunc
}

type window struct {
	start time.Time
	count int
}

// NewMemoryRateLimiter creates a new in-memory rate limiter
func NewMemoryRateLimiter(config *Config) *MemoryRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	limiter := &MemoryRateLimiter{
		config:  config,
		now:     time.Now,
		windows: make(map[string]*window),
		cancel:  cancel,
	}

	if config.CleanupInterval > 0 {
		go limiter.cleanupLoop(ctx)
	}
	return limiter
}

// Allow counts one request from clientID in category
func (r *MemoryRateLimiter) Allow(_ context.Context, clientID string, category string) (Decision, error) {
	if !r.config.Enabled {
		return Decision{Allowed: true}, nil
	}
	r.total.Add(1)

	limit := r.config.LimitFor(category)
	key := clientID + ":" + category
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	w, ok := r.windows[key]
	if !ok || now.Sub(w.start) >= limit.Window {
		w = &window{start: now}
		r.windows[key] = w
	}

	if w.count >= limit.Requests {
		r.blocked.Add(1)
		return Decision{
			Allowed:    false,
			RetryAfter: w.start.Add(limit.Window).Sub(now),
		}, nil
	}

	w.count++
	return Decision{Allowed: true, Remaining: limit.Requests - w.count}, nil
}

// Limit returns the limit applied to category
func (r *MemoryRateLimiter) Limit(category string) RateLimit {
	return r.config.LimitFor(category)
}

// GetStats returns current rate limiter statistics
func (r *MemoryRateLimiter) GetStats() RateLimiterStats {
	r.mu.Lock()
	active := len(r.windows)
	r.mu.Unlock()
	return statsFrom(r.total.Load(), r.blocked.Load(), active)
}

// Close stops the cleanup goroutine
func (r *MemoryRateLimiter) Close() {
	r.cancel()
}

func (r *MemoryRateLimiter) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

// cleanup drops windows that have already ended.
func (r *MemoryRateLimiter) cleanup() {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	for key, w := range r.windows {
		category := key[lastColon(key)+1:]
		if now.Sub(w.start) >= r.config.LimitFor(category).Window {
			delete(r.windows, key)
		}
	}
}

func lastColon(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == ':' {
			return i
		}
	}
	return -1
}
