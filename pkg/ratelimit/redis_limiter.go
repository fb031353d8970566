package ratelimit

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var _ RateLimiter = (*RedisRateLimiter)(nil)

// fixedWindowScript counts a request in the current window and reports
// whether it fits. All instances of the server share the counters.
//
// KEYS[1] counter key; ARGV[1] limit; ARGV[2] window in ms.
// Returns {allowed, remaining, retry after in ms}.
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

local count = tonumber(redis.call('GET', key) or '0')
if count >= limit then
	local ttl = redis.call('PTTL', key)
	if ttl < 0 then
		ttl = window
		redis.call('PEXPIRE', key, window)
	end
	return {0, 0, ttl}
end

count = redis.call('INCR', key)
if count == 1 then
	redis.call('PEXPIRE', key, window)
end
return {1, limit - count, 0}
`)

// RedisRateLimiter implements RateLimiter using Redis as the backend
type RedisRateLimiter struct {
	client  redis.Scripter
	config  *Config
	total   atomic.Int64
	blocked atomic.Int64
}

// NewRedisRateLimiter creates a new Redis-backed rate limiter
func NewRedisRateLimiter(client redis.Scripter, config *Config) *RedisRateLimiter {
	if config == nil {
		config = DefaultConfig()
	}
	return &RedisRateLimiter{
		client: client,
		config: config,
	}
}

// Allow counts one request from clientID in category
func (r *RedisRateLimiter) Allow(ctx context.Context, clientID string, category string) (Decision, error) {
	if !r.config.Enabled {
		return Decision{Allowed: true}, nil
	}
	r.total.Add(1)

	limit := r.config.LimitFor(category)
	key := fmt.Sprintf("%s%s:%s", r.config.RedisKeyPrefix, category, clientID)

	res, err := fixedWindowScript.Run(ctx, r.client, []string{key}, limit.Requests, limit.Window.Milliseconds()).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("unexpected script result format: %v", res)
	}

	if res[0] != 1 {
		r.blocked.Add(1)
		return Decision{Allowed: false, RetryAfter: time.Duration(res[2]) * time.Millisecond}, nil
	}
	return Decision{Allowed: true, Remaining: int(res[1])}, nil
}

// Limit returns the limit applied to category
func (r *RedisRateLimiter) Limit(category string) RateLimit {
	return r.config.LimitFor(category)
}

// GetStats returns counters of this instance; ActiveKeys is not tracked.
func (r *RedisRateLimiter) GetStats() RateLimiterStats {
	return statsFrom(r.total.Load(), r.blocked.Load(), 0)
}
