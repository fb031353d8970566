package middleware

import (
	"fmt"
	"hash/fnv"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/ratelimit"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RateLimitMiddleware limits requests per client and route category. It must
// be installed on the engine so the matched route pattern is known.
func RateLimitMiddleware(limiter ratelimit.RateLimiter, config *ratelimit.Config, logger zerolog.Logger) gin.HandlerFunc {
	if config == nil {
		config = ratelimit.DefaultConfig()
	}
	logger = logger.With().Str("component", "ratelimit").Logger()

	return func(c *gin.Context) {
		category := config.CategoryFor(c.Request.Method, c.FullPath())

		// Skip rate limiting for health checks in development
		if category == ratelimit.CategoryHealth && gin.Mode() == gin.DebugMode {
			c.Next()
			return
		}

		clientID := getClientID(c)

		decision, err := limiter.Allow(c.Request.Context(), clientID, category)
		if err != nil {
			// fail open: an unavailable limiter must not take the views down
			logger.Warn().Err(err).Str("category", category).Msg("rate limiter unavailable")
			c.Header("X-RateLimit-Error", "Rate limiter unavailable")
			c.Next()
			return
		}

		setRateLimitHeaders(c, limiter.Limit(category), decision)

		if !decision.Allowed {
			logger.Debug().
				Str("client", clientID).
				Str("category", category).
				Dur("retry_after", decision.RetryAfter).
				Msg("request rate limited")

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":      "Rate limit exceeded",
				"message":    fmt.Sprintf("Too many requests. Try again in %v", decision.RetryAfter.Round(time.Second)),
				"code":       "RATE_LIMIT_EXCEEDED",
				"retryAfter": retryAfterSeconds(decision.RetryAfter),
			})
			return
		}

		c.Next()
	}
}

// getClientID identifies the caller by API key, or by IP and User-Agent for
// anonymous requests.
func getClientID(c *gin.Context) string {
	if apiKey := c.GetHeader("X-API-Key"); apiKey != "" {
		return fmt.Sprintf("api:%s", apiKey)
	}
	return fmt.Sprintf("anon:%s:%s", getClientIP(c), hashString(c.GetHeader("User-Agent")))
}

// getClientIP extracts the real client IP address
func getClientIP(c *gin.Context) string {
	if forwarded := c.GetHeader("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := c.GetHeader("X-Real-IP"); realIP != "" {
		return realIP
	}
	return c.ClientIP()
}

func hashString(s string) string {
	if s == "" {
		return "unknown"
	}
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// retryAfterSeconds rounds up so clients never retry too early.
func retryAfterSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		return 1
	}
	return seconds
}

func setRateLimitHeaders(c *gin.Context, limit ratelimit.RateLimit, decision ratelimit.Decision) {
	c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Requests))
	c.Header("X-RateLimit-Window", strconv.Itoa(int(limit.Window.Seconds())))
	c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))

	if !decision.Allowed {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(decision.RetryAfter)))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(decision.RetryAfter).Unix(), 10))
	}
}
