package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Client wraps a go-redis client and tracks whether Redis is reachable.
// The go-redis pool redials on its own, so the underlying client is never
// replaced; the background loops only keep the connection state current.
type Client struct {
	client *redis.Client
	config config.RedisConfig
	logger zerolog.Logger

	mu          sync.RWMutex
	isConnected bool
	lastError   string

	reconnectChan chan struct{}
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

type HealthStatus struct {
	IsConnected    bool          `json:"isConnected"`
	LastPing       time.Time     `json:"lastPing"`
	ResponseTime   time.Duration `json:"responseTime"`
	ConnectionInfo string        `json:"connectionInfo"`
	Error          string        `json:"error,omitempty"`
}

// NewClient creates a new Redis client with connection pooling. An
// unreachable server is not an error; the client keeps trying in the
// background.
func NewClient(cfg config.RedisConfig, logger zerolog.Logger) (*Client, error) {
	opt, err := options(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		client:        redis.NewClient(opt),
		config:        cfg,
		logger:        logger.With().Str("component", "redis").Str("addr", opt.Addr).Logger(),
		reconnectChan: make(chan struct{}, 1),
		ctx:           ctx,
		cancel:        cancel,
	}

	if err := c.ping(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("Redis connection test failed")
		c.triggerReconnect()
	} else {
		c.logger.Info().Msg("Redis connected successfully")
	}

	c.wg.Add(2)
	go c.healthCheckLoop()
	go c.reconnectLoop()

	return c, nil
}

// options builds go-redis options from REDIS_URL, or host and port when no
// URL is set.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	opt := &redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
		}
		opt = parsed
	}

	opt.PoolSize = cfg.PoolSize
	opt.MinIdleConns = cfg.MinIdleConns
	opt.MaxRetries = cfg.MaxRetries
	opt.MinRetryBackoff = cfg.RetryDelay
	opt.DialTimeout = cfg.DialTimeout
	opt.ReadTimeout = cfg.ReadTimeout
	opt.WriteTimeout = cfg.WriteTimeout
	opt.PoolTimeout = cfg.PoolTimeout
	return opt, nil
}

// ping checks the server and records the result.
func (c *Client) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := c.client.Ping(ctx).Err()

	c.mu.Lock()
	c.isConnected = err == nil
	c.lastError = ""
	if err != nil {
		c.lastError = err.Error()
	}
	c.mu.Unlock()
	return err
}

// GetClient returns the Redis client instance
func (c *Client) GetClient() *redis.Client {
	return c.client
}

// IsConnected returns the current connection status
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isConnected
}

// HealthCheck pings Redis and returns detailed status. A failed ping starts
// the reconnect loop.
func (c *Client) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		ConnectionInfo: c.client.Options().Addr,
	}

	start := time.Now()
	err := c.ping(ctx)
	status.ResponseTime = time.Since(start)
	status.LastPing = time.Now()
	status.IsConnected = err == nil

	if err != nil {
		status.Error = err.Error()
		c.triggerReconnect()
	}
	return status
}

// triggerReconnect signals the reconnection goroutine
func (c *Client) triggerReconnect() {
	select {
	case c.reconnectChan <- struct{}{}:
	default:
		// reconnection already triggered
	}
}

func (c *Client) healthCheckLoop() {
	defer c.wg.Done()

	interval := c.config.HealthCheckInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			status := c.HealthCheck(c.ctx)
			if !status.IsConnected {
				c.logger.Warn().Str("error", status.Error).Msg("Redis health check failed")
			}
		}
	}
}

// reconnectLoop pings with exponential backoff until Redis answers again.
func (c *Client) reconnectLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.reconnectChan:
			if c.IsConnected() {
				continue
			}

			c.logger.Info().Msg("attempting to reconnect to Redis")
			err := backoff.RetryNotify(
				func() error { return c.ping(c.ctx) },
				backoff.WithContext(c.newBackOff(), c.ctx),
				func(err error, next time.Duration) {
					c.logger.Debug().Err(err).Dur("retry_in", next).Msg("reconnection failed")
				},
			)
			if err != nil {
				// only a cancelled context ends the retries
				return
			}
			c.logger.Info().Msg("successfully reconnected to Redis")
		}
	}
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if c.config.RetryDelay > 0 {
		b.InitialInterval = c.config.RetryDelay
	}
	if c.config.MaxReconnectBackoff > 0 {
		b.MaxInterval = c.config.MaxReconnectBackoff
	}
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Close stops the background loops and closes the pool
func (c *Client) Close() error {
	c.cancel()
	c.wg.Wait()
	return c.client.Close()
}

// GetConnectionStats returns connection pool statistics
func (c *Client) GetConnectionStats() map[string]interface{} {
	stats := c.client.PoolStats()

	c.mu.RLock()
	defer c.mu.RUnlock()

	result := map[string]interface{}{
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"totalConns":  stats.TotalConns,
		"idleConns":   stats.IdleConns,
		"staleConns":  stats.StaleConns,
		"isConnected": c.isConnected,
	}
	if c.lastError != "" {
		result["lastError"] = c.lastError
	}
	return result
}
