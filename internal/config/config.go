package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string

	Upstream  UpstreamConfig
	Cache     CacheConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	MockAPI   MockAPIConfig
}

// UpstreamConfig points at the EV-service REST backend the list views read from.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
	Token   string // forwarded as a bearer token, never inspected
}

type CacheConfig struct {
	ListCapacity     int // pages kept per websocket session
	SnapshotCapacity int // pages kept per resource for the REST snapshot
}

// RedisConfig holds the Redis connection settings. Redis is optional: it only
// backs the distributed rate limiter.
type RedisConfig struct {
	Enabled      bool
	URL          string
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	RetryDelay   time.Duration
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration

	HealthCheckInterval time.Duration
	MaxReconnectBackoff time.Duration
}

type RateLimitConfig struct {
	Enabled bool
}

// MockAPIConfig configures cmd/mockapi, the development stand-in for the backend.
type MockAPIConfig struct {
	Port     string
	MongoURI string
	Database string
	Delay    time.Duration
	Seed     bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:5000/api")
	v.SetDefault("UPSTREAM_TIMEOUT", 15*time.Second)
	v.SetDefault("UPSTREAM_TOKEN", "")

	v.SetDefault("LIST_CACHE_CAPACITY", 12)
	v.SetDefault("SNAPSHOT_CACHE_CAPACITY", 64)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_RETRY_DELAY", 100*time.Millisecond)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_POOL_TIMEOUT", 4*time.Second)
	v.SetDefault("REDIS_HEALTH_CHECK_INTERVAL", 30*time.Second)
	v.SetDefault("REDIS_MAX_RECONNECT_BACKOFF", 30*time.Second)

	v.SetDefault("RATE_LIMIT_ENABLED", true)

	v.SetDefault("MOCK_API_PORT", "5000")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "ev_service")
	// roughly the latency of the hosted backend
	v.SetDefault("MOCK_API_DELAY", 420*time.Millisecond)
	v.SetDefault("MOCK_API_SEED", true)
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded, using environment only")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:           v.GetString("PORT"),
		Env:            v.GetString("APP_ENV"),
		LogLevel:       v.GetString("LOG_LEVEL"),
		AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		Upstream: UpstreamConfig{
			BaseURL: strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
			Timeout: v.GetDuration("UPSTREAM_TIMEOUT"),
			Token:   v.GetString("UPSTREAM_TOKEN"),
		},
		Cache: CacheConfig{
			ListCapacity:     v.GetInt("LIST_CACHE_CAPACITY"),
			SnapshotCapacity: v.GetInt("SNAPSHOT_CACHE_CAPACITY"),
		},
		Redis: RedisConfig{
			Enabled:             v.GetBool("REDIS_ENABLED"),
			URL:                 v.GetString("REDIS_URL"),
			Host:                v.GetString("REDIS_HOST"),
			Port:                v.GetString("REDIS_PORT"),
			Password:            v.GetString("REDIS_PASSWORD"),
			DB:                  v.GetInt("REDIS_DB"),
			PoolSize:            v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns:        v.GetInt("REDIS_MIN_IDLE_CONNS"),
			MaxRetries:          v.GetInt("REDIS_MAX_RETRIES"),
			RetryDelay:          v.GetDuration("REDIS_RETRY_DELAY"),
			DialTimeout:         v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:         v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout:        v.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolTimeout:         v.GetDuration("REDIS_POOL_TIMEOUT"),
			HealthCheckInterval: v.GetDuration("REDIS_HEALTH_CHECK_INTERVAL"),
			MaxReconnectBackoff: v.GetDuration("REDIS_MAX_RECONNECT_BACKOFF"),
		},
		RateLimit: RateLimitConfig{
			Enabled: v.GetBool("RATE_LIMIT_ENABLED"),
		},
		MockAPI: MockAPIConfig{
			Port:     v.GetString("MOCK_API_PORT"),
			MongoURI: v.GetString("MONGO_URI"),
			Database: v.GetString("MONGO_DATABASE"),
			Delay:    v.GetDuration("MOCK_API_DELAY"),
			Seed:     v.GetBool("MOCK_API_SEED"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first setting the services cannot start with.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("UPSTREAM_BASE_URL must be set")
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT must be positive, got %s", c.Upstream.Timeout)
	}
	if c.Cache.ListCapacity < 1 {
		return fmt.Errorf("LIST_CACHE_CAPACITY must be at least 1, got %d", c.Cache.ListCapacity)
	}
	if c.Cache.SnapshotCapacity < 1 {
		return fmt.Errorf("SNAPSHOT_CACHE_CAPACITY must be at least 1, got %d", c.Cache.SnapshotCapacity)
	}
	if c.MockAPI.Delay < 0 {
		return fmt.Errorf("MOCK_API_DELAY must not be negative, got %s", c.MockAPI.Delay)
	}
	return nil
}

// IsProduction reports whether APP_ENV selects production behaviour
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
