package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/api/routes"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/config"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/logging"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/services"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/upstream"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/websocket"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/ratelimit"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.Setup(cfg.LogLevel, cfg.Env)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	client := upstream.NewClient(cfg.Upstream, logger)

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(cfg.Redis, logger)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Redis client")
		}
		defer redisClient.Close()

		status := redisClient.HealthCheck(context.Background())
		if status.IsConnected {
			logger.Info().Str("address", status.ConnectionInfo).Msg("Redis connected successfully")
		} else {
			logger.Warn().Str("error", status.Error).Msg("Redis connection failed, will retry automatically")
		}
	}

	limitConfig := ratelimit.DefaultConfig()
	limitConfig.Enabled = cfg.RateLimit.Enabled
	var limiter ratelimit.RateLimiter
	switch {
	case !cfg.RateLimit.Enabled:
	case redisClient != nil:
		limiter = ratelimit.NewRedisRateLimiter(redisClient.GetClient(), limitConfig)
	default:
		memory := ratelimit.NewMemoryRateLimiter(limitConfig)
		defer memory.Close()
		limiter = memory
	}

	wsConfig := websocket.DefaultConfig()
	wsConfig.CacheCapacity = cfg.Cache.ListCapacity
	wsConfig.AllowedOrigins = cfg.AllowedOrigins
	manager := websocket.NewManager(client, wsConfig, logger)
	if err := manager.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start WebSocket manager")
	}

	listing, err := services.NewListingService(client, cfg.Cache.SnapshotCapacity, cfg.Upstream.Timeout, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create listing service")
	}

	router := gin.New()
	router.Use(gin.Recovery())
	routes.SetupRoutes(router, routes.Dependencies{
		Logger:         logger,
		AllowedOrigins: cfg.AllowedOrigins,
		Upstream:       client,
		Redis:          redisClient,
		Manager:        manager,
		Listing:        listing,
		Limiter:        limiter,
		LimitConfig:    limitConfig,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().
			Str("port", cfg.Port).
			Str("upstream", client.BaseURL()).
			Msg("List view server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)

		// sessions hold hijacked connections Shutdown does not track
		_ = manager.Stop()
		listing.Close()
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("server stopped")
}
