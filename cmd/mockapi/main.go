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

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/config"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/logging"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/mockapi"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := logging.Setup(cfg.LogLevel, cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, cfg.MockAPI.MongoURI, cfg.MockAPI.Database, logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Disconnect(db.Client(), logger)

	store := mockapi.NewStore(db)
	if cfg.MockAPI.Seed {
		if err := store.Seed(ctx, logger); err != nil {
			logger.Error().Err(err).Msg("Failed to seed sample data")
		}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	mockapi.SetupRouter(router, store.Resources(), mockapi.Options{
		Delay: cfg.MockAPI.Delay,
		Health: func(ctx context.Context) error {
			return database.Health(ctx, db)
		},
		Logger: logger,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.MockAPI.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.MockAPI.Port).
			Dur("delay", cfg.MockAPI.Delay).
			Msg("Mock backend listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	cancel()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)
	logger.Info().Msg("server stopped")
}
