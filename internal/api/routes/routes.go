package routes

import (
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/api/handlers"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/api/middleware"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/logging"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/services"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/upstream"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/websocket"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/ratelimit"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/redis"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Dependencies are the long-lived components the routes are served by
type Dependencies struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	Upstream       *upstream.Client
	Redis          *redis.Client // nil when Redis is disabled
	Manager        *websocket.Manager
	Listing        *services.ListingService
	Limiter        ratelimit.RateLimiter // nil disables rate limiting
	LimitConfig    *ratelimit.Config
}

func SetupRoutes(router *gin.Engine, deps Dependencies) {
	router.Use(logging.RequestLogger(deps.Logger))
	router.Use(cors.New(corsConfig(deps.AllowedOrigins)))
	if deps.Limiter != nil {
		router.Use(middleware.RateLimitMiddleware(deps.Limiter, deps.LimitConfig, deps.Logger))
	}

	// Initialize handlers
	viewHandler := handlers.NewViewHandler(deps.Listing, deps.Logger)
	wsHandler := handlers.NewWebSocketHandler(deps.Manager, deps.Upstream, deps.Logger)
	statsHandler := handlers.NewStatsHandler(deps.Manager, deps.Listing, deps.Limiter)
	healthHandler := handlers.NewHealthHandler(deps.Upstream, deps.Redis)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.GET("/health", healthHandler.HealthCheck)

	views := api.Group("/views")
	{
		views.GET("/stats", statsHandler.GetStats)
		views.DELETE("/sessions/:sessionId", wsHandler.DisconnectClient)
		views.GET("/:resource", viewHandler.GetSnapshot)
		views.GET("/:resource/ws", wsHandler.HandleWebSocket)
	}
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods:  []string{"GET", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-API-Key", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length", "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
	}

	// Handle wildcard origin for development
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		config.AllowAllOrigins = true
		config.AllowCredentials = false // Cannot use credentials with AllowAllOrigins
	} else {
		config.AllowOrigins = origins
		config.AllowCredentials = true
	}
	return config
}
