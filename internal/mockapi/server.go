package mockapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/logging"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/utils"
)

// HealthFunc reports whether the backing store is usable.
type HealthFunc func(ctx context.Context) error

type Options struct {
	Delay  time.Duration
	Health HealthFunc
	Logger zerolog.Logger
}

// SetupRouter registers every resource under /api.
func SetupRouter(router *gin.Engine, resources []Resource, opts Options) {
	router.Use(logging.RequestLogger(opts.Logger))
	router.Use(cors.Default())

	api := router.Group("/api")
	api.GET("/health", healthHandler(opts.Health))

	list := api.Group("")
	list.Use(Delay(opts.Delay))
	for _, resource := range resources {
		list.GET(resource.Path, NewListHandler(resource, opts.Logger).List)
	}
}

// Delay holds every request back by d, giving up early when the client goes
// away.
func Delay(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		timer := time.NewTimer(d)
		defer timer.Stop()

		select {
		case <-timer.C:
			c.Next()
		case <-c.Request.Context().Done():
			c.Abort()
		}
	}
}

func healthHandler(check HealthFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				utils.ErrorResponse(c, http.StatusServiceUnavailable, "Database unavailable", err)
				return
			}
		}
		utils.SuccessResponse(c, http.StatusOK, "OK", gin.H{"timestamp": time.Now().UTC()})
	}
}
