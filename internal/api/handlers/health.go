package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/redis"

	"github.com/gin-gonic/gin"
)

// Pinger is the upstream backend as seen by the health check
type Pinger interface {
	Ping(ctx context.Context) error
	BaseURL() string
}

type HealthHandler struct {
	upstream    Pinger
	redisClient *redis.Client
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
}

// NewHealthHandler creates a health handler. redisClient is nil when Redis
// is disabled.
func NewHealthHandler(upstream Pinger, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{
		upstream:    upstream,
		redisClient: redisClient,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Timestamp: time.Now(),
		Services:  make(map[string]interface{}),
	}

	overallHealthy := true

	upstreamStatus := h.checkUpstream(ctx)
	response.Services["upstream"] = upstreamStatus
	if !upstreamStatus["healthy"].(bool) {
		overallHealthy = false
	}

	redisStatus := h.checkRedis(ctx)
	response.Services["redis"] = redisStatus
	if !redisStatus["healthy"].(bool) {
		overallHealthy = false
	}

	if overallHealthy {
		response.Status = "healthy"
		c.JSON(http.StatusOK, response)
	} else {
		response.Status = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, response)
	}
}

func (h *HealthHandler) checkUpstream(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service": "upstream",
		"healthy": false,
		"baseUrl": h.upstream.BaseURL(),
	}

	start := time.Now()
	err := h.upstream.Ping(ctx)
	status["responseTime"] = time.Since(start).String()
	if err != nil {
		status["error"] = err.Error()
	} else {
		status["healthy"] = true
		status["message"] = "Reachable"
	}
	return status
}

func (h *HealthHandler) checkRedis(ctx context.Context) map[string]interface{} {
	status := map[string]interface{}{
		"service": "redis",
		"healthy": false,
	}

	if h.redisClient == nil {
		// rate limiting falls back to memory without Redis
		status["healthy"] = true
		status["message"] = "Disabled"
		return status
	}

	healthStatus := h.redisClient.HealthCheck(ctx)
	status["healthy"] = healthStatus.IsConnected
	status["connectionInfo"] = healthStatus.ConnectionInfo
	status["responseTime"] = healthStatus.ResponseTime.String()
	status["lastPing"] = healthStatus.LastPing
	if healthStatus.Error != "" {
		status["error"] = healthStatus.Error
	}
	status["connectionStats"] = h.redisClient.GetConnectionStats()
	return status
}
