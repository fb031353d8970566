package handlers

import (
	"net/http"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/services"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/websocket"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/cache"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/ratelimit"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/utils"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	manager *websocket.Manager
	listing *services.ListingService
	limiter ratelimit.RateLimiter
}

// NewStatsHandler creates a stats handler. limiter may be nil when rate
// limiting is disabled.
func NewStatsHandler(manager *websocket.Manager, listing *services.ListingService, limiter ratelimit.RateLimiter) *StatsHandler {
	return &StatsHandler{
		manager: manager,
		listing: listing,
		limiter: limiter,
	}
}

type StatsResponse struct {
	Sessions  websocket.ClientStats       `json:"sessions"`
	Snapshots []cache.CacheStats          `json:"snapshots"`
	RateLimit *ratelimit.RateLimiterStats `json:"rateLimit,omitempty"`
}

func (h *StatsHandler) GetStats(c *gin.Context) {
	response := StatsResponse{
		Sessions:  h.manager.GetClientStats(),
		Snapshots: h.listing.Stats(),
	}
	if h.limiter != nil {
		stats := h.limiter.GetStats()
		response.RateLimit = &stats
	}
	utils.SuccessResponse(c, http.StatusOK, "Statistics retrieved successfully", response)
}
