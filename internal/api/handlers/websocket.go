package handlers

import (
	"errors"
	"net/http"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/services"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/websocket"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// WebSocketHandler opens list view sessions
type WebSocketHandler struct {
	manager   *websocket.Manager
	source    services.ViewSource
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(manager *websocket.Manager, source services.ViewSource, logger zerolog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		manager:   manager,
		source:    source,
		validator: validator.New(),
		logger:    logger.With().Str("component", "websocket_handler").Logger(),
	}
}

// HandleWebSocket upgrades the connection and starts a list view at the
// coordinates given in the query string.
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	resource := c.Param("resource")

	_, defaults, err := h.source.View(resource)
	if err != nil {
		unknownResource(c, err)
		return
	}

	q, err := bindViewQuery(c, h.validator)
	if err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}
	initial := q.Apply(defaults)

	if err := h.manager.Serve(c.Writer, c.Request, resource, &initial); err != nil {
		if errors.Is(err, websocket.ErrManagerStopped) {
			utils.ErrorResponse(c, http.StatusServiceUnavailable, "Server is shutting down", err)
			return
		}
		// the upgrader has already answered the request
		h.logger.Warn().Err(err).Str("resource", resource).Msg("failed to open list view session")
		return
	}
}

// DisconnectClient closes a session (for admin purposes)
func (h *WebSocketHandler) DisconnectClient(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if err := h.manager.UnregisterClient(sessionID); err != nil {
		utils.ErrorResponse(c, http.StatusNotFound, "Session not found", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Session disconnected successfully", nil)
}
