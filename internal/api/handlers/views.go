package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/services"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/upstream"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

type ViewHandler struct {
	listing   *services.ListingService
	validator *validator.Validate
	logger    zerolog.Logger
}

func NewViewHandler(listing *services.ListingService, logger zerolog.Logger) *ViewHandler {
	return &ViewHandler{
		listing:   listing,
		validator: validator.New(),
		logger:    logger.With().Str("component", "views").Logger(),
	}
}

// GetSnapshot returns one page of a resource. A cached page is answered
// immediately with X-Cache: STALE and refreshed in the background.
func (h *ViewHandler) GetSnapshot(c *gin.Context) {
	resource := c.Param("resource")

	defaults, err := h.listing.Defaults(resource)
	if err != nil {
		unknownResource(c, err)
		return
	}

	q, err := bindViewQuery(c, h.validator)
	if err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	snap, err := h.listing.Snapshot(c.Request.Context(), resource, q.Apply(defaults))
	if err != nil {
		h.logger.Warn().Err(err).Str("resource", resource).Msg("snapshot fetch failed")
		utils.ErrorResponse(c, statusForUpstream(err), "Failed to load "+resource, err)
		return
	}

	c.Header("X-Cache", snap.CacheStatus)
	c.Header("Last-Modified", snap.FetchedAt.UTC().Format(http.TimeFormat))
	from, to := snap.Page.Range()
	utils.PaginatedResponse(c, http.StatusOK, "Page retrieved successfully", snap.Page.Items, utils.Pagination{
		Page:       snap.Page.Page,
		PageSize:   snap.Page.PageSize,
		TotalCount: snap.Page.TotalCount,
		TotalPages: snap.Page.TotalPages,
		From:       from,
		To:         to,
	})
}

// unknownResource answers 404 and names the resources that exist.
func unknownResource(c *gin.Context, err error) {
	utils.ErrorResponse(c, http.StatusNotFound,
		"Unknown resource, expected one of: "+strings.Join(upstream.ResourceNames(), ", "), err)
}

// statusForUpstream maps a backend failure to the status the BFF answers with.
func statusForUpstream(err error) int {
	var httpErr *upstream.HTTPError
	switch {
	case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound:
		return http.StatusNotFound
	case errors.Is(err, upstream.ErrRejected):
		return http.StatusUnprocessableEntity
	case upstream.IsTemporary(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
