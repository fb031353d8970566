package mockapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/repository"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/utils"
)

const defaultPageSize = 10

// Lister returns one page of documents and the total number of matches.
type Lister interface {
	List(ctx context.Context, q repository.ListQuery) (any, int64, error)
}

// ListerFunc adapts a function to Lister.
type ListerFunc func(ctx context.Context, q repository.ListQuery) (any, int64, error)

func (f ListerFunc) List(ctx context.Context, q repository.ListQuery) (any, int64, error) {
	return f(ctx, q)
}

// ListerFor adapts a typed repository to Lister.
func ListerFor[T any](repo interface {
	List(ctx context.Context, q repository.ListQuery) ([]T, int64, error)
}) Lister {
	return ListerFunc(func(ctx context.Context, q repository.ListQuery) (any, int64, error) {
		items, total, err := repo.List(ctx, q)
		if err != nil {
			return nil, 0, err
		}
		return items, total, nil
	})
}

// Resource is one list endpoint of the mock backend.
type Resource struct {
	Path      string
	TypeParam string
	Lister    Lister
	Envelope  Envelope
}

type listParams struct {
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
	SearchTerm string `form:"searchTerm" validate:"max=200"`
	IsActive   *bool  `form:"isActive"`
	SortBy     string `form:"sortBy" validate:"omitempty,alphanum,max=50"`
	SortDesc   bool   `form:"sortDesc"`
}

type ListHandler struct {
	resource Resource
	validate *validator.Validate
	logger   zerolog.Logger
}

func NewListHandler(resource Resource, logger zerolog.Logger) *ListHandler {
	return &ListHandler{
		resource: resource,
		validate: validator.New(),
		logger:   logger.With().Str("resource", resource.Path).Logger(),
	}
}

// List handles GET on the resource path
func (h *ListHandler) List(c *gin.Context) {
	q, err := h.parse(c)
	if err != nil {
		utils.ValidationErrorResponse(c, err)
		return
	}

	items, total, err := h.resource.Lister.List(c.Request.Context(), q)
	if err != nil {
		h.logger.Error().Err(err).Msg("list query failed")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load list", nil)
		return
	}

	h.logger.Debug().
		Int("page", q.Page).
		Int("page_size", q.PageSize).
		Int64("total", total).
		Msg("served list page")

	c.JSON(http.StatusOK, h.resource.Envelope(items, total, q))
}

func (h *ListHandler) parse(c *gin.Context) (repository.ListQuery, error) {
	var p listParams
	if err := c.ShouldBindQuery(&p); err != nil {
		return repository.ListQuery{}, err
	}
	if err := h.validate.Struct(p); err != nil {
		return repository.ListQuery{}, err
	}

	q := repository.ListQuery{
		Page:       p.Page,
		PageSize:   p.PageSize,
		SearchTerm: strings.TrimSpace(p.SearchTerm),
		IsActive:   p.IsActive,
		SortBy:     p.SortBy,
		SortDesc:   p.SortDesc,
	}
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PageSize == 0 {
		q.PageSize = defaultPageSize
	}

	if h.resource.TypeParam != "" {
		if raw := strings.TrimSpace(c.Query(h.resource.TypeParam)); raw != "" {
			id, err := strconv.Atoi(raw)
			if err != nil || id < 0 {
				return repository.ListQuery{}, fmt.Errorf("%s must be a non-negative integer", h.resource.TypeParam)
			}
			q.TypeID = id
		}
	}
	return q, nil
}
