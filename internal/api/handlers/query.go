package handlers

import (
	"fmt"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ViewQuery carries list coordinates in a query string. Absent fields keep
// the resource defaults.
type ViewQuery struct {
	Page       int    `form:"page" validate:"omitempty,min=1"`
	PageSize   int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
	SearchTerm string `form:"searchTerm" validate:"max=200"`
	Status     string `form:"status" validate:"omitempty,oneof=all active inactive"`
	Type       string `form:"type" validate:"max=20"`
	Sort       string `form:"sort" validate:"max=100"`
}

// bindViewQuery parses and validates the query string of c.
func bindViewQuery(c *gin.Context, validate *validator.Validate) (ViewQuery, error) {
	var q ViewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, err
	}
	if err := validate.Struct(&q); err != nil {
		return q, err
	}
	if q.Type != "" && !listquery.TypeFilter(q.Type).IsValid() {
		return q, fmt.Errorf("type must be %q or a positive id, got %q", listquery.FilterAll, q.Type)
	}
	return q, nil
}

// Apply overlays the query on defaults.
func (q ViewQuery) Apply(defaults listquery.Coordinates) listquery.Coordinates {
	c := defaults
	if q.PageSize > 0 {
		c = c.WithPageSize(q.PageSize)
	}
	if q.SearchTerm != "" {
		c = c.WithSearchTerm(q.SearchTerm)
	}
	if q.Status != "" {
		c = c.WithStatus(listquery.StatusFilter(q.Status))
	}
	if q.Type != "" {
		c = c.WithType(listquery.TypeFilter(q.Type))
	}
	if q.Sort != "" {
		if sort := listquery.ParseSortOption(q.Sort); !sort.IsZero() {
			c = c.WithSort(sort)
		}
	}
	// page last: every other change returns to the first page
	if q.Page > 0 {
		c = c.WithPage(q.Page)
	}
	return c.Normalized()
}
