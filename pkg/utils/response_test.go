package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageChange struct {
	Type     string `validate:"required,oneof=set_page set_sort"`
	Page     int    `validate:"required_if=Type set_page"`
	PageSize int    `validate:"lte=200"`
	Sort     string `validate:"max=10"`
}

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestValidationErrorResponse(t *testing.T) {
	err := validator.New().Struct(pageChange{Type: "set_page", PageSize: 500, Sort: "CreatedDate:desc"})
	require.Error(t, err)

	c, w := newContext()
	ValidationErrorResponse(c, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())

	body := decodeResponse(t, w)
	assert.False(t, body.Success)
	assert.Equal(t, "Validation failed", body.Message)
	assert.ElementsMatch(t, []any{
		"Page is required",
		"PageSize must be at most 200",
		"Sort must be at most 10",
	}, body.Error)
}

func TestValidationErrorResponse_OneOfAndPlainErrors(t *testing.T) {
	err := validator.New().Struct(pageChange{Type: "delete"})
	c, w := newContext()
	ValidationErrorResponse(c, err)
	assert.Equal(t, []any{"Type must be one of: set_page set_sort"}, decodeResponse(t, w).Error)

	c, w = newContext()
	ValidationErrorResponse(c, errors.New("strconv.ParseInt: parsing \"abc\": invalid syntax"))
	assert.Equal(t, []any{"strconv.ParseInt: parsing \"abc\": invalid syntax"}, decodeResponse(t, w).Error)
}

func TestErrorResponse(t *testing.T) {
	c, w := newContext()
	ErrorResponse(c, http.StatusBadGateway, "Failed to load customers", errors.New("connection reset"))

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.True(t, c.IsAborted())
	body := decodeResponse(t, w)
	assert.Equal(t, "Failed to load customers", body.Message)
	assert.Equal(t, "connection reset", body.Error)
}

func TestPaginatedResponse(t *testing.T) {
	c, w := newContext()
	PaginatedResponse(c, http.StatusOK, "ok", []int{1, 2}, Pagination{
		Page: 2, PageSize: 10, TotalCount: 12, TotalPages: 2, From: 11, To: 12,
	})

	require.Equal(t, http.StatusOK, w.Code)
	var body PaginationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 11, body.Pagination.From)
	assert.Equal(t, 12, body.Pagination.To)
}
