package mockapi

import (
	"github.com/gin-gonic/gin"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/repository"
)

// Envelope wraps one page of items the way a backend endpoint answers.
type Envelope func(items any, total int64, q repository.ListQuery) any

// UpperCamelEnvelope answers like the customers endpoint.
func UpperCamelEnvelope(message string) Envelope {
	return func(items any, total int64, q repository.ListQuery) any {
		return gin.H{
			"success": true,
			"message": message,
			"data": gin.H{
				"Items":      items,
				"TotalCount": total,
				"Page":       q.Page,
				"PageSize":   q.PageSize,
				"TotalPages": totalPages(total, q.PageSize),
			},
		}
	}
}

// LowerCamelEnvelope answers like the vehicles endpoint, which uses its own
// names for the paging fields and omits the page count.
func LowerCamelEnvelope(items any, total int64, q repository.ListQuery) any {
	return gin.H{
		"success": true,
		"data": gin.H{
			"items":      items,
			"totalItems": total,
			"pageNumber": q.Page,
			"limit":      q.PageSize,
		},
	}
}

// ResultEnvelope answers like the inventory endpoint: the page sits under
// "result" with the items in "data" and yet another set of paging names.
func ResultEnvelope(items any, total int64, q repository.ListQuery) any {
	return gin.H{
		"result": gin.H{
			"data":        items,
			"count":       total,
			"currentPage": q.Page,
			"pageSize":    q.PageSize,
			"pageCount":   totalPages(total, q.PageSize),
		},
	}
}

func totalPages(total int64, pageSize int) int64 {
	if pageSize < 1 || total <= 0 {
		return 0
	}
	return (total + int64(pageSize) - 1) / int64(pageSize)
}
