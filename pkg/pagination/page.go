package pagination

import "math"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Page is the canonical, shape-independent paging result.
//
// Items holds opaque records exactly as decoded from the backend. A Page is
// treated as immutable once built: callers replace pages, they never edit
// Items in place.
type Page struct {
	Items      []any `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
	TotalCount int   `json:"totalCount"`
}

// Empty returns a renderable page with no items
func Empty(pageSize int) Page {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return Page{
		Items:    []any{},
		Page:     DefaultPage,
		PageSize: pageSize,
	}
}

// TotalPagesFor derives a page count from a total item count.
func TotalPagesFor(totalCount, pageSize int) int {
	if totalCount <= 0 {
		return 0
	}
	if pageSize < 1 {
		pageSize = 1
	}
	return max(1, int(math.Ceil(float64(totalCount)/float64(pageSize))))
}

// Range returns the 1-based positions of the first and last item on the page,
// the way list footers show "11-20 of 57". An empty page yields 0, 0.
func (p Page) Range() (start, end int) {
	if len(p.Items) == 0 {
		return 0, 0
	}
	offset := (max(p.Page, 1) - 1) * max(p.PageSize, 1)
	return offset + 1, offset + len(p.Items)
}
