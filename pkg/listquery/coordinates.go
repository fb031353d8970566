package listquery

import (
	"strconv"
	"strings"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10

	// FilterAll is the sentinel used for an absent status or type filter.
	FilterAll = "all"
)

// StatusFilter restricts a list to active or inactive records
type StatusFilter string

const (
	StatusAll      StatusFilter = FilterAll
	StatusActive   StatusFilter = "active"
	StatusInactive StatusFilter = "inactive"
)

// IsValid reports whether the filter is one of the known values (empty counts as all)
func (s StatusFilter) IsValid() bool {
	switch s.canonical() {
	case StatusAll, StatusActive, StatusInactive:
		return true
	}
	return false
}

// Active returns the requested activity flag and whether the filter restricts at all.
func (s StatusFilter) Active() (active bool, restricted bool) {
	switch s.canonical() {
	case StatusActive:
		return true, true
	case StatusInactive:
		return false, true
	}
	return false, false
}

func (s StatusFilter) canonical() StatusFilter {
	v := StatusFilter(strings.ToLower(strings.TrimSpace(string(s))))
	if v == "" {
		return StatusAll
	}
	return v
}

// TypeFilter is either "all" or a numeric type id rendered as a string.
type TypeFilter string

const TypeAll TypeFilter = FilterAll

// TypeFilterFromID builds a filter for a single type id
func TypeFilterFromID(id int) TypeFilter {
	return TypeFilter(strconv.Itoa(id))
}

// ID returns the numeric type id, or false when the filter does not restrict.
func (t TypeFilter) ID() (int, bool) {
	c := t.canonical()
	if c == TypeAll {
		return 0, false
	}
	id, err := strconv.Atoi(string(c))
	if err != nil {
		return 0, false
	}
	return id, true
}

// IsValid reports whether the filter is "all" or a parsable integer
func (t TypeFilter) IsValid() bool {
	c := t.canonical()
	if c == TypeAll {
		return true
	}
	_, err := strconv.Atoi(string(c))
	return err == nil
}

func (t TypeFilter) canonical() TypeFilter {
	v := TypeFilter(strings.ToLower(strings.TrimSpace(string(t))))
	if v == "" {
		return TypeAll
	}
	if id, err := strconv.Atoi(string(v)); err == nil {
		return TypeFilterFromID(id)
	}
	return v
}

// SortDirection is asc or desc
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortOption is a field name plus a direction, written as "Field:dir" on the wire.
type SortOption struct {
	Field     string        `json:"field"`
	Direction SortDirection `json:"direction"`
}

// ParseSortOption parses "Field:dir". Anything other than "desc" sorts ascending.
func ParseSortOption(value string) SortOption {
	field, direction, _ := strings.Cut(strings.TrimSpace(value), ":")
	opt := SortOption{Field: strings.TrimSpace(field), Direction: SortAsc}
	if strings.EqualFold(strings.TrimSpace(direction), string(SortDesc)) {
		opt.Direction = SortDesc
	}
	return opt
}

// Descending reports whether the option sorts in descending order
func (s SortOption) Descending() bool {
	return strings.EqualFold(string(s.Direction), string(SortDesc))
}

// IsZero reports whether no sort field was chosen
func (s SortOption) IsZero() bool {
	return strings.TrimSpace(s.Field) == ""
}

func (s SortOption) String() string {
	if s.IsZero() {
		return ""
	}
	direction := SortAsc
	if s.Descending() {
		direction = SortDesc
	}
	return strings.TrimSpace(s.Field) + ":" + string(direction)
}

// Coordinates is the complete input to a list fetch. It is a value type: every
// With* method returns a modified copy and never touches the receiver.
type Coordinates struct {
	Page       int          `json:"page" validate:"min=1"`
	PageSize   int          `json:"pageSize" validate:"min=1,max=200"`
	SearchTerm string       `json:"searchTerm" validate:"max=200"`
	Status     StatusFilter `json:"status"`
	Type       TypeFilter   `json:"type"`
	Sort       SortOption   `json:"sort"`
}

// Defaults returns the canonical starting coordinates for a view sorted by sort.
func Defaults(sort SortOption) Coordinates {
	return Coordinates{
		Page:     DefaultPage,
		PageSize: DefaultPageSize,
		Status:   StatusAll,
		Type:     TypeAll,
		Sort:     sort,
	}
}

// Normalized clamps paging to positive values, trims the search term and
// replaces absent filters with "all". Case of the search term is kept because
// it is forwarded to the backend; the cache key folds it.
func (c Coordinates) Normalized() Coordinates {
	if c.Page < 1 {
		c.Page = DefaultPage
	}
	if c.PageSize < 1 {
		c.PageSize = DefaultPageSize
	}
	c.SearchTerm = strings.TrimSpace(c.SearchTerm)
	c.Status = c.Status.canonical()
	c.Type = c.Type.canonical()
	if !c.Sort.IsZero() {
		c.Sort = ParseSortOption(c.Sort.String())
	}
	return c
}

// WithPage moves to another page, keeping everything else.
func (c Coordinates) WithPage(page int) Coordinates {
	c.Page = page
	return c
}

// WithPageSize changes the page size and returns to the first page.
func (c Coordinates) WithPageSize(size int) Coordinates {
	c.PageSize = size
	c.Page = DefaultPage
	return c
}

// WithSearchTerm changes the search term and returns to the first page.
func (c Coordinates) WithSearchTerm(term string) Coordinates {
	c.SearchTerm = term
	c.Page = DefaultPage
	return c
}

// WithStatus changes the status filter and returns to the first page.
func (c Coordinates) WithStatus(status StatusFilter) Coordinates {
	c.Status = status
	c.Page = DefaultPage
	return c
}

// WithType changes the type filter and returns to the first page.
func (c Coordinates) WithType(t TypeFilter) Coordinates {
	c.Type = t
	c.Page = DefaultPage
	return c
}

// WithSort changes the sort option and returns to the first page.
func (c Coordinates) WithSort(sort SortOption) Coordinates {
	c.Sort = sort
	c.Page = DefaultPage
	return c
}
