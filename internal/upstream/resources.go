package upstream

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/pkg/listquery"
)

// Resource describes one paginated list endpoint of the backend.
type Resource struct {
	Name        string
	Path        string
	DefaultSort listquery.SortOption
	// TypeParam is the query parameter a numeric type filter is sent as.
	TypeParam string
	// Extra parameters sent with every request.
	Extra url.Values
}

var resources = map[string]Resource{
	"customers": {
		Name:        "customers",
		Path:        "/customers",
		DefaultSort: listquery.ParseSortOption("FullName:asc"),
		TypeParam:   "typeId",
		Extra:       url.Values{"includeStats": {"true"}},
	},
	"vehicles": {
		Name:        "vehicles",
		Path:        "/customer-vehicles",
		DefaultSort: listquery.ParseSortOption("CreatedDate:desc"),
		TypeParam:   "modelId",
	},
	"inventory": {
		Name:        "inventory",
		Path:        "/inventory",
		DefaultSort: listquery.ParseSortOption("PartName:asc"),
		TypeParam:   "categoryId",
	},
}

// LookupResource returns the resource registered under name
func LookupResource(name string) (Resource, bool) {
	r, ok := resources[strings.ToLower(strings.TrimSpace(name))]
	return r, ok
}

// ResourceNames returns the registered resource names, sorted.
func ResourceNames() []string {
	names := make([]string, 0, len(resources))
	for name := range resources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defaults returns the starting coordinates of a view over r.
func (r Resource) Defaults() listquery.Coordinates {
	return listquery.Defaults(r.DefaultSort)
}

// Query encodes coords as the backend's query string. A missing sort field
// falls back to the resource default.
func (r Resource) Query(coords listquery.Coordinates) url.Values {
	c := coords.Normalized()
	q := url.Values{}
	for k, v := range r.Extra {
		q[k] = append([]string(nil), v...)
	}

	q.Set("page", strconv.Itoa(c.Page))
	q.Set("pageSize", strconv.Itoa(c.PageSize))

	sortOpt := c.Sort
	if sortOpt.IsZero() {
		sortOpt = r.DefaultSort
	}
	if !sortOpt.IsZero() {
		q.Set("sortBy", sortOpt.Field)
		q.Set("sortDesc", strconv.FormatBool(sortOpt.Descending()))
	}

	if c.SearchTerm != "" {
		q.Set("searchTerm", c.SearchTerm)
	}
	if active, restricted := c.Status.Active(); restricted {
		q.Set("isActive", strconv.FormatBool(active))
	}
	if id, ok := c.Type.ID(); ok && r.TypeParam != "" {
		q.Set(r.TypeParam, strconv.Itoa(id))
	}
	return q
}
