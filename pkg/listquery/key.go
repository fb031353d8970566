package listquery

import (
	"encoding/json"
	"strings"
)

// Key is the canonical cache key of a set of coordinates.
type Key string

// keyFields is encoded through a map so encoding/json emits the fields in
// sorted order regardless of how the struct is declared.
type keyFields map[string]any

// BuildKey derives the cache key for c. Coordinates that only differ in the
// case or surrounding whitespace of the search term, in an empty versus "all"
// filter, or in invalid paging values that clamp to the same defaults, share
// a key.
func BuildKey(c Coordinates) Key {
	n := c.Normalized()

	fields := keyFields{
		"page":     n.Page,
		"pageSize": n.PageSize,
		"search":   strings.ToLower(n.SearchTerm),
		"status":   string(n.Status),
		"type":     string(n.Type),
		"sort":     n.Sort.String(),
	}

	// A map of ints and strings always marshals.
	data, _ := json.Marshal(fields)
	return Key(data)
}

func (k Key) String() string {
	return string(k)
}
