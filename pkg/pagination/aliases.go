package pagination

// AliasTable lists, per logical field, the candidate names a backend may use
// for it. Candidates are tried in order and the first present, non-null value
// wins. The backend mixes lower and upper camel case and several wrapper names
// across endpoints; this table is the only place that knows about it.
type AliasTable struct {
	Envelope   []string
	Items      []string
	Page       []string
	PageSize   []string
	TotalCount []string
	TotalPages []string
}

// DefaultAliases covers every naming convention observed on the EV-service API.
var DefaultAliases = AliasTable{
	Envelope:   []string{"data", "Data", "payload", "Payload", "result", "Result", "items", "Items"},
	Items:      []string{"items", "Items", "data", "Data"},
	Page:       []string{"page", "Page", "pageNumber", "PageNumber", "currentPage", "CurrentPage"},
	PageSize:   []string{"pageSize", "PageSize", "limit", "Limit"},
	TotalCount: []string{"totalCount", "TotalCount", "totalItems", "TotalItems", "count", "Count"},
	TotalPages: []string{"totalPages", "TotalPages", "pageCount", "PageCount"},
}

// lookup returns the first candidate present in record with a non-null value.
func lookup(record map[string]any, candidates []string) (any, bool) {
	for _, name := range candidates {
		if v, ok := record[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// hasPagingMetadata reports whether record carries any paging field, which
// marks it as the page record itself rather than another wrapper.
func (t AliasTable) hasPagingMetadata(record map[string]any) bool {
	for _, candidates := range [][]string{t.Page, t.PageSize, t.TotalCount, t.TotalPages} {
		if _, ok := lookup(record, candidates); ok {
			return true
		}
	}
	return false
}
