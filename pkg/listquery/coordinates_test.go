package listquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildKey_SearchTermIsCaseAndWhitespaceInsensitive(t *testing.T) {
	base := Defaults(ParseSortOption("FullName:asc"))

	a := base.WithSearchTerm("Tesla ")
	b := base.WithSearchTerm("tesla")
	c := base.WithSearchTerm("  TESLA")

	assert.Equal(t, BuildKey(a), BuildKey(b))
	assert.Equal(t, BuildKey(b), BuildKey(c))
}

func TestBuildKey_Idempotent(t *testing.T) {
	coords := Coordinates{Page: 3, PageSize: 20, SearchTerm: "VinFast", Status: StatusActive, Type: TypeFilterFromID(2), Sort: ParseSortOption("TotalSpent:desc")}

	first := BuildKey(coords)
	second := BuildKey(coords)
	again := BuildKey(coords.Normalized())

	assert.Equal(t, first, second)
	assert.Equal(t, first, again)
}

func TestBuildKey_AbsentFiltersUseAllSentinel(t *testing.T) {
	explicit := Coordinates{Page: 1, PageSize: 10, Status: StatusAll, Type: TypeAll}
	absent := Coordinates{Page: 1, PageSize: 10}
	upper := Coordinates{Page: 1, PageSize: 10, Status: "ALL", Type: " All "}

	assert.Equal(t, BuildKey(explicit), BuildKey(absent))
	assert.Equal(t, BuildKey(explicit), BuildKey(upper))
}

func TestBuildKey_DistinguishesSemanticChanges(t *testing.T) {
	base := Defaults(ParseSortOption("FullName:asc"))

	variants := []Coordinates{
		base,
		base.WithPage(2),
		base.WithPageSize(20),
		base.WithSearchTerm("tesla"),
		base.WithStatus(StatusActive),
		base.WithStatus(StatusInactive),
		base.WithType(TypeFilterFromID(1)),
		base.WithSort(ParseSortOption("FullName:desc")),
		base.WithSort(ParseSortOption("CreatedDate:asc")),
	}

	seen := make(map[Key]int)
	for i, v := range variants {
		key := BuildKey(v)
		if prev, ok := seen[key]; ok {
			t.Fatalf("variant %d collides with variant %d: %s", i, prev, key)
		}
		seen[key] = i
	}
}

func TestBuildKey_SortDirectionCase(t *testing.T) {
	a := Coordinates{Page: 1, PageSize: 10, Sort: SortOption{Field: "FullName", Direction: "DESC"}}
	b := Coordinates{Page: 1, PageSize: 10, Sort: ParseSortOption("FullName:desc")}
	c := Coordinates{Page: 1, PageSize: 10, Sort: SortOption{Field: "FullName"}}
	d := Coordinates{Page: 1, PageSize: 10, Sort: ParseSortOption("FullName:asc")}

	assert.Equal(t, BuildKey(a), BuildKey(b))
	assert.Equal(t, BuildKey(c), BuildKey(d))
}

func TestBuildKey_InvalidPagingClampsToDefaults(t *testing.T) {
	assert.Equal(t,
		BuildKey(Coordinates{Page: 1, PageSize: DefaultPageSize}),
		BuildKey(Coordinates{Page: 0, PageSize: -5}),
	)
}

func TestParseSortOption(t *testing.T) {
	tests := []struct {
		in   string
		want SortOption
	}{
		{"FullName:asc", SortOption{Field: "FullName", Direction: SortAsc}},
		{"TotalSpent:desc", SortOption{Field: "TotalSpent", Direction: SortDesc}},
		{"CreatedDate", SortOption{Field: "CreatedDate", Direction: SortAsc}},
		{"LoyaltyPoints:DESC", SortOption{Field: "LoyaltyPoints", Direction: SortDesc}},
		{"", SortOption{Field: "", Direction: SortAsc}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSortOption(tt.in))
		})
	}
}

func TestCoordinates_ChangesResetPage(t *testing.T) {
	coords := Defaults(SortOption{}).WithPage(4)
	require.Equal(t, 4, coords.Page)

	assert.Equal(t, 1, coords.WithPageSize(50).Page)
	assert.Equal(t, 1, coords.WithSearchTerm("x").Page)
	assert.Equal(t, 1, coords.WithStatus(StatusActive).Page)
	assert.Equal(t, 1, coords.WithType(TypeFilterFromID(3)).Page)
	assert.Equal(t, 1, coords.WithSort(ParseSortOption("A:desc")).Page)

	// receiver untouched
	assert.Equal(t, 4, coords.Page)
}

func TestFilters(t *testing.T) {
	active, restricted := StatusActive.Active()
	assert.True(t, active)
	assert.True(t, restricted)

	active, restricted = StatusInactive.Active()
	assert.False(t, active)
	assert.True(t, restricted)

	_, restricted = StatusFilter("").Active()
	assert.False(t, restricted)

	assert.False(t, StatusFilter("archived").IsValid())

	id, ok := TypeFilterFromID(7).ID()
	assert.True(t, ok)
	assert.Equal(t, 7, id)

	_, ok = TypeAll.ID()
	assert.False(t, ok)
	assert.False(t, TypeFilter("premium").IsValid())
}
