package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildFilter(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		assert.Empty(t, BuildFilter(CustomerSpec, ListQuery{SearchTerm: "   "}))
	})

	t.Run("SearchIsLiteralAndCaseInsensitive", func(t *testing.T) {
		filter := BuildFilter(InventorySpec, ListQuery{SearchTerm: " 215/55R17 (x) "})

		or, ok := filter["$or"].(bson.A)
		require.True(t, ok)
		require.Len(t, or, len(InventorySpec.SearchFields))

		clause := or[0].(bson.M)
		regex := clause["part_name"].(primitive.Regex)
		assert.Equal(t, `215/55R17 \(x\)`, regex.Pattern)
		assert.Equal(t, "i", regex.Options)
	})

	t.Run("StatusAndType", func(t *testing.T) {
		inactive := false
		filter := BuildFilter(VehicleSpec, ListQuery{IsActive: &inactive, TypeID: 3})

		assert.Equal(t, false, filter["is_active"])
		assert.Equal(t, 3, filter["model_id"])
		assert.NotContains(t, filter, "$or")
	})
}

func TestBuildFindOptions(t *testing.T) {
	tests := []struct {
		name      string
		spec      CollectionSpec
		query     ListQuery
		wantSort  bson.D
		wantSkip  int64
		wantLimit int64
	}{
		{
			name:      "KnownSortCaseInsensitive",
			spec:      CustomerSpec,
			query:     ListQuery{Page: 3, PageSize: 20, SortBy: "TotalSpent", SortDesc: true},
			wantSort:  bson.D{{Key: "total_spent", Value: -1}, {Key: "_id", Value: -1}},
			wantSkip:  40,
			wantLimit: 20,
		},
		{
			name:      "UnknownSortUsesDefault",
			spec:      VehicleSpec,
			query:     ListQuery{Page: 1, PageSize: 10, SortBy: "colour"},
			wantSort:  bson.D{{Key: "created_date", Value: -1}, {Key: "_id", Value: -1}},
			wantSkip:  0,
			wantLimit: 10,
		},
		{
			name:      "ZeroPaging",
			spec:      InventorySpec,
			query:     ListQuery{},
			wantSort:  bson.D{{Key: "part_name", Value: 1}, {Key: "_id", Value: 1}},
			wantSkip:  0,
			wantLimit: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := BuildFindOptions(tt.spec, tt.query)

			assert.Equal(t, tt.wantSort, opts.Sort)
			require.NotNil(t, opts.Skip)
			require.NotNil(t, opts.Limit)
			assert.Equal(t, tt.wantSkip, *opts.Skip)
			assert.Equal(t, tt.wantLimit, *opts.Limit)
		})
	}
}
