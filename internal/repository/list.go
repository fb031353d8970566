package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const queryTimeout = 10 * time.Second

// CollectionSpec describes how a list query maps onto one collection.
type CollectionSpec struct {
	Collection   string
	SearchFields []string
	TypeField    string
	// SortFields maps lower-cased API sort names to document fields.
	SortFields  map[string]string
	DefaultSort string
	DefaultDesc bool
}

var CustomerSpec = CollectionSpec{
	Collection:   "customers",
	SearchFields: []string{"full_name", "customer_code", "phone_number", "email"},
	TypeField:    "type_id",
	SortFields: map[string]string{
		"fullname":     "full_name",
		"customercode": "customer_code",
		"email":        "email",
		"totalspent":   "total_spent",
		"createddate":  "created_date",
	},
	DefaultSort: "full_name",
}

var VehicleSpec = CollectionSpec{
	Collection:   "customer_vehicles",
	SearchFields: []string{"license_plate", "vin", "model_name", "customer_name"},
	TypeField:    "model_id",
	SortFields: map[string]string{
		"licenseplate": "license_plate",
		"modelname":    "model_name",
		"mileage":      "mileage",
		"createddate":  "created_date",
	},
	DefaultSort: "created_date",
	DefaultDesc: true,
}

var InventorySpec = CollectionSpec{
	Collection:   "inventory",
	SearchFields: []string{"part_name", "part_code", "category_name"},
	TypeField:    "category_id",
	SortFields: map[string]string{
		"partname":        "part_name",
		"partcode":        "part_code",
		"quantityinstock": "quantity_in_stock",
		"unitprice":       "unit_price",
		"createddate":     "created_date",
	},
	DefaultSort: "part_name",
}

// ListQuery is a page request against a collection. Page and PageSize are
// expected to be positive.
type ListQuery struct {
	Page       int
	PageSize   int
	SearchTerm string
	IsActive   *bool
	TypeID     int
	SortBy     string
	SortDesc   bool
}

// BuildFilter turns q into a filter document. The search term matches any of
// the collection's search fields case-insensitively and literally.
func BuildFilter(spec CollectionSpec, q ListQuery) bson.M {
	filter := bson.M{}

	if term := strings.TrimSpace(q.SearchTerm); term != "" && len(spec.SearchFields) > 0 {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		or := make(bson.A, 0, len(spec.SearchFields))
		for _, field := range spec.SearchFields {
			or = append(or, bson.M{field: pattern})
		}
		filter["$or"] = or
	}
	if q.IsActive != nil {
		filter["is_active"] = *q.IsActive
	}
	if q.TypeID > 0 && spec.TypeField != "" {
		filter[spec.TypeField] = q.TypeID
	}
	return filter
}

// BuildFindOptions returns sort, skip and limit for q. Unknown sort names
// fall back to the collection default; _id breaks ties so pages are stable.
func BuildFindOptions(spec CollectionSpec, q ListQuery) *options.FindOptions {
	field, desc := spec.DefaultSort, spec.DefaultDesc
	if mapped, ok := spec.SortFields[strings.ToLower(strings.TrimSpace(q.SortBy))]; ok {
		field, desc = mapped, q.SortDesc
	}
	dir := 1
	if desc {
		dir = -1
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 10
	}

	return options.Find().
		SetSort(bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64((page - 1) * size)).
		SetLimit(int64(size))
}

// ListRepository serves paged lists of T from one collection.
type ListRepository[T any] struct {
	collection *mongo.Collection
	spec       CollectionSpec
}

func NewListRepository[T any](db *mongo.Database, spec CollectionSpec) *ListRepository[T] {
	return &ListRepository[T]{
		collection: db.Collection(spec.Collection),
		spec:       spec,
	}
}

// List returns the documents of the requested page and the number of
// documents matching the filter.
func (r *ListRepository[T]) List(ctx context.Context, q ListQuery) ([]T, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := BuildFilter(r.spec, q)

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", r.spec.Collection, err)
	}

	cursor, err := r.collection.Find(ctx, filter, BuildFindOptions(r.spec, q))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query %s: %w", r.spec.Collection, err)
	}
	defer cursor.Close(ctx)

	items := make([]T, 0, q.PageSize)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", r.spec.Collection, err)
	}
	return items, total, nil
}

// SeedIfEmpty inserts docs when the collection holds no documents yet and
// reports how many were inserted.
func (r *ListRepository[T]) SeedIfEmpty(ctx context.Context, docs []T) (int, error) {
	if len(docs) == 0 {
		return 0, nil
	}
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	n, err := r.collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.spec.Collection, err)
	}
	if n > 0 {
		return 0, nil
	}

	batch := make([]interface{}, len(docs))
	for i := range docs {
		batch[i] = docs[i]
	}
	result, err := r.collection.InsertMany(ctx, batch)
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) && result != nil {
			return len(result.InsertedIDs), fmt.Errorf("partial seed of %s: %w", r.spec.Collection, err)
		}
		return 0, fmt.Errorf("failed to seed %s: %w", r.spec.Collection, err)
	}
	return len(result.InsertedIDs), nil
}
