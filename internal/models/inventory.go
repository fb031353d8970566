package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryItem is a spare part in stock.
type InventoryItem struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	PartID          int                `bson:"part_id" json:"partId"`
	PartCode        string             `bson:"part_code" json:"partCode"`
	PartName        string             `bson:"part_name" json:"partName"`
	CategoryID      int                `bson:"category_id" json:"categoryId"`
	CategoryName    string             `bson:"category_name" json:"categoryName"`
	QuantityInStock int                `bson:"quantity_in_stock" json:"quantityInStock"`
	UnitPrice       float64            `bson:"unit_price" json:"unitPrice"`
	IsActive        bool               `bson:"is_active" json:"isActive"`
	CreatedDate     time.Time          `bson:"created_date" json:"createdDate"`
}

type PartCategory struct {
	ID   int
	Name string
}

var PartCategories = []PartCategory{
	{ID: 1, Name: "Battery"},
	{ID: 2, Name: "Brakes"},
	{ID: 3, Name: "Tyres"},
	{ID: 4, Name: "Charging"},
	{ID: 5, Name: "Filters"},
}
