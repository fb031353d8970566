package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Customer is served by the mock backend in upper camel case, the way the
// real customers endpoint answers.
type Customer struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	CustomerID   int                `bson:"customer_id" json:"CustomerId"`
	CustomerCode string             `bson:"customer_code" json:"CustomerCode"`
	FullName     string             `bson:"full_name" json:"FullName"`
	PhoneNumber  string             `bson:"phone_number" json:"PhoneNumber"`
	Email        string             `bson:"email" json:"Email"`
	TypeID       int                `bson:"type_id" json:"TypeId"`
	TypeName     string             `bson:"type_name" json:"TypeName"`
	IsActive     bool               `bson:"is_active" json:"IsActive"`
	TotalSpent   float64            `bson:"total_spent" json:"TotalSpent"`
	CreatedDate  time.Time          `bson:"created_date" json:"CreatedDate"`
}

// Customer types
const (
	CustomerTypeIndividual = 1
	CustomerTypeCorporate  = 2
	CustomerTypeFleet      = 3
)

var customerTypeNames = map[int]string{
	CustomerTypeIndividual: "Individual",
	CustomerTypeCorporate:  "Corporate",
	CustomerTypeFleet:      "Fleet",
}

// CustomerTypeName returns the display name of a customer type id.
func CustomerTypeName(id int) string {
	if name, ok := customerTypeNames[id]; ok {
		return name
	}
	return "Unknown"
}
