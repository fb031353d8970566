package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type CustomerVehicle struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	VehicleID    int                `bson:"vehicle_id" json:"vehicleId"`
	CustomerID   int                `bson:"customer_id" json:"customerId"`
	CustomerName string             `bson:"customer_name" json:"customerName"`
	LicensePlate string             `bson:"license_plate" json:"licensePlate"`
	VIN          string             `bson:"vin" json:"vin"`
	ModelID      int                `bson:"model_id" json:"modelId"`
	ModelName    string             `bson:"model_name" json:"modelName"`
	Color        string             `bson:"color" json:"color"`
	Mileage      int                `bson:"mileage" json:"mileage"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	CreatedDate  time.Time          `bson:"created_date" json:"createdDate"`
}

// VehicleModel is one entry of the model catalogue vehicles refer to.
type VehicleModel struct {
	ID   int
	Name string
}

var VehicleModels = []VehicleModel{
	{ID: 1, Name: "VinFast VF e34"},
	{ID: 2, Name: "VinFast VF 5"},
	{ID: 3, Name: "VinFast VF 8"},
	{ID: 4, Name: "Tesla Model 3"},
	{ID: 5, Name: "Hyundai Ioniq 5"},
}
