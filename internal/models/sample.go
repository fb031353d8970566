package models

import (
	"fmt"
	"time"
)

var (
	familyNames = []string{"Nguyễn", "Trần", "Lê", "Phạm", "Hoàng", "Vũ", "Đặng", "Bùi"}
	givenNames  = []string{"Văn An", "Thị Bình", "Minh Châu", "Quốc Dũng", "Thu Hà", "Gia Huy", "Ngọc Lan", "Đức Minh", "Thanh Tâm", "Anh Tuấn"}
	colors      = []string{"White", "Black", "Silver", "Red", "Blue"}
	partNames   = map[int][]string{
		1: {"Battery Module 48V", "Battery Cooling Pump", "12V Auxiliary Battery"},
		2: {"Front Brake Pads", "Rear Brake Disc", "Brake Fluid DOT4"},
		3: {"All-Season Tyre 215/55R17", "Tyre Pressure Sensor"},
		4: {"Type 2 Charging Cable", "Onboard Charger Fuse", "Charge Port Cover"},
		5: {"Cabin Air Filter", "HEPA Filter"},
	}
)

// SampleCustomers returns n deterministic customers created on consecutive
// days before base.
func SampleCustomers(n int, base time.Time) []Customer {
	out := make([]Customer, 0, n)
	for i := 0; i < n; i++ {
		typeID := i%3 + 1
		out = append(out, Customer{
			CustomerID:   i + 1,
			CustomerCode: fmt.Sprintf("KH%05d", i+1),
			FullName:     familyNames[i%len(familyNames)] + " " + givenNames[(i/len(familyNames))%len(givenNames)],
			PhoneNumber:  fmt.Sprintf("09%08d", 10000000+i*7919%90000000),
			Email:        fmt.Sprintf("customer%03d@example.com", i+1),
			TypeID:       typeID,
			TypeName:     CustomerTypeName(typeID),
			IsActive:     i%7 != 0,
			TotalSpent:   float64((i*37)%50) * 250000,
			CreatedDate:  base.AddDate(0, 0, -i).UTC(),
		})
	}
	return out
}

// SampleVehicles returns n deterministic vehicles owned by the given customers.
func SampleVehicles(n int, owners []Customer, base time.Time) []CustomerVehicle {
	out := make([]CustomerVehicle, 0, n)
	for i := 0; i < n; i++ {
		model := VehicleModels[i%len(VehicleModels)]
		v := CustomerVehicle{
			VehicleID:    i + 1,
			LicensePlate: fmt.Sprintf("%02dA-%03d.%02d", 29+i%8, (i*13)%1000, i%100),
			VIN:          fmt.Sprintf("RLLV%013d", i+1),
			ModelID:      model.ID,
			ModelName:    model.Name,
			Color:        colors[i%len(colors)],
			Mileage:      (i * 1733) % 120000,
			IsActive:     i%5 != 4,
			CreatedDate:  base.Add(-time.Duration(i) * 6 * time.Hour).UTC(),
		}
		if len(owners) > 0 {
			owner := owners[i%len(owners)]
			v.CustomerID = owner.CustomerID
			v.CustomerName = owner.FullName
		}
		out = append(out, v)
	}
	return out
}

// SampleInventory returns the parts catalogue with deterministic stock levels.
func SampleInventory(base time.Time) []InventoryItem {
	var out []InventoryItem
	id := 0
	for _, category := range PartCategories {
		for _, name := range partNames[category.ID] {
			id++
			out = append(out, InventoryItem{
				PartID:          id,
				PartCode:        fmt.Sprintf("PT-%d-%03d", category.ID, id),
				PartName:        name,
				CategoryID:      category.ID,
				CategoryName:    category.Name,
				QuantityInStock: (id * 17) % 60,
				UnitPrice:       float64(id*45) * 10000,
				IsActive:        id%6 != 0,
				CreatedDate:     base.AddDate(0, -id, 0).UTC(),
			})
		}
	}
	return out
}
