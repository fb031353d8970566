package mockapi

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/models"
	"github.com/hoclaptrinh0414-cmyk/ev-service-management-sub004/internal/repository"
)

const (
	sampleCustomers = 120
	sampleVehicles  = 200
)

// Store holds the repositories behind the mock backend.
type Store struct {
	Customers *repository.ListRepository[models.Customer]
	Vehicles  *repository.ListRepository[models.CustomerVehicle]
	Inventory *repository.ListRepository[models.InventoryItem]
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		Customers: repository.NewListRepository[models.Customer](db, repository.CustomerSpec),
		Vehicles:  repository.NewListRepository[models.CustomerVehicle](db, repository.VehicleSpec),
		Inventory: repository.NewListRepository[models.InventoryItem](db, repository.InventorySpec),
	}
}

// Resources returns the endpoints served from s, each with the envelope the
// real backend uses for it.
func (s *Store) Resources() []Resource {
	return []Resource{
		{
			Path:      "/customers",
			TypeParam: "typeId",
			Lister:    ListerFor[models.Customer](s.Customers),
			Envelope:  UpperCamelEnvelope("Customers retrieved successfully"),
		},
		{
			Path:      "/customer-vehicles",
			TypeParam: "modelId",
			Lister:    ListerFor[models.CustomerVehicle](s.Vehicles),
			Envelope:  LowerCamelEnvelope,
		},
		{
			Path:      "/inventory",
			TypeParam: "categoryId",
			Lister:    ListerFor[models.InventoryItem](s.Inventory),
			Envelope:  ResultEnvelope,
		},
	}
}

// Seed fills empty collections with sample data. Collections that already
// hold documents are left alone.
func (s *Store) Seed(ctx context.Context, logger zerolog.Logger) error {
	now := time.Now().Truncate(time.Second)
	customers := models.SampleCustomers(sampleCustomers, now)

	n, err := s.Customers.SeedIfEmpty(ctx, customers)
	if err != nil {
		return err
	}
	logger.Info().Int("inserted", n).Msg("seeded customers")

	n, err = s.Vehicles.SeedIfEmpty(ctx, models.SampleVehicles(sampleVehicles, customers, now))
	if err != nil {
		return err
	}
	logger.Info().Int("inserted", n).Msg("seeded customer vehicles")

	n, err = s.Inventory.SeedIfEmpty(ctx, models.SampleInventory(now))
	if err != nil {
		return err
	}
	logger.Info().Int("inserted", n).Msg("seeded inventory")
	return nil
}
