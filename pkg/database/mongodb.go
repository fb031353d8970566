package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

const defaultDatabase = "ev_service"

// Connect establishes a connection to MongoDB. The database named in the URI
// wins over dbName.
func Connect(ctx context.Context, mongoURI, dbName string, logger zerolog.Logger) (*mongo.Database, error) {
	cs, err := connstring.ParseAndValidate(mongoURI)
	if err != nil {
		return nil, fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	name := DatabaseName(cs.Database, dbName)
	logger.Info().Str("database", name).Msg("Successfully connected to MongoDB")

	db := client.Database(name)
	if err := createIndexes(ctx, db, logger); err != nil {
		logger.Warn().Err(err).Msg("Failed to create indexes")
	}
	return db, nil
}

// DatabaseName picks the database to use
func DatabaseName(fromURI, configured string) string {
	switch {
	case fromURI != "":
		return fromURI
	case configured != "":
		return configured
	default:
		return defaultDatabase
	}
}

// Indexes returns the index models of every collection the mock backend lists.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		"customers": {
			{Keys: bson.D{{Key: "customer_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "customer_code", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "full_name", Value: 1}}},
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "type_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_date", Value: -1}}},
		},
		"customer_vehicles": {
			{Keys: bson.D{{Key: "vehicle_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "license_plate", Value: 1}}},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "model_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_date", Value: -1}}},
		},
		"inventory": {
			{Keys: bson.D{{Key: "part_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "part_code", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "part_name", Value: 1}}},
			{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "category_id", Value: 1}}},
		},
	}
}

func createIndexes(ctx context.Context, db *mongo.Database, logger zerolog.Logger) error {
	var failed int
	for collection, models := range Indexes() {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			failed++
			logger.Error().Err(err).Str("collection", collection).Msg("Failed to create indexes")
		}
	}
	if failed > 0 {
		return fmt.Errorf("index creation failed for %d collections", failed)
	}
	logger.Debug().Msg("Database indexes created successfully")
	return nil
}

// Disconnect closes the MongoDB connection
func Disconnect(client *mongo.Client, logger zerolog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}

	logger.Info().Msg("Disconnected from MongoDB")
	return nil
}

// Health checks the database connection health
func Health(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return db.Client().Ping(ctx, nil)
}
