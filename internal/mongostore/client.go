// Package mongostore implements the usage and seat repositories on MongoDB.
package mongostore

import (
	"context"
	"time"

	"github.com/smallbiznis/copilot-insights/internal/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	UsageCollection = "GetMetricsData"
	SeatCollection  = "BillingSeats"
)

// Open connects to MongoDB and returns the configured database. The client is
// pinged and indexed on start and disconnected on stop.
func Open(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*mongo.Database, error) {
	client, err := mongo.Connect(context.Background(), options.Client().
		ApplyURI(cfg.MongoURI).
		SetAppName(cfg.AppName).
		SetServerSelectionTimeout(10*time.Second))
	if err != nil {
		return nil, err
	}
	database := client.Database(cfg.MongoDatabase)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx, nil); err != nil {
				return err
			}
			return EnsureIndexes(ctx, database)
		},
		OnStop: func(ctx context.Context) error {
			log.Info("closing mongo client", zap.String("database", cfg.MongoDatabase))
			return client.Disconnect(ctx)
		},
	})

	log.Info("mongo configured", zap.String("database", cfg.MongoDatabase))
	return database, nil
}

// EnsureIndexes creates the unique date index on the usage collection.
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(UsageCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

// Catalog lists the collections of the database.
type Catalog struct {
	db *mongo.Database
}

func NewCatalog(database *mongo.Database) *Catalog {
	return &Catalog{db: database}
}

func (c *Catalog) Collections(ctx context.Context) ([]string, error) {
	return c.db.ListCollectionNames(ctx, bson.D{})
}
