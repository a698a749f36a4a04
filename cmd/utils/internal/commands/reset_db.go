package commands

import (
	"context"
	"fmt"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ClearArchive drops the drained batch archive collection.
func ClearArchive(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	client, dbName, err := connectMongo(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	if err := client.Database(dbName).Collection("batch_archive").Drop(ctx); err != nil {
		return fmt.Errorf("drop batch_archive: %w", err)
	}

	logger.Info("Batch archive cleared", "database", dbName)
	return nil
}

// ResetDB drops the consolidator database - USE WITH CAUTION
func ResetDB(ctx context.Context, config *apt.Config, logger apt.Logger) error {
	logger.Infof("⚠️  DANGER: This will drop the consolidator database!")
	logger.Infof("⚠️  This action cannot be undone!")

	client, dbName, err := connectMongo(ctx, config)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)

	result := client.Database(dbName).RunCommand(ctx, bson.D{{Key: "dropDatabase", Value: 1}})
	if result.Err() != nil {
		return fmt.Errorf("drop database %s: %w", dbName, result.Err())
	}

	logger.Info("Database dropped", "database", dbName)
	return nil
}

func connectMongo(ctx context.Context, config *apt.Config) (*mongo.Client, string, error) {
	mongoURL := config.GetStringOrDef("db.mongo.url", "mongodb://localhost:27017")
	dbName := config.GetStringOrDef("db.mongo.name", "otter_consolidator")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, "", fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, "", fmt.Errorf("ping mongodb: %w", err)
	}

	return client, dbName, nil
}
