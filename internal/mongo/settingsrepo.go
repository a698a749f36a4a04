package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/appetiteclub/apt"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/liwesley02/otter-consolidator/internal/consolidator"
)

const settingsDocID = "consolidator"

type SettingsRepo struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	logger     apt.Logger
	config     *apt.Config
}

func NewSettingsRepo(config *apt.Config, logger apt.Logger) *SettingsRepo {
	return &SettingsRepo{
		logger: logger,
		config: config,
	}
}

func (r *SettingsRepo) Start(ctx context.Context) error {
	mongoURL, _ := r.config.GetString("db.mongo.url")
	if mongoURL == "" {
		mongoURL = "mongodb://localhost:27017"
	}

	dbName, _ := r.config.GetString("db.mongo.name")
	if dbName == "" {
		dbName = "otter_consolidator"
	}

	clientOptions := options.Client().ApplyURI(mongoURL).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("cannot connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("cannot ping MongoDB: %w", err)
	}

	r.client = client
	r.db = client.Database(dbName)
	r.collection = r.db.Collection("settings")

	r.logger.Infof("Connected to MongoDB: %s, database: %s, collection: settings", mongoURL, dbName)
	return nil
}

func (r *SettingsRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

// Load returns the persisted settings, or nil when none have been saved yet.
func (r *SettingsRepo) Load(ctx context.Context) (*consolidator.Settings, error) {
	var doc settingsDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("cannot load settings: %w", err)
	}
	return &doc.Settings, nil
}

func (r *SettingsRepo) Save(ctx context.Context, s *consolidator.Settings) error {
	doc := settingsDoc{ID: settingsDocID, Settings: *s}

	filter := bson.M{"_id": settingsDocID}
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("cannot save settings: %w", err)
	}
	return nil
}

type settingsDoc struct {
	ID                    string `bson:"_id"`
	consolidator.Settings `bson:",inline"`
}
