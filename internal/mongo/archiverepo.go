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

type BatchArchiveRepo struct {
	client     *mongo.Client
	db         *mongo.Database
	collection *mongo.Collection
	logger     apt.Logger
	config     *apt.Config
}

func NewBatchArchiveRepo(config *apt.Config, logger apt.Logger) *BatchArchiveRepo {
	return &BatchArchiveRepo{
		logger: logger,
		config: config,
	}
}

func (r *BatchArchiveRepo) Start(ctx context.Context) error {
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
	r.collection = r.db.Collection("batch_archive")

	indexModel := mongo.IndexModel{
		Keys: bson.D{{Key: "archived_at", Value: -1}},
	}
	if _, err := r.collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		return fmt.Errorf("cannot create archived_at index: %w", err)
	}

	r.logger.Infof("Connected to MongoDB: %s, database: %s, collection: batch_archive", mongoURL, dbName)
	return nil
}

func (r *BatchArchiveRepo) Stop(ctx context.Context) error {
	if r.client != nil {
		if err := r.client.Disconnect(ctx); err != nil {
			return fmt.Errorf("cannot disconnect from MongoDB: %w", err)
		}
		r.logger.Info("Disconnected from MongoDB")
	}
	return nil
}

func (r *BatchArchiveRepo) Archive(ctx context.Context, a *consolidator.BatchArchive) error {
	a.ArchivedAt = time.Now()

	filter := bson.M{"_id": a.BatchID}
	update := bson.M{"$set": a}
	opts := options.Update().SetUpsert(true)

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("cannot archive batch: %w", err)
	}
	return nil
}

func (r *BatchArchiveRepo) List(ctx context.Context, limit int) ([]consolidator.BatchArchive, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "archived_at", Value: -1}})

	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot find archived batches: %w", err)
	}
	defer cursor.Close(ctx)

	var archives []consolidator.BatchArchive
	if err := cursor.All(ctx, &archives); err != nil {
		return nil, fmt.Errorf("cannot decode archived batches: %w", err)
	}

	return archives, nil
}
