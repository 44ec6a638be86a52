package client

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/Amxn-2/cyber-feed/internal/config"
	"github.com/Amxn-2/cyber-feed/internal/util"
)

// MongoClient owns the connection to the document store. Unlike the caches,
// Mongo is a hard dependency: the collector cannot run without it, so
// connection failure at startup is fatal to the process.
type MongoClient struct {
	Client     *mongo.Client
	database   string
	collection string
}

// NewMongoClient connects and verifies the deployment with a ping.
func NewMongoClient(cfg *config.Config, logger *zap.Logger) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerSelectionTimeout(10 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	util.Info("MongoDB client initialized",
		zap.String("database", cfg.Mongo.Database),
		zap.String("collection", cfg.Mongo.Collection))

	return &MongoClient{
		Client:     client,
		database:   cfg.Mongo.Database,
		collection: cfg.Mongo.Collection,
	}, nil
}

// Incidents returns the incident collection handle.
func (m *MongoClient) Incidents() *mongo.Collection {
	return m.Client.Database(m.database).Collection(m.collection)
}

// HealthCheck verifies the deployment is reachable.
func (m *MongoClient) HealthCheck(ctx context.Context) error {
	if err := m.Client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongo ping failed: %w", err)
	}
	return nil
}

// EnsureIndexes creates the query and uniqueness indexes the pipeline relies
// on. The unique fingerprint index is what makes insert-if-absent atomic, so
// its failure is an error; the rest degrade to warnings.
func (m *MongoClient) EnsureIndexes(ctx context.Context) error {
	coll := m.Incidents()

	unique := mongo.IndexModel{
		Keys:    bson.D{{Key: "fingerprint", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := coll.Indexes().CreateOne(ctx, unique); err != nil {
		return fmt.Errorf("failed to create fingerprint index: %w", err)
	}

	secondary := []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "severity", Value: 1}}},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "is_india_specific", Value: 1}}},
		{Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "description", Value: "text"},
		}},
	}
	if _, err := coll.Indexes().CreateMany(ctx, secondary); err != nil {
		util.Warn("Failed to create secondary indexes", zap.Error(err))
	}

	util.Info("Database indexes ensured")
	return nil
}

// Close disconnects from the deployment.
func (m *MongoClient) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.Client.Disconnect(ctx); err != nil {
		util.Error("failed to close MongoDB client", zap.Error(err))
		return err
	}
	util.Info("MongoDB client closed")
	return nil
}
