package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"citycost/internal/core"
)

// mongoCacheDocument keeps the record as JSON text so it round-trips verbatim.
type mongoCacheDocument struct {
	Key       string    `bson:"_id"`
	Record    string    `bson:"record"`
	FetchedAt time.Time `bson:"fetched_at"`
}

// MongoDBStore stores cache entries as documents keyed by cache key.
type MongoDBStore struct {
	collection *mongo.Collection
}

// NewMongoDBStore uses the cost_of_living_cache collection of database.
func NewMongoDBStore(database *mongo.Database) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &MongoDBStore{collection: database.Collection("cost_of_living_cache")}, nil
}

// Load returns every cached record.
func (s *MongoDBStore) Load(ctx context.Context) Cache {
	cursor, err := s.collection.Find(ctx, bson.M{})
	if err != nil {
		slog.WarnContext(ctx, "failed to load cache from mongodb, using empty cache", "error", err)
		return Cache{}
	}
	defer cursor.Close(ctx)

	c := Cache{}
	for cursor.Next(ctx) {
		var doc mongoCacheDocument
		if err := cursor.Decode(&doc); err != nil {
			slog.WarnContext(ctx, "skipping corrupt mongodb cache document", "error", err)
			continue
		}
		c[doc.Key] = core.Record(doc.Record)
	}
	if err := cursor.Err(); err != nil {
		slog.WarnContext(ctx, "failed to iterate cache documents, using empty cache", "error", err)
		return Cache{}
	}
	return c
}

// Lookup reads a single record.
func (s *MongoDBStore) Lookup(ctx context.Context, key string) (core.Record, bool) {
	var doc mongoCacheDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			slog.WarnContext(ctx, "failed to read cache entry from mongodb", "key", key, "error", err)
		}
		return nil, false
	}
	return core.Record(doc.Record), true
}

// Upsert writes a single record.
func (s *MongoDBStore) Upsert(ctx context.Context, key string, rec core.Record) error {
	doc := mongoCacheDocument{Key: key, Record: string(rec), FetchedAt: time.Now().UTC()}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// Persist upserts every record in c with one bulk write.
func (s *MongoDBStore) Persist(ctx context.Context, c Cache) error {
	if len(c) == 0 {
		return nil
	}

	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(c))
	for key, rec := range c {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": key}).
			SetReplacement(mongoCacheDocument{Key: key, Record: string(rec), FetchedAt: now}).
			SetUpsert(true))
	}

	if _, err := s.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
		return fmt.Errorf("persist cache bulk write: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *MongoDBStore) Ping(ctx context.Context) error {
	return s.collection.Database().Client().Ping(ctx, nil)
}

// Close is a no-op; the client is owned by the storage layer.
func (s *MongoDBStore) Close() error {
	return nil
}
