//go:build integration

// Package dbassert reads cache rows and documents directly from the database
// for test assertions.
package dbassert

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// PostgreSQLCacheRecord returns the raw record stored under key, or "" when absent.
func PostgreSQLCacheRecord(t *testing.T, pool *pgxpool.Pool, key string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var record string
	err := pool.QueryRow(ctx, "SELECT record::text FROM cost_of_living_cache WHERE cache_key = $1", key).Scan(&record)
	if errors.Is(err, pgx.ErrNoRows) {
		return ""
	}
	require.NoError(t, err, "failed to query cache row")
	return record
}

// PostgreSQLCacheCount returns the number of cached rows.
func PostgreSQLCacheCount(t *testing.T, pool *pgxpool.Pool) int {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var n int
	require.NoError(t, pool.QueryRow(ctx, "SELECT COUNT(*) FROM cost_of_living_cache").Scan(&n))
	return n
}

// ClearPostgreSQLCache removes all cached rows.
func ClearPostgreSQLCache(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, "DELETE FROM cost_of_living_cache")
	require.NoError(t, err)
}

// MongoCacheRecord returns the raw record stored under key, or "" when absent.
func MongoCacheRecord(t *testing.T, db *mongo.Database, key string) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc struct {
		Record string `bson:"record"`
	}
	err := db.Collection("cost_of_living_cache").FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ""
	}
	require.NoError(t, err, "failed to query cache document")
	return doc.Record
}

// ClearMongoCache removes all cached documents.
func ClearMongoCache(t *testing.T, db *mongo.Database) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := db.Collection("cost_of_living_cache").DeleteMany(ctx, bson.M{})
	require.NoError(t, err)
}
