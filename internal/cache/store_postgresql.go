package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"citycost/internal/core"
)

// PostgreSQLStore stores cache entries as rows in PostgreSQL.
// The record column is JSON (not JSONB) so provider payloads are kept verbatim.
type PostgreSQLStore struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLStore creates the cache table if needed.
func NewPostgreSQLStore(ctx context.Context, pool *pgxpool.Pool) (*PostgreSQLStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS cost_of_living_cache (
			cache_key TEXT PRIMARY KEY,
			record JSON NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost_of_living_cache table: %w", err)
	}

	return &PostgreSQLStore{pool: pool}, nil
}

// Load returns every cached record.
func (s *PostgreSQLStore) Load(ctx context.Context) Cache {
	rows, err := s.pool.Query(ctx, "SELECT cache_key, record::text FROM cost_of_living_cache")
	if err != nil {
		slog.WarnContext(ctx, "failed to load cache from postgresql, using empty cache", "error", err)
		return Cache{}
	}
	defer rows.Close()

	c := Cache{}
	for rows.Next() {
		var key, record string
		if err := rows.Scan(&key, &record); err != nil {
			slog.WarnContext(ctx, "failed to scan cache row", "error", err)
			return Cache{}
		}
		c[key] = core.Record(record)
	}
	if err := rows.Err(); err != nil {
		slog.WarnContext(ctx, "failed to iterate cache rows, using empty cache", "error", err)
		return Cache{}
	}
	return c
}

// Lookup reads a single record.
func (s *PostgreSQLStore) Lookup(ctx context.Context, key string) (core.Record, bool) {
	var record string
	err := s.pool.QueryRow(ctx, "SELECT record::text FROM cost_of_living_cache WHERE cache_key = $1", key).Scan(&record)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			slog.WarnContext(ctx, "failed to read cache entry from postgresql", "key", key, "error", err)
		}
		return nil, false
	}
	return core.Record(record), true
}

const postgresUpsert = `
	INSERT INTO cost_of_living_cache (cache_key, record, fetched_at)
	VALUES ($1, $2::json, now())
	ON CONFLICT (cache_key) DO UPDATE SET record = EXCLUDED.record, fetched_at = EXCLUDED.fetched_at
`

// Upsert writes a single record.
func (s *PostgreSQLStore) Upsert(ctx context.Context, key string, rec core.Record) error {
	if _, err := s.pool.Exec(ctx, postgresUpsert, key, string(rec)); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// Persist upserts every record in c in one batch.
func (s *PostgreSQLStore) Persist(ctx context.Context, c Cache) error {
	if len(c) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for key, rec := range c {
		batch.Queue(postgresUpsert, key, string(rec))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("persist cache batch: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *PostgreSQLStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close is a no-op; the pool is owned by the storage layer.
func (s *PostgreSQLStore) Close() error {
	return nil
}
