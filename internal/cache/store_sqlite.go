package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"citycost/internal/core"
)

// SQLiteStore stores cache entries as rows in SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates the cache table if needed.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cost_of_living_cache (
			cache_key TEXT PRIMARY KEY,
			record TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create cost_of_living_cache table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load returns every cached record.
func (s *SQLiteStore) Load(ctx context.Context) Cache {
	rows, err := s.db.QueryContext(ctx, "SELECT cache_key, record FROM cost_of_living_cache")
	if err != nil {
		slog.WarnContext(ctx, "failed to load cache from sqlite, using empty cache", "error", err)
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
func (s *SQLiteStore) Lookup(ctx context.Context, key string) (core.Record, bool) {
	var record string
	err := s.db.QueryRowContext(ctx, "SELECT record FROM cost_of_living_cache WHERE cache_key = ?", key).Scan(&record)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.WarnContext(ctx, "failed to read cache entry from sqlite", "key", key, "error", err)
		}
		return nil, false
	}
	return core.Record(record), true
}

const sqliteUpsert = `
	INSERT INTO cost_of_living_cache (cache_key, record, fetched_at)
	VALUES (?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE SET record = excluded.record, fetched_at = excluded.fetched_at
`

// Upsert writes a single record.
func (s *SQLiteStore) Upsert(ctx context.Context, key string, rec core.Record) error {
	if _, err := s.db.ExecContext(ctx, sqliteUpsert, key, string(rec), time.Now().Unix()); err != nil {
		return fmt.Errorf("upsert cache entry: %w", err)
	}
	return nil
}

// Persist upserts every record in c in one transaction.
func (s *SQLiteStore) Persist(ctx context.Context, c Cache) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for key, rec := range c {
		if _, err := tx.ExecContext(ctx, sqliteUpsert, key, string(rec), now); err != nil {
			return fmt.Errorf("upsert cache entry %q: %w", key, err)
		}
	}
	return tx.Commit()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the connection is owned by the storage layer.
func (s *SQLiteStore) Close() error {
	return nil
}
