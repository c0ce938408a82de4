// Package cache provides the durable cost-of-living cache keyed by city identity.
// Supports a local JSON file (optionally mirrored to S3), Redis, SQLite,
// PostgreSQL and MongoDB backends.
package cache

import (
	"context"
	"maps"

	"citycost/internal/core"
)

// Cache maps cache keys ("<city>,<country>" or "@<lat>,<lon>") to provider records.
type Cache map[string]core.Record

// Get returns the record stored under key.
func (c Cache) Get(key string) (core.Record, bool) {
	rec, ok := c[key]
	return rec, ok
}

// Put returns a copy of c with key bound to rec. The receiver is not modified.
func (c Cache) Put(key string, rec core.Record) Cache {
	out := make(Cache, len(c)+1)
	maps.Copy(out, c)
	out[key] = rec
	return out
}

// Store is the durable backing of a Cache.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the full cache. It never fails: missing, unreadable or
	// malformed storage yields an empty Cache and is logged.
	Load(ctx context.Context) Cache

	// Persist writes every entry of c. Whole-map stores (file, mirrored file)
	// replace prior content. Per-key stores (Redis, SQLite, PostgreSQL,
	// MongoDB) upsert each entry and keep keys absent from c, since cache
	// entries are never removed.
	Persist(ctx context.Context, c Cache) error

	// Close releases any resources held by the store.
	Close() error
}

// KeyReader is implemented by stores that can read a single key without
// loading the whole cache.
type KeyReader interface {
	Lookup(ctx context.Context, key string) (core.Record, bool)
}

// Upserter is implemented by stores with an atomic per-key write. Callers
// should prefer it over Load+Put+Persist, which races across processes.
type Upserter interface {
	Upsert(ctx context.Context, key string, rec core.Record) error
}

// Restorer is implemented by stores that must be rehydrated from a remote
// copy before the first Load.
type Restorer interface {
	Restore(ctx context.Context) error
}

// Pinger is implemented by stores backed by a network connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Lookup reads key from store, using a per-key read when the store supports one.
func Lookup(ctx context.Context, store Store, key string) (core.Record, bool) {
	if kr, ok := store.(KeyReader); ok {
		return kr.Lookup(ctx, key)
	}
	return store.Load(ctx).Get(key)
}
