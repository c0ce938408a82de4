package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"citycost/internal/core"
)

// DefaultRedisKey is the hash that holds all cached records.
const DefaultRedisKey = "citycost:cost-of-living"

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379" or "redis://:password@host:6379/0")
	URL string

	// Key is the hash holding the cache (defaults to "citycost:cost-of-living")
	Key string
}

// RedisStore implements Store as a Redis hash, one field per cache key.
// Writes are per-field HSETs, so concurrent instances never overwrite each
// other's entries. Records never expire.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	store := NewRedisStoreFromClient(client, cfg.Key)
	slog.Info("redis cache connected", "key", store.key)
	return store, nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Load returns every cached record.
func (s *RedisStore) Load(ctx context.Context) Cache {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		slog.WarnContext(ctx, "failed to load cache from redis, using empty cache", "error", err)
		return Cache{}
	}

	c := make(Cache, len(fields))
	for k, v := range fields {
		if !core.IsObject([]byte(v)) {
			slog.WarnContext(ctx, "skipping corrupt redis cache entry", "key", k)
			continue
		}
		c[k] = core.Record(v)
	}
	return c
}

// Lookup reads a single record.
func (s *RedisStore) Lookup(ctx context.Context, key string) (core.Record, bool) {
	v, err := s.client.HGet(ctx, s.key, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.WarnContext(ctx, "failed to read cache entry from redis", "key", key, "error", err)
		}
		return nil, false
	}
	if !core.IsObject(v) {
		return nil, false
	}
	return core.Record(v), true
}

// Upsert writes a single record.
func (s *RedisStore) Upsert(ctx context.Context, key string, rec core.Record) error {
	if err := s.client.HSet(ctx, s.key, key, []byte(rec)).Err(); err != nil {
		return fmt.Errorf("failed to set cache entry in redis: %w", err)
	}
	return nil
}

// Persist writes every record in c. Existing fields not in c are kept.
func (s *RedisStore) Persist(ctx context.Context, c Cache) error {
	if len(c) == 0 {
		return nil
	}
	values := make(map[string]any, len(c))
	for k, v := range c {
		values[k] = []byte(v)
	}
	if err := s.client.HSet(ctx, s.key, values).Err(); err != nil {
		return fmt.Errorf("failed to persist cache to redis: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
