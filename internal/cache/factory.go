package cache

import (
	"context"
	"fmt"
	"log/slog"

	"citycost/config"
	"citycost/internal/objectstore"
	"citycost/internal/storage"
)

// Result holds the cache store and the database connection backing it, if any.
type Result struct {
	Store   Store
	Storage storage.Storage
}

// Close releases the store and its underlying connection.
func (r *Result) Close() error {
	var errs []error
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("cache store close: %w", err))
		}
	}
	if r.Storage != nil {
		if err := r.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// New builds the cache store selected by cfg.Cache.Backend.
func New(ctx context.Context, cfg *config.Config) (*Result, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendFile:
		slog.Info("using local file cache", "path", cfg.Cache.FilePath)
		return &Result{Store: NewFileStore(cfg.Cache.FilePath)}, nil

	case config.CacheBackendS3:
		remote, err := objectstore.NewS3(ctx, objectstore.Config{
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize object store: %w", err)
		}
		slog.Info("using mirrored file cache",
			"path", cfg.Cache.FilePath,
			"bucket", cfg.S3.Bucket,
			"key", cfg.S3.Key,
		)
		return &Result{Store: NewMirroredStore(NewFileStore(cfg.Cache.FilePath), remote, cfg.S3.Key)}, nil

	case config.CacheBackendRedis:
		store, err := NewRedisStore(ctx, RedisConfig{URL: cfg.Redis.URL, Key: cfg.Redis.Key})
		if err != nil {
			return nil, err
		}
		slog.Info("using redis cache", "key", cfg.Redis.Key)
		return &Result{Store: store}, nil

	case config.CacheBackendSQLite, config.CacheBackendPostgreSQL, config.CacheBackendMongoDB:
		return newDatabaseStore(ctx, cfg)

	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}

func newDatabaseStore(ctx context.Context, cfg *config.Config) (*Result, error) {
	conn, err := storage.New(ctx, storage.Config{
		Type:   cfg.Cache.Backend,
		SQLite: storage.SQLiteConfig{Path: cfg.Storage.SQLitePath},
		PostgreSQL: storage.PostgreSQLConfig{
			URL:      cfg.Storage.PostgreSQLURL,
			MaxConns: cfg.Storage.PostgreSQLMaxCon,
		},
		MongoDB: storage.MongoDBConfig{
			URL:      cfg.Storage.MongoDBURL,
			Database: cfg.Storage.MongoDBDatabase,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	store, err := newStoreFromStorage(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	slog.Info("using database cache", "type", conn.Type())
	return &Result{Store: store, Storage: conn}, nil
}

func newStoreFromStorage(ctx context.Context, conn storage.Storage) (Store, error) {
	switch conn.Type() {
	case storage.TypeSQLite:
		return NewSQLiteStore(conn.SQLiteDB())
	case storage.TypePostgreSQL:
		return NewPostgreSQLStore(ctx, conn.PostgreSQLPool())
	case storage.TypeMongoDB:
		return NewMongoDBStore(conn.MongoDatabase())
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", conn.Type())
	}
}
