// Package lookup resolves cost-of-living records through the cache, falling
// back to the upstream provider on a miss.
package lookup

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"citycost/internal/cache"
	"citycost/internal/core"
	"citycost/internal/observability"
)

// Lookup kinds, used as metric labels
const (
	kindCity        = "city"
	kindCoordinates = "coordinates"
)

// Upstream is the provider side of the service.
type Upstream interface {
	CheckCostOfLiving() error
	FetchCostOfLiving(ctx context.Context, id core.CityIdentity) (core.Record, error)
	FetchCostOfLivingByCoordinates(ctx context.Context, c core.Coordinates) (core.Record, error)

	CheckRentEstimate() error
	FetchRentEstimate(ctx context.Context, address string) (core.Record, error)
}

// Config holds service behavior settings.
type Config struct {
	// BestEffortPersist returns a freshly fetched record even when writing it
	// to the cache fails. When false the write failure is a StorageError.
	BestEffortPersist bool
}

// Service is a read-through cache in front of the upstream provider.
// Entries never expire.
type Service struct {
	store    cache.Store
	upstream Upstream
	cfg      Config

	// mu serializes load-put-persist for stores without per-key upsert.
	mu sync.Mutex
}

// New creates a lookup service.
func New(store cache.Store, upstream Upstream, cfg Config) *Service {
	return &Service{
		store:    store,
		upstream: upstream,
		cfg:      cfg,
	}
}

// Resolve returns the cost-of-living record for a city, fetching and caching
// it on a miss.
func (s *Service) Resolve(ctx context.Context, id core.CityIdentity) (core.Record, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.resolve(ctx, kindCity, id.Key(), s.upstream.CheckCostOfLiving,
		func(ctx context.Context) (core.Record, error) {
			return s.upstream.FetchCostOfLiving(ctx, id)
		})
}

// ResolveCoordinates returns the cost-of-living record for the city nearest
// to c, fetching and caching it on a miss.
func (s *Service) ResolveCoordinates(ctx context.Context, c core.Coordinates) (core.Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return s.resolve(ctx, kindCoordinates, c.Key(), s.upstream.CheckCostOfLiving,
		func(ctx context.Context) (core.Record, error) {
			return s.upstream.FetchCostOfLivingByCoordinates(ctx, c)
		})
}

func (s *Service) resolve(
	ctx context.Context,
	kind, key string,
	checkCredentials func() error,
	fetch func(context.Context) (core.Record, error),
) (core.Record, error) {
	if r, ok := s.store.(cache.Restorer); ok {
		if err := r.Restore(ctx); err != nil {
			observability.RecordLookup(kind, observability.ResultError)
			if core.KindOf(err) == "" {
				err = core.NewStorageError("failed to restore cache", err)
			}
			return nil, err
		}
	}

	if rec, ok := cache.Lookup(ctx, s.store, key); ok {
		observability.RecordLookup(kind, observability.ResultHit)
		slog.DebugContext(ctx, "cache hit", "key", key)
		return rec, nil
	}
	observability.RecordLookup(kind, observability.ResultMiss)
	slog.DebugContext(ctx, "cache miss", "key", key)

	if err := checkCredentials(); err != nil {
		return nil, err
	}

	rec, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.save(ctx, key, rec); err != nil {
		observability.RecordCacheWriteFailure()
		if !s.cfg.BestEffortPersist {
			return nil, core.NewStorageError("failed to persist cache", err)
		}
		slog.WarnContext(ctx, "failed to persist cache entry, returning uncached result", "key", key, "error", err)
	}
	return rec, nil
}

// save stores rec under key. Per-key upsert is used when available; otherwise
// the cache is reloaded under mu so concurrent misses in this process keep
// each other's entries.
func (s *Service) save(ctx context.Context, key string, rec core.Record) error {
	if u, ok := s.store.(cache.Upserter); ok {
		return u.Upsert(ctx, key, rec)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.store.Persist(ctx, s.store.Load(ctx).Put(key, rec))
}

// RentEstimate returns the raw rent estimate for a free-text address.
// Rent estimates are not cached.
func (s *Service) RentEstimate(ctx context.Context, address string) (core.Record, error) {
	if strings.TrimSpace(address) == "" {
		return nil, core.NewValidationError("city is required")
	}
	if err := s.upstream.CheckRentEstimate(); err != nil {
		return nil, err
	}
	return s.upstream.FetchRentEstimate(ctx, address)
}

// Ping checks the cache store's connection, if it has one.
func (s *Service) Ping(ctx context.Context) error {
	if p, ok := s.store.(cache.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
