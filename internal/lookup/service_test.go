package lookup

import (
	"context"
	"errors"
	"math"
	"net/http"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citycost/internal/cache"
	"citycost/internal/core"
)

type fakeUpstream struct {
	mu sync.Mutex

	costOfLivingKey string
	zillowKey       string

	records   map[string]core.Record
	fetchErr  error
	calls     int
	rentCalls int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		costOfLivingKey: "key",
		zillowKey:       "key",
		records:         make(map[string]core.Record),
	}
}

func (f *fakeUpstream) CheckCostOfLiving() error {
	if f.costOfLivingKey == "" {
		return core.NewConfigurationError("cost-of-living API key is not configured")
	}
	return nil
}

func (f *fakeUpstream) CheckRentEstimate() error {
	if f.zillowKey == "" {
		return core.NewConfigurationError("zillow API key is not configured")
	}
	return nil
}

func (f *fakeUpstream) fetch(key string) (core.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	rec, ok := f.records[key]
	if !ok {
		return core.Record(`{}`), nil
	}
	return rec, nil
}

func (f *fakeUpstream) FetchCostOfLiving(_ context.Context, id core.CityIdentity) (core.Record, error) {
	return f.fetch(id.Key())
}

func (f *fakeUpstream) FetchCostOfLivingByCoordinates(_ context.Context, c core.Coordinates) (core.Record, error) {
	return f.fetch(c.Key())
}

func (f *fakeUpstream) FetchRentEstimate(_ context.Context, address string) (core.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rentCalls++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return core.Record(`{"price":1500}`), nil
}

func (f *fakeUpstream) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newFileStore(t *testing.T) *cache.FileStore {
	t.Helper()
	return cache.NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
}

func TestResolve_CacheHitSkipsCredentialAndUpstream(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	require.NoError(t, store.Persist(ctx, cache.Cache{"austin,united states": core.Record(`{"cost":1}`)}))

	upstream := newFakeUpstream()
	upstream.costOfLivingKey = ""
	svc := New(store, upstream, Config{BestEffortPersist: true})

	rec, err := svc.Resolve(ctx, core.CityIdentity{CityName: "Austin", CountryName: "United States"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"cost":1}`, string(rec))
	assert.Equal(t, 0, upstream.callCount())
}

func TestResolve_MissFetchesAndPersists(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	upstream := newFakeUpstream()
	upstream.records["chicago,united states"] = core.Record(`{"cost":2}`)
	svc := New(store, upstream, Config{BestEffortPersist: true})

	rec, err := svc.Resolve(ctx, core.CityIdentity{CityName: "Chicago", CountryName: "United States"})

	require.NoError(t, err)
	assert.JSONEq(t, `{"cost":2}`, string(rec))

	stored, ok := store.Load(ctx).Get("chicago,united states")
	require.True(t, ok)
	assert.JSONEq(t, `{"cost":2}`, string(stored))
}

func TestResolve_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	upstream := newFakeUpstream()
	svc := New(newFileStore(t), upstream, Config{BestEffortPersist: true})
	id := core.CityIdentity{CityName: "Chicago", CountryName: "United States"}

	_, err := svc.Resolve(ctx, id)
	require.NoError(t, err)

	// A later credential loss must not matter for cached keys.
	upstream.costOfLivingKey = ""
	_, err = svc.Resolve(ctx, core.CityIdentity{CityName: " CHICAGO", CountryName: "united states "})
	require.NoError(t, err)

	assert.Equal(t, 1, upstream.callCount())
}

func TestResolve_ValidationError(t *testing.T) {
	upstream := newFakeUpstream()
	svc := New(newFileStore(t), upstream, Config{})

	_, err := svc.Resolve(context.Background(), core.CityIdentity{CityName: "Austin"})

	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Equal(t, "city_name and country_name are required", err.(*core.Error).Message)
	assert.Equal(t, 0, upstream.callCount())
}

func TestResolve_MissingCredentialOnMiss(t *testing.T) {
	upstream := newFakeUpstream()
	upstream.costOfLivingKey = ""
	svc := New(newFileStore(t), upstream, Config{})

	_, err := svc.Resolve(context.Background(), core.CityIdentity{CityName: "Austin", CountryName: "USA"})

	assert.True(t, core.IsConfiguration(err))
	assert.Equal(t, 0, upstream.callCount())
}

func TestResolve_UpstreamFailureLeavesCacheUntouched(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	upstream := newFakeUpstream()
	upstream.fetchErr = core.NewUpstreamError("cost-of-living", http.StatusTooManyRequests, []byte(`{"message":"Too many requests"}`), nil)
	svc := New(store, upstream, Config{BestEffortPersist: true})

	_, err := svc.Resolve(ctx, core.CityIdentity{CityName: "Chicago", CountryName: "United States"})

	var upstreamErr *core.Error
	require.True(t, errors.As(err, &upstreamErr))
	assert.Equal(t, core.KindUpstream, upstreamErr.Kind)
	assert.Equal(t, http.StatusTooManyRequests, upstreamErr.Status)
	assert.Empty(t, store.Load(ctx))
	assert.False(t, store.Exists())
}

func TestResolveCoordinates(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	upstream := newFakeUpstream()
	upstream.records["@30.2672,-97.7431"] = core.Record(`{"city_name":"Austin"}`)
	svc := New(store, upstream, Config{BestEffortPersist: true})

	rec, err := svc.ResolveCoordinates(ctx, core.Coordinates{Lat: 30.2672, Lon: -97.7431})
	require.NoError(t, err)
	assert.JSONEq(t, `{"city_name":"Austin"}`, string(rec))

	_, ok := store.Load(ctx).Get("@30.2672,-97.7431")
	assert.True(t, ok)

	_, err = svc.ResolveCoordinates(ctx, core.Coordinates{Lat: 100})
	assert.True(t, core.IsValidation(err))
}

func TestResolveCoordinates_RejectsNonFinite(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	upstream := newFakeUpstream()
	svc := New(store, upstream, Config{BestEffortPersist: true})

	for _, c := range []core.Coordinates{
		{Lat: math.NaN(), Lon: math.NaN()},
		{Lat: math.Inf(1), Lon: 0},
	} {
		_, err := svc.ResolveCoordinates(ctx, c)
		assert.True(t, core.IsValidation(err), "expected validation error for %v", c)
	}

	assert.Equal(t, 0, upstream.callCount())
	assert.Empty(t, store.Load(ctx))
}

// failingStore accepts nothing.
type failingStore struct{}

func (failingStore) Load(context.Context) cache.Cache {
	return cache.Cache{}
}

func (failingStore) Persist(context.Context, cache.Cache) error {
	return errors.New("disk full")
}

func (failingStore) Close() error { return nil }

func TestResolve_PersistFailurePolicy(t *testing.T) {
	id := core.CityIdentity{CityName: "Chicago", CountryName: "United States"}

	t.Run("best effort returns record", func(t *testing.T) {
		svc := New(failingStore{}, newFakeUpstream(), Config{BestEffortPersist: true})
		rec, err := svc.Resolve(context.Background(), id)
		require.NoError(t, err)
		assert.NotNil(t, rec)
	})

	t.Run("strict fails with storage error", func(t *testing.T) {
		svc := New(failingStore{}, newFakeUpstream(), Config{BestEffortPersist: false})
		_, err := svc.Resolve(context.Background(), id)
		assert.True(t, core.IsStorage(err))
	})
}

// upsertStore records which write path the service used.
type upsertStore struct {
	mu       sync.Mutex
	data     cache.Cache
	upserts  int
	persists int
}

func (s *upsertStore) Load(context.Context) cache.Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *upsertStore) Persist(_ context.Context, c cache.Cache) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persists++
	s.data = c
	return nil
}

func (s *upsertStore) Upsert(_ context.Context, key string, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upserts++
	s.data = s.data.Put(key, rec)
	return nil
}

func (s *upsertStore) Close() error { return nil }

func TestResolve_PrefersUpsert(t *testing.T) {
	store := &upsertStore{data: cache.Cache{}}
	svc := New(store, newFakeUpstream(), Config{BestEffortPersist: true})

	_, err := svc.Resolve(context.Background(), core.CityIdentity{CityName: "Austin", CountryName: "USA"})

	require.NoError(t, err)
	assert.Equal(t, 1, store.upserts)
	assert.Equal(t, 0, store.persists)
}

func TestResolve_ConcurrentMissesKeepAllEntries(t *testing.T) {
	ctx := context.Background()
	store := newFileStore(t)
	svc := New(store, newFakeUpstream(), Config{BestEffortPersist: true})

	cities := []string{"Austin", "Dallas", "Houston", "El Paso", "Plano", "Waco"}
	var wg sync.WaitGroup
	for _, city := range cities {
		wg.Add(1)
		go func(city string) {
			defer wg.Done()
			_, err := svc.Resolve(ctx, core.CityIdentity{CityName: city, CountryName: "USA"})
			assert.NoError(t, err)
		}(city)
	}
	wg.Wait()

	assert.Len(t, store.Load(ctx), len(cities))
}

// restoreStore is a file store whose remote restore fails.
type restoreStore struct {
	*cache.FileStore
	err error
}

func (s *restoreStore) Restore(context.Context) error { return s.err }

func TestResolve_RestoreFailure(t *testing.T) {
	upstream := newFakeUpstream()
	store := &restoreStore{
		FileStore: newFileStore(t),
		err:       core.NewStorageError("failed to retrieve cache from object store", errors.New("403")),
	}
	svc := New(store, upstream, Config{BestEffortPersist: true})

	_, err := svc.Resolve(context.Background(), core.CityIdentity{CityName: "Austin", CountryName: "USA"})

	assert.True(t, core.IsStorage(err))
	assert.Equal(t, 0, upstream.callCount())
}

func TestResolve_RestoreUntypedErrorBecomesStorageError(t *testing.T) {
	store := &restoreStore{FileStore: newFileStore(t), err: errors.New("boom")}
	svc := New(store, newFakeUpstream(), Config{})

	_, err := svc.Resolve(context.Background(), core.CityIdentity{CityName: "Austin", CountryName: "USA"})

	assert.True(t, core.IsStorage(err))
}

func TestRentEstimate(t *testing.T) {
	ctx := context.Background()

	t.Run("returns raw provider record", func(t *testing.T) {
		upstream := newFakeUpstream()
		svc := New(newFileStore(t), upstream, Config{})
		rec, err := svc.RentEstimate(ctx, "Austin, TX")
		require.NoError(t, err)
		assert.JSONEq(t, `{"price":1500}`, string(rec))
		assert.Equal(t, 1, upstream.rentCalls)
	})

	t.Run("empty address", func(t *testing.T) {
		_, err := New(newFileStore(t), newFakeUpstream(), Config{}).RentEstimate(ctx, "  ")
		assert.True(t, core.IsValidation(err))
	})

	t.Run("missing credential", func(t *testing.T) {
		upstream := newFakeUpstream()
		upstream.zillowKey = ""
		_, err := New(newFileStore(t), upstream, Config{}).RentEstimate(ctx, "Austin")
		assert.True(t, core.IsConfiguration(err))
		assert.Equal(t, 0, upstream.rentCalls)
	})
}
