package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"citycost/internal/core"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("PersistLoadRoundTrip", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))

		assert.Empty(t, store.Load(ctx))
		assert.False(t, store.Exists())

		c := Cache{
			"austin,usa":        core.Record(`{"prices":[{"item_name":"Rent","avg":1800}]}`),
			"@30.2672,-97.7431": core.Record(`{"city_name":"Austin"}`),
		}
		require.NoError(t, store.Persist(ctx, c))
		assert.True(t, store.Exists())

		loaded := store.Load(ctx)
		require.Len(t, loaded, 2)
		assert.JSONEq(t, string(c["austin,usa"]), string(loaded["austin,usa"]))
		assert.JSONEq(t, string(c["@30.2672,-97.7431"]), string(loaded["@30.2672,-97.7431"]))
	})

	t.Run("CreatesNestedDirectory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "a", "b", "cache.json")
		store := NewFileStore(path)

		require.NoError(t, store.Persist(ctx, Cache{"x,y": core.Record(`{}`)}))
		_, err := os.Stat(path)
		assert.NoError(t, err)
	})

	t.Run("CorruptFileYieldsEmptyCache", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		assert.Empty(t, NewFileStore(path).Load(ctx))
	})

	t.Run("NonObjectFileYieldsEmptyCache", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")
		require.NoError(t, os.WriteFile(path, []byte("null"), 0o644))

		c := NewFileStore(path).Load(ctx)
		assert.NotNil(t, c)
		assert.Empty(t, c)
	})

	t.Run("NonObjectEntriesAreSkipped", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cache.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"austin,usa":5,"dallas,usa":null,"houston,usa":{"rent":1400}}`), 0o644))

		store := NewFileStore(path)
		loaded := store.Load(ctx)
		assert.Len(t, loaded, 1)
		_, ok := loaded.Get("houston,usa")
		assert.True(t, ok)

		_, ok = Lookup(ctx, store, "austin,usa")
		assert.False(t, ok)
	})

	t.Run("PersistOverwritesPriorContent", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
		require.NoError(t, store.Persist(ctx, Cache{"old,key": core.Record(`{}`)}))
		require.NoError(t, store.Persist(ctx, Cache{"new,key": core.Record(`{}`)}))

		loaded := store.Load(ctx)
		assert.Len(t, loaded, 1)
		_, ok := loaded.Get("new,key")
		assert.True(t, ok)
	})

	t.Run("WriteRawReadRaw", func(t *testing.T) {
		store := NewFileStore(filepath.Join(t.TempDir(), "cache.json"))
		require.NoError(t, store.WriteRaw([]byte(`{"austin,usa":{}}`)))

		data, err := store.ReadRaw()
		require.NoError(t, err)
		assert.Equal(t, `{"austin,usa":{}}`, string(data))
		assert.Len(t, store.Load(ctx), 1)
	})
}
