package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, factory Factory) {
	ctx := context.Background()
	store, err := factory("gsw-last")
	require.NoError(t, err)

	_, ok, err := store.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "argentX"))
	require.NoError(t, store.Set(ctx, "braavos"))
	val, ok, err := store.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "braavos", val)

	other, err := factory("other")
	require.NoError(t, err)
	_, ok, err = other.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	same, err := factory("gsw-last")
	require.NoError(t, err)
	val, ok, err = same.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "braavos", val)

	require.NoError(t, store.Delete(ctx))
	require.NoError(t, store.Delete(ctx))
	_, ok, err = same.Get(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemStore(t *testing.T) {
	testStore(t, MemFactory())
}

func TestLevelDB(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		db, err := NewMemLevelDB()
		require.NoError(t, err)
		defer db.Close() //nolint

		testStore(t, db.Factory())

		_, err = db.Factory()("")
		require.Error(t, err)
	})

	t.Run("survives reopen", func(t *testing.T) {
		ctx := context.Background()
		path := t.TempDir()

		db, err := OpenLevelDB(path)
		require.NoError(t, err)
		store, err := db.Factory()("gsw-last")
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, "argentX"))
		require.NoError(t, db.Close())

		db, err = OpenLevelDB(path)
		require.NoError(t, err)
		defer db.Close() //nolint
		store, err = db.Factory()("gsw-last")
		require.NoError(t, err)
		val, ok, err := store.Get(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "argentX", val)
	})
}
