package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"

	"go.pilab.hu/oauth2/cache"
	"go.pilab.hu/oauth2/cache/storetest"
)

func setupTestDB(t *testing.T) (*Store, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "oauth2.db")
	store, err := Open(dbPath, 0, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store, dbPath
}

func TestStore_Conformance(t *testing.T) {
	storetest.Run(t, storetest.Harness{
		New: func(t *testing.T) cache.RawStore {
			store, _ := setupTestDB(t)
			return store
		},
		Advance: storetest.Sleep,
	})
}

func TestStore_Persistence(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "persist.db")

	store, err := Open(dbPath, 0, nil)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "k", "v", time.Hour))
	require.NoError(t, store.Close())

	reopened, err := Open(dbPath, 0, nil)
	require.NoError(t, err)
	defer reopened.Close()

	v, found, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", v)
}

func TestStore_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestDB(t)

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "old", "v", time.Second))
	require.NoError(t, store.Set(ctx, "live", "v", time.Hour))
	require.NoError(t, store.Set(ctx, "forever", "v", 0))

	now = now.Add(time.Minute)

	removed, err := store.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	err = store.db.View(func(tx *bbolt.Tx) error {
		assert.Nil(t, tx.Bucket([]byte(dataBucket)).Get([]byte("old")))
		assert.Nil(t, tx.Bucket([]byte(metadataBucket)).Get([]byte("old")))
		assert.NotNil(t, tx.Bucket([]byte(dataBucket)).Get([]byte("live")))
		return nil
	})
	require.NoError(t, err)
}

func TestStore_DeleteExpired_KeepsRenewedKey(t *testing.T) {
	ctx := context.Background()
	store, _ := setupTestDB(t)

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "idx", "old", time.Second))
	require.NoError(t, store.Set(ctx, "gone", "v", time.Second))
	now = now.Add(time.Minute)

	store.afterScan = func() {
		require.NoError(t, store.Set(ctx, "idx", "new", time.Hour))
		require.NoError(t, store.Delete(ctx, "gone"))
	}

	removed, err := store.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, 0, removed)

	value, found, err := store.Get(ctx, "idx")
	require.NoError(t, err)
	assert.True(t, found, "a key set again after the scan survives cleanup")
	assert.Equal(t, "new", value)
}

func TestStore_CleanupRoutine(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPath := filepath.Join(t.TempDir(), "cleanup.db")
	store, err := Open(dbPath, 20*time.Millisecond, nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "k", "v", 10*time.Millisecond))
	store.StartCleanupRoutine(ctx)

	assert.Eventually(t, func() bool {
		var present bool
		_ = store.db.View(func(tx *bbolt.Tx) error {
			present = tx.Bucket([]byte(metadataBucket)).Get([]byte("k")) != nil
			return nil
		})
		return !present
	}, 2*time.Second, 20*time.Millisecond)
}

func TestStore_CloseTwice(t *testing.T) {
	store, _ := setupTestDB(t)
	require.NoError(t, store.Close())
	assert.Error(t, store.Close(), "second close reports the closed database")
}
