package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/oauth2/cache"
	"go.pilab.hu/oauth2/cache/storetest"
	"go.pilab.hu/oauth2/domain"
)

func newMemoryStore(t *testing.T) cache.RawStore {
	t.Helper()

	store := cache.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestMemoryStore_Conformance(t *testing.T) {
	storetest.Run(t, storetest.Harness{
		New:     newMemoryStore,
		Advance: storetest.Sleep,
	})
}

func TestNewStorage_TakerDetection(t *testing.T) {
	storage := cache.NewStorage(newMemoryStore(t))
	_, ok := storage.(domain.RecordTaker)
	assert.True(t, ok, "ttlcache backend supports atomic take")

	plain := cache.NewStorage(setOnlyStore{newMemoryStore(t)})
	_, ok = plain.(domain.RecordTaker)
	assert.False(t, ok)
}

func TestStorage_GetRecordDecodeError(t *testing.T) {
	ctx := context.Background()
	raw := newMemoryStore(t)
	storage := cache.NewStorage(raw)

	require.NoError(t, raw.Set(ctx, "bad", "{not json", time.Minute))

	var c domain.Code
	found, err := storage.GetRecord(ctx, "bad", &c)
	assert.True(t, found)
	assert.Error(t, err)
}

// setOnlyStore hides the Take method of the wrapped store.
type setOnlyStore struct {
	cache.RawStore
}
