package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/oauth2/cache"
	"go.pilab.hu/oauth2/cache/storetest"
)

func TestStore_Conformance(t *testing.T) {
	var mr *miniredis.Miniredis

	storetest.Run(t, storetest.Harness{
		New: func(t *testing.T) cache.RawStore {
			mr = miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			t.Cleanup(func() { _ = client.Close() })

			return NewStore(client)
		},
		Advance: func(_ *testing.T, d time.Duration) {
			mr.FastForward(d)
		},
	})
}

func TestStore_NoExpiryForNonPositiveTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "k", "v", -1))
	assert.Equal(t, time.Duration(0), mr.TTL("k"))

	require.NoError(t, store.Set(ctx, "t", "v", time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("t"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := Connect(context.Background(), Options{Addr: mr.Addr()})
	require.NoError(t, err)
	assert.NoError(t, store.Close())

	mr.Close()
	_, err = Connect(context.Background(), Options{Addr: mr.Addr()})
	assert.Error(t, err)
}

func TestStore_BackendError(t *testing.T) {
	mr := miniredis.RunT(t)
	store := NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1}))
	defer store.Close()

	mr.SetError("LOADING")
	_, _, err := store.Get(context.Background(), "k")
	assert.Error(t, err)
}
