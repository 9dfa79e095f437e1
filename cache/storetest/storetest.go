// Package storetest is a conformance suite for cache.RawStore backends.
package storetest

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/oauth2/cache"
	"go.pilab.hu/oauth2/domain"
)

// Harness describes the backend under test.
type Harness struct {
	// New returns an empty store. Cleanup is registered on t.
	New func(t *testing.T) cache.RawStore
	// Advance moves the backend's clock forward by at least d.
	Advance func(t *testing.T, d time.Duration)
}

// ShortTTL is the lifetime used by the expiry tests.
const ShortTTL = 150 * time.Millisecond

// Run runs the whole suite.
func Run(t *testing.T, h Harness) {
	t.Run("SetGetDelete", func(t *testing.T) { testSetGetDelete(t, h) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, h) })
	t.Run("Expiry", func(t *testing.T) { testExpiry(t, h) })
	t.Run("Records", func(t *testing.T) { testRecords(t, h) })
	t.Run("Take", func(t *testing.T) { testTake(t, h) })
}

func testSetGetDelete(t *testing.T, h Harness) {
	ctx := context.Background()
	store := h.New(t)

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))

	v, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", v)

	_, found, err = store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Delete(ctx, "k"))
	_, found, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is a no-op.
	assert.NoError(t, store.Delete(ctx, "k"))
}

func testOverwrite(t *testing.T, h Harness) {
	ctx := context.Background()
	store := h.New(t)

	require.NoError(t, store.Set(ctx, "k", "first", time.Minute))
	require.NoError(t, store.Set(ctx, "k", "second", time.Minute))

	v, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "second", v)
}

func testExpiry(t *testing.T, h Harness) {
	ctx := context.Background()
	store := h.New(t)

	require.NoError(t, store.Set(ctx, "short", "v", ShortTTL))
	require.NoError(t, store.Set(ctx, "forever", "v", 0))
	require.NoError(t, store.Set(ctx, "negative", "v", -1))

	_, found, err := store.Get(ctx, "short")
	require.NoError(t, err)
	require.True(t, found)

	h.Advance(t, ShortTTL+100*time.Millisecond)

	_, found, err = store.Get(ctx, "short")
	require.NoError(t, err)
	assert.False(t, found, "expired key must not resolve")

	_, found, err = store.Get(ctx, "forever")
	require.NoError(t, err)
	assert.True(t, found, "zero ttl never expires")

	_, found, err = store.Get(ctx, "negative")
	require.NoError(t, err)
	assert.True(t, found, "negative ttl never expires")
}

func testRecords(t *testing.T, h Harness) {
	ctx := context.Background()
	storage := cache.NewStorage(h.New(t))

	want := domain.Code{
		Code:        "abc",
		ClientID:    "c1",
		Scope:       "openid,userinfo",
		SubjectID:   "10001",
		RedirectURI: "https://a.com/cb",
		ExpiresAt:   time.Now().Add(time.Minute).UTC().Truncate(time.Second),
	}
	require.NoError(t, storage.SetRecord(ctx, "code", &want, time.Minute))

	var got domain.Code
	found, err := storage.GetRecord(ctx, "code", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, want.Code, got.Code)
	assert.Equal(t, want.SubjectID, got.SubjectID)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))

	require.NoError(t, storage.DeleteRecord(ctx, "code"))
	found, err = storage.GetRecord(ctx, "code", &got)
	require.NoError(t, err)
	assert.False(t, found)
}

func testTake(t *testing.T, h Harness) {
	ctx := context.Background()
	storage := cache.NewStorage(h.New(t))

	taker, ok := storage.(domain.RecordTaker)
	if !ok {
		t.Skip("backend does not support atomic take")
	}

	require.NoError(t, storage.SetRecord(ctx, "code", &domain.Code{Code: "abc"}, time.Minute))

	var won atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var c domain.Code
			found, err := taker.TakeRecord(ctx, "code", &c)
			assert.NoError(t, err)
			if found {
				won.Add(1)
				assert.Equal(t, "abc", c.Code)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), won.Load(), "exactly one caller takes the record")

	var c domain.Code
	found, err := storage.GetRecord(ctx, "code", &c)
	require.NoError(t, err)
	assert.False(t, found)
}

// Sleep is an Advance implementation for backends that use the wall clock.
func Sleep(_ *testing.T, d time.Duration) {
	time.Sleep(d)
}
