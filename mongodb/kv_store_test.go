package mongodb

import (
	"context"
	"testing"

	"go.pilab.hu/oauth2/cache"
	"go.pilab.hu/oauth2/cache/storetest"
)

func TestKVStore_Conformance(t *testing.T) {
	storetest.Run(t, storetest.Harness{
		New: func(t *testing.T) cache.RawStore {
			db := setupTestMongoDB(t, "oauth2_kv_test")
			store, err := NewKVStore(context.Background(), db)
			if err != nil {
				t.Fatalf("failed to create kv store: %v", err)
			}
			return store
		},
		Advance: storetest.Sleep,
	})
}
