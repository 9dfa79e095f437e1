package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// MemoryStore implements RawStore and RawTaker using ttlcache.
type MemoryStore struct {
	cache *ttlcache.Cache[string, string]
}

// NewMemoryStore creates a new in-memory store and starts its expiry loop.
func NewMemoryStore() *MemoryStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	go cache.Start()

	return &MemoryStore{
		cache: cache,
	}
}

func memoryTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return ttlcache.NoTTL
	}

	return ttl
}

// Set implements RawStore.Set.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.cache.Set(key, value, memoryTTL(ttl))

	return nil
}

// Get implements RawStore.Get. Expired items are reported as missing.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	item := s.cache.Get(key)
	if item == nil {
		return "", false, nil
	}

	return item.Value(), true, nil
}

// Delete implements RawStore.Delete.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)

	return nil
}

// Take implements RawTaker.Take.
func (s *MemoryStore) Take(_ context.Context, key string) (string, bool, error) {
	item, found := s.cache.GetAndDelete(key)
	if !found || item == nil {
		return "", false, nil
	}

	return item.Value(), true, nil
}

// Len returns the number of entries, expired ones included until evicted.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Close stops the expiry loop.
func (s *MemoryStore) Close() error {
	s.cache.Stop()

	return nil
}
