// Package cache implements the token engine's storage contract on top of
// TTL string stores: an in-memory ttlcache backend lives here, Redis and
// bbolt backends live in the sub-packages.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.pilab.hu/oauth2/domain"
)

// RawStore is a string key-value store with per-key expiry. A ttl of zero
// or less never expires. Missing and expired keys report found == false.
type RawStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Delete(ctx context.Context, key string) error
}

// RawTaker is implemented by raw stores that can read and remove a key atomically.
type RawTaker interface {
	Take(ctx context.Context, key string) (value string, found bool, err error)
}

// NewStorage wraps a raw store into a domain.Storage. Records are stored as
// JSON documents. If raw implements RawTaker the result also implements
// domain.RecordTaker.
//
//nolint:ireturn
func NewStorage(raw RawStore) domain.Storage {
	s := &recordStore{RawStore: raw}
	if taker, ok := raw.(RawTaker); ok {
		return &takingRecordStore{recordStore: s, taker: taker}
	}

	return s
}

type recordStore struct {
	RawStore
}

func (s *recordStore) SetRecord(ctx context.Context, key string, record any, ttl time.Duration) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record %s: %w", key, err)
	}

	return s.Set(ctx, key, string(data), ttl)
}

func (s *recordStore) GetRecord(ctx context.Context, key string, dst any) (bool, error) {
	data, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return false, err
	}

	return true, decode(key, data, dst)
}

func (s *recordStore) DeleteRecord(ctx context.Context, key string) error {
	return s.Delete(ctx, key)
}

type takingRecordStore struct {
	*recordStore
	taker RawTaker
}

func (s *takingRecordStore) TakeRecord(ctx context.Context, key string, dst any) (bool, error) {
	data, found, err := s.taker.Take(ctx, key)
	if err != nil || !found {
		return false, err
	}

	return true, decode(key, data, dst)
}

func decode(key, data string, dst any) error {
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("failed to unmarshal record %s: %w", key, err)
	}

	return nil
}
