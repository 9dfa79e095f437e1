package domain

import (
	"context"
	"time"
)

// Storage is the key-value persistence contract of the token engine.
// A ttl of zero or less means the entry never expires. Lookups of missing
// or expired keys report found == false with a nil error.
type Storage interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Delete(ctx context.Context, key string) error

	SetRecord(ctx context.Context, key string, record any, ttl time.Duration) error
	GetRecord(ctx context.Context, key string, dst any) (found bool, err error)
	DeleteRecord(ctx context.Context, key string) error
}

// RecordTaker is implemented by storages that can read and delete a record
// in one atomic step. Only one concurrent caller observes found == true.
type RecordTaker interface {
	TakeRecord(ctx context.Context, key string, dst any) (found bool, err error)
}
