package bolt

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"go.pilab.hu/oauth2/log"
)

const (
	dataBucket     = "oauth2"
	metadataBucket = "oauth2_meta"
)

// itemMetadata holds the expiry of a stored item. Zero never expires.
type itemMetadata struct {
	ExpiresAtUnixNano int64
}

// Store is a bbolt backed cache.RawStore with per-key expiry.
type Store struct {
	db              *bbolt.DB
	logger          log.Logger
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	now             func() time.Time

	// afterScan runs between the expiry scan and the delete transaction.
	afterScan func()
}

// Open opens (or creates) the database file and its buckets.
func Open(dbPath string, cleanupInterval time.Duration, logger log.Logger) (*Store, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory for %s: %w", dbPath, err)
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt db at %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range []string{dataBucket, metadataBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:              db,
		logger:          logger.With(log.Fields{"component": "bolt_store", "path": dbPath}),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}, nil
}

func encodeMetadata(meta itemMetadata) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(meta); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeMetadata(data []byte) (itemMetadata, error) {
	var meta itemMetadata
	err := gob.NewDecoder(bytes.NewReader(data)).Decode(&meta)

	return meta, err
}

func (m itemMetadata) expired(now time.Time) bool {
	return m.ExpiresAtUnixNano != 0 && now.UnixNano() > m.ExpiresAtUnixNano
}

// Set stores a value. A ttl of zero or less never expires.
func (s *Store) Set(_ context.Context, key, value string, ttl time.Duration) error {
	var meta itemMetadata
	if ttl > 0 {
		meta.ExpiresAtUnixNano = s.now().Add(ttl).UnixNano()
	}

	metaBytes, err := encodeMetadata(meta)
	if err != nil {
		return fmt.Errorf("failed to encode metadata for key %s: %w", key, err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.Bucket([]byte(dataBucket)).Put([]byte(key), []byte(value)); err != nil {
			return fmt.Errorf("failed to put value for key %s: %w", key, err)
		}

		return tx.Bucket([]byte(metadataBucket)).Put([]byte(key), metaBytes)
	})
}

// read returns the live value of key inside tx.
func (s *Store) read(tx *bbolt.Tx, key string) (string, bool, error) {
	metaBytes := tx.Bucket([]byte(metadataBucket)).Get([]byte(key))
	if metaBytes == nil {
		return "", false, nil
	}

	meta, err := decodeMetadata(metaBytes)
	if err != nil {
		return "", false, fmt.Errorf("failed to decode metadata for key %s: %w", key, err)
	}
	if meta.expired(s.now()) {
		return "", false, nil
	}

	value := tx.Bucket([]byte(dataBucket)).Get([]byte(key))
	if value == nil {
		return "", false, nil
	}

	// The slice is only valid during the transaction; string() copies it.
	return string(value), true, nil
}

// Get retrieves a value. Expired items are reported as missing and left for
// the cleanup loop.
func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)

	err := s.db.View(func(tx *bbolt.Tx) error {
		var err error
		value, found, err = s.read(tx, key)
		return err
	})
	if err != nil {
		return "", false, err
	}

	return value, found, nil
}

func deleteKey(tx *bbolt.Tx, key string) error {
	if err := tx.Bucket([]byte(dataBucket)).Delete([]byte(key)); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return tx.Bucket([]byte(metadataBucket)).Delete([]byte(key))
}

// Delete removes a key.
func (s *Store) Delete(_ context.Context, key string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return deleteKey(tx, key)
	})
}

// Take reads and removes a key in one write transaction.
func (s *Store) Take(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)

	err := s.db.Update(func(tx *bbolt.Tx) error {
		var err error
		value, found, err = s.read(tx, key)
		if err != nil || !found {
			return err
		}
		return deleteKey(tx, key)
	})
	if err != nil {
		return "", false, err
	}

	return value, found, nil
}

// StartCleanupRoutine starts the background removal of expired items.
func (s *Store) StartCleanupRoutine(ctx context.Context) {
	if s.cleanupInterval <= 0 {
		s.logger.Info(ctx, "cleanup interval is not positive, cleanup routine disabled")
		return
	}

	go s.runCleanupLoop(ctx)
}

func (s *Store) runCleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			removed, err := s.DeleteExpired()
			if err != nil {
				s.logger.Error(ctx, "failed to remove expired items", err)
				continue
			}
			if removed > 0 {
				s.logger.Debug(ctx, "removed expired items", log.Fields{"count": removed})
			}
		case <-s.stopCleanup:
			return
		case <-ctx.Done():
			return
		}
	}
}

// DeleteExpired removes every expired item and returns how many were removed.
func (s *Store) DeleteExpired() (int, error) {
	var keys [][]byte

	err := s.db.View(func(tx *bbolt.Tx) error {
		now := s.now()
		return tx.Bucket([]byte(metadataBucket)).ForEach(func(k, v []byte) error {
			meta, err := decodeMetadata(v)
			if err != nil {
				// Undecodable metadata can never be read back; drop it.
				keys = append(keys, bytes.Clone(k))
				return nil
			}
			if meta.expired(now) {
				keys = append(keys, bytes.Clone(k))
			}
			return nil
		})
	})
	if err != nil || len(keys) == 0 {
		return 0, err
	}

	if s.afterScan != nil {
		s.afterScan()
	}

	// Keys may have been set again since the scan; only still expired ones go.
	removed := 0
	err = s.db.Update(func(tx *bbolt.Tx) error {
		now := s.now()
		meta := tx.Bucket([]byte(metadataBucket))
		for _, k := range keys {
			v := meta.Get(k)
			if v == nil {
				continue
			}
			if m, err := decodeMetadata(v); err == nil && !m.expired(now) {
				continue
			}
			if err := deleteKey(tx, string(k)); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return removed, nil
}

// Close stops the cleanup routine and closes the database.
func (s *Store) Close() error {
	select {
	case <-s.stopCleanup:
	default:
		close(s.stopCleanup)
	}

	return s.db.Close()
}
