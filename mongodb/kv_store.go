package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type kvDocument struct {
	Key       string     `bson:"_id"`
	Value     string     `bson:"value"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// KVStore is a cache.RawStore over a MongoDB collection. Expired documents
// are hidden from reads and reaped by a TTL index on expires_at.
type KVStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewKVStore creates the store and its TTL index.
func NewKVStore(ctx context.Context, db *mongo.Database) (*KVStore, error) {
	coll := db.Collection(KVCollection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create expires_at index: %w", err)
	}

	return &KVStore{coll: coll, now: time.Now}, nil
}

func (s *KVStore) liveFilter(key string) bson.M {
	return bson.M{
		"_id": key,
		"$or": bson.A{
			bson.M{"expires_at": nil},
			bson.M{"expires_at": bson.M{"$gt": s.now()}},
		},
	}
}

// Set upserts key. A ttl of zero or less never expires.
func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	doc := kvDocument{Key: key, Value: value}
	if ttl > 0 {
		expiresAt := s.now().Add(ttl)
		doc.ExpiresAt = &expiresAt
	}

	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}

	return nil
}

// Get returns the live value of key.
func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var doc kvDocument

	err := s.coll.FindOne(ctx, s.liveFilter(key)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}

	return doc.Value, true, nil
}

// Delete removes key.
func (s *KVStore) Delete(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}

	return nil
}

// Take reads and removes key with a single findAndModify.
func (s *KVStore) Take(ctx context.Context, key string) (string, bool, error) {
	var doc kvDocument

	err := s.coll.FindOneAndDelete(ctx, s.liveFilter(key)).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("failed to take key %s: %w", key, err)
	}

	return doc.Value, true, nil
}
