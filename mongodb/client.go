// Package mongodb holds the MongoDB backed client registry and key-value
// store.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"go.pilab.hu/oauth2/log"
)

const (
	ClientsCollection = "oauth2_clients" // client models
	KVCollection      = "oauth2_kv"      // engine keys and records
)

// Connect connects to uri, pings the primary and returns the named
// database. Commands are traced through otelmongo.
func Connect(ctx context.Context, uri, dbName string, logger log.Logger) (*mongo.Database, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	logger.Info(ctx, "connecting to MongoDB", log.Fields{"database": dbName})

	clientOptions := options.Client().ApplyURI(uri)
	clientOptions.SetConnectTimeout(10 * time.Second)
	clientOptions.SetServerSelectionTimeout(10 * time.Second)
	clientOptions.SetMonitor(otelmongo.NewMonitor())

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB primary: %w", err)
	}

	logger.Info(ctx, "MongoDB client initialized")

	return client.Database(dbName), nil
}

// Disconnect closes the client behind db.
func Disconnect(ctx context.Context, db *mongo.Database) error {
	return db.Client().Disconnect(ctx)
}
