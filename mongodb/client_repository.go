package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go.pilab.hu/oauth2/client"
	"go.pilab.hu/oauth2/domain"
)

// ClientRepository is a domain.ClientRegistry backed by a MongoDB collection.
type ClientRepository struct {
	coll         *mongo.Collection
	openidPrefix string
}

// NewClientRepository creates the repository and its unique client_id index.
func NewClientRepository(ctx context.Context, db *mongo.Database, openidPrefix string) (*ClientRepository, error) {
	coll := db.Collection(ClientsCollection)

	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "client_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client_id index: %w", err)
	}

	return &ClientRepository{coll: coll, openidPrefix: openidPrefix}, nil
}

// SaveClient inserts or replaces a client model.
func (r *ClientRepository) SaveClient(ctx context.Context, model *domain.ClientModel) error {
	if model == nil || model.ClientID == "" {
		return errors.New("client model requires a client id")
	}

	filter := bson.M{"client_id": model.ClientID}
	_, err := r.coll.ReplaceOne(ctx, filter, model, options.Replace().SetUpsert(true))

	return err
}

// GetClientModel returns domain.ErrClientNotFound for unknown ids.
func (r *ClientRepository) GetClientModel(ctx context.Context, clientID string) (*domain.ClientModel, error) {
	var model domain.ClientModel

	err := r.coll.FindOne(ctx, bson.M{"client_id": clientID}).Decode(&model)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}

	return &model, nil
}

// DeleteClient removes a client model.
func (r *ClientRepository) DeleteClient(ctx context.Context, clientID string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"client_id": clientID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("delete failed: %w", domain.ErrClientNotFound)
	}

	return nil
}

// GetOpenid derives the stable openid of subjectID for clientID.
func (r *ClientRepository) GetOpenid(_ context.Context, clientID string, subjectID domain.SubjectID) (string, error) {
	return client.DeriveOpenid(r.openidPrefix, clientID, subjectID), nil
}
