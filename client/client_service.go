package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/internal/audit"
	"go.pilab.hu/oauth2/internal/crypto"
)

// ClientStore persists client models.
type ClientStore interface {
	domain.ClientRegistry
	SaveClient(ctx context.Context, model *domain.ClientModel) error
	DeleteClient(ctx context.Context, clientID string) error
}

// ClientService handles client management operations.
type ClientService struct {
	store ClientStore
	audit *audit.Logger
}

// ClientServiceOption configures a ClientService.
type ClientServiceOption func(*ClientService)

// WithAudit records every client mutation on a.
func WithAudit(a *audit.Logger) ClientServiceOption {
	return func(s *ClientService) { s.audit = a }
}

// NewClientService creates a new ClientService instance.
func NewClientService(store ClientStore, opts ...ClientServiceOption) *ClientService {
	s := &ClientService{store: store}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// secretLength is the length of generated client secrets.
const secretLength = 32

// RegisterClient stores a new client with a generated id and secret. The
// id is kept when template already carries one.
func (s *ClientService) RegisterClient(ctx context.Context, template domain.ClientModel) (*domain.ClientModel, error) {
	if template.ClientID == "" {
		template.ClientID = uuid.NewString()
	}

	if template.ClientSecret == "" {
		secret, err := crypto.RandomString(secretLength)
		if err != nil {
			return nil, fmt.Errorf("failed to generate client secret: %w", err)
		}
		template.ClientSecret = secret
	}

	err := s.store.SaveClient(ctx, &template)
	s.audit.Log(ctx, audit.Event{Action: audit.ActionClientRegistered, ClientID: template.ClientID, Err: err})
	if err != nil {
		return nil, err
	}

	return &template, nil
}

// RotateSecret replaces the client's secret and returns the new one.
func (s *ClientService) RotateSecret(ctx context.Context, clientID string) (string, error) {
	model, err := s.store.GetClientModel(ctx, clientID)
	if err != nil {
		return "", err
	}

	secret, err := crypto.RandomString(secretLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate client secret: %w", err)
	}
	model.ClientSecret = secret

	err = s.store.SaveClient(ctx, model)
	s.audit.Log(ctx, audit.Event{Action: audit.ActionSecretRotated, ClientID: clientID, Err: err})
	if err != nil {
		return "", err
	}

	return secret, nil
}

// GetClient retrieves a client by id.
func (s *ClientService) GetClient(ctx context.Context, clientID string) (*domain.ClientModel, error) {
	return s.store.GetClientModel(ctx, clientID)
}

// DeleteClient removes a client. Unknown ids are reported as
// domain.ErrClientNotFound.
func (s *ClientService) DeleteClient(ctx context.Context, clientID string) error {
	err := s.store.DeleteClient(ctx, clientID)
	s.audit.Log(ctx, audit.Event{Action: audit.ActionClientDeleted, ClientID: clientID, Err: err})
	if err != nil && !errors.Is(err, domain.ErrClientNotFound) {
		return fmt.Errorf("failed to delete client %s: %w", clientID, err)
	}

	return err
}
