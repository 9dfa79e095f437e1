package client

import (
	"context"
	"errors"
	"sync"

	"go.pilab.hu/oauth2/domain"
)

// MemoryRegistry is a concurrency-safe in-memory client registry.
type MemoryRegistry struct {
	mu           sync.RWMutex
	clients      map[string]*domain.ClientModel
	openids      map[string]string
	openidPrefix string
}

// NewMemoryRegistry returns a registry seeded with models.
func NewMemoryRegistry(openidPrefix string, models ...domain.ClientModel) *MemoryRegistry {
	r := &MemoryRegistry{
		clients:      make(map[string]*domain.ClientModel, len(models)),
		openids:      make(map[string]string),
		openidPrefix: openidPrefix,
	}
	for i := range models {
		m := models[i]
		r.clients[m.ClientID] = &m
	}

	return r
}

// SaveClient inserts or replaces a client model.
func (r *MemoryRegistry) SaveClient(_ context.Context, model *domain.ClientModel) error {
	if model == nil || model.ClientID == "" {
		return errors.New("client model requires a client id")
	}

	m := *model

	r.mu.Lock()
	r.clients[m.ClientID] = &m
	r.mu.Unlock()

	return nil
}

// GetClientModel returns a copy of the stored model.
func (r *MemoryRegistry) GetClientModel(_ context.Context, clientID string) (*domain.ClientModel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.clients[clientID]
	if !ok {
		return nil, domain.ErrClientNotFound
	}
	out := *m

	return &out, nil
}

// DeleteClient removes a client model.
func (r *MemoryRegistry) DeleteClient(_ context.Context, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[clientID]; !ok {
		return domain.ErrClientNotFound
	}
	delete(r.clients, clientID)

	return nil
}

// SetOpenid pins the openid of a subject, overriding derivation.
func (r *MemoryRegistry) SetOpenid(clientID string, subjectID domain.SubjectID, openid string) {
	r.mu.Lock()
	r.openids[openidKey(clientID, subjectID)] = openid
	r.mu.Unlock()
}

// GetOpenid returns the pinned openid or a derived one.
func (r *MemoryRegistry) GetOpenid(_ context.Context, clientID string, subjectID domain.SubjectID) (string, error) {
	r.mu.RLock()
	openid, ok := r.openids[openidKey(clientID, subjectID)]
	r.mu.RUnlock()

	if ok {
		return openid, nil
	}

	return DeriveOpenid(r.openidPrefix, clientID, subjectID), nil
}

func openidKey(clientID string, subjectID domain.SubjectID) string {
	return clientID + "\x00" + string(subjectID)
}
