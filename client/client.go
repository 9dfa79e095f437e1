// Package client resolves OAuth2 client models for the token engine.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"go.pilab.hu/oauth2/domain"
)

// Defaults are the lifetimes and policy applied to clients that leave them
// unset.
type Defaults struct {
	CodeTimeout            time.Duration
	AccessTokenTimeout     time.Duration
	RefreshTokenTimeout    time.Duration
	ClientTokenTimeout     time.Duration
	PastClientTokenTimeout time.Duration
	IsNewRefresh           bool
}

// DefaultDefaults returns the stock lifetimes.
func DefaultDefaults() Defaults {
	return Defaults{
		CodeTimeout:            5 * time.Minute,
		AccessTokenTimeout:     2 * time.Hour,
		RefreshTokenTimeout:    30 * 24 * time.Hour,
		ClientTokenTimeout:     2 * time.Hour,
		PastClientTokenTimeout: -1,
	}
}

// ApplyDefaults returns a copy of model with zero lifetimes replaced by d.
// An unset IsNewRefresh takes the default; an explicit value is kept.
func ApplyDefaults(model *domain.ClientModel, d Defaults) *domain.ClientModel {
	out := *model

	if out.CodeTimeout == 0 {
		out.CodeTimeout = d.CodeTimeout
	}
	if out.AccessTokenTimeout == 0 {
		out.AccessTokenTimeout = d.AccessTokenTimeout
	}
	if out.RefreshTokenTimeout == 0 {
		out.RefreshTokenTimeout = d.RefreshTokenTimeout
	}
	if out.ClientTokenTimeout == 0 {
		out.ClientTokenTimeout = d.ClientTokenTimeout
	}
	if out.PastClientTokenTimeout == 0 {
		out.PastClientTokenTimeout = d.PastClientTokenTimeout
	}
	if out.IsNewRefresh == nil {
		rotate := d.IsNewRefresh
		out.IsNewRefresh = &rotate
	}

	return &out
}

// DeriveOpenid returns a name-based UUID that is stable for the
// (prefix, client, subject) triple.
func DeriveOpenid(prefix, clientID string, subjectID domain.SubjectID) string {
	name := fmt.Sprintf("%s_%s_%s", prefix, clientID, subjectID)

	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

type defaultingRegistry struct {
	domain.ClientRegistry
	defaults Defaults
}

// WithDefaults wraps reg so that every returned model has d applied.
//
//nolint:ireturn
func WithDefaults(reg domain.ClientRegistry, d Defaults) domain.ClientRegistry {
	return &defaultingRegistry{ClientRegistry: reg, defaults: d}
}

func (r *defaultingRegistry) GetClientModel(ctx context.Context, clientID string) (*domain.ClientModel, error) {
	model, err := r.ClientRegistry.GetClientModel(ctx, clientID)
	if err != nil || model == nil {
		return model, err
	}

	return ApplyDefaults(model, r.defaults), nil
}
