package domain

import (
	"context"
	"errors"
	"time"
)

// ErrClientNotFound is returned by a ClientRegistry when no client matches.
var ErrClientNotFound = errors.New("client not found")

// ClientModel holds the registered client's credentials and token policy.
//
//nolint:tagliatelle
type ClientModel struct {
	ClientID     string `bson:"client_id" json:"client_id" mapstructure:"client_id"`
	ClientSecret string `bson:"client_secret,omitempty" json:"client_secret,omitempty" mapstructure:"client_secret"`

	// ContractScopes are the scopes the client may request at all.
	ContractScopes []string `bson:"contract_scopes" json:"contract_scopes" mapstructure:"contract_scopes"`
	// AllowURLs is the redirect URL allow-list.
	AllowURLs []string `bson:"allow_urls" json:"allow_urls" mapstructure:"allow_urls"`
	// AllowedGrantTypes restricts the grant flows. Empty allows every grant.
	AllowedGrantTypes []string `bson:"allowed_grant_types,omitempty" json:"allowed_grant_types,omitempty" mapstructure:"allowed_grant_types"`

	// Lifetimes. Zero inherits the configured default, negative never expires.
	CodeTimeout         time.Duration `bson:"code_timeout" json:"code_timeout" mapstructure:"code_timeout"`
	AccessTokenTimeout  time.Duration `bson:"access_token_timeout" json:"access_token_timeout" mapstructure:"access_token_timeout"`
	RefreshTokenTimeout time.Duration `bson:"refresh_token_timeout" json:"refresh_token_timeout" mapstructure:"refresh_token_timeout"`
	ClientTokenTimeout  time.Duration `bson:"client_token_timeout" json:"client_token_timeout" mapstructure:"client_token_timeout"`
	// PastClientTokenTimeout overrides the lifetime of a demoted client
	// token when positive. -1 keeps the token's original expiry.
	PastClientTokenTimeout time.Duration `bson:"past_client_token_timeout" json:"past_client_token_timeout" mapstructure:"past_client_token_timeout"`

	// IsNewRefresh issues a new refresh token value on every refresh.
	// Nil inherits the configured default.
	IsNewRefresh *bool `bson:"is_new_refresh,omitempty" json:"is_new_refresh,omitempty" mapstructure:"is_new_refresh"`
}

// RotatesRefresh reports whether refreshing replaces the refresh token.
func (c *ClientModel) RotatesRefresh() bool {
	return c.IsNewRefresh != nil && *c.IsNewRefresh
}

// AllowsGrant reports whether the client is enabled for the grant type.
func (c *ClientModel) AllowsGrant(grantType string) bool {
	if len(c.AllowedGrantTypes) == 0 {
		return true
	}

	for _, gt := range c.AllowedGrantTypes {
		if gt == grantType {
			return true
		}
	}

	return false
}

// ClientRegistry resolves client metadata and per-subject openids.
type ClientRegistry interface {
	// GetClientModel returns ErrClientNotFound when the client is unknown.
	GetClientModel(ctx context.Context, clientID string) (*ClientModel, error)
	// GetOpenid returns an empty string when no openid is available.
	GetOpenid(ctx context.Context, clientID string, subjectID SubjectID) (string, error)
}
