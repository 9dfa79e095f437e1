package cmd

import (
	"time"

	"go.pilab.hu/oauth2/domain"
)

type codeView struct {
	Code        string    `yaml:"code"`
	ClientID    string    `yaml:"client_id"`
	SubjectID   string    `yaml:"subject_id"`
	Scope       string    `yaml:"scope,omitempty"`
	ExpiresIn   int64     `yaml:"expires_in"`
	ExpiresAt   time.Time `yaml:"expires_at,omitempty"`
	RedirectURI string    `yaml:"redirect_uri"`
	Location    string    `yaml:"location,omitempty"`
}

func newCodeView(c *domain.Code, location string) codeView {
	return codeView{
		Code:        c.Code,
		ClientID:    c.ClientID,
		SubjectID:   c.SubjectID.String(),
		Scope:       c.Scope,
		ExpiresIn:   c.ExpiresIn(),
		ExpiresAt:   c.ExpiresAt,
		RedirectURI: c.RedirectURI,
		Location:    location,
	}
}

type tokenView struct {
	AccessToken      string `yaml:"access_token"`
	TokenType        string `yaml:"token_type"`
	ExpiresIn        int64  `yaml:"expires_in"`
	RefreshToken     string `yaml:"refresh_token,omitempty"`
	RefreshExpiresIn int64  `yaml:"refresh_expires_in,omitempty"`
	ClientID         string `yaml:"client_id"`
	SubjectID        string `yaml:"subject_id,omitempty"`
	Scope            string `yaml:"scope,omitempty"`
	Openid           string `yaml:"openid,omitempty"`
	Location         string `yaml:"location,omitempty"`
}

func newTokenView(at *domain.AccessToken, location string) tokenView {
	return tokenView{
		AccessToken:      at.AccessToken,
		TokenType:        "bearer",
		ExpiresIn:        at.ExpiresIn(),
		RefreshToken:     at.RefreshToken,
		RefreshExpiresIn: at.RefreshExpiresIn(),
		ClientID:         at.ClientID,
		SubjectID:        at.SubjectID.String(),
		Scope:            at.Scope,
		Openid:           at.Openid,
		Location:         location,
	}
}

func newClientTokenView(ct *domain.ClientToken) tokenView {
	return tokenView{
		AccessToken: ct.ClientToken,
		TokenType:   "bearer",
		ExpiresIn:   ct.ExpiresIn(),
		ClientID:    ct.ClientID,
		Scope:       ct.Scope,
	}
}

type clientView struct {
	ClientID          string   `yaml:"client_id"`
	ClientSecret      string   `yaml:"client_secret,omitempty"`
	ContractScopes    []string `yaml:"contract_scopes,omitempty"`
	AllowURLs         []string `yaml:"allow_urls,omitempty"`
	AllowedGrantTypes []string `yaml:"allowed_grant_types,omitempty"`
}

func newClientView(m *domain.ClientModel, withSecret bool) clientView {
	v := clientView{
		ClientID:          m.ClientID,
		ContractScopes:    m.ContractScopes,
		AllowURLs:         m.AllowURLs,
		AllowedGrantTypes: m.AllowedGrantTypes,
	}
	if withSecret {
		v.ClientSecret = m.ClientSecret
	}

	return v
}
