package domain

import "time"

// AccessToken is a bearer credential issued to a client on behalf of a subject.
type AccessToken struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token,omitempty"` // Linked refresh token value
	ClientID         string    `json:"client_id"`
	SubjectID        SubjectID `json:"subject_id"`
	Scope            string    `json:"scope"`
	Openid           string    `json:"openid,omitempty"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"` // Expiry of the linked refresh token
}

// ExpiresIn returns the remaining lifetime of the access token in seconds.
func (t *AccessToken) ExpiresIn() int64 {
	return expiresIn(t.ExpiresAt)
}

// RefreshExpiresIn returns the remaining lifetime of the linked refresh token.
func (t *AccessToken) RefreshExpiresIn() int64 {
	if t.RefreshToken == "" {
		return 0
	}

	return expiresIn(t.RefreshExpiresAt)
}

// RefreshToken mints new access tokens without re-authentication.
type RefreshToken struct {
	RefreshToken string    `json:"refresh_token"`
	ClientID     string    `json:"client_id"`
	SubjectID    SubjectID `json:"subject_id"`
	Scope        string    `json:"scope"`
	Openid       string    `json:"openid,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ExpiresIn returns the remaining lifetime of the refresh token in seconds.
func (t *RefreshToken) ExpiresIn() int64 {
	return expiresIn(t.ExpiresAt)
}

// ClientToken represents the client's own identity (client_credentials grant).
// A demoted client token is called a past token.
type ClientToken struct {
	ClientToken string    `json:"client_token"`
	ClientID    string    `json:"client_id"`
	Scope       string    `json:"scope"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// ExpiresIn returns the remaining lifetime of the client token in seconds.
func (t *ClientToken) ExpiresIn() int64 {
	return expiresIn(t.ExpiresAt)
}
