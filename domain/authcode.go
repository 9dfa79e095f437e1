package domain

import "time"

// Code represents an OAuth 2.0 authorization code. A code is exchanged once
// for an access token and refresh token pair.
type Code struct {
	Code        string    `json:"code"`         // Opaque code value
	ClientID    string    `json:"client_id"`    // Client application ID
	Scope       string    `json:"scope"`        // Requested scopes
	SubjectID   SubjectID `json:"subject_id"`   // Subject who authorized the request
	RedirectURI string    `json:"redirect_uri"` // Client's callback URL
	ExpiresAt   time.Time `json:"expires_at"`   // Expiration timestamp
}

// ExpiresIn returns the remaining lifetime of the code in seconds.
func (c *Code) ExpiresIn() int64 {
	return expiresIn(c.ExpiresAt)
}

// RequestAuth is a validated authorization request, built from the
// authorize endpoint parameters and the logged in subject.
type RequestAuth struct {
	ClientID     string
	ResponseType string
	RedirectURI  string
	State        string
	Scope        string
	SubjectID    SubjectID
}

// expiresIn converts an absolute expiry into remaining seconds. A zero expiry
// never expires and reports -1. Expired values report 0.
func expiresIn(expiresAt time.Time) int64 {
	if expiresAt.IsZero() {
		return -1
	}

	s := int64(time.Until(expiresAt) / time.Second)
	if s < 0 {
		return 0
	}

	return s
}
