// Package keys builds the storage keys of every oauth2 record and index.
//
// All keys have the form <tokenName>:oauth2:<kind>:<discriminator>. Each
// discriminator component is escaped so ':' only ever separates components,
// which keeps distinct (kind, discriminator) pairs from colliding.
package keys

import (
	"strings"

	"go.pilab.hu/oauth2/domain"
)

// DefaultTokenName is the key prefix used when none is configured.
const DefaultTokenName = "satoken"

// Key kinds.
const (
	KindCode              = "code"
	KindCodeIndex         = "code-index"
	KindAccessToken       = "access-token"
	KindAccessTokenIndex  = "access-token-index"
	KindRefreshToken      = "refresh-token"
	KindRefreshTokenIndex = "refresh-token-index"
	KindClientToken       = "client-token"
	KindClientTokenIndex  = "client-token-index"
	KindPastTokenIndex    = "past-token-index"
	KindGrantScope        = "grant-scope"
)

var escaper = strings.NewReplacer("%", "%25", ":", "%3A")

// Builder builds namespaced keys. The zero value uses DefaultTokenName.
type Builder struct {
	TokenName string
}

// New returns a Builder for the given token name.
func New(tokenName string) Builder {
	return Builder{TokenName: tokenName}
}

func (b Builder) build(kind string, parts ...string) string {
	prefix := b.TokenName
	if prefix == "" {
		prefix = DefaultTokenName
	}

	var sb strings.Builder
	sb.WriteString(prefix)
	sb.WriteString(":oauth2:")
	sb.WriteString(kind)
	for _, p := range parts {
		sb.WriteByte(':')
		sb.WriteString(escaper.Replace(p))
	}

	return sb.String()
}

func (b Builder) Code(code string) string {
	return b.build(KindCode, code)
}

func (b Builder) CodeIndex(clientID string, subjectID domain.SubjectID) string {
	return b.build(KindCodeIndex, clientID, subjectID.String())
}

func (b Builder) AccessToken(value string) string {
	return b.build(KindAccessToken, value)
}

func (b Builder) AccessTokenIndex(clientID string, subjectID domain.SubjectID) string {
	return b.build(KindAccessTokenIndex, clientID, subjectID.String())
}

func (b Builder) RefreshToken(value string) string {
	return b.build(KindRefreshToken, value)
}

func (b Builder) RefreshTokenIndex(clientID string, subjectID domain.SubjectID) string {
	return b.build(KindRefreshTokenIndex, clientID, subjectID.String())
}

func (b Builder) ClientToken(value string) string {
	return b.build(KindClientToken, value)
}

func (b Builder) ClientTokenIndex(clientID string) string {
	return b.build(KindClientTokenIndex, clientID)
}

func (b Builder) PastTokenIndex(clientID string) string {
	return b.build(KindPastTokenIndex, clientID)
}

func (b Builder) GrantScope(clientID string, subjectID domain.SubjectID) string {
	return b.build(KindGrantScope, clientID, subjectID.String())
}
