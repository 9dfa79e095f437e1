package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"go.pilab.hu/oauth2/domain"
)

func TestBuilder_Layout(t *testing.T) {
	b := New("satoken")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"code", b.Code("abc"), "satoken:oauth2:code:abc"},
		{"code index", b.CodeIndex("c1", "10001"), "satoken:oauth2:code-index:c1:10001"},
		{"access token", b.AccessToken("at"), "satoken:oauth2:access-token:at"},
		{"access token index", b.AccessTokenIndex("c1", "10001"), "satoken:oauth2:access-token-index:c1:10001"},
		{"refresh token", b.RefreshToken("rt"), "satoken:oauth2:refresh-token:rt"},
		{"refresh token index", b.RefreshTokenIndex("c1", "10001"), "satoken:oauth2:refresh-token-index:c1:10001"},
		{"client token", b.ClientToken("ct"), "satoken:oauth2:client-token:ct"},
		{"client token index", b.ClientTokenIndex("c1"), "satoken:oauth2:client-token-index:c1"},
		{"past token index", b.PastTokenIndex("c1"), "satoken:oauth2:past-token-index:c1"},
		{"grant scope", b.GrantScope("c1", "10001"), "satoken:oauth2:grant-scope:c1:10001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestBuilder_DefaultTokenName(t *testing.T) {
	var b Builder
	assert.Equal(t, "satoken:oauth2:code:x", b.Code("x"))
	assert.Equal(t, "custom:oauth2:code:x", New("custom").Code("x"))
}

func TestBuilder_ComponentsDoNotCollide(t *testing.T) {
	b := New("p")

	// Without escaping both pairs would map to p:oauth2:code-index:a:b:c.
	k1 := b.CodeIndex("a:b", domain.SubjectID("c"))
	k2 := b.CodeIndex("a", domain.SubjectID("b:c"))
	assert.NotEqual(t, k1, k2)

	// A token value that looks like an index discriminator stays distinct.
	assert.NotEqual(t, b.Code("c1:10001"), b.CodeIndex("c1", "10001"))
	assert.NotEqual(t, b.AccessToken("x"), b.RefreshToken("x"))
	assert.NotEqual(t, b.ClientTokenIndex("c1"), b.PastTokenIndex("c1"))
}
