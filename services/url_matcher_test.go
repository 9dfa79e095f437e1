package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestURLMatchers(t *testing.T) {
	allow := []string{"https://a.com/cb", "https://*.b.com/*"}

	tests := []struct {
		candidate string
		exact     bool
		prefix    bool
		wildcard  bool
	}{
		{"https://a.com/cb", true, true, true},
		{"https://a.com/cb/extra", false, true, false},
		{"https://a.com/c", false, false, false},
		{"https://x.b.com/return", false, false, true},
		{"https://b.com/return", false, false, false},
		{"https://evil.com/?https://x.b.com/", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.candidate, func(t *testing.T) {
			assert.Equal(t, tt.exact, ExactMatcher{}.Match(allow, tt.candidate), "exact")
			assert.Equal(t, tt.prefix, PrefixMatcher{}.Match(allow, tt.candidate), "prefix")
			assert.Equal(t, tt.wildcard, WildcardMatcher{}.Match(allow, tt.candidate), "wildcard")
		})
	}
}

func TestPrefixMatcher_IgnoresEmptyEntries(t *testing.T) {
	assert.False(t, PrefixMatcher{}.Match([]string{""}, "https://a.com"))
}

func TestWildcardMatcher_QuotesMetaCharacters(t *testing.T) {
	assert.False(t, WildcardMatcher{}.Match([]string{"https://a.com/cb?*"}, "https://a.com/cbX"))
	assert.True(t, WildcardMatcher{}.Match([]string{"https://a.com/cb?*"}, "https://a.com/cb?x"))
}
