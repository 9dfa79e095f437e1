package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseScope(t *testing.T) {
	assert.Empty(t, ParseScope(""))
	assert.Empty(t, ParseScope(" , ,"))
	assert.Equal(t, []string{"a", "b", "c"}, ParseScope("a,b c"))
	assert.Equal(t, []string{"a", "b"}, ParseScope(" a ,, b\t"))
}

func TestNormalizeScope(t *testing.T) {
	assert.Equal(t, "userinfo,openid", NormalizeScope("userinfo openid"))
	assert.Equal(t, "", NormalizeScope(" "))
}

func TestContainsAll(t *testing.T) {
	assert.True(t, containsAll(nil, nil))
	assert.True(t, containsAll([]string{"a", "b"}, []string{"b", "a"}))
	assert.False(t, containsAll([]string{"a"}, []string{"a", "b"}))
	assert.False(t, containsAll(nil, []string{"a"}))
}
