package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/errors"
)

func TestParamNotNull(t *testing.T) {
	req := MapRequest{"client_id": "1001", "empty": ""}

	v, err := ParamNotNull(req, "client_id")
	require.NoError(t, err)
	assert.Equal(t, "1001", v)

	_, err = ParamNotNull(req, "missing")
	requireFault(t, err, errors.KindMissingParam, errors.CodeMissingParam)
	assert.Contains(t, err.Error(), "missing")

	_, err = ParamNotNull(req, "empty")
	requireFault(t, err, errors.KindMissingParam, errors.CodeMissingParam)
}

func TestGenerateRequestAuth(t *testing.T) {
	req := MapRequest{
		domain.ParamClientID:     "1001",
		domain.ParamResponseType: domain.ResponseTypeCode,
		domain.ParamRedirectURI:  testRedirect,
		domain.ParamState:        "xyz",
		domain.ParamScope:        "userinfo openid",
	}

	ra, err := GenerateRequestAuth(req, testSubject)
	require.NoError(t, err)
	assert.Equal(t, &domain.RequestAuth{
		ClientID:     "1001",
		ResponseType: domain.ResponseTypeCode,
		RedirectURI:  testRedirect,
		State:        "xyz",
		Scope:        "userinfo,openid",
		SubjectID:    testSubject,
	}, ra)
}

func TestGenerateRequestAuth_Optional(t *testing.T) {
	ra, err := GenerateRequestAuth(MapRequest{
		domain.ParamClientID:     "1001",
		domain.ParamResponseType: domain.ResponseTypeToken,
		domain.ParamRedirectURI:  testRedirect,
	}, testSubject)
	require.NoError(t, err)
	assert.Empty(t, ra.State)
	assert.Empty(t, ra.Scope)
}

func TestGenerateRequestAuth_Missing(t *testing.T) {
	for _, missing := range []string{domain.ParamClientID, domain.ParamResponseType, domain.ParamRedirectURI} {
		t.Run(missing, func(t *testing.T) {
			req := MapRequest{
				domain.ParamClientID:     "1001",
				domain.ParamResponseType: domain.ResponseTypeCode,
				domain.ParamRedirectURI:  testRedirect,
			}
			delete(req, missing)

			_, err := GenerateRequestAuth(req, testSubject)
			requireFault(t, err, errors.KindMissingParam, errors.CodeMissingParam)
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		token, ok := BearerToken(tt.header)
		assert.Equal(t, tt.ok, ok, tt.header)
		assert.Equal(t, tt.token, token, tt.header)
	}
}

func TestAccessTokenFrom(t *testing.T) {
	token, err := AccessTokenFrom(MapRequest{domain.ParamAccessToken: "param"}, "Bearer header")
	require.NoError(t, err)
	assert.Equal(t, "header", token)

	token, err = AccessTokenFrom(MapRequest{domain.ParamAccessToken: "param"}, "")
	require.NoError(t, err)
	assert.Equal(t, "param", token)

	_, err = AccessTokenFrom(MapRequest{domain.ParamAccessToken: ""}, "Basic x")
	requireFault(t, err, errors.KindInvalidAccessToken, errors.CodeInvalidAccessToken)
}
