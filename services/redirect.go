package services

import (
	"net/url"
	"strings"

	"go.pilab.hu/oauth2/domain"
)

// BuildRedirectURI appends the authorization code and the optional state to
// redirectURI as query parameters.
func BuildRedirectURI(redirectURI, code, state string) string {
	out := joinParam(redirectURI, '?', domain.ParamCode, code)
	if state != "" {
		out = joinParam(out, '?', domain.ParamState, state)
	}

	return out
}

// BuildImplicitRedirectURI appends the access token and the optional state
// to redirectURI as fragment parameters.
func BuildImplicitRedirectURI(redirectURI, token, state string) string {
	out := joinParam(redirectURI, '#', domain.ParamToken, token)
	if state != "" {
		out = joinParam(out, '#', domain.ParamState, state)
	}

	return out
}

// joinParam appends name=value after sep, or after '&' when sep is already
// present in u.
func joinParam(u string, sep byte, name, value string) string {
	param := name + "=" + url.QueryEscape(value)

	i := strings.LastIndexByte(u, sep)
	switch {
	case i == -1:
		return u + string(sep) + param
	case i == len(u)-1, strings.HasSuffix(u, "&"):
		return u + param
	default:
		return u + "&" + param
	}
}
