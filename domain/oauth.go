package domain

// Request parameter names.
const (
	ParamResponseType = "response_type"
	ParamClientID     = "client_id"
	ParamClientSecret = "client_secret"
	ParamRedirectURI  = "redirect_uri"
	ParamScope        = "scope"
	ParamState        = "state"
	ParamCode         = "code"
	ParamToken        = "token"
	ParamAccessToken  = "access_token"
	ParamRefreshToken = "refresh_token"
	ParamGrantType    = "grant_type"
	ParamUsername     = "username"
	ParamPassword     = "password"
)

// Response types.
const (
	ResponseTypeCode  = "code"
	ResponseTypeToken = "token"
)

// Grant types.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypeRefreshToken      = "refresh_token"
	GrantTypePassword          = "password"
	GrantTypeClientCredentials = "client_credentials"
	GrantTypeImplicit          = "implicit"
)

// IsGrantType reports whether gt is one of the supported grant types.
func IsGrantType(gt string) bool {
	switch gt {
	case GrantTypeAuthorizationCode, GrantTypeRefreshToken, GrantTypePassword,
		GrantTypeClientCredentials, GrantTypeImplicit:
		return true
	}

	return false
}
