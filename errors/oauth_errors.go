package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Kind classifies a validation or lifecycle fault. Every kind maps to one
// protocol facing error.
type Kind string

const (
	KindMissingParam        Kind = "missing_param"
	KindUnknownClient       Kind = "unknown_client"
	KindInvalidClientSecret Kind = "invalid_client_secret"
	KindInvalidCode         Kind = "invalid_code"
	KindInvalidAccessToken  Kind = "invalid_access_token"
	KindInvalidRefreshToken Kind = "invalid_refresh_token"
	KindInvalidClientToken  Kind = "invalid_client_token"
	KindInsufficientScope   Kind = "insufficient_scope"
	KindScopeNotContracted  Kind = "scope_not_contracted"
	KindMalformedURL        Kind = "malformed_url"
	KindRedirectNotAllowed  Kind = "redirect_not_allowed"
	KindClientIDMismatch    Kind = "client_id_mismatch"
	KindRedirectURIMismatch Kind = "redirect_uri_mismatch"
	KindGrantNotAllowed     Kind = "grant_not_allowed"
	KindUnsupportedGrant    Kind = "unsupported_grant"
)

// Numeric fault codes. A kind may be raised from several checks, each with
// its own number.
const (
	CodeMissingParam                = 30100
	CodeUnknownClient               = 30105
	CodeInvalidAccessToken          = 30106
	CodeInvalidClientToken          = 30107
	CodeInsufficientScope           = 30108
	CodeInsufficientClientScope     = 30109
	CodeInvalidCode                 = 30110
	CodeInvalidRefreshToken         = 30111
	CodeScopeNotContracted          = 30112
	CodeMalformedURL                = 30113
	CodeRedirectNotAllowed          = 30114
	CodeInvalidClientSecret         = 30115
	CodeScopeNotContractedForSecret = 30116
	CodeGainTokenInvalidCode        = 30117
	CodeGainTokenClientIDMismatch   = 30118
	CodeGainTokenInvalidSecret      = 30119
	CodeGainTokenRedirectMismatch   = 30120
	CodeRefreshInvalidToken         = 30121
	CodeRefreshClientIDMismatch     = 30122
	CodeRefreshInvalidSecret        = 30123
	CodeAccessTokenClientIDMismatch = 30124
	CodeGrantNotAllowed             = 30125
)

// OAuth2Error represents a standardized OAuth 2.0 error
type OAuth2Error struct {
	Kind        Kind   `json:"-"`
	Number      int    `json:"code,omitempty"`
	Code        string `json:"error"`
	Description string `json:"error_description,omitempty"`
	URI         string `json:"error_uri,omitempty"`
	State       string `json:"state,omitempty"`
}

func (e *OAuth2Error) Error() string {
	if e.Number != 0 {
		return fmt.Sprintf("%s (%d): %s", e.Code, e.Number, e.Description)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is matches errors of the same kind, so sentinel values work with errors.Is.
func (e *OAuth2Error) Is(target error) bool {
	t, ok := target.(*OAuth2Error)
	if !ok {
		return false
	}
	if t.Kind != "" {
		return t.Kind == e.Kind
	}

	return t.Code == e.Code
}

// Standard OAuth2 error codes
const (
	InvalidRequest         = "invalid_request"
	UnauthorizedClient     = "unauthorized_client"
	AccessDenied           = "access_denied"
	UnsupportedGrantType   = "unsupported_grant_type"
	InvalidScope           = "invalid_scope"
	InvalidClient          = "invalid_client"
	InvalidGrant           = "invalid_grant"
	InvalidToken           = "invalid_token"
	InsufficientScope      = "insufficient_scope"
	ServerError            = "server_error"
	TemporarilyUnavailable = "temporarily_unavailable"
)

var wireCodes = map[Kind]string{
	KindMissingParam:        InvalidRequest,
	KindUnknownClient:       InvalidClient,
	KindInvalidClientSecret: InvalidClient,
	KindInvalidCode:         InvalidGrant,
	KindInvalidAccessToken:  InvalidToken,
	KindInvalidRefreshToken: InvalidGrant,
	KindInvalidClientToken:  InvalidToken,
	KindInsufficientScope:   InsufficientScope,
	KindScopeNotContracted:  InvalidScope,
	KindMalformedURL:        InvalidRequest,
	KindRedirectNotAllowed:  InvalidRequest,
	KindClientIDMismatch:    InvalidClient,
	KindRedirectURIMismatch: InvalidGrant,
	KindGrantNotAllowed:     UnauthorizedClient,
	KindUnsupportedGrant:    UnsupportedGrantType,
}

// Sentinels for errors.Is.
var (
	ErrMissingParam        = &OAuth2Error{Kind: KindMissingParam}
	ErrUnknownClient       = &OAuth2Error{Kind: KindUnknownClient}
	ErrInvalidClientSecret = &OAuth2Error{Kind: KindInvalidClientSecret}
	ErrInvalidCode         = &OAuth2Error{Kind: KindInvalidCode}
	ErrInvalidAccessToken  = &OAuth2Error{Kind: KindInvalidAccessToken}
	ErrInvalidRefreshToken = &OAuth2Error{Kind: KindInvalidRefreshToken}
	ErrInvalidClientToken  = &OAuth2Error{Kind: KindInvalidClientToken}
	ErrInsufficientScope   = &OAuth2Error{Kind: KindInsufficientScope}
	ErrScopeNotContracted  = &OAuth2Error{Kind: KindScopeNotContracted}
	ErrMalformedURL        = &OAuth2Error{Kind: KindMalformedURL}
	ErrRedirectNotAllowed  = &OAuth2Error{Kind: KindRedirectNotAllowed}
	ErrClientIDMismatch    = &OAuth2Error{Kind: KindClientIDMismatch}
	ErrRedirectURIMismatch = &OAuth2Error{Kind: KindRedirectURIMismatch}
	ErrGrantNotAllowed     = &OAuth2Error{Kind: KindGrantNotAllowed}
	ErrUnsupportedGrant    = &OAuth2Error{Kind: KindUnsupportedGrant}
)

// New builds a fault of the given kind with its wire code filled in.
func New(kind Kind, number int, description string) *OAuth2Error {
	code, ok := wireCodes[kind]
	if !ok {
		code = ServerError
	}

	return &OAuth2Error{
		Kind:        kind,
		Number:      number,
		Code:        code,
		Description: description,
	}
}

// Newf is New with a formatted description.
func Newf(kind Kind, number int, format string, args ...any) *OAuth2Error {
	return New(kind, number, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of an OAuth2Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var oauthErr *OAuth2Error
	if stderrors.As(err, &oauthErr) {
		return oauthErr.Kind
	}

	return ""
}

// NumberOf returns the numeric fault code in err's chain, or 0.
func NumberOf(err error) int {
	var oauthErr *OAuth2Error
	if stderrors.As(err, &oauthErr) {
		return oauthErr.Number
	}

	return 0
}

// NewServerError builds an untyped server_error fault.
func NewServerError(description string) *OAuth2Error {
	return &OAuth2Error{
		Code:        ServerError,
		Description: description,
	}
}

// NewUnsupportedGrantType reports a grant type outside the OAuth2 vocabulary.
func NewUnsupportedGrantType(grantType string) *OAuth2Error {
	return Newf(KindUnsupportedGrant, CodeGrantNotAllowed, "unsupported grant_type: %s", grantType)
}

// HTTPStatus returns the status code a fault is reported with.
func (e *OAuth2Error) HTTPStatus() int {
	switch e.Code {
	case InvalidClient, InvalidToken:
		return http.StatusUnauthorized
	case InsufficientScope, AccessDenied, UnauthorizedClient:
		return http.StatusForbidden
	case ServerError:
		return http.StatusInternalServerError
	case TemporarilyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

// AsOAuth2Error returns the OAuth2Error in err's chain. Other errors are
// reported as a server_error without exposing their message.
func AsOAuth2Error(err error) *OAuth2Error {
	var oauthErr *OAuth2Error
	if stderrors.As(err, &oauthErr) {
		return oauthErr
	}

	return NewServerError("internal server error")
}
