// Package oauth2echo adapts echo requests to the token engine.
package oauth2echo

import (
	"github.com/labstack/echo/v4"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/errors"
	"go.pilab.hu/oauth2/services"
)

// Request exposes the query and form parameters of an echo request.
// Query parameters win over form parameters.
type Request struct {
	ctx echo.Context
}

var _ services.Request = (*Request)(nil)

// NewRequest wraps c.
func NewRequest(c echo.Context) *Request {
	return &Request{ctx: c}
}

func (r *Request) Param(name string) (string, bool) {
	if vs, ok := r.ctx.QueryParams()[name]; ok && len(vs) > 0 {
		return vs[0], true
	}

	form, err := r.ctx.FormParams()
	if err != nil {
		return "", false
	}
	if vs, ok := form[name]; ok && len(vs) > 0 {
		return vs[0], true
	}

	return "", false
}

// ClientCredentials returns the client id and secret from HTTP basic auth,
// falling back to the client_id and client_secret parameters.
func (r *Request) ClientCredentials() (clientID, secret string) {
	if id, pw, ok := r.ctx.Request().BasicAuth(); ok {
		return id, pw
	}

	clientID, _ = r.Param(domain.ParamClientID)
	secret, _ = r.Param(domain.ParamClientSecret)

	return clientID, secret
}

// WriteError renders err as an OAuth2 error response.
func WriteError(c echo.Context, err error) error {
	oauthErr := errors.AsOAuth2Error(err)

	return c.JSON(oauthErr.HTTPStatus(), oauthErr)
}
