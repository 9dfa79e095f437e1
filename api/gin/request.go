// Package oauth2gin adapts gin requests to the token engine.
package oauth2gin

import (
	"github.com/gin-gonic/gin"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/errors"
	"go.pilab.hu/oauth2/services"
)

// Request exposes the query and form parameters of a gin request. Query
// parameters win over form parameters.
type Request struct {
	ctx *gin.Context
}

var _ services.Request = (*Request)(nil)

// NewRequest wraps c.
func NewRequest(c *gin.Context) *Request {
	return &Request{ctx: c}
}

func (r *Request) Param(name string) (string, bool) {
	if v, ok := r.ctx.GetQuery(name); ok {
		return v, true
	}

	return r.ctx.GetPostForm(name)
}

// ClientCredentials returns the client id and secret from HTTP basic auth,
// falling back to the client_id and client_secret parameters.
func (r *Request) ClientCredentials() (clientID, secret string) {
	if id, pw, ok := r.ctx.Request.BasicAuth(); ok {
		return id, pw
	}

	clientID, _ = r.Param(domain.ParamClientID)
	secret, _ = r.Param(domain.ParamClientSecret)

	return clientID, secret
}

// WriteError renders err as an OAuth2 error response and aborts the chain.
func WriteError(c *gin.Context, err error) {
	oauthErr := errors.AsOAuth2Error(err)

	c.AbortWithStatusJSON(oauthErr.HTTPStatus(), oauthErr)
}
