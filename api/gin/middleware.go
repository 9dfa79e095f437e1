package oauth2gin

import (
	"context"

	"github.com/gin-gonic/gin"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/services"
)

const accessTokenKey = "oauth2.access_token"

// TokenChecker resolves bearer tokens on protected routes.
// *services.Validator implements it.
type TokenChecker interface {
	CheckAccessToken(ctx context.Context, accessToken string) (*domain.AccessToken, error)
}

// RequireToken aborts requests without a live access token carrying all
// scopes. The token is available to handlers through AccessToken.
func RequireToken(checker TokenChecker, scopes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		value, err := services.AccessTokenFrom(NewRequest(c), c.GetHeader("Authorization"))
		if err != nil {
			WriteError(c, err)
			return
		}

		at, err := checker.CheckAccessToken(ctx, value)
		if err != nil {
			WriteError(c, err)
			return
		}

		if err := services.RequireScopes(services.ParseScope(at.Scope), scopes); err != nil {
			WriteError(c, err)
			return
		}

		c.Set(accessTokenKey, at)
		c.Next()
	}
}

// AccessToken returns the token stored by RequireToken.
func AccessToken(c *gin.Context) (*domain.AccessToken, bool) {
	v, ok := c.Get(accessTokenKey)
	if !ok {
		return nil, false
	}

	at, ok := v.(*domain.AccessToken)

	return at, ok
}
