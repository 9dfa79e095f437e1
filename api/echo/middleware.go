package oauth2echo

import (
	"context"

	"github.com/labstack/echo/v4"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/services"
)

const accessTokenKey = "oauth2.access_token"

// TokenChecker resolves bearer tokens on protected routes.
// *services.Validator implements it.
type TokenChecker interface {
	CheckAccessToken(ctx context.Context, accessToken string) (*domain.AccessToken, error)
}

// RequireToken rejects requests without a live access token carrying all
// scopes. The token is available to handlers through AccessToken.
func RequireToken(checker TokenChecker, scopes ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			value, err := services.AccessTokenFrom(NewRequest(c), c.Request().Header.Get(echo.HeaderAuthorization))
			if err != nil {
				return WriteError(c, err)
			}

			at, err := checker.CheckAccessToken(ctx, value)
			if err != nil {
				return WriteError(c, err)
			}

			if err := services.RequireScopes(services.ParseScope(at.Scope), scopes); err != nil {
				return WriteError(c, err)
			}

			c.Set(accessTokenKey, at)

			return next(c)
		}
	}
}

// AccessToken returns the token stored by RequireToken.
func AccessToken(c echo.Context) (*domain.AccessToken, bool) {
	at, ok := c.Get(accessTokenKey).(*domain.AccessToken)

	return at, ok
}
