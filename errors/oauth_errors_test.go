package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_FillsWireCode(t *testing.T) {
	err := New(KindInvalidCode, CodeInvalidCode, "invalid code")

	assert.Equal(t, InvalidGrant, err.Code)
	assert.Equal(t, CodeInvalidCode, err.Number)
	assert.Equal(t, "invalid_grant (30110): invalid code", err.Error())
}

func TestOAuth2Error_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("exchange failed: %w", New(KindInvalidCode, CodeGainTokenInvalidCode, "x"))

	assert.True(t, stderrors.Is(err, ErrInvalidCode))
	assert.False(t, stderrors.Is(err, ErrInvalidRefreshToken))
	assert.Equal(t, KindInvalidCode, KindOf(err))
	assert.Equal(t, CodeGainTokenInvalidCode, NumberOf(err))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(stderrors.New("boom")))
	assert.Equal(t, 0, NumberOf(nil))
}

func TestEveryKindHasWireCode(t *testing.T) {
	kinds := []Kind{
		KindMissingParam, KindUnknownClient, KindInvalidClientSecret, KindInvalidCode,
		KindInvalidAccessToken, KindInvalidRefreshToken, KindInvalidClientToken,
		KindInsufficientScope, KindScopeNotContracted, KindMalformedURL,
		KindRedirectNotAllowed, KindClientIDMismatch, KindRedirectURIMismatch,
		KindGrantNotAllowed, KindUnsupportedGrant,
	}

	for _, k := range kinds {
		assert.NotEqual(t, ServerError, New(k, 0, "").Code, "kind %s", k)
	}
}

func TestOAuth2Error_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusUnauthorized, New(KindInvalidClientSecret, CodeInvalidClientSecret, "").HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, New(KindInvalidAccessToken, CodeInvalidAccessToken, "").HTTPStatus())
	assert.Equal(t, http.StatusForbidden, New(KindInsufficientScope, CodeInsufficientScope, "").HTTPStatus())
	assert.Equal(t, http.StatusForbidden, New(KindGrantNotAllowed, CodeGrantNotAllowed, "").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, New(KindInvalidCode, CodeInvalidCode, "").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, NewUnsupportedGrantType("x").HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, NewServerError("boom").HTTPStatus())
}

func TestAsOAuth2Error(t *testing.T) {
	fault := New(KindInvalidCode, CodeInvalidCode, "invalid code")
	assert.Same(t, fault, AsOAuth2Error(fmt.Errorf("exchange: %w", fault)))

	hidden := AsOAuth2Error(stderrors.New("dial tcp: connection refused"))
	assert.Equal(t, ServerError, hidden.Code)
	assert.NotContains(t, hidden.Description, "dial tcp")
}
