package oauth2echo

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/errors"
	"go.pilab.hu/oauth2/services"
)

func newContext(req *http.Request) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestRequest_Param(t *testing.T) {
	form := url.Values{"client_id": {"form-client"}, "scope": {"userinfo"}}
	req := httptest.NewRequest(http.MethodPost, "/authorize?client_id=query-client&state=", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	c, _ := newContext(req)
	r := NewRequest(c)

	v, ok := r.Param("client_id")
	assert.True(t, ok)
	assert.Equal(t, "query-client", v)

	v, ok = r.Param("scope")
	assert.True(t, ok)
	assert.Equal(t, "userinfo", v)

	v, ok = r.Param("state")
	assert.True(t, ok, "present but empty")
	assert.Empty(t, v)

	_, ok = r.Param("missing")
	assert.False(t, ok)
}

func TestRequest_GenerateRequestAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet,
		"/authorize?client_id=1001&response_type=code&redirect_uri=https%3A%2F%2Fa.com%2Fcb&scope=userinfo+openid", nil)
	c, _ := newContext(req)

	ra, err := services.GenerateRequestAuth(NewRequest(c), "10001")
	require.NoError(t, err)
	assert.Equal(t, "1001", ra.ClientID)
	assert.Equal(t, domain.ResponseTypeCode, ra.ResponseType)
	assert.Equal(t, "https://a.com/cb", ra.RedirectURI)
	assert.Equal(t, "userinfo,openid", ra.Scope)
	assert.Equal(t, domain.SubjectID("10001"), ra.SubjectID)

	req = httptest.NewRequest(http.MethodGet, "/authorize?client_id=1001", nil)
	c, _ = newContext(req)
	_, err = services.GenerateRequestAuth(NewRequest(c), "10001")
	assert.ErrorIs(t, err, errors.ErrMissingParam)
}

func TestRequest_ClientCredentials(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/token?client_id=param&client_secret=param-secret", nil)
	c, _ := newContext(req)

	id, secret := NewRequest(c).ClientCredentials()
	assert.Equal(t, "param", id)
	assert.Equal(t, "param-secret", secret)

	req.SetBasicAuth("basic", "basic-secret")
	id, secret = NewRequest(c).ClientCredentials()
	assert.Equal(t, "basic", id)
	assert.Equal(t, "basic-secret", secret)
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/token", nil)
	c, rec := newContext(req)

	fault := errors.New(errors.KindInvalidCode, errors.CodeInvalidCode, "invalid code")
	require.NoError(t, WriteError(c, fmt.Errorf("exchange: %w", fault)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid_grant", body["error"])
	assert.Equal(t, "invalid code", body["error_description"])
	assert.EqualValues(t, errors.CodeInvalidCode, body["code"])
}
