package oauth2gin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.pilab.hu/oauth2/errors"
	"go.pilab.hu/oauth2/services"
)

func newContext(req *http.Request) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = req

	return c, rec
}

func TestRequest_Param(t *testing.T) {
	form := url.Values{"client_id": {"form-client"}, "scope": {"userinfo"}}
	req := httptest.NewRequest(http.MethodPost, "/authorize?client_id=query-client&state=", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

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
		"/authorize?client_id=1001&response_type=token&redirect_uri=https%3A%2F%2Fa.com%2Fcb&state=s1", nil)
	c, _ := newContext(req)

	ra, err := services.GenerateRequestAuth(NewRequest(c), "10001")
	require.NoError(t, err)
	assert.Equal(t, "token", ra.ResponseType)
	assert.Equal(t, "s1", ra.State)
	assert.Empty(t, ra.Scope)

	req = httptest.NewRequest(http.MethodGet, "/authorize?response_type=code", nil)
	c, _ = newContext(req)
	_, err = services.GenerateRequestAuth(NewRequest(c), "10001")
	assert.ErrorIs(t, err, errors.ErrMissingParam)
}

func TestRequest_ClientCredentials(t *testing.T) {
	form := url.Values{"client_id": {"param"}, "client_secret": {"param-secret"}}
	req := httptest.NewRequest(http.MethodPost, "/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
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
	c, rec := newContext(httptest.NewRequest(http.MethodGet, "/userinfo", nil))

	WriteError(c, errors.New(errors.KindInsufficientScope, errors.CodeInsufficientScope, "token lacks scope: profile"))

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "insufficient_scope", body["error"])
	assert.EqualValues(t, errors.CodeInsufficientScope, body["code"])
}
