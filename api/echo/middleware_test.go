package oauth2echo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/errors"
)

type MockTokenChecker struct {
	mock.Mock
}

func (m *MockTokenChecker) CheckAccessToken(ctx context.Context, accessToken string) (*domain.AccessToken, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.AccessToken), args.Error(1)
}

func TestRequireToken(t *testing.T) {
	valid := &domain.AccessToken{AccessToken: "good", ClientID: "1001", SubjectID: "10001", Scope: "userinfo"}

	testCases := []struct {
		name       string
		authHeader string
		query      string
		scopes     []string
		mockSetup  func(m *MockTokenChecker)
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bearer header",
			authHeader: "Bearer good",
			mockSetup: func(m *MockTokenChecker) {
				m.On("CheckAccessToken", mock.Anything, "good").Return(valid, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   "10001",
		},
		{
			name:  "access_token parameter",
			query: "?access_token=good",
			mockSetup: func(m *MockTokenChecker) {
				m.On("CheckAccessToken", mock.Anything, "good").Return(valid, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   "10001",
		},
		{
			name:       "missing token",
			mockSetup:  func(*MockTokenChecker) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "missing access token",
		},
		{
			name:       "unknown token",
			authHeader: "Bearer gone",
			mockSetup: func(m *MockTokenChecker) {
				m.On("CheckAccessToken", mock.Anything, "gone").
					Return(nil, errors.New(errors.KindInvalidAccessToken, errors.CodeInvalidAccessToken, "invalid access_token"))
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "invalid_token",
		},
		{
			name:       "scope satisfied",
			authHeader: "Bearer good",
			scopes:     []string{"userinfo"},
			mockSetup: func(m *MockTokenChecker) {
				m.On("CheckAccessToken", mock.Anything, "good").Return(valid, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   "10001",
		},
		{
			name:       "scope missing",
			authHeader: "Bearer good",
			scopes:     []string{"profile"},
			mockSetup: func(m *MockTokenChecker) {
				m.On("CheckAccessToken", mock.Anything, "good").Return(valid, nil).Once()
			},
			wantStatus: http.StatusForbidden,
			wantBody:   "insufficient_scope",
		},
		{
			name:       "scopes checked on the loaded token",
			authHeader: "Bearer good",
			scopes:     []string{"userinfo", "openid"},
			mockSetup: func(m *MockTokenChecker) {
				m.On("CheckAccessToken", mock.Anything, "good").
					Return(&domain.AccessToken{AccessToken: "good", SubjectID: "10001", Scope: "userinfo,openid"}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   "10001",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checker := new(MockTokenChecker)
			tc.mockSetup(checker)

			req := httptest.NewRequest(http.MethodGet, "/userinfo"+tc.query, nil)
			if tc.authHeader != "" {
				req.Header.Set("Authorization", tc.authHeader)
			}

	e := echo.New()
	e.GET("/userinfo", func(c echo.Context) error {
		at, ok := AccessToken(c)
		if !ok {
			return c.NoContent(http.StatusInternalServerError)
		}

		return c.String(http.StatusOK, at.SubjectID.String())
	}, RequireToken(checker, tc.scopes...))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.wantBody)
			checker.AssertExpectations(t)
		})
	}
}
