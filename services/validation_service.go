package services

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/go-playground/validator/v10"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/errors"
	"go.pilab.hu/oauth2/internal/metrics"
	"go.pilab.hu/oauth2/log"
)

// TokenLookup reads codes, tokens and consent records. *TokenService
// implements it.
type TokenLookup interface {
	GetCode(ctx context.Context, code string) (*domain.Code, error)
	GetAccessToken(ctx context.Context, accessToken string) (*domain.AccessToken, error)
	GetRefreshToken(ctx context.Context, refreshToken string) (*domain.RefreshToken, error)
	GetClientToken(ctx context.Context, clientToken string) (*domain.ClientToken, error)
	GetGrantScope(ctx context.Context, clientID string, subjectID domain.SubjectID) (string, error)
}

// Validator runs the checks that gate each grant flow. It never writes to
// storage. Every failed check returns an *errors.OAuth2Error whose Number
// identifies the check.
type Validator struct {
	registry domain.ClientRegistry
	tokens   TokenLookup
	matcher  URLMatcher
	validate *validator.Validate
	logger   log.Logger
	metrics  *metrics.Metrics
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithURLMatcher replaces the redirect allow-list matcher. The default is
// ExactMatcher.
func WithURLMatcher(m URLMatcher) ValidatorOption {
	return func(v *Validator) { v.matcher = m }
}

// WithValidatorLogger sets the logger.
func WithValidatorLogger(l log.Logger) ValidatorOption {
	return func(v *Validator) { v.logger = l }
}

// WithValidatorMetrics counts failed checks by kind.
func WithValidatorMetrics(m *metrics.Metrics) ValidatorOption {
	return func(v *Validator) { v.metrics = m }
}

// NewValidator creates a Validator.
func NewValidator(registry domain.ClientRegistry, tokens TokenLookup, opts ...ValidatorOption) *Validator {
	v := &Validator{
		registry: registry,
		tokens:   tokens,
		matcher:  ExactMatcher{},
		validate: validator.New(),
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// observe records a failed check.
func (v *Validator) observe(ctx context.Context, err error) error {
	if kind := errors.KindOf(err); kind != "" {
		v.metrics.ValidationFailed(string(kind))
		v.logger.Debug(ctx, "validation failed", log.Fields{
			"kind":   string(kind),
			"number": errors.NumberOf(err),
		})
	}

	return err
}

// CheckClientModel returns the client or an UnknownClient fault.
func (v *Validator) CheckClientModel(ctx context.Context, clientID string) (*domain.ClientModel, error) {
	cm, err := resolveClient(ctx, v.registry, clientID)
	if err != nil {
		return nil, v.observe(ctx, err)
	}

	return cm, nil
}

// CheckAccessToken returns the live access token or an InvalidAccessToken fault.
func (v *Validator) CheckAccessToken(ctx context.Context, accessToken string) (*domain.AccessToken, error) {
	at, err := v.tokens.GetAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	if at == nil {
		return nil, v.observe(ctx, errors.New(errors.KindInvalidAccessToken, errors.CodeInvalidAccessToken, "invalid access_token"))
	}

	return at, nil
}

// CheckClientToken returns the live client token or an InvalidClientToken fault.
func (v *Validator) CheckClientToken(ctx context.Context, clientToken string) (*domain.ClientToken, error) {
	ct, err := v.tokens.GetClientToken(ctx, clientToken)
	if err != nil {
		return nil, err
	}
	if ct == nil {
		return nil, v.observe(ctx, errors.New(errors.KindInvalidClientToken, errors.CodeInvalidClientToken, "invalid client_token"))
	}

	return ct, nil
}

// SubjectByAccessToken returns the subject an access token was issued to.
func (v *Validator) SubjectByAccessToken(ctx context.Context, accessToken string) (domain.SubjectID, error) {
	at, err := v.CheckAccessToken(ctx, accessToken)
	if err != nil {
		return "", err
	}

	return at.SubjectID, nil
}

// RequireScopes fails with InsufficientScope when a required scope is not
// granted. No required scopes always succeeds.
func RequireScopes(granted, required []string) error {
	if missing, ok := firstMissing(granted, required); ok {
		return errors.Newf(errors.KindInsufficientScope, errors.CodeInsufficientScope, "token lacks scope: %s", missing)
	}

	return nil
}

// CheckScope verifies that an access token carries every scope.
func (v *Validator) CheckScope(ctx context.Context, accessToken string, scopes ...string) error {
	if len(scopes) == 0 {
		return nil
	}

	at, err := v.CheckAccessToken(ctx, accessToken)
	if err != nil {
		return err
	}

	return v.observe(ctx, RequireScopes(ParseScope(at.Scope), scopes))
}

// CheckClientTokenScope verifies that a client token carries every scope.
func (v *Validator) CheckClientTokenScope(ctx context.Context, clientToken string, scopes ...string) error {
	if len(scopes) == 0 {
		return nil
	}

	ct, err := v.CheckClientToken(ctx, clientToken)
	if err != nil {
		return err
	}

	if missing, ok := firstMissing(ParseScope(ct.Scope), scopes); ok {
		return v.observe(ctx, errors.Newf(errors.KindInsufficientScope, errors.CodeInsufficientClientScope, "client token lacks scope: %s", missing))
	}

	return nil
}

// IsGranted reports whether the subject consented to every scope for the
// client. An empty scope is always granted.
func (v *Validator) IsGranted(ctx context.Context, subjectID domain.SubjectID, clientID, scope string) (bool, error) {
	required := ParseScope(scope)
	if len(required) == 0 {
		return true, nil
	}

	granted, err := v.tokens.GetGrantScope(ctx, clientID, subjectID)
	if err != nil {
		return false, err
	}

	return containsAll(ParseScope(granted), required), nil
}

// CheckContract fails with ScopeNotContracted when the client may not
// request scope at all.
func (v *Validator) CheckContract(ctx context.Context, clientID, scope string) error {
	cm, err := v.CheckClientModel(ctx, clientID)
	if err != nil {
		return err
	}

	if !containsAll(cm.ContractScopes, ParseScope(scope)) {
		return v.observe(ctx, errors.New(errors.KindScopeNotContracted, errors.CodeScopeNotContracted, "requested scope is not contracted"))
	}

	return nil
}

// CheckRedirectURL verifies that candidate is a well formed URL whose
// query-stripped form is on the client's allow-list.
func (v *Validator) CheckRedirectURL(ctx context.Context, clientID, candidate string) error {
	if err := v.validate.Var(candidate, "required,url"); err != nil {
		return v.observe(ctx, errors.Newf(errors.KindMalformedURL, errors.CodeMalformedURL, "invalid redirect_url: %s", candidate))
	}

	stripped, _, _ := strings.Cut(candidate, "?")

	cm, err := v.CheckClientModel(ctx, clientID)
	if err != nil {
		return err
	}

	if !v.matcher.Match(cm.AllowURLs, stripped) {
		return v.observe(ctx, errors.Newf(errors.KindRedirectNotAllowed, errors.CodeRedirectNotAllowed, "redirect_url not allowed: %s", stripped))
	}

	return nil
}

func secretMatches(cm *domain.ClientModel, secret string) bool {
	return cm.ClientSecret != "" &&
		subtle.ConstantTimeCompare([]byte(cm.ClientSecret), []byte(secret)) == 1
}

// CheckClientSecret returns the client when secret matches its configured
// secret. Clients without a secret never match.
func (v *Validator) CheckClientSecret(ctx context.Context, clientID, secret string) (*domain.ClientModel, error) {
	cm, err := v.CheckClientModel(ctx, clientID)
	if err != nil {
		return nil, err
	}

	if !secretMatches(cm, secret) {
		return nil, v.observe(ctx, errors.New(errors.KindInvalidClientSecret, errors.CodeInvalidClientSecret, "invalid client_secret"))
	}

	return cm, nil
}

// CheckClientSecretAndScope checks the secret, then the contracted scopes.
func (v *Validator) CheckClientSecretAndScope(ctx context.Context, clientID, secret, scope string) (*domain.ClientModel, error) {
	cm, err := v.CheckClientSecret(ctx, clientID, secret)
	if err != nil {
		return nil, err
	}

	if !containsAll(cm.ContractScopes, ParseScope(scope)) {
		return nil, v.observe(ctx, errors.New(errors.KindScopeNotContracted, errors.CodeScopeNotContractedForSecret, "requested scope is not contracted"))
	}

	return cm, nil
}

// CheckGainTokenParam validates a code exchange request: the code must
// exist and belong to clientID, the secret must match, and redirectURI,
// when given, must equal the one the code was issued for.
func (v *Validator) CheckGainTokenParam(ctx context.Context, code, clientID, secret, redirectURI string) (*domain.Code, error) {
	c, err := v.tokens.GetCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, v.observe(ctx, errors.New(errors.KindInvalidCode, errors.CodeGainTokenInvalidCode, "invalid code"))
	}

	if c.ClientID != clientID {
		return nil, v.observe(ctx, errors.Newf(errors.KindClientIDMismatch, errors.CodeGainTokenClientIDMismatch, "invalid client_id: %s", clientID))
	}

	cm, err := v.CheckClientModel(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !secretMatches(cm, secret) {
		return nil, v.observe(ctx, errors.New(errors.KindInvalidClientSecret, errors.CodeGainTokenInvalidSecret, "invalid client_secret"))
	}

	if redirectURI != "" && redirectURI != c.RedirectURI {
		return nil, v.observe(ctx, errors.Newf(errors.KindRedirectURIMismatch, errors.CodeGainTokenRedirectMismatch, "invalid redirect_uri: %s", redirectURI))
	}

	return c, nil
}

// CheckRefreshTokenParam validates a refresh request.
func (v *Validator) CheckRefreshTokenParam(ctx context.Context, clientID, secret, refreshToken string) (*domain.RefreshToken, error) {
	rt, err := v.tokens.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, v.observe(ctx, errors.New(errors.KindInvalidRefreshToken, errors.CodeRefreshInvalidToken, "invalid refresh_token"))
	}

	if rt.ClientID != clientID {
		return nil, v.observe(ctx, errors.Newf(errors.KindClientIDMismatch, errors.CodeRefreshClientIDMismatch, "invalid client_id: %s", clientID))
	}

	cm, err := v.CheckClientModel(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if !secretMatches(cm, secret) {
		return nil, v.observe(ctx, errors.New(errors.KindInvalidClientSecret, errors.CodeRefreshInvalidSecret, "invalid client_secret"))
	}

	return rt, nil
}

// CheckAccessTokenParam verifies that an access token belongs to clientID
// and that the client secret matches.
func (v *Validator) CheckAccessTokenParam(ctx context.Context, clientID, secret, accessToken string) (*domain.AccessToken, error) {
	at, err := v.CheckAccessToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	if at.ClientID != clientID {
		return nil, v.observe(ctx, errors.Newf(errors.KindClientIDMismatch, errors.CodeAccessTokenClientIDMismatch, "invalid client_id: %s", clientID))
	}

	if _, err := v.CheckClientSecret(ctx, clientID, secret); err != nil {
		return nil, err
	}

	return at, nil
}

// CheckGrantType fails with GrantNotAllowed when the client is not enabled
// for grantType.
func (v *Validator) CheckGrantType(ctx context.Context, clientID, grantType string) error {
	if !domain.IsGrantType(grantType) {
		return v.observe(ctx, errors.NewUnsupportedGrantType(grantType))
	}

	cm, err := v.CheckClientModel(ctx, clientID)
	if err != nil {
		return err
	}

	if !cm.AllowsGrant(grantType) {
		return v.observe(ctx, errors.Newf(errors.KindGrantNotAllowed, errors.CodeGrantNotAllowed, "grant type not allowed: %s", grantType))
	}

	return nil
}
