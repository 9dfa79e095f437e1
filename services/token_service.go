package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/errors"
	"go.pilab.hu/oauth2/internal/crypto"
	"go.pilab.hu/oauth2/internal/metrics"
	"go.pilab.hu/oauth2/keys"
	"go.pilab.hu/oauth2/log"
	"go.pilab.hu/oauth2/tracing"
)

// Generator produces opaque code and token values.
type Generator func() (string, error)

// DefaultGenerator returns 60 character random alphanumeric values.
func DefaultGenerator() (string, error) {
	return crypto.RandomString(crypto.TokenLength)
}

// TokenService issues, rotates and revokes codes and tokens. It keeps no
// state of its own: every record and index lives in the storage.
//
// Operations are ordered storage calls without transactions. The prior
// record of a discriminator is always deleted before its replacement is
// written. When the storage implements domain.RecordTaker, codes are
// consumed with an atomic take so a code can be exchanged only once.
type TokenService struct {
	store    domain.Storage
	registry domain.ClientRegistry
	keys     keys.Builder
	generate Generator
	now      func() time.Time
	logger   log.Logger
	metrics  *metrics.Metrics
}

// TokenServiceOption configures a TokenService.
type TokenServiceOption func(*TokenService)

// WithTokenName sets the storage key prefix.
func WithTokenName(name string) TokenServiceOption {
	return func(s *TokenService) { s.keys = keys.New(name) }
}

// WithGenerator replaces the random value generator.
func WithGenerator(g Generator) TokenServiceOption {
	return func(s *TokenService) { s.generate = g }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) TokenServiceOption {
	return func(s *TokenService) { s.logger = l }
}

// WithMetrics sets the lifecycle counters.
func WithMetrics(m *metrics.Metrics) TokenServiceOption {
	return func(s *TokenService) { s.metrics = m }
}

// NewTokenService creates a new TokenService instance.
func NewTokenService(store domain.Storage, registry domain.ClientRegistry, opts ...TokenServiceOption) *TokenService {
	s := &TokenService{
		store:    store,
		registry: registry,
		keys:     keys.New(keys.DefaultTokenName),
		generate: DefaultGenerator,
		now:      time.Now,
		logger:   log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(log.Fields{"component": "token_service"})

	return s
}

// Keys returns the key builder in use.
func (s *TokenService) Keys() keys.Builder {
	return s.keys
}

// ---------------------------------------------------------------------------
// Grant flows
// ---------------------------------------------------------------------------

// GenerateCode issues an authorization code for a validated request. Any
// previous code of the same client and subject is removed first.
func (s *TokenService) GenerateCode(ctx context.Context, ra *domain.RequestAuth) (_ *domain.Code, err error) {
	ctx, span := tracing.Start(ctx, "TokenService.GenerateCode",
		attribute.String("oauth2.client_id", ra.ClientID))
	defer func() { tracing.End(span, err) }()

	cm, err := s.client(ctx, ra.ClientID)
	if err != nil {
		return nil, err
	}

	old, err := s.GetCodeValue(ctx, ra.ClientID, ra.SubjectID)
	if err != nil {
		return nil, err
	}
	if err := s.deleteValue(ctx, "code", s.keys.Code, old); err != nil {
		return nil, err
	}

	value, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	code := &domain.Code{
		Code:        value,
		ClientID:    ra.ClientID,
		Scope:       ra.Scope,
		SubjectID:   ra.SubjectID,
		RedirectURI: ra.RedirectURI,
		ExpiresAt:   s.expiryAfter(cm.CodeTimeout),
	}

	if err := s.putRecord(ctx, "code", s.keys.Code(code.Code), code, code.ExpiresAt); err != nil {
		return nil, err
	}
	if err := s.putValue(ctx, "code index", s.keys.CodeIndex(code.ClientID, code.SubjectID), code.Code, code.ExpiresAt); err != nil {
		return nil, err
	}

	s.metrics.Issued(metrics.TypeCode)
	s.logger.Debug(ctx, "authorization code issued", s.fields(code.ClientID, code.SubjectID, code.Code))

	return code, nil
}

// ExchangeCode redeems an authorization code for an access token and a
// linked refresh token. A code can be redeemed once.
func (s *TokenService) ExchangeCode(ctx context.Context, codeValue string) (_ *domain.AccessToken, err error) {
	ctx, span := tracing.Start(ctx, "TokenService.ExchangeCode")
	defer func() { tracing.End(span, err) }()

	code, taken, err := s.consumeCode(ctx, codeValue)
	if err != nil {
		return nil, err
	}
	if code == nil {
		return nil, errors.New(errors.KindInvalidCode, errors.CodeInvalidCode, "invalid code")
	}
	span.SetAttributes(attribute.String("oauth2.client_id", code.ClientID))

	cm, err := s.client(ctx, code.ClientID)
	if err != nil {
		return nil, err
	}

	if err := s.deleteAccessTokenOf(ctx, code.ClientID, code.SubjectID); err != nil {
		return nil, err
	}
	if err := s.deleteRefreshTokenOf(ctx, code.ClientID, code.SubjectID); err != nil {
		return nil, err
	}

	openid, err := s.openid(ctx, code.ClientID, code.SubjectID)
	if err != nil {
		return nil, err
	}

	at, err := s.newAccessToken(cm, code.ClientID, code.SubjectID, code.Scope, openid)
	if err != nil {
		return nil, err
	}
	rt, err := s.newRefreshToken(cm, at)
	if err != nil {
		return nil, err
	}

	if err := s.saveAccessToken(ctx, at); err != nil {
		return nil, err
	}
	if err := s.saveRefreshToken(ctx, rt); err != nil {
		return nil, err
	}

	if !taken {
		if err := s.deleteValue(ctx, "code", s.keys.Code, code.Code); err != nil {
			return nil, err
		}
	}
	if err := s.deleteCodeIndexIfCurrent(ctx, code); err != nil {
		return nil, err
	}

	s.metrics.Issued(metrics.TypeAccessToken)
	s.metrics.Issued(metrics.TypeRefreshToken)
	s.logger.Debug(ctx, "code exchanged", s.fields(at.ClientID, at.SubjectID, at.AccessToken))

	return at, nil
}

// RefreshAccessToken mints a new access token from a refresh token. The
// refresh token value is replaced when the client has IsNewRefresh set.
func (s *TokenService) RefreshAccessToken(ctx context.Context, refreshToken string) (_ *domain.AccessToken, err error) {
	ctx, span := tracing.Start(ctx, "TokenService.RefreshAccessToken")
	defer func() { tracing.End(span, err) }()

	rt, err := s.GetRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if rt == nil {
		return nil, errors.New(errors.KindInvalidRefreshToken, errors.CodeInvalidRefreshToken, "invalid refresh_token")
	}
	span.SetAttributes(attribute.String("oauth2.client_id", rt.ClientID))

	cm, err := s.client(ctx, rt.ClientID)
	if err != nil {
		return nil, err
	}

	if cm.RotatesRefresh() {
		if err := s.deleteValue(ctx, "refresh token", s.keys.RefreshToken, rt.RefreshToken); err != nil {
			return nil, err
		}

		value, err := s.generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate refresh token: %w", err)
		}

		rt = &domain.RefreshToken{
			RefreshToken: value,
			ClientID:     rt.ClientID,
			SubjectID:    rt.SubjectID,
			Scope:        rt.Scope,
			Openid:       rt.Openid,
			ExpiresAt:    s.expiryAfter(cm.RefreshTokenTimeout),
		}
		if err := s.saveRefreshToken(ctx, rt); err != nil {
			return nil, err
		}
		s.metrics.Issued(metrics.TypeRefreshToken)
	}

	if err := s.deleteAccessTokenOf(ctx, rt.ClientID, rt.SubjectID); err != nil {
		return nil, err
	}

	at, err := s.newAccessToken(cm, rt.ClientID, rt.SubjectID, rt.Scope, rt.Openid)
	if err != nil {
		return nil, err
	}
	at.RefreshToken = rt.RefreshToken
	at.RefreshExpiresAt = rt.ExpiresAt

	if err := s.saveAccessToken(ctx, at); err != nil {
		return nil, err
	}

	s.metrics.Refreshed()
	s.metrics.Issued(metrics.TypeAccessToken)
	s.logger.Debug(ctx, "access token refreshed", s.fields(at.ClientID, at.SubjectID, at.AccessToken))

	return at, nil
}

// IssueAccessToken issues an access token directly for the implicit and
// password grants. withRefresh also issues a linked refresh token.
func (s *TokenService) IssueAccessToken(ctx context.Context, ra *domain.RequestAuth, withRefresh bool) (_ *domain.AccessToken, err error) {
	ctx, span := tracing.Start(ctx, "TokenService.IssueAccessToken",
		attribute.String("oauth2.client_id", ra.ClientID),
		attribute.Bool("oauth2.with_refresh", withRefresh))
	defer func() { tracing.End(span, err) }()

	cm, err := s.client(ctx, ra.ClientID)
	if err != nil {
		return nil, err
	}

	if err := s.deleteAccessTokenOf(ctx, ra.ClientID, ra.SubjectID); err != nil {
		return nil, err
	}
	if withRefresh {
		if err := s.deleteRefreshTokenOf(ctx, ra.ClientID, ra.SubjectID); err != nil {
			return nil, err
		}
	}

	openid, err := s.openid(ctx, ra.ClientID, ra.SubjectID)
	if err != nil {
		return nil, err
	}

	at, err := s.newAccessToken(cm, ra.ClientID, ra.SubjectID, ra.Scope, openid)
	if err != nil {
		return nil, err
	}

	if withRefresh {
		rt, err := s.newRefreshToken(cm, at)
		if err != nil {
			return nil, err
		}
		if err := s.saveRefreshToken(ctx, rt); err != nil {
			return nil, err
		}
		s.metrics.Issued(metrics.TypeRefreshToken)
	}

	if err := s.saveAccessToken(ctx, at); err != nil {
		return nil, err
	}

	s.metrics.Issued(metrics.TypeAccessToken)
	s.logger.Debug(ctx, "access token issued", s.fields(at.ClientID, at.SubjectID, at.AccessToken))

	return at, nil
}

// GenerateClientToken issues a client token. The current token is kept
// reachable through the past-token index until it expires, and the token
// it replaced before that is removed.
func (s *TokenService) GenerateClientToken(ctx context.Context, clientID, scope string) (_ *domain.ClientToken, err error) {
	ctx, span := tracing.Start(ctx, "TokenService.GenerateClientToken",
		attribute.String("oauth2.client_id", clientID))
	defer func() { tracing.End(span, err) }()

	cm, err := s.client(ctx, clientID)
	if err != nil {
		return nil, err
	}

	past, err := s.GetPastTokenValue(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if err := s.deleteValue(ctx, "client token", s.keys.ClientToken, past); err != nil {
		return nil, err
	}
	if err := s.delete(ctx, "past token index", s.keys.PastTokenIndex(clientID)); err != nil {
		return nil, err
	}

	currentValue, err := s.GetClientTokenValue(ctx, clientID)
	if err != nil {
		return nil, err
	}
	current, err := s.GetClientToken(ctx, currentValue)
	if err != nil {
		return nil, err
	}

	if current != nil {
		if cm.PastClientTokenTimeout > 0 {
			current.ExpiresAt = s.expiryAfter(cm.PastClientTokenTimeout)
			if err := s.putRecord(ctx, "client token", s.keys.ClientToken(current.ClientToken), current, current.ExpiresAt); err != nil {
				return nil, err
			}
		}
		if err := s.putValue(ctx, "past token index", s.keys.PastTokenIndex(clientID), current.ClientToken, current.ExpiresAt); err != nil {
			return nil, err
		}
		s.metrics.Demoted()
	}

	value, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate client token: %w", err)
	}

	ct := &domain.ClientToken{
		ClientToken: value,
		ClientID:    clientID,
		Scope:       scope,
		ExpiresAt:   s.expiryAfter(cm.ClientTokenTimeout),
	}

	if err := s.putRecord(ctx, "client token", s.keys.ClientToken(ct.ClientToken), ct, ct.ExpiresAt); err != nil {
		return nil, err
	}
	if err := s.putValue(ctx, "client token index", s.keys.ClientTokenIndex(clientID), ct.ClientToken, ct.ExpiresAt); err != nil {
		return nil, err
	}

	s.metrics.Issued(metrics.TypeClientToken)
	s.logger.Debug(ctx, "client token issued", log.Fields{
		"client_id": clientID,
		"token":     crypto.Fingerprint(ct.ClientToken),
		"demoted":   current != nil,
	})

	return ct, nil
}

// RevokeAccessToken removes an access token, its index, and the refresh
// token of the same client and subject. Unknown tokens are ignored.
func (s *TokenService) RevokeAccessToken(ctx context.Context, accessToken string) (err error) {
	ctx, span := tracing.Start(ctx, "TokenService.RevokeAccessToken")
	defer func() { tracing.End(span, err) }()

	at, err := s.GetAccessToken(ctx, accessToken)
	if err != nil || at == nil {
		return err
	}

	if err := s.deleteValue(ctx, "access token", s.keys.AccessToken, at.AccessToken); err != nil {
		return err
	}
	if err := s.delete(ctx, "access token index", s.keys.AccessTokenIndex(at.ClientID, at.SubjectID)); err != nil {
		return err
	}
	if err := s.deleteRefreshTokenOf(ctx, at.ClientID, at.SubjectID); err != nil {
		return err
	}

	s.metrics.Revoked()
	s.logger.Debug(ctx, "access token revoked", s.fields(at.ClientID, at.SubjectID, at.AccessToken))

	return nil
}

// ---------------------------------------------------------------------------
// Grant scope
// ---------------------------------------------------------------------------

// SaveGrantScope records the scopes a subject consented to for a client.
// An empty scope is not recorded. The record lives as long as the
// client's access tokens.
func (s *TokenService) SaveGrantScope(ctx context.Context, clientID string, subjectID domain.SubjectID, scope string) error {
	scope = NormalizeScope(scope)
	if scope == "" {
		return nil
	}

	cm, err := s.client(ctx, clientID)
	if err != nil {
		return err
	}

	return s.putValue(ctx, "grant scope", s.keys.GrantScope(clientID, subjectID), scope, s.expiryAfter(cm.AccessTokenTimeout))
}

// GetGrantScope returns the consented scopes, or "" when none are recorded.
func (s *TokenService) GetGrantScope(ctx context.Context, clientID string, subjectID domain.SubjectID) (string, error) {
	return s.getValue(ctx, "grant scope", s.keys.GrantScope(clientID, subjectID))
}

// DeleteGrantScope forgets the consented scopes.
func (s *TokenService) DeleteGrantScope(ctx context.Context, clientID string, subjectID domain.SubjectID) error {
	return s.delete(ctx, "grant scope", s.keys.GrantScope(clientID, subjectID))
}

// ---------------------------------------------------------------------------
// Lookups. Absent and expired records are reported as nil with a nil error.
// ---------------------------------------------------------------------------

func (s *TokenService) GetCode(ctx context.Context, code string) (*domain.Code, error) {
	rec, err := loadRecord[domain.Code](ctx, s, "code", s.keys.Code, code)
	if err != nil || rec == nil || s.expired(rec.ExpiresAt) {
		return nil, err
	}

	return rec, nil
}

func (s *TokenService) GetCodeValue(ctx context.Context, clientID string, subjectID domain.SubjectID) (string, error) {
	return s.getValue(ctx, "code index", s.keys.CodeIndex(clientID, subjectID))
}

func (s *TokenService) GetAccessToken(ctx context.Context, accessToken string) (*domain.AccessToken, error) {
	rec, err := loadRecord[domain.AccessToken](ctx, s, "access token", s.keys.AccessToken, accessToken)
	if err != nil || rec == nil || s.expired(rec.ExpiresAt) {
		return nil, err
	}

	return rec, nil
}

func (s *TokenService) GetAccessTokenValue(ctx context.Context, clientID string, subjectID domain.SubjectID) (string, error) {
	return s.getValue(ctx, "access token index", s.keys.AccessTokenIndex(clientID, subjectID))
}

func (s *TokenService) GetRefreshToken(ctx context.Context, refreshToken string) (*domain.RefreshToken, error) {
	rec, err := loadRecord[domain.RefreshToken](ctx, s, "refresh token", s.keys.RefreshToken, refreshToken)
	if err != nil || rec == nil || s.expired(rec.ExpiresAt) {
		return nil, err
	}

	return rec, nil
}

func (s *TokenService) GetRefreshTokenValue(ctx context.Context, clientID string, subjectID domain.SubjectID) (string, error) {
	return s.getValue(ctx, "refresh token index", s.keys.RefreshTokenIndex(clientID, subjectID))
}

func (s *TokenService) GetClientToken(ctx context.Context, clientToken string) (*domain.ClientToken, error) {
	rec, err := loadRecord[domain.ClientToken](ctx, s, "client token", s.keys.ClientToken, clientToken)
	if err != nil || rec == nil || s.expired(rec.ExpiresAt) {
		return nil, err
	}

	return rec, nil
}

func (s *TokenService) GetClientTokenValue(ctx context.Context, clientID string) (string, error) {
	return s.getValue(ctx, "client token index", s.keys.ClientTokenIndex(clientID))
}

// GetPastTokenValue returns the client's previous client token value.
func (s *TokenService) GetPastTokenValue(ctx context.Context, clientID string) (string, error) {
	return s.getValue(ctx, "past token index", s.keys.PastTokenIndex(clientID))
}

// ---------------------------------------------------------------------------
// Internals
// ---------------------------------------------------------------------------

func (s *TokenService) client(ctx context.Context, clientID string) (*domain.ClientModel, error) {
	return resolveClient(ctx, s.registry, clientID)
}

func (s *TokenService) openid(ctx context.Context, clientID string, subjectID domain.SubjectID) (string, error) {
	openid, err := s.registry.GetOpenid(ctx, clientID, subjectID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve openid: %w", err)
	}

	return openid, nil
}

// consumeCode returns the code record. taken reports whether the record was
// already removed by an atomic take.
func (s *TokenService) consumeCode(ctx context.Context, value string) (code *domain.Code, taken bool, err error) {
	if value == "" {
		return nil, false, nil
	}

	taker, ok := s.store.(domain.RecordTaker)
	if !ok {
		code, err = s.GetCode(ctx, value)
		return code, false, err
	}

	var rec domain.Code
	found, err := taker.TakeRecord(ctx, s.keys.Code(value), &rec)
	if err != nil {
		return nil, false, s.storageErr(ctx, "take", "code", err)
	}
	if !found || s.expired(rec.ExpiresAt) {
		return nil, true, nil
	}

	return &rec, true, nil
}

// deleteCodeIndexIfCurrent drops the code index unless it already points
// to a newer code.
func (s *TokenService) deleteCodeIndexIfCurrent(ctx context.Context, code *domain.Code) error {
	current, err := s.GetCodeValue(ctx, code.ClientID, code.SubjectID)
	if err != nil {
		return err
	}
	if current != "" && current != code.Code {
		return nil
	}

	return s.delete(ctx, "code index", s.keys.CodeIndex(code.ClientID, code.SubjectID))
}

func (s *TokenService) deleteAccessTokenOf(ctx context.Context, clientID string, subjectID domain.SubjectID) error {
	old, err := s.GetAccessTokenValue(ctx, clientID, subjectID)
	if err != nil {
		return err
	}
	if err := s.deleteValue(ctx, "access token", s.keys.AccessToken, old); err != nil {
		return err
	}

	return s.delete(ctx, "access token index", s.keys.AccessTokenIndex(clientID, subjectID))
}

func (s *TokenService) deleteRefreshTokenOf(ctx context.Context, clientID string, subjectID domain.SubjectID) error {
	old, err := s.GetRefreshTokenValue(ctx, clientID, subjectID)
	if err != nil {
		return err
	}
	if err := s.deleteValue(ctx, "refresh token", s.keys.RefreshToken, old); err != nil {
		return err
	}

	return s.delete(ctx, "refresh token index", s.keys.RefreshTokenIndex(clientID, subjectID))
}

func (s *TokenService) newAccessToken(cm *domain.ClientModel, clientID string, subjectID domain.SubjectID, scope, openid string) (*domain.AccessToken, error) {
	value, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	return &domain.AccessToken{
		AccessToken: value,
		ClientID:    clientID,
		SubjectID:   subjectID,
		Scope:       scope,
		Openid:      openid,
		ExpiresAt:   s.expiryAfter(cm.AccessTokenTimeout),
	}, nil
}

// newRefreshToken mints a refresh token for at and links the two.
func (s *TokenService) newRefreshToken(cm *domain.ClientModel, at *domain.AccessToken) (*domain.RefreshToken, error) {
	value, err := s.generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	rt := &domain.RefreshToken{
		RefreshToken: value,
		ClientID:     at.ClientID,
		SubjectID:    at.SubjectID,
		Scope:        at.Scope,
		Openid:       at.Openid,
		ExpiresAt:    s.expiryAfter(cm.RefreshTokenTimeout),
	}
	at.RefreshToken = rt.RefreshToken
	at.RefreshExpiresAt = rt.ExpiresAt

	return rt, nil
}

func (s *TokenService) saveAccessToken(ctx context.Context, at *domain.AccessToken) error {
	if err := s.putRecord(ctx, "access token", s.keys.AccessToken(at.AccessToken), at, at.ExpiresAt); err != nil {
		return err
	}

	return s.putValue(ctx, "access token index", s.keys.AccessTokenIndex(at.ClientID, at.SubjectID), at.AccessToken, at.ExpiresAt)
}

func (s *TokenService) saveRefreshToken(ctx context.Context, rt *domain.RefreshToken) error {
	if err := s.putRecord(ctx, "refresh token", s.keys.RefreshToken(rt.RefreshToken), rt, rt.ExpiresAt); err != nil {
		return err
	}

	return s.putValue(ctx, "refresh token index", s.keys.RefreshTokenIndex(rt.ClientID, rt.SubjectID), rt.RefreshToken, rt.ExpiresAt)
}

// expiryAfter returns now+ttl, or the zero time (no expiry) when ttl is
// not positive.
func (s *TokenService) expiryAfter(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}

	return s.now().Add(ttl)
}

func (s *TokenService) expired(expiresAt time.Time) bool {
	return !expiresAt.IsZero() && !s.now().Before(expiresAt)
}

// remaining converts an expiry into a storage ttl. ok is false when the
// expiry has already passed.
func (s *TokenService) remaining(expiresAt time.Time) (ttl time.Duration, ok bool) {
	if expiresAt.IsZero() {
		return 0, true
	}

	ttl = expiresAt.Sub(s.now())
	if ttl <= 0 {
		return 0, false
	}

	return ttl, true
}

func (s *TokenService) putRecord(ctx context.Context, what, key string, record any, expiresAt time.Time) error {
	ttl, ok := s.remaining(expiresAt)
	if !ok {
		return nil
	}
	if err := s.store.SetRecord(ctx, key, record, ttl); err != nil {
		return s.storageErr(ctx, "save", what, err)
	}

	return nil
}

func (s *TokenService) putValue(ctx context.Context, what, key, value string, expiresAt time.Time) error {
	ttl, ok := s.remaining(expiresAt)
	if !ok {
		return nil
	}
	if err := s.store.Set(ctx, key, value, ttl); err != nil {
		return s.storageErr(ctx, "save", what, err)
	}

	return nil
}

func (s *TokenService) getValue(ctx context.Context, what, key string) (string, error) {
	value, found, err := s.store.Get(ctx, key)
	if err != nil {
		return "", s.storageErr(ctx, "load", what, err)
	}
	if !found {
		return "", nil
	}

	return value, nil
}

// deleteValue deletes the key built from value. An empty value is a no-op.
func (s *TokenService) deleteValue(ctx context.Context, what string, key func(string) string, value string) error {
	if value == "" {
		return nil
	}

	return s.delete(ctx, what, key(value))
}

func (s *TokenService) delete(ctx context.Context, what, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return s.storageErr(ctx, "delete", what, err)
	}

	return nil
}

// storageErr logs a storage failure and wraps it. Keys are never logged
// since they embed token values.
func (s *TokenService) storageErr(ctx context.Context, op, what string, err error) error {
	s.logger.Error(ctx, "storage operation failed", err, log.Fields{"op": op, "record": what})

	return fmt.Errorf("failed to %s %s: %w", op, what, err)
}

func (s *TokenService) fields(clientID string, subjectID domain.SubjectID, token string) log.Fields {
	return log.Fields{
		"client_id":  clientID,
		"subject_id": subjectID.String(),
		"token":      crypto.Fingerprint(token),
	}
}

func loadRecord[T any](ctx context.Context, s *TokenService, what string, key func(string) string, value string) (*T, error) {
	if value == "" {
		return nil, nil
	}

	var rec T
	found, err := s.store.GetRecord(ctx, key(value), &rec)
	if err != nil {
		return nil, s.storageErr(ctx, "load", what, err)
	}
	if !found {
		return nil, nil
	}

	return &rec, nil
}

// resolveClient loads a client model, reporting unknown clients as
// UnknownClient faults.
func resolveClient(ctx context.Context, registry domain.ClientRegistry, clientID string) (*domain.ClientModel, error) {
	cm, err := registry.GetClientModel(ctx, clientID)
	if err != nil {
		if stderrors.Is(err, domain.ErrClientNotFound) {
			return nil, errors.Newf(errors.KindUnknownClient, errors.CodeUnknownClient, "invalid client_id: %s", clientID)
		}
		return nil, fmt.Errorf("failed to load client %s: %w", clientID, err)
	}
	if cm == nil {
		return nil, errors.Newf(errors.KindUnknownClient, errors.CodeUnknownClient, "invalid client_id: %s", clientID)
	}

	return cm, nil
}
