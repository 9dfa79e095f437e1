package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"go.pilab.hu/oauth2/cache"
	"go.pilab.hu/oauth2/client"
	"go.pilab.hu/oauth2/domain"
	"go.pilab.hu/oauth2/errors"
)

const (
	testClientID = "1001"
	testSecret   = "aaaa-bbbb-cccc-dddd-eeee"
	testSubject  = domain.SubjectID("10001")
	testRedirect = "https://app.example.com/cb"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Now()}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// sequence returns a generator producing tok-1, tok-2, ...
func sequence() Generator {
	var n atomic.Int64
	return func() (string, error) {
		return fmt.Sprintf("tok-%d", n.Add(1)), nil
	}
}

// plainStore hides the Take method of the wrapped store.
type plainStore struct {
	cache.RawStore
}

func testClient() domain.ClientModel {
	return domain.ClientModel{
		ClientID:               testClientID,
		ClientSecret:           testSecret,
		ContractScopes:         []string{"userinfo", "openid", "profile"},
		AllowURLs:              []string{testRedirect, "https://other.example.com/return"},
		CodeTimeout:            5 * time.Minute,
		AccessTokenTimeout:     2 * time.Hour,
		RefreshTokenTimeout:    30 * 24 * time.Hour,
		ClientTokenTimeout:     2 * time.Hour,
		PastClientTokenTimeout: -1,
	}
}

type fixture struct {
	ctx      context.Context
	raw      *cache.MemoryStore
	store    domain.Storage
	registry *client.MemoryRegistry
	clock    *testClock
	svc      *TokenService
	val      *Validator
}

func newFixture(t *testing.T, models ...domain.ClientModel) *fixture {
	t.Helper()

	if len(models) == 0 {
		models = []domain.ClientModel{testClient()}
	}

	raw := cache.NewMemoryStore()
	t.Cleanup(func() { _ = raw.Close() })

	return buildFixture(t, raw, cache.NewStorage(raw), models...)
}

// newPlainFixture uses a storage without atomic take.
func newPlainFixture(t *testing.T, models ...domain.ClientModel) *fixture {
	t.Helper()

	if len(models) == 0 {
		models = []domain.ClientModel{testClient()}
	}

	raw := cache.NewMemoryStore()
	t.Cleanup(func() { _ = raw.Close() })

	store := cache.NewStorage(plainStore{raw})
	_, isTaker := store.(domain.RecordTaker)
	require.False(t, isTaker)

	return buildFixture(t, raw, store, models...)
}

func buildFixture(t *testing.T, raw *cache.MemoryStore, store domain.Storage, models ...domain.ClientModel) *fixture {
	t.Helper()

	registry := client.NewMemoryRegistry("test", models...)
	clock := newTestClock()

	svc := NewTokenService(store, registry,
		WithGenerator(sequence()),
		WithClock(clock.Now),
	)

	return &fixture{
		ctx:      context.Background(),
		raw:      raw,
		store:    store,
		registry: registry,
		clock:    clock,
		svc:      svc,
		val:      NewValidator(registry, svc),
	}
}

func (f *fixture) requestAuth(scope string) *domain.RequestAuth {
	return &domain.RequestAuth{
		ClientID:     testClientID,
		ResponseType: domain.ResponseTypeCode,
		RedirectURI:  testRedirect,
		State:        "xyz",
		Scope:        scope,
		SubjectID:    testSubject,
	}
}

func requireFault(t *testing.T, err error, kind errors.Kind, number int) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, kind, errors.KindOf(err), "unexpected fault: %v", err)
	require.Equal(t, number, errors.NumberOf(err), "unexpected fault: %v", err)
}
