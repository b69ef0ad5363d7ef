package service

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/authn"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/config"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/registry"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store/drivers/memory"
	"github.com/aussiebroadwan/oauth2d/pkg/cryptox"
	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
)

const (
	testIssuer  = "oauth2d-test"
	redirectURI = "http://localhost:8080/client/"
)

var t0 = time.Date(2025, 7, 25, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	clock   *testClock
	keys    *jwtx.KeyManager
	store   *memory.Store
	clients *registry.Registry
	users   authn.Provider
	tokens  *TokenService
	grants  *GrantAuthorizer
	authz   *AuthorizationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	hasher, err := cryptox.NewHasher("test-pepper")
	require.NoError(t, err)

	clients, err := registry.FromConfig(hasher, []config.Client{
		{
			ClientID:     "confidential",
			Secret:       "secret",
			GrantTypes:   []string{"client_credentials", "authorization_code", "refresh_token"},
			Scopes:       []string{"read", "write"},
			RedirectURIs: []string{redirectURI},
		},
		{
			ClientID:     "public",
			GrantTypes:   []string{"implicit"},
			Scopes:       []string{"read"},
			RedirectURIs: []string{redirectURI},
		},
		{
			ClientID:        "trusted",
			Secret:          "secret",
			GrantTypes:      []string{"client_credentials", "password", "authorization_code", "refresh_token"},
			Scopes:          []string{"read", "write"},
			RedirectURIs:    []string{redirectURI},
			Authorities:     []string{"ROLE_TRUSTED_CLIENT"},
			AccessTokenTTL:  "5m",
			RefreshTokenTTL: "1h",
		},
	})
	require.NoError(t, err)

	users, err := authn.NewStatic(hasher, []config.User{
		{Username: "roy", Password: "42", Authorities: []string{"ROLE_USER"}},
		{Username: "admin", Password: "password", Authorities: []string{"ROLE_USER", "ROLE_ADMIN"}},
	})
	require.NoError(t, err)

	clock := &testClock{now: t0}
	keys, err := jwtx.NewKeyManager(jwtx.KeyManagerOptions{
		Algorithm:   jwtx.AlgorithmHS256,
		Issuer:      testIssuer,
		Secret:      bytes.Repeat([]byte("k"), jwtx.MinHMACSecretBytes),
		GracePeriod: time.Hour,
		Now:         clock.Now,
	})
	require.NoError(t, err)

	st := memory.New()
	tokens := &TokenService{Keys: keys, Store: st, AccessTTL: 15 * time.Minute, RefreshTTL: 24 * time.Hour}

	return &fixture{
		clock:   clock,
		keys:    keys,
		store:   st,
		clients: clients,
		users:   users,
		tokens:  tokens,
		grants:  &GrantAuthorizer{Clients: clients, Users: users, Store: st, Tokens: tokens},
		authz:   &AuthorizationService{Clients: clients, Users: users, Store: st, Tokens: tokens},
	}
}

func (f *fixture) client(t *testing.T, id string) domain.ClientRegistration {
	t.Helper()
	c, err := f.clients.Lookup(id)
	require.NoError(t, err)
	return c
}

func requireDenied(t *testing.T, err error, code string) *domain.Denied {
	t.Helper()
	var d *domain.Denied
	require.True(t, errors.As(err, &d), "expected *domain.Denied, got %v", err)
	require.Equal(t, code, d.Code)
	return d
}
