// Package registry holds the OAuth2 client registrations. It is filled once
// at startup and read-only afterwards, so it is shared between requests
// without locking.
package registry

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/config"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/pkg/cryptox"
)

var (
	ErrClientNotFound       = errors.New("registry: client not found")
	ErrBadClientCredentials = errors.New("registry: bad client credentials")
)

type Registry struct {
	clients map[string]domain.ClientRegistration
	hasher  *cryptox.Hasher
}

// New validates clients and builds a Registry. Secrets must already be
// hashed with hasher.
func New(hasher *cryptox.Hasher, clients ...domain.ClientRegistration) (*Registry, error) {
	if hasher == nil {
		return nil, errors.New("registry: hasher is required")
	}

	r := &Registry{
		clients: make(map[string]domain.ClientRegistration, len(clients)),
		hasher:  hasher,
	}

	var errs []error
	for _, c := range clients {
		if err := Validate(c); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := r.clients[c.ClientID]; dup {
			errs = append(errs, fmt.Errorf("client %q: duplicate client_id", c.ClientID))
			continue
		}
		r.clients[c.ClientID] = c
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return r, nil
}

// FromConfig hashes plaintext secrets from the config file and builds a
// Registry from the result.
func FromConfig(hasher *cryptox.Hasher, cfgs []config.Client) (*Registry, error) {
	if hasher == nil {
		return nil, errors.New("registry: hasher is required")
	}

	clients := make([]domain.ClientRegistration, 0, len(cfgs))
	for _, cfg := range cfgs {
		c, err := fromConfig(hasher, cfg)
		if err != nil {
			return nil, fmt.Errorf("client %q: %w", cfg.ClientID, err)
		}
		clients = append(clients, c)
	}
	return New(hasher, clients...)
}

func fromConfig(hasher *cryptox.Hasher, cfg config.Client) (domain.ClientRegistration, error) {
	grants := make([]domain.GrantType, 0, len(cfg.GrantTypes))
	for _, g := range cfg.GrantTypes {
		gt, err := domain.ParseGrantType(strings.TrimSpace(g))
		if err != nil {
			return domain.ClientRegistration{}, err
		}
		grants = append(grants, gt)
	}

	ttls, err := cfg.TTLs()
	if err != nil {
		return domain.ClientRegistration{}, err
	}

	hash := cfg.SecretHash
	if cfg.Secret != "" {
		if hash, err = hasher.Hash(cfg.Secret); err != nil {
			return domain.ClientRegistration{}, fmt.Errorf("hash secret: %w", err)
		}
	}

	return domain.ClientRegistration{
		ClientID:        cfg.ClientID,
		SecretHash:      hash,
		GrantTypes:      grants,
		Scopes:          cfg.Scopes,
		RedirectURIs:    cfg.RedirectURIs,
		Authorities:     cfg.Authorities,
		AccessTokenTTL:  ttls.Access,
		RefreshTokenTTL: ttls.Refresh,
	}, nil
}

// Validate fails on registrations the server refuses to run with.
func Validate(c domain.ClientRegistration) error {
	if c.ClientID == "" {
		return errors.New("client_id is required")
	}

	var errs []error
	if len(c.Scopes) == 0 {
		errs = append(errs, errors.New("at least one scope is required"))
	}

	needsRedirect := false
	for _, g := range c.GrantTypes {
		if !g.Known() {
			errs = append(errs, fmt.Errorf("unknown grant type %q", g))
			continue
		}
		// No PKCE, so a public client cannot safely use any grant that
		// relies on client authentication.
		if c.Public() && g.Confidential() {
			errs = append(errs, fmt.Errorf("public client cannot use grant type %q", g))
		}
		if g.UsesRedirect() {
			needsRedirect = true
		}
	}
	if needsRedirect && len(c.RedirectURIs) == 0 {
		errs = append(errs, errors.New("redirect-based grant requires redirect_uris"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("client %q: %w", c.ClientID, err)
	}
	return nil
}

// Lookup returns the registration for clientID.
func (r *Registry) Lookup(clientID string) (domain.ClientRegistration, error) {
	c, ok := r.clients[clientID]
	if !ok {
		return domain.ClientRegistration{}, ErrClientNotFound
	}
	return c, nil
}

// Authenticate checks client credentials for a request using grant. An empty
// grant means plain endpoint authentication.
//
// Confidential clients must present their secret. Public clients succeed
// only with an empty secret and a grant that does not need one. Unknown
// clients still pay for one argon2 verification.
func (r *Registry) Authenticate(clientID, secret string, grant domain.GrantType) (domain.ClientRegistration, error) {
	c, ok := r.clients[clientID]
	if !ok {
		_ = r.hasher.VerifyDummy(secret)
		return domain.ClientRegistration{}, ErrBadClientCredentials
	}

	if c.Public() {
		if secret != "" || grant.Confidential() {
			return domain.ClientRegistration{}, ErrBadClientCredentials
		}
		return c, nil
	}

	if err := r.hasher.Verify(secret, c.SecretHash); err != nil {
		return domain.ClientRegistration{}, fmt.Errorf("%w: %w", ErrBadClientCredentials, err)
	}
	return c, nil
}

// MaxRefreshTokenTTL is the longest per-client refresh token lifetime, or
// zero when no client overrides the server default.
func (r *Registry) MaxRefreshTokenTTL() time.Duration {
	var longest time.Duration
	for _, c := range r.clients {
		if c.RefreshTokenTTL > longest {
			longest = c.RefreshTokenTTL
		}
	}
	return longest
}

// Len is the number of registered clients.
func (r *Registry) Len() int { return len(r.clients) }
