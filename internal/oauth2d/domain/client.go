package domain

import (
	"slices"
	"time"
)

// ClientRegistration is an OAuth2 client as loaded at startup. It is never
// mutated afterwards.
type ClientRegistration struct {
	ClientID string

	// SecretHash is an argon2id PHC string. Empty for public clients.
	SecretHash string

	GrantTypes   []GrantType
	Scopes       []string
	RedirectURIs []string
	Authorities  []string

	// Zero means the server default.
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Public reports whether the client has no secret.
func (c *ClientRegistration) Public() bool {
	return c.SecretHash == ""
}

func (c *ClientRegistration) AllowsGrant(g GrantType) bool {
	return slices.Contains(c.GrantTypes, g)
}

func (c *ClientRegistration) AllowsRedirect(uri string) bool {
	return slices.Contains(c.RedirectURIs, uri)
}

// DefaultRedirectURI is the first registered URI, or "" when there is none.
func (c *ClientRegistration) DefaultRedirectURI() string {
	if len(c.RedirectURIs) == 0 {
		return ""
	}
	return c.RedirectURIs[0]
}
