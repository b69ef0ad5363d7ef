package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token lifetimes. Both can be overridden per deployment and per client.
const (
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// Token kinds carried in the token_use claim.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the payload of every token we mint. Field names follow the
// Spring Security OAuth2 JWT converter so existing resource servers can
// read our tokens unchanged.
type Claims struct {
	jwt.RegisteredClaims

	ClientID    string   `json:"client_id,omitempty"`
	UserName    string   `json:"user_name,omitempty"`
	Scope       []string `json:"scope,omitempty"`
	Authorities []string `json:"authorities,omitempty"`

	// TokenUse is empty or "access" for access tokens and "refresh" for
	// refresh tokens.
	TokenUse string `json:"token_use,omitempty"`

	// ATI is the jti of the access token a refresh token was issued with.
	ATI string `json:"ati,omitempty"`
}

// ClaimsParams are the inputs for NewClaims.
type ClaimsParams struct {
	Issuer      string
	Subject     string
	UserName    string
	ClientID    string
	Scope       []string
	Authorities []string
	TTL         time.Duration
	Kind        string
	ATI         string
	Now         time.Time
}

// NewClaims builds claims with a fresh jti, iat=Now and exp=Now+TTL.
func NewClaims(p ClaimsParams) Claims {
	now := p.Now.UTC().Truncate(time.Second)
	c := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.Issuer,
			Subject:   p.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.TTL)),
			ID:        NewJTI(),
		},
		ClientID:    p.ClientID,
		UserName:    p.UserName,
		Scope:       slices.Clone(p.Scope),
		Authorities: slices.Clone(p.Authorities),
		ATI:         p.ATI,
	}
	if p.Kind == KindRefresh {
		c.TokenUse = KindRefresh
	}
	return c
}

// NewJTI returns a URL-safe random identifier for the jti claim.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// Kind reports whether c is an access or refresh token.
func (c *Claims) Kind() string {
	if c.TokenUse == KindRefresh {
		return KindRefresh
	}
	return KindAccess
}

// HasAuthority reports whether the authorities claim contains a.
func (c *Claims) HasAuthority(a string) bool {
	return slices.Contains(c.Authorities, a)
}
