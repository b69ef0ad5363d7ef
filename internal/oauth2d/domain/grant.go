package domain

import "fmt"

// GrantType is an OAuth2 grant_type (or the grant behind a response_type).
type GrantType string

const (
	GrantClientCredentials GrantType = "client_credentials"
	GrantPassword          GrantType = "password"
	GrantAuthorizationCode GrantType = "authorization_code"
	GrantRefreshToken      GrantType = "refresh_token"
	GrantImplicit          GrantType = "implicit"
)

// AllGrantTypes lists every grant the server knows about.
var AllGrantTypes = []GrantType{
	GrantClientCredentials,
	GrantPassword,
	GrantAuthorizationCode,
	GrantRefreshToken,
	GrantImplicit,
}

// ParseGrantType returns an error for anything not in AllGrantTypes.
func ParseGrantType(s string) (GrantType, error) {
	g := GrantType(s)
	if !g.Known() {
		return "", fmt.Errorf("unknown grant type %q", s)
	}
	return g, nil
}

func (g GrantType) Known() bool {
	switch g {
	case GrantClientCredentials, GrantPassword, GrantAuthorizationCode, GrantRefreshToken, GrantImplicit:
		return true
	}
	return false
}

// Confidential reports whether the grant needs an authenticated client secret.
// Only implicit may be used by a public client.
func (g GrantType) Confidential() bool {
	return g.Known() && g != GrantImplicit
}

// UsesRedirect reports whether the grant goes through the authorization
// endpoint and therefore needs registered redirect URIs.
func (g GrantType) UsesRedirect() bool {
	return g == GrantAuthorizationCode || g == GrantImplicit
}

func (g GrantType) String() string { return string(g) }
