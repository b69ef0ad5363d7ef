package domain

import "time"

// AuthorizationCode is a pending authorization_code grant. Only the code's
// fingerprint is stored; the plaintext is handed to the client once.
// RedirectURI is empty when the authorization request did not name one.
type AuthorizationCode struct {
	CodeHash    string
	ClientID    string
	RedirectURI string
	Subject     string
	Authorities []string
	Scopes      []string
	ExpiresAt   time.Time
}

func (c *AuthorizationCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
