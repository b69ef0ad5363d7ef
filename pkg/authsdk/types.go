package authsdk

import (
	"time"

	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
)

// ErrorResponse is the wire form of an OAuth2 error. Client code should use
// OAuth2Error instead.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ============================================================================
// Token Types
// ============================================================================

// TokenResponse is the body of a successful POST /oauth/token, and of the
// fragment of an implicit grant redirect.
type TokenResponse struct {
	// AccessToken is the signed JWT access token
	AccessToken string `json:"access_token"`

	// TokenType is always "bearer"
	TokenType string `json:"token_type"`

	// RefreshToken is a JWT refresh token. Absent for client_credentials
	// and implicit grants.
	RefreshToken string `json:"refresh_token,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token
	ExpiresIn int64 `json:"expires_in"`

	// Scope is the space-delimited list of granted scopes
	Scope string `json:"scope,omitempty"`

	// JTI is the access token's identifier
	JTI string `json:"jti"`
}

// TokenKeyResponse is the body of GET /oauth/token_key. Value is the PEM
// encoded public key for RS256 and empty for HS256, whose key is secret.
type TokenKeyResponse struct {
	Alg   string `json:"alg" example:"RS256"`
	Value string `json:"value,omitempty"`
}

// CheckTokenResponse is the decoded access token returned by
// POST /oauth/check_token.
type CheckTokenResponse struct {
	Subject     string   `json:"sub"`
	UserName    string   `json:"user_name,omitempty"`
	ClientID    string   `json:"client_id"`
	Scope       []string `json:"scope"`
	Authorities []string `json:"authorities"`
	JTI         string   `json:"jti"`
	Issuer      string   `json:"iss"`
	IssuedAt    int64    `json:"iat"`
	ExpiresAt   int64    `json:"exp"`
}

// Expiry returns ExpiresAt as a time.
func (r *CheckTokenResponse) Expiry() time.Time {
	return time.Unix(r.ExpiresAt, 0)
}

// PrincipalResponse is what the resource endpoint (GET /) returns for the
// bearer of a valid access token.
type PrincipalResponse struct {
	Name        string   `json:"name" example:"roy"`
	Authorities []string `json:"authorities"`
	ClientID    string   `json:"client_id" example:"trusted"`
	Scope       []string `json:"scope"`
}

// ============================================================================
// Key Types
// ============================================================================

// SigningKeyInfo describes one signing key held by the server.
type SigningKeyInfo struct {
	Kid       string     `json:"kid"`
	Algorithm string     `json:"alg"`
	Active    bool       `json:"active"`
	RetiredAt *time.Time `json:"retired_at,omitempty"`
	NotAfter  *time.Time `json:"not_after,omitempty"`
}

// ListKeysResponse is the body of GET /oauth/keys.
type ListKeysResponse struct {
	Keys []SigningKeyInfo `json:"keys"`
}

// RotateKeyResponse is the body of POST /oauth/keys/rotate.
type RotateKeyResponse struct {
	NewKid     string    `json:"new_kid"`
	RetiredKid string    `json:"retired_kid"`
	GraceUntil time.Time `json:"grace_until"`
}

// ============================================================================
// Health Types
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Algorithm is the JWT signing algorithm in use (only for /livez)
	Algorithm string `json:"algorithm,omitempty"`

	// Checks contains readiness check results (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks is the status of each dependency checked by /readyz.
type HealthChecks struct {
	// Store is the code and refresh token store
	Store string `json:"store"`

	// Signer is the JWT signing key
	Signer string `json:"signer"`
}

// ============================================================================
// JWKS Types
// ============================================================================

// JWKSResponse is the JSON Web Key Set served at /.well-known/jwks.json.
// It is empty when the server signs with HS256.
type JWKSResponse jwtx.JWKS
