package domain

import "time"

// TokenRequest is a parsed token endpoint request. ClientID and
// ClientSecret are the credentials the client presented.
type TokenRequest struct {
	GrantType       string
	ClientID        string
	ClientSecret    string
	Username        string
	Password        string
	Principal       *Principal
	RequestedScopes []string
	Code            string
	RedirectURI     string
	RefreshToken    string
}

// AuthorizationDecision is what a successful grant authorizes the token
// service to mint.
type AuthorizationDecision struct {
	Subject     string
	UserName    string // empty when the subject is the client itself
	ClientID    string
	Scopes      []string
	Authorities []string

	IssueRefresh bool

	// ReplacesRefresh is the jti of the refresh token this grant redeems,
	// if any. Its record is swapped for the new one when tokens are minted.
	ReplacesRefresh string
}

// AccessToken is a verified token as seen by the server.
type AccessToken struct {
	Subject     string
	UserName    string
	ClientID    string
	Scopes      []string
	Authorities []string
	IssuedAt    time.Time
	ExpiresAt   time.Time
	JTI         string
	Kind        string
	Issuer      string
}

// RefreshTokenRecord backs a refresh JWT. The token is accepted only while
// its record exists; redeeming it removes the record.
type RefreshTokenRecord struct {
	JTI         string
	ClientID    string
	Subject     string
	UserName    string
	Authorities []string
	Scopes      []string
	ExpiresAt   time.Time
}

// TokenResponse is the token endpoint success body.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
	Scope        string `json:"scope,omitempty"`
	JTI          string `json:"jti"`
}
