package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// SDKClient is a client for the oauth2d authorization server. It performs
// the grants and the client-authenticated endpoints, and creates Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// CheckScopes makes Session methods fail locally when the session lacks
	// a scope the call needs, instead of letting the server refuse it.
	// Default: true
	CheckScopes bool
}

// NewSDKClient creates a new client with scope checking enabled.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		CheckScopes: true,
	}
}

// ClientCredentials identifies an OAuth2 client. Secret is empty for public
// clients.
type ClientCredentials struct {
	ID     string
	Secret string
}

// AuthenticateWithPassword creates a session for a user using the password
// grant. The client must be trusted with that grant.
func (c *SDKClient) AuthenticateWithPassword(
	ctx context.Context,
	client ClientCredentials,
	username, password string,
	scopes []string,
) (*Session, error) {
	tokenResp, err := c.PasswordGrant(ctx, client, username, password, scopes)
	if err != nil {
		return nil, err
	}

	return newSession(c, client, tokenResp), nil
}

// AuthenticateWithClientCredentials creates a session for the client itself.
// Such sessions have no refresh token and end when the access token expires.
func (c *SDKClient) AuthenticateWithClientCredentials(
	ctx context.Context,
	client ClientCredentials,
	scopes []string,
) (*Session, error) {
	tokenResp, err := c.ClientCredentialsGrant(ctx, client, scopes)
	if err != nil {
		return nil, err
	}

	return newSession(c, client, tokenResp), nil
}

// AuthenticateWithRefreshToken creates a session from an existing refresh token.
func (c *SDKClient) AuthenticateWithRefreshToken(
	ctx context.Context,
	client ClientCredentials,
	refreshToken string,
) (*Session, error) {
	tokenResp, err := c.RefreshGrant(ctx, client, refreshToken, nil)
	if err != nil {
		return nil, err
	}

	return newSession(c, client, tokenResp), nil
}

// NewSessionFromTokens creates a session from tokens obtained elsewhere. It
// still refreshes automatically once the access token expires.
func (c *SDKClient) NewSessionFromTokens(client ClientCredentials, tokens *TokenResponse) *Session {
	return newSession(c, client, tokens)
}
