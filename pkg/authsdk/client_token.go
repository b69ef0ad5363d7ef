package authsdk

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

// PasswordGrant exchanges a user's credentials for tokens.
func (c *SDKClient) PasswordGrant(
	ctx context.Context,
	client ClientCredentials,
	username, password string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"password"},
		"username":   {username},
		"password":   {password},
	}
	setScope(data, scopes)

	return c.requestToken(ctx, client, data)
}

// ClientCredentialsGrant requests an access token for the client itself
// (machine-to-machine). No refresh token is returned; clients can simply
// request a new token.
func (c *SDKClient) ClientCredentialsGrant(
	ctx context.Context,
	client ClientCredentials,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"client_credentials"},
	}
	setScope(data, scopes)

	return c.requestToken(ctx, client, data)
}

// AuthorizationCodeGrant exchanges a code from the authorize endpoint for
// tokens. redirectURI must be the one the code was issued for.
func (c *SDKClient) AuthorizationCodeGrant(
	ctx context.Context,
	client ClientCredentials,
	code, redirectURI string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type": {"authorization_code"},
		"code":       {code},
	}
	if redirectURI != "" {
		data.Set("redirect_uri", redirectURI)
	}

	return c.requestToken(ctx, client, data)
}

// RefreshGrant trades a refresh token for a new access token and a new
// refresh token. The old refresh token is spent. scopes may narrow the
// original grant; nil keeps it.
func (c *SDKClient) RefreshGrant(
	ctx context.Context,
	client ClientCredentials,
	refreshToken string,
	scopes []string,
) (*TokenResponse, error) {
	data := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
	}
	setScope(data, scopes)

	return c.requestToken(ctx, client, data)
}

func (c *SDKClient) requestToken(ctx context.Context, client ClientCredentials, data url.Values) (*TokenResponse, error) {
	resp, err := c.doClientRequest(ctx, client, http.MethodPost, "/oauth/token", data)
	if err != nil {
		return nil, err
	}

	var tokenResp TokenResponse
	if err := decodeJSON(resp, &tokenResp, http.StatusOK); err != nil {
		return nil, err
	}

	return &tokenResp, nil
}

func setScope(data url.Values, scopes []string) {
	if len(scopes) > 0 {
		data.Set("scope", strings.Join(scopes, " "))
	}
}
