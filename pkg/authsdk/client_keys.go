package authsdk

import (
	"context"
	"net/http"
	"net/url"
)

// JWKS retrieves the JSON Web Key Set for token verification.
func (c *SDKClient) JWKS(ctx context.Context) (*JWKSResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/.well-known/jwks.json", nil, nil)
	if err != nil {
		return nil, err
	}

	var jwks JWKSResponse
	if err := decodeJSON(resp, &jwks, http.StatusOK); err != nil {
		return nil, err
	}

	return &jwks, nil
}

// TokenKey fetches the token verification key. Pass a zero
// ClientCredentials to call anonymously.
func (c *SDKClient) TokenKey(ctx context.Context, client ClientCredentials) (*TokenKeyResponse, error) {
	resp, err := c.doClientRequest(ctx, client, http.MethodGet, "/oauth/token_key", nil)
	if err != nil {
		return nil, err
	}

	var key TokenKeyResponse
	if err := decodeJSON(resp, &key, http.StatusOK); err != nil {
		return nil, err
	}

	return &key, nil
}

// CheckToken asks the server to decode and verify an access token. Only
// trusted clients may call it.
func (c *SDKClient) CheckToken(ctx context.Context, client ClientCredentials, token string) (*CheckTokenResponse, error) {
	resp, err := c.doClientRequest(ctx, client, http.MethodPost, "/oauth/check_token", url.Values{"token": {token}})
	if err != nil {
		return nil, err
	}

	var claims CheckTokenResponse
	if err := decodeJSON(resp, &claims, http.StatusOK); err != nil {
		return nil, err
	}

	return &claims, nil
}

// ListKeys returns the active signing key followed by retired keys still in
// their grace period.
func (c *SDKClient) ListKeys(ctx context.Context, client ClientCredentials) ([]SigningKeyInfo, error) {
	resp, err := c.doClientRequest(ctx, client, http.MethodGet, "/oauth/keys", nil)
	if err != nil {
		return nil, err
	}

	var keys ListKeysResponse
	if err := decodeJSON(resp, &keys, http.StatusOK); err != nil {
		return nil, err
	}

	return keys.Keys, nil
}

// RotateKey makes the server sign with a freshly generated key.
func (c *SDKClient) RotateKey(ctx context.Context, client ClientCredentials) (*RotateKeyResponse, error) {
	resp, err := c.doClientRequest(ctx, client, http.MethodPost, "/oauth/keys/rotate", nil)
	if err != nil {
		return nil, err
	}

	var rotated RotateKeyResponse
	if err := decodeJSON(resp, &rotated, http.StatusOK); err != nil {
		return nil, err
	}

	return &rotated, nil
}
