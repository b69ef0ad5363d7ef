package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// BuildAuthorizeURL constructs the URL of the authorization endpoint for
// responseType "code" or "token". The server has no login page, so the
// resource owner's credentials still have to be added as username and
// password parameters; see AuthorizeWithPassword.
//
// Example:
//
//	u := client.BuildAuthorizeURL("code", "confidential", "http://localhost:8080/client/", "xyz", []string{"read"})
func (c *SDKClient) BuildAuthorizeURL(responseType, clientID, redirectURI, state string, scopes []string) string {
	return c.url("/oauth/authorize") + "?" + authorizeParams(responseType, clientID, redirectURI, state, scopes).Encode()
}

func authorizeParams(responseType, clientID, redirectURI, state string, scopes []string) url.Values {
	params := url.Values{}
	params.Set("response_type", responseType)
	params.Set("client_id", clientID)
	if redirectURI != "" {
		params.Set("redirect_uri", redirectURI)
	}
	if state != "" {
		params.Set("state", state)
	}
	setScope(params, scopes)
	return params
}

// AuthorizeWithPassword runs the authorization code flow up to the
// redirect: the user's credentials are posted to the authorize endpoint and
// the code is read from the Location header instead of following it.
//
// An error redirect is returned as an *OAuth2Error.
func (c *SDKClient) AuthorizeWithPassword(
	ctx context.Context,
	clientID, redirectURI, username, password string,
	scopes []string,
) (string, error) {
	location, err := c.postAuthorize(ctx, "code", clientID, redirectURI, username, password, scopes)
	if err != nil {
		return "", err
	}

	code, _, err := ParseAuthorizationCallback(location)
	return code, err
}

// AuthorizeImplicit runs the implicit flow for a public client and returns
// the access token carried in the redirect fragment.
func (c *SDKClient) AuthorizeImplicit(
	ctx context.Context,
	clientID, redirectURI, username, password string,
	scopes []string,
) (*TokenResponse, error) {
	location, err := c.postAuthorize(ctx, "token", clientID, redirectURI, username, password, scopes)
	if err != nil {
		return nil, err
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect URL: %w", err)
	}
	frag, err := url.ParseQuery(u.EscapedFragment())
	if err != nil {
		return nil, fmt.Errorf("failed to parse redirect fragment: %w", err)
	}
	if err := redirectError(frag); err != nil {
		return nil, err
	}
	if frag.Get("access_token") == "" {
		return nil, fmt.Errorf("redirect missing access token")
	}

	expiresIn, _ := strconv.ParseInt(frag.Get("expires_in"), 10, 64)
	return &TokenResponse{
		AccessToken: frag.Get("access_token"),
		TokenType:   frag.Get("token_type"),
		ExpiresIn:   expiresIn,
		Scope:       frag.Get("scope"),
		JTI:         frag.Get("jti"),
	}, nil
}

// AuthorizeAndExchange performs the complete authorization code flow with
// password credentials and returns a session for the user.
func (c *SDKClient) AuthorizeAndExchange(
	ctx context.Context,
	client ClientCredentials,
	redirectURI, username, password string,
	scopes []string,
) (*Session, error) {
	code, err := c.AuthorizeWithPassword(ctx, client.ID, redirectURI, username, password, scopes)
	if err != nil {
		return nil, err
	}

	tokenResp, err := c.AuthorizationCodeGrant(ctx, client, code, redirectURI)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	return newSession(c, client, tokenResp), nil
}

// postAuthorize posts to the authorize endpoint and returns the Location
// of the 302 it answers with.
func (c *SDKClient) postAuthorize(
	ctx context.Context,
	responseType, clientID, redirectURI, username, password string,
	scopes []string,
) (string, error) {
	data := authorizeParams(responseType, clientID, redirectURI, "", scopes)
	data.Set("username", username)
	data.Set("password", password)

	noRedirectClient := &http.Client{
		Transport: c.HTTPClient.Transport,
		Timeout:   c.HTTPClient.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.url("/oauth/authorize"),
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := noRedirectClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusFound {
		return "", parseErrorResponse(resp, bodyBytes)
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return "", fmt.Errorf("redirect response missing Location header")
	}
	return location, nil
}

// ParseAuthorizationCallback extracts the code and state from the redirect
// of an authorization code flow. An error redirect is returned as an
// *OAuth2Error.
//
// Example:
//
//	code, state, err := authsdk.ParseAuthorizationCallback("http://localhost:8080/client/?code=xyz&state=abc")
func ParseAuthorizationCallback(callbackURL string) (code, state string, err error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", "", fmt.Errorf("failed to parse callback URL: %w", err)
	}

	query := u.Query()
	if err := redirectError(query); err != nil {
		return "", "", err
	}

	code = query.Get("code")
	if code == "" {
		return "", "", fmt.Errorf("callback missing authorization code")
	}

	return code, query.Get("state"), nil
}

func redirectError(params url.Values) error {
	code := params.Get("error")
	if code == "" {
		return nil
	}
	return NewOAuth2Error(0, code, params.Get("error_description"))
}
