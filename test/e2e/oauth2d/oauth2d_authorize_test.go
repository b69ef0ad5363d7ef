//go:build e2e

package oauth2d_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
)

// TestAuthorizationCodeFlow runs the code flow for the confidential client
// and redeems the code once.
func TestAuthorizationCodeFlow(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	code, err := client.AuthorizeWithPassword(ctx, confidential.ID, redirectURI, "user", "password", []string{"read"})
	require.NoError(t, err)
	require.NotEmpty(t, code)

	tok, err := client.AuthorizationCodeGrant(ctx, confidential, code, redirectURI)
	require.NoError(t, err)
	assertTokenResponse(t, tok, true)
	require.Equal(t, "read", tok.Scope)

	_, err = client.AuthorizationCodeGrant(ctx, confidential, code, redirectURI)
	requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant)
}

// TestAuthorizeAndExchange uses the SDK's combined flow and the session it
// returns.
func TestAuthorizeAndExchange(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	session, err := client.AuthorizeAndExchange(ctx, trusted, redirectURI, "admin", "password", nil)
	require.NoError(t, err)

	principal, err := session.Resource(ctx)
	require.NoError(t, err)
	require.Equal(t, "admin", principal.Name)
	require.ElementsMatch(t, []string{"ROLE_USER", "ROLE_ADMIN"}, principal.Authorities)
}

// TestImplicitFlow verifies the public client gets an access token in the
// redirect fragment and no refresh token.
func TestImplicitFlow(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	tok, err := client.AuthorizeImplicit(ctx, public.ID, redirectURI, "roy", "42", nil)
	require.NoError(t, err)
	assertTokenResponse(t, tok, false)

	session := client.NewSessionFromTokens(public, tok)
	principal, err := session.Resource(ctx)
	require.NoError(t, err)
	require.Equal(t, "public", principal.ClientID)
}

// TestAuthorizeRefusals covers errors answered directly and errors sent
// through the redirect.
func TestAuthorizeRefusals(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	t.Run("public client cannot use the code flow", func(t *testing.T) {
		_, err := client.AuthorizeWithPassword(ctx, public.ID, redirectURI, "roy", "42", nil)
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeUnauthorizedClient)
	})

	t.Run("bad user credentials", func(t *testing.T) {
		_, err := client.AuthorizeWithPassword(ctx, confidential.ID, redirectURI, "roy", "nope", nil)
		requireOAuth2Error(t, err, http.StatusForbidden, authsdk.ErrorCodeAccessDenied)
	})

	t.Run("unregistered redirect", func(t *testing.T) {
		_, err := client.AuthorizeWithPassword(ctx, confidential.ID, "http://evil.example/", "roy", "42", nil)
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
	})

	t.Run("unknown client", func(t *testing.T) {
		_, err := client.AuthorizeWithPassword(ctx, "nobody", redirectURI, "roy", "42", nil)
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidClient)
	})
}
