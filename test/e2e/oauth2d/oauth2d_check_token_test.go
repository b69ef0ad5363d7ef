//go:build e2e

package oauth2d_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
)

// TestTokenKey verifies who may read the verification key.
func TestTokenKey(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	t.Run("anonymous", func(t *testing.T) {
		key, err := client.TokenKey(ctx, authsdk.ClientCredentials{})
		require.NoError(t, err)
		require.Equal(t, "RS256", key.Alg)
		require.True(t, strings.HasPrefix(key.Value, "-----BEGIN PUBLIC KEY-----"))
	})

	t.Run("trusted client", func(t *testing.T) {
		_, err := client.TokenKey(ctx, trusted)
		require.NoError(t, err)
	})

	t.Run("public client", func(t *testing.T) {
		_, err := client.TokenKey(ctx, public)
		requireOAuth2Error(t, err, http.StatusForbidden, authsdk.ErrorCodeAccessDenied)
	})
}

// TestCheckToken verifies the check_token policy and its error messages.
func TestCheckToken(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	tok, err := client.PasswordGrant(ctx, trusted, "roy", "42", []string{"read"})
	require.NoError(t, err)

	t.Run("anonymous", func(t *testing.T) {
		_, err := client.CheckToken(ctx, authsdk.ClientCredentials{}, tok.AccessToken)
		oerr := requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized)
		require.Equal(t, "Full authentication is required to access this resource", oerr.Description)
	})

	t.Run("public client", func(t *testing.T) {
		_, err := client.CheckToken(ctx, public, tok.AccessToken)
		oerr := requireOAuth2Error(t, err, http.StatusForbidden, authsdk.ErrorCodeAccessDenied)
		require.Equal(t, "Access is denied", oerr.Description)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := client.CheckToken(ctx, trusted, "FOO")
		oerr := requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidToken)
		require.Equal(t, "Cannot convert access token to JSON", oerr.Description)
	})

	t.Run("valid token", func(t *testing.T) {
		claims, err := client.CheckToken(ctx, trusted, tok.AccessToken)
		require.NoError(t, err)
		require.Equal(t, "roy", claims.UserName)
		require.Equal(t, []string{"read"}, claims.Scope)
		require.Equal(t, tok.JTI, claims.JTI)
		require.True(t, claims.Expiry().After(time.Now()))
	})
}
