//go:build e2e

package oauth2d_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
)

// TestKeyRotation verifies rotation keeps earlier tokens verifiable and
// publishes both keys while the old one is in its grace period.
func TestKeyRotation(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	before, err := client.PasswordGrant(ctx, trusted, "roy", "42", nil)
	require.NoError(t, err)

	jwks, err := client.JWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 1)

	rotated, err := client.RotateKey(ctx, trusted)
	require.NoError(t, err)
	require.Equal(t, jwks.Keys[0].Kid, rotated.RetiredKid)
	require.NotEqual(t, rotated.RetiredKid, rotated.NewKid)

	keys, err := client.ListKeys(ctx, trusted)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	require.True(t, keys[0].Active)
	require.Equal(t, rotated.NewKid, keys[0].Kid)

	jwks, err = client.JWKS(ctx)
	require.NoError(t, err)
	require.Len(t, jwks.Keys, 2)

	claims, err := client.CheckToken(ctx, trusted, before.AccessToken)
	require.NoError(t, err)
	require.Equal(t, before.JTI, claims.JTI)

	after, err := client.PasswordGrant(ctx, trusted, "roy", "42", nil)
	require.NoError(t, err)
	_, err = client.CheckToken(ctx, trusted, after.AccessToken)
	require.NoError(t, err)
}

// TestKeyAdminRequiresTrustedClient verifies only trusted clients may list
// or rotate keys.
func TestKeyAdminRequiresTrustedClient(t *testing.T) {
	client := setupContainer(t, nil)
	ctx := t.Context()

	_, err := client.RotateKey(ctx, confidential)
	requireOAuth2Error(t, err, http.StatusForbidden, authsdk.ErrorCodeAccessDenied)

	_, err = client.ListKeys(ctx, authsdk.ClientCredentials{})
	requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeUnauthorized)
}

// TestHS256 runs the server with a shared secret: token_key hides the
// secret and JWKS publishes nothing.
func TestHS256(t *testing.T) {
	client := setupContainer(t, map[string]string{
		"AUTH_ALGORITHM":   "HS256",
		"AUTH_HMAC_SECRET": "an-hmac-secret-of-at-least-32-bytes!",
	})
	ctx := t.Context()

	key, err := client.TokenKey(ctx, trusted)
	require.NoError(t, err)
	require.Equal(t, "HS256", key.Alg)
	require.Empty(t, key.Value)

	jwks, err := client.JWKS(ctx)
	require.NoError(t, err)
	require.Empty(t, jwks.Keys)

	session, err := client.AuthenticateWithPassword(ctx, trusted, "roy", "42", nil)
	require.NoError(t, err)
	_, err = session.Resource(ctx)
	require.NoError(t, err)
}
