//go:build e2e

package oauth2d_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
)

// TestRateLimitAuthorizeEndpoint verifies the authorize endpoint, which
// checks user passwords, is limited to 5 attempts per minute per address
// and username.
func TestRateLimitAuthorizeEndpoint(t *testing.T) {
	client := setupContainer(t, map[string]string{"RATELIMIT_DISABLED": ""})
	ctx := t.Context()

	for i := range 5 {
		_, err := client.AuthorizeWithPassword(ctx, confidential.ID, redirectURI, "roy", "wrong", nil)
		requireOAuth2Error(t, err, http.StatusForbidden, authsdk.ErrorCodeAccessDenied)
		t.Logf("attempt %d refused without rate limiting", i+1)
	}

	_, err := client.AuthorizeWithPassword(ctx, confidential.ID, redirectURI, "roy", "wrong", nil)
	var oerr *authsdk.OAuth2Error
	require.True(t, errors.As(err, &oerr), "expected *authsdk.OAuth2Error, got %v", err)
	require.Equal(t, http.StatusTooManyRequests, oerr.StatusCode)

	// Another username is tracked separately.
	_, err = client.AuthorizeWithPassword(ctx, confidential.ID, redirectURI, "user", "password", nil)
	require.NoError(t, err)
}

// TestRateLimitFromEnv verifies the token endpoint limit can be tuned.
func TestRateLimitFromEnv(t *testing.T) {
	client := setupContainer(t, map[string]string{
		"RATELIMIT_DISABLED":         "",
		"RATELIMIT_TOKEN_REQUESTS":   "2",
		"RATELIMIT_TOKEN_WINDOW_SEC": "60",
		"RATELIMIT_TOKEN_BURST":      "2",
	})
	ctx := t.Context()

	for range 2 {
		_, err := client.ClientCredentialsGrant(ctx, trusted, nil)
		require.NoError(t, err)
	}

	_, err := client.ClientCredentialsGrant(ctx, trusted, nil)
	requireOAuth2Error(t, err, http.StatusTooManyRequests, authsdk.ErrorCodeTemporarilyUnavailable)
}
