package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/stretchr/testify/require"
)

func TestGrantTypeClassification(t *testing.T) {
	tests := []struct {
		grant        domain.GrantType
		confidential bool
		redirect     bool
	}{
		{domain.GrantClientCredentials, true, false},
		{domain.GrantPassword, true, false},
		{domain.GrantAuthorizationCode, true, true},
		{domain.GrantRefreshToken, true, false},
		{domain.GrantImplicit, false, true},
		{"device_code", false, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.grant), func(t *testing.T) {
			require.Equal(t, tt.confidential, tt.grant.Confidential())
			require.Equal(t, tt.redirect, tt.grant.UsesRedirect())
		})
	}

	_, err := domain.ParseGrantType("device_code")
	require.Error(t, err)
	g, err := domain.ParseGrantType("password")
	require.NoError(t, err)
	require.Equal(t, domain.GrantPassword, g)
}

func TestClientRegistration(t *testing.T) {
	c := domain.ClientRegistration{
		ClientID:     "public",
		GrantTypes:   []domain.GrantType{domain.GrantImplicit},
		RedirectURIs: []string{"http://localhost/cb", "http://localhost/other"},
	}
	require.True(t, c.Public())
	require.True(t, c.AllowsGrant(domain.GrantImplicit))
	require.False(t, c.AllowsGrant(domain.GrantPassword))
	require.True(t, c.AllowsRedirect("http://localhost/other"))
	require.False(t, c.AllowsRedirect("http://evil/cb"))
	require.Equal(t, "http://localhost/cb", c.DefaultRedirectURI())
}

func TestDeniedIsAnError(t *testing.T) {
	var err error = domain.Deny(domain.CodeInvalidClient, "Unauthorized grant type: password")

	var d *domain.Denied
	require.True(t, errors.As(err, &d))
	require.Equal(t, domain.CodeInvalidClient, d.Code)
	require.Equal(t, "invalid_client: Unauthorized grant type: password", err.Error())
}

func TestAuthorizationCodeExpired(t *testing.T) {
	now := time.Now()
	c := domain.AuthorizationCode{ExpiresAt: now}
	require.True(t, c.Expired(now))
	require.False(t, c.Expired(now.Add(-time.Second)))
}
