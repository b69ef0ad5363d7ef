package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
)

func sampleDecision() domain.AuthorizationDecision {
	return domain.AuthorizationDecision{
		Subject:     "roy",
		UserName:    "roy",
		ClientID:    "trusted",
		Scopes:      []string{"read"},
		Authorities: []string{"ROLE_USER"},
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, ttl := range []time.Duration{time.Minute, 15 * time.Minute, 12 * time.Hour} {
		t.Run(ttl.String(), func(t *testing.T) {
			signed, issued, err := f.tokens.Issue(ctx, sampleDecision(), ttl)
			require.NoError(t, err)

			got, err := f.tokens.Verify(ctx, signed)
			require.NoError(t, err)
			require.Equal(t, "roy", got.Subject)
			require.Equal(t, "roy", got.UserName)
			require.Equal(t, "trusted", got.ClientID)
			require.Equal(t, []string{"read"}, got.Scopes)
			require.Equal(t, []string{"ROLE_USER"}, got.Authorities)
			require.Equal(t, testIssuer, got.Issuer)
			require.Equal(t, issued.JTI, got.JTI)
			require.Equal(t, jwtx.KindAccess, got.Kind)
			require.Equal(t, ttl, got.ExpiresAt.Sub(got.IssuedAt))
		})
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signed, _, err := f.tokens.Issue(ctx, sampleDecision(), time.Minute)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Minute)
	_, err = f.tokens.Verify(ctx, signed)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, jwtx.ErrExpired)
}

func TestVerifyRejectsGarbageAndTampering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signed, _, err := f.tokens.Issue(ctx, sampleDecision(), time.Minute)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"empty", ""},
		{"truncated signature", signed[:len(signed)-4]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.tokens.Verify(ctx, tt.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err = f.tokens.Verify(ctx, "not-a-jwt")
	require.ErrorIs(t, err, jwtx.ErrMalformed)
}

func TestTokenKindsDoNotCross(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	access, tok, err := f.tokens.Issue(ctx, sampleDecision(), time.Minute)
	require.NoError(t, err)
	refresh, rtok, err := f.tokens.IssueRefresh(ctx, sampleDecision(), tok.JTI, time.Hour)
	require.NoError(t, err)
	require.Equal(t, jwtx.KindRefresh, rtok.Kind)

	_, err = f.tokens.Verify(ctx, refresh)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = f.tokens.VerifyRefresh(ctx, access)
	require.ErrorIs(t, err, ErrInvalidToken)

	got, err := f.tokens.VerifyRefresh(ctx, refresh)
	require.NoError(t, err)
	require.Equal(t, rtok.JTI, got.JTI)

	rec, err := f.store.RefreshTokens().GetRefreshToken(ctx, rtok.JTI, f.clock.Now())
	require.NoError(t, err)
	require.Equal(t, "trusted", rec.ClientID)
	require.Equal(t, []string{"read"}, rec.Scopes)
}

func TestIntrospect(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	signed, tok, err := f.tokens.Issue(ctx, sampleDecision(), 10*time.Minute)
	require.NoError(t, err)

	claims, err := f.tokens.Introspect(ctx, signed)
	require.NoError(t, err)
	require.Equal(t, "roy", claims["user_name"])
	require.Equal(t, "roy", claims["sub"])
	require.Equal(t, "trusted", claims["client_id"])
	require.Equal(t, []string{"read"}, claims["scope"])
	require.Equal(t, []string{"ROLE_USER"}, claims["authorities"])
	require.Equal(t, tok.JTI, claims["jti"])
	require.Equal(t, testIssuer, claims["iss"])
	require.Equal(t, t0.Unix(), claims["iat"])
	require.Equal(t, t0.Add(10*time.Minute).Unix(), claims["exp"])

	t.Run("client token has no user_name", func(t *testing.T) {
		d := sampleDecision()
		d.UserName = ""
		d.Subject = "trusted"
		signed, _, err := f.tokens.Issue(ctx, d, time.Minute)
		require.NoError(t, err)

		claims, err := f.tokens.Introspect(ctx, signed)
		require.NoError(t, err)
		require.NotContains(t, claims, "user_name")
	})
}

func TestGrantUsesClientTTLs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("client override", func(t *testing.T) {
		d := sampleDecision()
		d.IssueRefresh = true
		resp, err := f.tokens.Grant(ctx, d, f.client(t, "trusted"))
		require.NoError(t, err)
		require.Equal(t, "bearer", resp.TokenType)
		require.Equal(t, int64(300), resp.ExpiresIn)
		require.Equal(t, "read", resp.Scope)
		require.NotEmpty(t, resp.JTI)
		require.NotEmpty(t, resp.RefreshToken)

		rtok, err := f.tokens.VerifyRefresh(ctx, resp.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, time.Hour, rtok.ExpiresAt.Sub(rtok.IssuedAt))
	})

	t.Run("server default", func(t *testing.T) {
		d := sampleDecision()
		d.ClientID = "confidential"
		resp, err := f.tokens.Grant(ctx, d, f.client(t, "confidential"))
		require.NoError(t, err)
		require.Equal(t, int64(900), resp.ExpiresIn)
		require.Empty(t, resp.RefreshToken)
	})
}

func TestVerifyAcrossKeyRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	rot := &KeyRotationService{Keys: f.keys}

	before, _, err := f.tokens.Issue(ctx, sampleDecision(), 2*time.Hour)
	require.NoError(t, err)
	oldKid := f.keys.Signer().KID()

	res, err := rot.Rotate(ctx)
	require.NoError(t, err)
	require.Equal(t, oldKid, res.RetiredKid)
	require.NotEqual(t, oldKid, res.NewKid)
	require.Equal(t, t0.Add(time.Hour), res.GraceUntil)

	after, _, err := f.tokens.Issue(ctx, sampleDecision(), 2*time.Hour)
	require.NoError(t, err)

	_, err = f.tokens.Verify(ctx, before)
	require.NoError(t, err)
	_, err = f.tokens.Verify(ctx, after)
	require.NoError(t, err)

	keys := rot.List(ctx)
	require.Len(t, keys, 2)
	require.True(t, keys[0].Active)
	require.Equal(t, res.NewKid, keys[0].Kid)
	require.Equal(t, oldKid, keys[1].Kid)
	require.NotNil(t, keys[1].NotAfter)

	f.clock.Advance(61 * time.Minute)
	_, err = f.tokens.Verify(ctx, before)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.ErrorIs(t, err, jwtx.ErrUnknownKID)
	_, err = f.tokens.Verify(ctx, after)
	require.NoError(t, err)
	require.Len(t, rot.List(ctx), 1)
}
