package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
	"github.com/aussiebroadwan/oauth2d/pkg/slogx"
)

// TokenService mints and verifies access and refresh JWTs.
type TokenService struct {
	Keys  *jwtx.KeyManager
	Store store.Store

	// Server-wide lifetimes. A client's own TTLs take precedence.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (s *TokenService) accessTTL(client domain.ClientRegistration) time.Duration {
	switch {
	case client.AccessTokenTTL > 0:
		return client.AccessTokenTTL
	case s.AccessTTL > 0:
		return s.AccessTTL
	default:
		return jwtx.DefaultAccessTokenTTL
	}
}

func (s *TokenService) refreshTTL(client domain.ClientRegistration) time.Duration {
	switch {
	case client.RefreshTokenTTL > 0:
		return client.RefreshTokenTTL
	case s.RefreshTTL > 0:
		return s.RefreshTTL
	default:
		return jwtx.DefaultRefreshTokenTTL
	}
}

// Issue signs an access token for d that lives for ttl.
func (s *TokenService) Issue(ctx context.Context, d domain.AuthorizationDecision, ttl time.Duration) (string, domain.AccessToken, error) {
	claims := jwtx.NewClaims(jwtx.ClaimsParams{
		Issuer:      s.Keys.Issuer(),
		Subject:     d.Subject,
		UserName:    d.UserName,
		ClientID:    d.ClientID,
		Scope:       d.Scopes,
		Authorities: d.Authorities,
		TTL:         ttl,
		Kind:        jwtx.KindAccess,
		Now:         s.Keys.Now(),
	})

	signed, err := s.Keys.Sign(claims)
	if err != nil {
		return "", domain.AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, toAccessToken(claims), nil
}

// IssueRefresh signs a refresh token paired with the access token
// accessJTI and stores the record that keeps it redeemable. When
// d.ReplacesRefresh is set the old record is swapped for the new one
// atomically; if the old one is already gone the grant is refused.
func (s *TokenService) IssueRefresh(ctx context.Context, d domain.AuthorizationDecision, accessJTI string, ttl time.Duration) (string, domain.AccessToken, error) {
	now := s.Keys.Now()
	claims := jwtx.NewClaims(jwtx.ClaimsParams{
		Issuer:      s.Keys.Issuer(),
		Subject:     d.Subject,
		UserName:    d.UserName,
		ClientID:    d.ClientID,
		Scope:       d.Scopes,
		Authorities: d.Authorities,
		TTL:         ttl,
		Kind:        jwtx.KindRefresh,
		ATI:         accessJTI,
		Now:         now,
	})

	signed, err := s.Keys.Sign(claims)
	if err != nil {
		return "", domain.AccessToken{}, fmt.Errorf("sign refresh token: %w", err)
	}

	tok := toAccessToken(claims)
	rec := domain.RefreshTokenRecord{
		JTI:         tok.JTI,
		ClientID:    tok.ClientID,
		Subject:     tok.Subject,
		UserName:    tok.UserName,
		Authorities: tok.Authorities,
		Scopes:      tok.Scopes,
		ExpiresAt:   tok.ExpiresAt,
	}
	refresh := s.Store.RefreshTokens()
	if d.ReplacesRefresh == "" {
		if err := refresh.CreateRefreshToken(ctx, rec, now); err != nil {
			return "", domain.AccessToken{}, unavailable("store refresh token", err)
		}
		return signed, tok, nil
	}

	err = refresh.RotateRefreshToken(ctx, d.ReplacesRefresh, rec, now)
	switch {
	case errors.Is(err, store.ErrNotFound):
		slogx.FromContext(ctx).Info("refresh token reused or revoked", slog.String("jti", d.ReplacesRefresh))
		return "", domain.AccessToken{}, domain.Deny(domain.CodeInvalidGrant, "Invalid refresh token")
	case err != nil:
		return "", domain.AccessToken{}, unavailable("rotate refresh token", err)
	}
	return signed, tok, nil
}

// Grant turns an authorization decision into the token endpoint response.
func (s *TokenService) Grant(ctx context.Context, d domain.AuthorizationDecision, client domain.ClientRegistration) (domain.TokenResponse, error) {
	ttl := s.accessTTL(client)
	access, tok, err := s.Issue(ctx, d, ttl)
	if err != nil {
		return domain.TokenResponse{}, err
	}

	resp := domain.TokenResponse{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int64(tok.ExpiresAt.Sub(tok.IssuedAt) / time.Second),
		Scope:       strings.Join(tok.Scopes, " "),
		JTI:         tok.JTI,
	}

	if d.IssueRefresh {
		refresh, _, err := s.IssueRefresh(ctx, d, tok.JTI, s.refreshTTL(client))
		if err != nil {
			return domain.TokenResponse{}, err
		}
		resp.RefreshToken = refresh
	}

	l := slogx.FromContext(ctx)
	l.Info("token issued",
		slog.String("client_id", d.ClientID),
		slog.String("sub", d.Subject),
		slog.String("jti", tok.JTI),
		slog.Bool("refresh", d.IssueRefresh),
		slog.String("replaces", d.ReplacesRefresh),
	)
	return resp, nil
}

// Verify checks an access token. Refresh tokens are rejected. Every failure
// wraps ErrInvalidToken.
func (s *TokenService) Verify(ctx context.Context, token string) (domain.AccessToken, error) {
	return s.verify(ctx, token, jwtx.KindAccess)
}

// VerifyRefresh checks a refresh token's signature and expiry. It does not
// look at the store.
func (s *TokenService) VerifyRefresh(ctx context.Context, token string) (domain.AccessToken, error) {
	return s.verify(ctx, token, jwtx.KindRefresh)
}

var errWrongKind = errors.New("wrong token kind")

func (s *TokenService) verify(ctx context.Context, token, kind string) (domain.AccessToken, error) {
	claims, err := s.Keys.Verify(token)
	reason := jwtx.Reason(err)
	if err == nil && claims.Kind() != kind {
		err, reason = errWrongKind, "wrong_kind"
	}
	if err != nil {
		slogx.FromContext(ctx).Warn("token rejected",
			slog.String("reason", reason),
			slog.String("kind", kind),
		)
		return domain.AccessToken{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return toAccessToken(claims), nil
}

// Introspect verifies an access token and returns the claims check_token
// reports.
func (s *TokenService) Introspect(ctx context.Context, token string) (map[string]any, error) {
	tok, err := s.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	out := map[string]any{
		"sub":         tok.Subject,
		"client_id":   tok.ClientID,
		"scope":       nonNil(tok.Scopes),
		"authorities": nonNil(tok.Authorities),
		"jti":         tok.JTI,
		"iss":         tok.Issuer,
		"iat":         tok.IssuedAt.Unix(),
		"exp":         tok.ExpiresAt.Unix(),
	}
	if tok.UserName != "" {
		out["user_name"] = tok.UserName
	}
	return out, nil
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func toAccessToken(c jwtx.Claims) domain.AccessToken {
	t := domain.AccessToken{
		Subject:     c.Subject,
		UserName:    c.UserName,
		ClientID:    c.ClientID,
		Scopes:      c.Scope,
		Authorities: c.Authorities,
		JTI:         c.ID,
		Kind:        c.Kind(),
		Issuer:      c.Issuer,
	}
	if c.IssuedAt != nil {
		t.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		t.ExpiresAt = c.ExpiresAt.Time
	}
	return t
}
