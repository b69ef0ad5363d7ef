package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/authn"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/registry"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
	"github.com/aussiebroadwan/oauth2d/pkg/cryptox"
	"github.com/aussiebroadwan/oauth2d/pkg/slogx"
)

// GrantAuthorizer decides whether a client may have a token for a token
// endpoint request, and for whom.
type GrantAuthorizer struct {
	Clients *registry.Registry
	Users   authn.Provider
	Store   store.Store
	Tokens  *TokenService
}

// Authorize runs the grant-specific checks for req on behalf of client.
// Protocol refusals come back as *domain.Denied; collaborator failures
// wrap ErrUnavailable.
func (a *GrantAuthorizer) Authorize(ctx context.Context, req domain.TokenRequest, client domain.ClientRegistration) (domain.AuthorizationDecision, error) {
	grant, err := domain.ParseGrantType(req.GrantType)
	if err != nil {
		return domain.AuthorizationDecision{}, domain.Deny(domain.CodeUnsupportedGrantType, "Unsupported grant type: "+req.GrantType)
	}
	if !client.AllowsGrant(grant) {
		return domain.AuthorizationDecision{}, domain.Deny(domain.CodeInvalidClient, "Unauthorized grant type: "+req.GrantType)
	}

	ctx = slogx.With(ctx, slog.String("client_id", client.ClientID), slog.String("grant_type", req.GrantType))

	if grant.Confidential() {
		if err := a.authenticateClient(ctx, req, client, grant); err != nil {
			return domain.AuthorizationDecision{}, err
		}
	}

	switch grant {
	case domain.GrantClientCredentials:
		return a.clientCredentials(req, client)
	case domain.GrantPassword:
		return a.password(ctx, req, client)
	case domain.GrantAuthorizationCode:
		return a.authorizationCode(ctx, req, client)
	case domain.GrantRefreshToken:
		return a.refreshToken(ctx, req, client)
	default:
		// implicit is only served by the authorization endpoint.
		return domain.AuthorizationDecision{}, domain.Deny(domain.CodeInvalidGrant, "Implicit grant type not supported from token endpoint")
	}
}

// authenticateClient checks the presented secret against the registration
// of the client the request is made for. Public clients always fail here.
func (a *GrantAuthorizer) authenticateClient(ctx context.Context, req domain.TokenRequest, client domain.ClientRegistration, grant domain.GrantType) error {
	bad := domain.Deny(domain.CodeInvalidClient, "Bad client credentials")
	if req.ClientID != client.ClientID {
		slogx.FromContext(ctx).Warn("token request for another client", slog.String("request_client_id", req.ClientID))
		return bad
	}
	if _, err := a.Clients.Authenticate(req.ClientID, req.ClientSecret, grant); err != nil {
		slogx.FromContext(ctx).Warn("client authentication failed", slog.String("error", err.Error()))
		return bad
	}
	return nil
}

func (a *GrantAuthorizer) clientCredentials(req domain.TokenRequest, client domain.ClientRegistration) (domain.AuthorizationDecision, error) {
	scopes, err := narrowScopes(req.RequestedScopes, client.Scopes)
	if err != nil {
		return domain.AuthorizationDecision{}, err
	}
	return domain.AuthorizationDecision{
		Subject:     client.ClientID,
		ClientID:    client.ClientID,
		Scopes:      scopes,
		Authorities: slices.Clone(client.Authorities),
	}, nil
}

func (a *GrantAuthorizer) password(ctx context.Context, req domain.TokenRequest, client domain.ClientRegistration) (domain.AuthorizationDecision, error) {
	scopes, err := narrowScopes(req.RequestedScopes, client.Scopes)
	if err != nil {
		return domain.AuthorizationDecision{}, err
	}

	var principal domain.Principal
	if req.Principal != nil {
		principal = *req.Principal
	} else {
		if req.Username == "" || req.Password == "" {
			return domain.AuthorizationDecision{}, domain.Deny(domain.CodeInvalidRequest, "Missing username or password")
		}
		principal, err = a.Users.Authenticate(ctx, req.Username, req.Password)
		switch {
		case errors.Is(err, authn.ErrBadCredentials):
			slogx.FromContext(ctx).Info("password grant rejected", slog.String("username", req.Username))
			return domain.AuthorizationDecision{}, domain.Deny(domain.CodeInvalidGrant, "Bad credentials")
		case err != nil:
			return domain.AuthorizationDecision{}, unavailable("authenticate user", err)
		}
	}

	return domain.AuthorizationDecision{
		Subject:      principal.Subject,
		UserName:     principal.Subject,
		ClientID:     client.ClientID,
		Scopes:       scopes,
		Authorities:  slices.Clone(principal.Authorities),
		IssueRefresh: client.AllowsGrant(domain.GrantRefreshToken),
	}, nil
}

func (a *GrantAuthorizer) authorizationCode(ctx context.Context, req domain.TokenRequest, client domain.ClientRegistration) (domain.AuthorizationDecision, error) {
	if req.Code == "" {
		return domain.AuthorizationDecision{}, domain.Deny(domain.CodeInvalidRequest, "An authorization code must be supplied")
	}

	code, err := a.Store.AuthorizationCodes().ConsumeAuthorizationCode(ctx, cryptox.FingerprintToken(req.Code), a.Tokens.Keys.Now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.AuthorizationDecision{}, domain.Deny(domain.CodeInvalidGrant, "Invalid authorization code")
	case err != nil:
		return domain.AuthorizationDecision{}, unavailable("consume authorization code", err)
	}

	// The code is spent from here on, whatever happens next.
	if code.ClientID != client.ClientID {
		slogx.FromContext(ctx).Warn("authorization code presented by another client", slog.String("code_client_id", code.ClientID))
		return domain.AuthorizationDecision{}, domain.Deny(domain.CodeInvalidGrant, "Invalid authorization code")
	}
	if code.RedirectURI != "" && req.RedirectURI != code.RedirectURI {
		return domain.AuthorizationDecision{}, domain.Deny(domain.CodeInvalidGrant, "Redirect URI mismatch")
	}

	return domain.AuthorizationDecision{
		Subject:      code.Subject,
		UserName:     code.Subject,
		ClientID:     client.ClientID,
		Scopes:       code.Scopes,
		Authorities:  code.Authorities,
		IssueRefresh: client.AllowsGrant(domain.GrantRefreshToken),
	}, nil
}

func (a *GrantAuthorizer) refreshToken(ctx context.Context, req domain.TokenRequest, client domain.ClientRegistration) (domain.AuthorizationDecision, error) {
	if req.RefreshToken == "" {
		return domain.AuthorizationDecision{}, domain.Deny(domain.CodeInvalidRequest, "A refresh token must be supplied")
	}
	invalid := domain.Deny(domain.CodeInvalidGrant, "Invalid refresh token")

	tok, err := a.Tokens.VerifyRefresh(ctx, req.RefreshToken)
	if err != nil {
		return domain.AuthorizationDecision{}, invalid
	}
	// Checked before consuming so a stolen token cannot be burnt by
	// another client.
	if tok.ClientID != client.ClientID {
		slogx.FromContext(ctx).Warn("refresh token presented by another client", slog.String("token_client_id", tok.ClientID))
		return domain.AuthorizationDecision{}, invalid
	}

	scopes, err := narrowScopes(req.RequestedScopes, tok.Scopes)
	if err != nil {
		return domain.AuthorizationDecision{}, err
	}

	// The record is only spent once its replacement is stored, in
	// TokenService.Grant, so a failure here or there leaves it redeemable.
	rec, err := a.Store.RefreshTokens().GetRefreshToken(ctx, tok.JTI, a.Tokens.Keys.Now())
	switch {
	case errors.Is(err, store.ErrNotFound):
		slogx.FromContext(ctx).Info("refresh token reused or revoked", slog.String("jti", tok.JTI))
		return domain.AuthorizationDecision{}, invalid
	case err != nil:
		return domain.AuthorizationDecision{}, unavailable("look up refresh token", err)
	}
	if rec.ClientID != client.ClientID {
		return domain.AuthorizationDecision{}, invalid
	}

	return domain.AuthorizationDecision{
		Subject:         rec.Subject,
		UserName:        rec.UserName,
		ClientID:        client.ClientID,
		Scopes:          scopes,
		Authorities:     rec.Authorities,
		IssueRefresh:    true,
		ReplacesRefresh: rec.JTI,
	}, nil
}
