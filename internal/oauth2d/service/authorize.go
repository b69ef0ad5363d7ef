package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/authn"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/registry"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/store"
	"github.com/aussiebroadwan/oauth2d/pkg/cryptox"
	"github.com/aussiebroadwan/oauth2d/pkg/slogx"
)

// DefaultCodeTTL is how long an authorization code can be redeemed.
const DefaultCodeTTL = 5 * time.Minute

// AuthorizationService serves the authorization endpoint for the
// authorization_code and implicit grants. There is no login page: the
// resource owner's credentials arrive with the request.
type AuthorizationService struct {
	Clients *registry.Registry
	Users   authn.Provider
	Store   store.Store
	Tokens  *TokenService
	CodeTTL time.Duration
}

// AuthorizeRequest is a parsed authorization endpoint request.
type AuthorizeRequest struct {
	ResponseType string
	ClientID     string
	RedirectURI  string
	Scope        []string
	State        string

	Username string
	Password string
}

// Authorize returns the URL to redirect the user agent to. Errors that
// cannot safely be redirected (unknown client, unregistered redirect URI)
// come back as *domain.Denied; everything after that is reported to the
// client through the redirect.
func (s *AuthorizationService) Authorize(ctx context.Context, req AuthorizeRequest) (string, error) {
	client, err := s.Clients.Lookup(req.ClientID)
	if err != nil {
		return "", domain.Deny(domain.CodeInvalidClient, "No client with requested id: "+req.ClientID)
	}

	redirectURI := req.RedirectURI
	if redirectURI == "" {
		redirectURI = client.DefaultRedirectURI()
	}
	if redirectURI == "" || !client.AllowsRedirect(redirectURI) {
		return "", domain.Deny(domain.CodeInvalidRequest, "Invalid redirect: "+req.RedirectURI+" does not match one of the registered values")
	}

	ctx = slogx.With(ctx, slog.String("client_id", client.ClientID), slog.String("response_type", req.ResponseType))

	var grant domain.GrantType
	switch req.ResponseType {
	case "code":
		grant = domain.GrantAuthorizationCode
	case "token":
		grant = domain.GrantImplicit
	default:
		return errorRedirect(redirectURI, false, req.State,
			domain.Deny(domain.CodeUnsupportedResponseType, "Unsupported response types: "+req.ResponseType)), nil
	}
	fragment := grant == domain.GrantImplicit

	if !client.AllowsGrant(grant) {
		return errorRedirect(redirectURI, fragment, req.State,
			domain.Deny(domain.CodeUnauthorizedClient, "Unauthorized grant type: "+grant.String())), nil
	}

	scopes, err := narrowScopes(req.Scope, client.Scopes)
	if err != nil {
		var denied *domain.Denied
		errors.As(err, &denied)
		return errorRedirect(redirectURI, fragment, req.State, denied), nil
	}

	if req.Username == "" || req.Password == "" {
		return errorRedirect(redirectURI, fragment, req.State,
			domain.Deny(domain.CodeAccessDenied, "User must be authenticated")), nil
	}
	principal, err := s.Users.Authenticate(ctx, req.Username, req.Password)
	switch {
	case errors.Is(err, authn.ErrBadCredentials):
		slogx.FromContext(ctx).Info("authorization rejected", slog.String("username", req.Username))
		return errorRedirect(redirectURI, fragment, req.State,
			domain.Deny(domain.CodeAccessDenied, "Bad credentials")), nil
	case err != nil:
		return "", unavailable("authenticate user", err)
	}

	if grant == domain.GrantImplicit {
		return s.implicit(ctx, client, principal, scopes, redirectURI, req.State)
	}
	return s.code(ctx, client, principal, scopes, redirectURI, req)
}

// code stores the redirect_uri as requested, possibly empty, so the token
// request only has to repeat it when the authorization request carried it.
func (s *AuthorizationService) code(ctx context.Context, client domain.ClientRegistration, p domain.Principal, scopes []string, redirectURI string, req AuthorizeRequest) (string, error) {
	ttl := s.CodeTTL
	if ttl <= 0 {
		ttl = DefaultCodeTTL
	}

	code, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("generate authorization code: %w", err)
	}

	now := s.Tokens.Keys.Now()
	err = s.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, domain.AuthorizationCode{
		CodeHash:    cryptox.FingerprintToken(code),
		ClientID:    client.ClientID,
		RedirectURI: req.RedirectURI,
		Subject:     p.Subject,
		Authorities: p.Authorities,
		Scopes:      scopes,
		ExpiresAt:   now.Add(ttl),
	}, now)
	if err != nil {
		return "", unavailable("store authorization code", err)
	}

	slogx.FromContext(ctx).Info("authorization code issued", slog.String("sub", p.Subject))

	q := url.Values{}
	q.Set("code", code)
	if req.State != "" {
		q.Set("state", req.State)
	}
	return withParams(redirectURI, false, q), nil
}

func (s *AuthorizationService) implicit(ctx context.Context, client domain.ClientRegistration, p domain.Principal, scopes []string, redirectURI, state string) (string, error) {
	access, tok, err := s.Tokens.Issue(ctx, domain.AuthorizationDecision{
		Subject:     p.Subject,
		UserName:    p.Subject,
		ClientID:    client.ClientID,
		Scopes:      scopes,
		Authorities: p.Authorities,
	}, s.Tokens.accessTTL(client))
	if err != nil {
		return "", err
	}

	slogx.FromContext(ctx).Info("implicit token issued", slog.String("sub", p.Subject), slog.String("jti", tok.JTI))

	q := url.Values{}
	q.Set("access_token", access)
	q.Set("token_type", "bearer")
	q.Set("expires_in", strconv.FormatInt(int64(tok.ExpiresAt.Sub(tok.IssuedAt)/time.Second), 10))
	q.Set("scope", strings.Join(scopes, " "))
	q.Set("jti", tok.JTI)
	if state != "" {
		q.Set("state", state)
	}
	return withParams(redirectURI, true, q), nil
}

func errorRedirect(redirectURI string, fragment bool, state string, d *domain.Denied) string {
	q := url.Values{}
	q.Set("error", d.Code)
	q.Set("error_description", d.Description)
	if state != "" {
		q.Set("state", state)
	}
	return withParams(redirectURI, fragment, q)
}

// withParams adds q to the query, or replaces the fragment when fragment
// is set. Registered redirect URIs are trusted to parse.
func withParams(redirectURI string, fragment bool, q url.Values) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return redirectURI
	}
	if fragment {
		u.Fragment = ""
		u.RawFragment = ""
		return u.String() + "#" + q.Encode()
	}
	existing := u.Query()
	for k, vs := range q {
		existing[k] = vs
	}
	u.RawQuery = existing.Encode()
	return u.String()
}
