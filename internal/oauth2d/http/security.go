package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/policy"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/service"
	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
	"github.com/aussiebroadwan/oauth2d/pkg/slogx"
)

type ctxKey int

const (
	callerKey ctxKey = iota
	clientKey
	accessTokenKey
)

func callerFrom(ctx context.Context) policy.Caller {
	c, _ := ctx.Value(callerKey).(policy.Caller)
	return c
}

// clientFrom returns the registration of the client that authenticated
// with Basic credentials.
func clientFrom(ctx context.Context) (domain.ClientRegistration, bool) {
	c, ok := ctx.Value(clientKey).(domain.ClientRegistration)
	return c, ok
}

func accessTokenFrom(ctx context.Context) (domain.AccessToken, bool) {
	t, ok := ctx.Value(accessTokenKey).(domain.AccessToken)
	return t, ok
}

// errBadClient is what any Basic authentication failure turns into. The
// cause only goes to the log.
var errBadClient = authsdk.ErrInvalidClient

// clientCaller resolves the caller of an endpoint that clients call with
// HTTP Basic credentials. No Authorization header is an anonymous caller;
// anything other than valid Basic credentials is invalid_client.
func (r *Router) clientCaller(req *http.Request) (context.Context, error) {
	ctx := req.Context()
	if !httpx.HasAuthorization(req) {
		return context.WithValue(ctx, callerKey, policy.Anonymous()), nil
	}

	id, secret, present, ok := httpx.BasicCredentials(req)
	if !present || !ok {
		slogx.FromContext(ctx).Warn("client authentication failed", slog.String("reason", "malformed_authorization"))
		return nil, errBadClient
	}

	client, err := r.Clients.Authenticate(id, secret, "")
	if err != nil {
		slogx.FromContext(ctx).Warn("client authentication failed",
			slog.String("client_id", id),
			slog.String("error", err.Error()),
		)
		return nil, errBadClient
	}

	ctx = httpx.WithCaller(ctx, client.ClientID, client.ClientID)
	ctx = slogx.With(ctx, slog.String("client_id", client.ClientID))
	ctx = context.WithValue(ctx, clientKey, client)
	return context.WithValue(ctx, callerKey, policy.Caller{
		Authenticated: true,
		ClientID:      client.ClientID,
		Subject:       client.ClientID,
		Authorities:   client.Authorities,
	}), nil
}

// bearerCaller resolves the caller of a resource endpoint from its bearer
// access token.
func (r *Router) bearerCaller(req *http.Request) (context.Context, error) {
	ctx := req.Context()
	if !httpx.HasAuthorization(req) {
		return context.WithValue(ctx, callerKey, policy.Anonymous()), nil
	}

	raw, ok := httpx.BearerToken(req)
	if !ok {
		return nil, authsdk.ErrInvalidToken
	}
	tok, err := r.Tokens.Verify(ctx, raw)
	if err != nil {
		return nil, authsdk.ErrInvalidToken
	}

	ctx = httpx.WithCaller(ctx, tok.ClientID, tok.Subject)
	ctx = slogx.With(ctx, slog.String("client_id", tok.ClientID), slog.String("sub", tok.Subject))
	ctx = context.WithValue(ctx, accessTokenKey, tok)
	return context.WithValue(ctx, callerKey, policy.Caller{
		Authenticated: true,
		ClientID:      tok.ClientID,
		Subject:       tok.Subject,
		Authorities:   tok.Authorities,
	}), nil
}

// permit returns the Decider for endpoint. It must run after one of the
// caller resolvers.
func (r *Router) permit(endpoint string) httpx.Decider {
	return func(req *http.Request) error {
		d := r.Policy.Evaluate(endpoint, callerFrom(req.Context()))
		if d.Permit {
			return nil
		}
		if d.Err != nil {
			slogx.FromContext(req.Context()).Error("policy evaluation failed",
				slog.String("endpoint", endpoint),
				slog.String("error", d.Err.Error()),
			)
		}
		return authsdk.NewOAuth2Error(d.Status, d.Denied.Code, d.Denied.Description)
	}
}

// secured guards h with caller resolution and the policy for endpoint.
func (r *Router) secured(h http.Handler, endpoint string, resolve httpx.Authenticator, onErr httpx.ErrorWriter) http.Handler {
	return httpx.Chain(h,
		httpx.AuthnMiddleware(resolve, onErr),
		httpx.AuthzMiddleware(r.permit(endpoint), onErr),
	)
}

// writeError renders err as an OAuth2 error response. Denials keep their
// code; unavailable collaborators become 503; anything else is a 500 whose
// cause is only logged.
func writeError(w http.ResponseWriter, req *http.Request, err error) {
	var (
		oerr   *authsdk.OAuth2Error
		denied *domain.Denied
	)
	switch {
	case errors.As(err, &oerr):
		oerr.WriteError(w)
	case errors.As(err, &denied):
		authsdk.NewOAuth2Error(0, denied.Code, denied.Description).WriteError(w)
	case errors.Is(err, service.ErrUnavailable):
		slogx.FromContext(req.Context()).Warn("dependency unavailable", slog.String("error", err.Error()))
		authsdk.ErrTemporarilyUnavailable.WriteError(w)
	default:
		slogx.FromContext(req.Context()).Error("request failed", slog.String("error", err.Error()))
		authsdk.ErrServerError.WriteError(w)
	}
}

// writeBearerError is writeError plus the RFC 6750 challenge on 401s.
func writeBearerError(w http.ResponseWriter, req *http.Request, err error) {
	var oerr *authsdk.OAuth2Error
	if errors.As(err, &oerr) && oerr.StatusCode == http.StatusUnauthorized {
		code := oerr.Code
		if code == authsdk.ErrorCodeUnauthorized {
			code = ""
		}
		httpx.SetBearerChallenge(w, code, oerr.Description)
	}
	writeError(w, req, err)
}
