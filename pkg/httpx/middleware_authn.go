package httpx

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
)

// Authenticator resolves the caller of r and returns the context the rest of
// the chain should see. A non-nil error stops the request.
type Authenticator func(r *http.Request) (context.Context, error)

// Decider returns nil when the request may proceed.
type Decider func(r *http.Request) error

// ErrorWriter renders an error returned by an Authenticator or Decider.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, err error)

// AuthnMiddleware runs authn before next and replaces the request context
// with the one it returns.
func AuthnMiddleware(authn Authenticator, onErr ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, err := authn(r)
			if err != nil {
				onErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AuthzMiddleware lets the request through only when decide returns nil.
func AuthzMiddleware(decide Decider, onErr ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := decide(r); err != nil {
				onErr(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BasicCredentials extracts HTTP Basic client credentials. Both parts are
// form-urlencoded before base64 per RFC 6749 section 2.3.1, so they are
// unescaped here. present reports whether a Basic header was sent at all;
// ok is false when it was sent but could not be decoded.
func BasicCredentials(r *http.Request) (id, secret string, present, ok bool) {
	h := r.Header.Get("Authorization")
	scheme, rest, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Basic") {
		return "", "", false, false
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(rest))
	if err != nil {
		return "", "", true, false
	}
	user, pass, found := strings.Cut(string(raw), ":")
	if !found {
		return "", "", true, false
	}
	if id, err = url.QueryUnescape(user); err != nil {
		return "", "", true, false
	}
	if secret, err = url.QueryUnescape(pass); err != nil {
		return "", "", true, false
	}
	return id, secret, true, true
}

// BearerToken returns the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, rest, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tok := strings.TrimSpace(rest)
	return tok, tok != ""
}

// HasAuthorization reports whether any Authorization header was sent.
func HasAuthorization(r *http.Request) bool {
	return r.Header.Get("Authorization") != ""
}

// SetBearerChallenge sets an RFC 6750 WWW-Authenticate header.
func SetBearerChallenge(w http.ResponseWriter, code, desc string) {
	v := `Bearer realm="oauth2d"`
	if code != "" {
		v += `, error="` + code + `"`
	}
	if desc != "" {
		v += `, error_description="` + strings.ReplaceAll(desc, `"`, `'`) + `"`
	}
	w.Header().Set("WWW-Authenticate", v)
}
