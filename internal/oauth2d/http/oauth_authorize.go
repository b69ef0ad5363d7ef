package http

import (
	"net/http"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/service"
	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
)

// AuthorizeHandler serves the authorization endpoint for the
// authorization_code and implicit grants. There is no login page; the
// resource owner's credentials come as username and password in a POST
// body. Credentials in the query string are ignored so they never end up
// in URLs.
type AuthorizeHandler struct {
	Authorize *service.AuthorizationService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 authorization endpoint
//	@Description	Authenticates the resource owner and redirects back to the client.
//	@Description	response_type=code redirects with ?code=...&state=...; response_type=token redirects with the access token in the fragment.
//	@Description	Unknown clients and unregistered redirect URIs are answered directly; every later error is sent through the redirect.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Param			response_type	query		string					true	"code or token"	Enums(code, token)
//	@Param			client_id		query		string					true	"OAuth2 client identifier"
//	@Param			redirect_uri	query		string					false	"Registered redirect URI (defaults to the first one)"
//	@Param			scope			query		string					false	"Space-delimited list of scopes"
//	@Param			state			query		string					false	"Opaque value echoed back in the redirect"
//	@Param			username		formData	string					false	"Resource owner username (POST body only)"
//	@Param			password		formData	string					false	"Resource owner password (POST body only)"
//	@Success		302				{string}	string					"Redirect to redirect_uri"
//	@Failure		400				{object}	authsdk.ErrorResponse	"Unregistered redirect URI"
//	@Failure		401				{object}	authsdk.ErrorResponse	"Unknown client"
//	@Failure		503				{object}	authsdk.ErrorResponse	"User directory unavailable"
//	@Router			/oauth/authorize [get]
//	@Router			/oauth/authorize [post]
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost && r.Header.Get("Content-Type") != "" && !httpx.IsFormContentType(r) {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	location, err := h.Authorize.Authorize(r.Context(), service.AuthorizeRequest{
		ResponseType: r.Form.Get("response_type"),
		ClientID:     r.Form.Get("client_id"),
		RedirectURI:  r.Form.Get("redirect_uri"),
		Scope:        httpx.ParseSpaceDelimitedFields(r.Form.Get("scope")),
		State:        r.Form.Get("state"),
		Username:     r.PostForm.Get("username"),
		Password:     r.PostForm.Get("password"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.NoCache(w)
	http.Redirect(w, r, location, http.StatusFound)
}
