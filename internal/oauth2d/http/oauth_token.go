package http

import (
	"net/http"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/service"
	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
)

// TokenHandler serves POST /oauth/token.
// Accepts application/x-www-form-urlencoded per RFC 6749. The policy has
// already admitted the client on its Basic credentials; the same
// credentials are handed to the Grant Authorizer with the request.
type TokenHandler struct {
	Grants *service.GrantAuthorizer
	Tokens *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		OAuth2 Token Endpoint
//	@Description	Issues tokens for the client_credentials, password, authorization_code and refresh_token grants.
//	@Description	The client authenticates with HTTP Basic. A refresh token is spent when it is redeemed.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Security		ClientBasic
//	@Param			grant_type		formData	string					true	"Grant type"	Enums(client_credentials, password, authorization_code, refresh_token)
//	@Param			scope			formData	string					false	"Space-delimited list of scopes"
//	@Param			username		formData	string					false	"Resource owner username (password grant)"
//	@Param			password		formData	string					false	"Resource owner password (password grant)"
//	@Param			code			formData	string					false	"Authorization code (authorization_code grant)"
//	@Param			redirect_uri	formData	string					false	"Redirect URI the code was issued for (authorization_code grant)"
//	@Param			refresh_token	formData	string					false	"Refresh token (refresh_token grant)"
//	@Success		200				{object}	authsdk.TokenResponse	"access_token, token_type, expires_in, scope, refresh_token, jti"
//	@Failure		400				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		401				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Failure		503				{object}	authsdk.ErrorResponse	"error, error_description"
//	@Header			200				{string}	Cache-Control			"no-store"
//	@Header			200				{string}	Pragma					"no-cache"
//	@Router			/oauth/token [post]
func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Content-Type") != "" && !httpx.IsFormContentType(r) {
		authsdk.ErrInvalidContentType.WriteError(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	ctx := r.Context()
	client, ok := clientFrom(ctx)
	if !ok {
		// The policy lets only authenticated clients through.
		authsdk.ErrUnauthorized.WriteError(w)
		return
	}

	_, secret, _, _ := httpx.BasicCredentials(r)
	req := domain.TokenRequest{
		GrantType:       r.Form.Get("grant_type"),
		ClientID:        client.ClientID,
		ClientSecret:    secret,
		Username:        r.PostForm.Get("username"),
		Password:        r.PostForm.Get("password"),
		RequestedScopes: httpx.ParseSpaceDelimitedFields(r.Form.Get("scope")),
		Code:            r.Form.Get("code"),
		RedirectURI:     r.Form.Get("redirect_uri"),
		RefreshToken:    r.Form.Get("refresh_token"),
	}
	if req.GrantType == "" {
		authsdk.NewOAuth2Error(0, authsdk.ErrorCodeInvalidRequest, "Missing grant type").WriteError(w)
		return
	}

	decision, err := h.Grants.Authorize(ctx, req, client)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.Tokens.Grant(ctx, decision, client)
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.TokenResponse{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
		ExpiresIn:    resp.ExpiresIn,
		Scope:        resp.Scope,
		JTI:          resp.JTI,
	})
}
