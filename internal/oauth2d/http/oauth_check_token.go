package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/service"
	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
)

// descTokenRejected is the only description check_token gives for a token
// it cannot accept. The reason is logged by the token service.
const descTokenRejected = "Cannot convert access token to JSON"

// CheckTokenHandler serves POST /oauth/check_token.
type CheckTokenHandler struct {
	Tokens *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Decode an access token
//	@Description	Verifies an access token and returns its claims. Only trusted clients may call it.
//	@Tags			OAuth2
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Security		ClientBasic
//	@Param			token	formData	string						true	"The access token"
//	@Success		200		{object}	authsdk.CheckTokenResponse	"Decoded claims"
//	@Failure		400		{object}	authsdk.ErrorResponse		"invalid_token"
//	@Failure		401		{object}	authsdk.ErrorResponse		"Full authentication is required"
//	@Failure		403		{object}	authsdk.ErrorResponse		"Access is denied"
//	@Router			/oauth/check_token [post]
func (h *CheckTokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		authsdk.ErrInvalidFormBody.WriteError(w)
		return
	}

	token := r.Form.Get("token")
	if token == "" {
		authsdk.NewOAuth2Error(0, authsdk.ErrorCodeInvalidRequest, "Missing token parameter").WriteError(w)
		return
	}

	claims, err := h.Tokens.Introspect(r.Context(), token)
	if err != nil {
		if !errors.Is(err, service.ErrInvalidToken) {
			writeError(w, r, err)
			return
		}
		authsdk.NewOAuth2Error(http.StatusBadRequest, authsdk.ErrorCodeInvalidToken, descTokenRejected).WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, claims)
}
