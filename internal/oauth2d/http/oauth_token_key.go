package http

import (
	"net/http"

	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
)

// TokenKeyHandler serves GET /oauth/token_key.
//
//	@Summary		Token verification key
//	@Description	Returns the algorithm and, for RS256, the PEM encoded public key of the active signing key.
//	@Description	The HS256 secret is never returned.
//	@Tags			OAuth2
//	@Produce		json
//	@Security		ClientBasic
//	@Success		200	{object}	authsdk.TokenKeyResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Bad client credentials"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Access is denied"
//	@Router			/oauth/token_key [get]
func TokenKeyHandler(keys *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		signer := keys.Signer()
		resp := authsdk.TokenKeyResponse{Alg: signer.Alg()}

		if pub, ok := signer.(jwtx.Publisher); ok {
			pem, err := pub.PublicPEM()
			if err != nil {
				writeError(w, r, err)
				return
			}
			resp.Value = pem
		}

		httpx.WriteJSON(w, http.StatusOK, resp)
	}
}
