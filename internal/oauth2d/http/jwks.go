package http

import (
	"net/http"

	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
	"github.com/aussiebroadwan/oauth2d/pkg/jwtx"
)

// JWKSHandler exposes the public keys that verify issued tokens. Retired
// keys stay listed until their grace period ends. HS256 keys are secret,
// so an HS256 server publishes an empty set.
//
//	@Summary		Get JWKS
//	@Description	Returns the JSON Web Key Set used to verify JWTs.
//	@Tags			well-known
//	@Produce		json
//	@Success		200	{object}	authsdk.JWKSResponse	"The JSON Web Key Set"
//	@Router			/.well-known/jwks.json [get]
func JWKSHandler(keys *jwtx.KeyManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.JWKSResponse(keys.KeySet.PublicJWKS(keys.Now())))
	}
}
