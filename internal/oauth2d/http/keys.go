package http

import (
	"net/http"

	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/domain"
	"github.com/aussiebroadwan/oauth2d/internal/oauth2d/service"
	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
)

// KeysHandler lists and rotates the signing keys. Both routes are for
// trusted clients only.
type KeysHandler struct {
	KeyRotation *service.KeyRotationService
}

// HandleList handles GET /oauth/keys
//
//	@Summary		List signing keys
//	@Description	The active key first, then retired keys that still verify tokens.
//	@Tags			Keys
//	@Produce		json
//	@Security		ClientBasic
//	@Success		200	{object}	authsdk.ListKeysResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Access is denied"
//	@Router			/oauth/keys [get]
func (h *KeysHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	keys := h.KeyRotation.List(r.Context())
	httpx.WriteJSON(w, http.StatusOK, authsdk.ListKeysResponse{Keys: toSDKKeys(keys)})
}

// HandleRotate handles POST /oauth/keys/rotate
//
//	@Summary		Rotate the signing key
//	@Description	Generates a new key of the configured algorithm. The old key keeps verifying until its grace period ends.
//	@Tags			Keys
//	@Produce		json
//	@Security		ClientBasic
//	@Success		200	{object}	authsdk.RotateKeyResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Unauthorized"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Access is denied"
//	@Failure		500	{object}	authsdk.ErrorResponse	"Internal Server Error"
//	@Router			/oauth/keys/rotate [post]
func (h *KeysHandler) HandleRotate(w http.ResponseWriter, r *http.Request) {
	res, err := h.KeyRotation.Rotate(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authsdk.RotateKeyResponse{
		NewKid:     res.NewKid,
		RetiredKid: res.RetiredKid,
		GraceUntil: res.GraceUntil,
	})
}

func toSDKKeys(keys []domain.KeyInfo) []authsdk.SigningKeyInfo {
	out := make([]authsdk.SigningKeyInfo, len(keys))
	for i, k := range keys {
		out[i] = authsdk.SigningKeyInfo{
			Kid:       k.Kid,
			Algorithm: k.Algorithm,
			Active:    k.Active,
			RetiredAt: k.RetiredAt,
			NotAfter:  k.NotAfter,
		}
	}
	return out
}
