package http

import (
	"net/http"

	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
)

// ResourceHandler serves GET /, the protected resource.
//
//	@Summary		Current principal
//	@Description	Returns the principal behind the bearer access token. Requires the USER role.
//	@Tags			Resource
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	authsdk.PrincipalResponse
//	@Failure		401	{object}	authsdk.ErrorResponse	"Missing or invalid access token"
//	@Failure		403	{object}	authsdk.ErrorResponse	"Access is denied"
//	@Router			/ [get]
func ResourceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tok, ok := accessTokenFrom(r.Context())
		if !ok {
			authsdk.ErrUnauthorized.WriteError(w)
			return
		}

		name := tok.UserName
		if name == "" {
			name = tok.Subject
		}
		httpx.WriteJSON(w, http.StatusOK, authsdk.PrincipalResponse{
			Name:        name,
			Authorities: nonNil(tok.Authorities),
			ClientID:    tok.ClientID,
			Scope:       nonNil(tok.Scopes),
		})
	}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
