package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/oauth2d/pkg/authsdk"
	"github.com/aussiebroadwan/oauth2d/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness probe returning uptime, version and the signing algorithm.
//	@Description	Always 200 while the process serves requests.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, algorithm"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version, algorithm string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:    "ok",
			Uptime:    time.Since(startTime).Round(time.Second).String(),
			Version:   version,
			Algorithm: algorithm,
		})
	}
}
