package handler

import (
	"net/http"

	"github.com/BlackMission/fccauth/internal/auth"
)

type healthResponse struct {
	Status    string `json:"status"`
	Providers int    `json:"providers"`
}

// Health handles GET /health.
func Health(registry *auth.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Providers: len(registry.Names())})
	}
}
