package handler

import (
	"net/http"
	"strings"

	"github.com/BlackMission/fccauth/internal/auth"
)

type providerInfo struct {
	Name       string `json:"name"`
	SignInPath string `json:"signin_path"`
}

// Providers handles GET /providers.
func Providers(registry *auth.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]providerInfo, 0)
		for _, p := range registry.Providers() {
			out = append(out, providerInfo{
				Name:       p.Name(),
				SignInPath: "/signin/" + strings.ToLower(p.Name()),
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
