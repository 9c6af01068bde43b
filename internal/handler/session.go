package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/BlackMission/fccauth/internal/domain"
	"github.com/BlackMission/fccauth/internal/redirect"
	"github.com/BlackMission/fccauth/internal/session"
)

type claimResponse struct {
	Type   string `json:"type"`
	Value  string `json:"value"`
	Issuer string `json:"issuer"`
}

type meResponse struct {
	AuthenticationType string          `json:"authentication_type"`
	Name               string          `json:"name,omitempty"`
	Claims             []claimResponse `json:"claims"`
	ExpiresAt          string          `json:"expires_at"`
}

// Me handles GET /me and describes the signed-in identity.
func Me(codec *session.Codec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ticket, err := codec.FromRequest(r)
		if err != nil {
			if errors.Is(err, domain.ErrExpiredSession) {
				codec.ClearCookie(w)
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}

		id := ticket.Identity()
		resp := meResponse{
			AuthenticationType: id.AuthenticationType,
			Name:               id.Name(),
			Claims:             make([]claimResponse, 0, len(id.Claims)),
			ExpiresAt:          ticket.ExpiresAt.Format(time.RFC3339),
		}
		for _, c := range id.Claims {
			resp.Claims = append(resp.Claims, claimResponse{Type: c.Type, Value: c.Value, Issuer: c.Issuer})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// SignOut handles POST /signout. It clears the session and redirects to
// returnUrl when one is given and allowed.
func SignOut(codec *session.Codec, allow *redirect.Allowlist, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		codec.ClearCookie(w)

		returnURL := r.URL.Query().Get("returnUrl")
		if returnURL == "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		self := baseURL
		if self == "" {
			self = requestOrigin(r)
		}
		target, err := allow.Resolve(self, returnURL)
		if err != nil {
			writeError(w, http.StatusBadRequest, "returnUrl not allowed")
			return
		}
		http.Redirect(w, r, target, http.StatusSeeOther)
	}
}
