package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/BlackMission/fccauth/internal/auth"
	"github.com/BlackMission/fccauth/internal/domain"
	"github.com/BlackMission/fccauth/internal/redirect"
)

// SignIn handles GET /signin/{provider}?returnUrl=.
// It checks the return URL against the allowlist and starts the provider challenge.
// baseURL, when set, is the origin local return paths resolve against.
func SignIn(providers *auth.Registry, allow *redirect.Allowlist, baseURL string, logger logrus.FieldLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		provider, err := providers.Get(r.PathValue("provider"))
		if err != nil {
			writeError(w, http.StatusNotFound, "unknown provider")
			return
		}

		self := baseURL
		if self == "" {
			self = requestOrigin(r)
		}
		returnURL, err := allow.Resolve(self, r.URL.Query().Get("returnUrl"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "returnUrl not allowed")
			return
		}

		props := domain.NewProperties()
		props.SetRedirectURI(returnURL)
		if err := provider.Challenge(w, r, props); err != nil {
			logger.WithError(err).WithField("provider", provider.Name()).Error("challenge failed")
			writeError(w, http.StatusInternalServerError, "failed to start sign-in")
			return
		}
	}
}
