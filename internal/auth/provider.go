package auth

import (
	"net/http"

	"github.com/BlackMission/fccauth/internal/domain"
)

// Provider is a sign-in scheme the host can challenge and mount.
type Provider interface {
	http.Handler
	Name() string
	CallbackPath() string
	Challenge(w http.ResponseWriter, r *http.Request, props *domain.Properties) error
}
