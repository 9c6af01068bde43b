// Package correlation binds an OAuth round trip to the browser that started
// it. A random token is placed both in the protected state and in a
// short-lived cookie; the callback is only trusted when the two agree.
package correlation

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BlackMission/fccauth/internal/domain"
)

const (
	CookiePrefix = "__fcc_correlation."
	DefaultTTL   = 15 * time.Minute
	tokenBytes   = 32
)

// Guard issues and checks correlation tokens for one authentication scheme.
type Guard struct {
	cookieName string
	ttl        time.Duration
	secure     bool
	logger     logrus.FieldLogger
}

// NewGuard creates a guard whose cookie is scoped to the given scheme name.
// A non-positive ttl selects DefaultTTL.
func NewGuard(scheme string, ttl time.Duration, logger logrus.FieldLogger) *Guard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Guard{
		cookieName: CookiePrefix + scheme,
		ttl:        ttl,
		logger:     logger,
	}
}

// SetSecure forces the Secure attribute on the cookie, for hosts that are
// reached over https through a proxy that terminates TLS.
func (g *Guard) SetSecure(secure bool) {
	g.secure = secure
}

// CookieName returns the name of the correlation cookie.
func (g *Guard) CookieName() string {
	return g.cookieName
}

// Generate mints a token, stores it in props and emits the matching cookie.
func (g *Guard) Generate(w http.ResponseWriter, r *http.Request, props *domain.Properties) (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating correlation token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(b)

	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   g.isSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(g.ttl.Seconds()),
	})

	props.Set(domain.CorrelationKey, token)
	return token, nil
}

// Validate compares the token carried in props with the cookie set at
// challenge time. The cookie is cleared and the token removed from props
// whatever the result.
func (g *Guard) Validate(w http.ResponseWriter, r *http.Request, props *domain.Properties) bool {
	cookie, err := r.Cookie(g.cookieName)
	if err != nil || cookie.Value == "" {
		g.logger.WithField("cookie", g.cookieName).Warn("correlation cookie not found")
		props.Delete(domain.CorrelationKey)
		return false
	}

	g.Clear(w, r)

	expected, ok := props.Get(domain.CorrelationKey)
	props.Delete(domain.CorrelationKey)
	if !ok || expected == "" {
		g.logger.Warn("correlation property not found in state")
		return false
	}

	if subtle.ConstantTimeCompare([]byte(expected), []byte(cookie.Value)) != 1 {
		g.logger.WithField("cookie", g.cookieName).Warn("correlation cookie and state do not match")
		return false
	}
	return true
}

// Clear expires the correlation cookie.
func (g *Guard) Clear(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     g.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   g.isSecure(r),
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func (g *Guard) isSecure(r *http.Request) bool {
	return g.secure || r.TLS != nil
}
