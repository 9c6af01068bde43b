// Package redirect decides where a user may be sent after signing in.
package redirect

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/BlackMission/fccauth/internal/domain"
)

// Allowlist holds the origins, besides the host's own, that may receive a
// signed-in user.
type Allowlist struct {
	origins map[string]struct{}
}

// NewAllowlist builds an allowlist from absolute origins such as
// "https://app.example.com". Paths are not allowed.
func NewAllowlist(origins []string) (*Allowlist, error) {
	a := &Allowlist{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		origin, err := originOf(o)
		if err != nil {
			return nil, fmt.Errorf("%w: return origin %q: %v", domain.ErrInvalidConfig, o, err)
		}
		if u, _ := url.Parse(o); u.Path != "" && u.Path != "/" {
			return nil, fmt.Errorf("%w: return origin %q must not have a path", domain.ErrInvalidConfig, o)
		}
		a.origins[origin] = struct{}{}
	}
	return a, nil
}

// Resolve validates returnURL and makes it absolute against self, the
// host's own origin. An empty returnURL resolves to self + "/".
func (a *Allowlist) Resolve(self, returnURL string) (string, error) {
	if returnURL == "" {
		return self + "/", nil
	}

	// Local paths only, "//host" and "/\host" are protocol-relative in browsers.
	if strings.HasPrefix(returnURL, "/") {
		if strings.HasPrefix(returnURL, "//") || strings.HasPrefix(returnURL, "/\\") {
			return "", domain.ErrReturnURLNotAllowed
		}
		return self + returnURL, nil
	}

	origin, err := originOf(returnURL)
	if err != nil {
		return "", domain.ErrReturnURLNotAllowed
	}
	if !strings.EqualFold(origin, self) && !a.Allowed(origin) {
		return "", domain.ErrReturnURLNotAllowed
	}
	return returnURL, nil
}

// Allowed reports whether origin is on the list.
func (a *Allowlist) Allowed(origin string) bool {
	if a == nil {
		return false
	}
	_, ok := a.origins[strings.ToLower(origin)]
	return ok
}

func originOf(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host")
	}
	return strings.ToLower(u.Scheme + "://" + u.Host), nil
}
