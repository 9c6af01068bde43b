package flow

import (
	"context"
	"net/http"

	"github.com/BlackMission/fccauth/internal/domain"
)

// AuthenticatedContext describes a successful provider sign-in before it is
// handed to the host. Hooks may add claims to Identity, replace Properties,
// or set Identity to nil to reject the sign-in.
type AuthenticatedContext struct {
	Request    *http.Request
	Token      *domain.TokenResult
	Profile    domain.UserProfile
	RawProfile []byte
	Identity   *domain.Identity
	Properties *domain.Properties
}

// AccessToken returns the provider access token.
func (c *AuthenticatedContext) AccessToken() string {
	return c.Token.AccessToken()
}

// ReturnEndpointContext is passed to the ReturnEndpoint hook right before the
// identity is signed in and the browser redirected.
type ReturnEndpointContext struct {
	Request                    *http.Request
	Response                   http.ResponseWriter
	Result                     *domain.AuthResult
	Identity                   *domain.Identity
	Properties                 *domain.Properties
	SignInAsAuthenticationType string
	RedirectURI                string

	completed bool
}

// RequestCompleted tells the handler the hook already wrote the response.
func (c *ReturnEndpointContext) RequestCompleted() {
	c.completed = true
}

// IsRequestCompleted reports whether RequestCompleted was called.
func (c *ReturnEndpointContext) IsRequestCompleted() bool {
	return c.completed
}

// ApplyRedirectContext carries the provider authorize URL built by a challenge.
type ApplyRedirectContext struct {
	Request     *http.Request
	Response    http.ResponseWriter
	Properties  *domain.Properties
	RedirectURI string
}

// Hooks are the integrator's extension points.
type Hooks interface {
	Authenticated(ctx context.Context, c *AuthenticatedContext) error
	ReturnEndpoint(ctx context.Context, c *ReturnEndpointContext) error
	ApplyRedirect(c *ApplyRedirectContext)
}

// ProviderHooks implements Hooks with overridable functions. Nil functions
// fall back to the default behaviour.
type ProviderHooks struct {
	OnAuthenticated  func(ctx context.Context, c *AuthenticatedContext) error
	OnReturnEndpoint func(ctx context.Context, c *ReturnEndpointContext) error
	OnApplyRedirect  func(c *ApplyRedirectContext)
}

var _ Hooks = (*ProviderHooks)(nil)

func (h *ProviderHooks) Authenticated(ctx context.Context, c *AuthenticatedContext) error {
	if h == nil || h.OnAuthenticated == nil {
		return nil
	}
	return h.OnAuthenticated(ctx, c)
}

func (h *ProviderHooks) ReturnEndpoint(ctx context.Context, c *ReturnEndpointContext) error {
	if h == nil || h.OnReturnEndpoint == nil {
		return nil
	}
	return h.OnReturnEndpoint(ctx, c)
}

// ApplyRedirect sends a 302 to the authorize URL unless overridden.
func (h *ProviderHooks) ApplyRedirect(c *ApplyRedirectContext) {
	if h == nil || h.OnApplyRedirect == nil {
		http.Redirect(c.Response, c.Request, c.RedirectURI, http.StatusFound)
		return
	}
	h.OnApplyRedirect(c)
}
