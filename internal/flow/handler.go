// Package flow drives the OAuth2 authorization code round trip for a single
// sign-in scheme: it issues the challenge redirect and turns the provider
// callback into an AuthResult the host can sign in.
package flow

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/BlackMission/fccauth/internal/correlation"
	"github.com/BlackMission/fccauth/internal/domain"
	"github.com/BlackMission/fccauth/internal/state"
)

// Provider is the provider-specific half of the flow.
type Provider interface {
	ExchangeCode(ctx context.Context, code, redirectURI, clientID, clientSecret string) (*domain.TokenResult, error)
	// FetchProfile returns nil without error when the provider refuses the
	// profile request.
	FetchProfile(ctx context.Context, accessToken string) ([]byte, error)
	MapProfile(raw []byte) domain.UserProfile
}

// SignInFunc establishes the host session for an authenticated identity.
type SignInFunc func(w http.ResponseWriter, r *http.Request, identity *domain.Identity, props *domain.Properties) error

// Options configures a Handler.
type Options struct {
	AuthenticationType string
	ClientID           string
	ClientSecret       string
	// CallbackPath is the path, as seen by the handler, the provider redirects back to.
	CallbackPath string
	// PathBase is prepended to paths when building absolute URLs, for hosts
	// that mount the handler under a stripped prefix.
	PathBase string
	// PublicOrigin is the scheme and host the user agent reaches the service
	// on. When empty the origin is taken from the request.
	PublicOrigin string
	Scope        []string
	AuthorizeURL string
	StateCodec   state.Codec

	// SignInAsAuthenticationType, when set together with SignIn, re-types the
	// identity and hands it to SignIn before redirecting.
	SignInAsAuthenticationType string
	SignIn                     SignInFunc

	Hooks          Hooks
	CorrelationTTL time.Duration
}

// Handler runs challenges and callbacks for one scheme. It holds no
// per-request state and is safe for concurrent use.
type Handler struct {
	opts     Options
	provider Provider
	guard    *correlation.Guard
	oauth    *oauth2.Config
	logger   logrus.FieldLogger
}

// New validates opts and builds a Handler.
func New(opts Options, provider Provider, logger logrus.FieldLogger) (*Handler, error) {
	switch {
	case opts.AuthenticationType == "":
		return nil, fmt.Errorf("%w: authentication type", domain.ErrMissingConfig)
	case opts.ClientID == "":
		return nil, fmt.Errorf("%w: client id", domain.ErrMissingConfig)
	case opts.ClientSecret == "":
		return nil, fmt.Errorf("%w: client secret", domain.ErrMissingConfig)
	case opts.AuthorizeURL == "":
		return nil, fmt.Errorf("%w: authorize URL", domain.ErrMissingConfig)
	case opts.StateCodec == nil:
		return nil, fmt.Errorf("%w: state codec", domain.ErrMissingConfig)
	case provider == nil:
		return nil, fmt.Errorf("%w: provider", domain.ErrMissingConfig)
	case !strings.HasPrefix(opts.CallbackPath, "/"):
		return nil, fmt.Errorf("%w: callback path %q must start with /", domain.ErrInvalidConfig, opts.CallbackPath)
	case opts.SignInAsAuthenticationType != "" && opts.SignIn == nil:
		return nil, fmt.Errorf("%w: sign-in function required when signing in as %q", domain.ErrMissingConfig, opts.SignInAsAuthenticationType)
	}
	if opts.PublicOrigin != "" {
		origin, err := parseOrigin(opts.PublicOrigin)
		if err != nil {
			return nil, err
		}
		opts.PublicOrigin = origin
	}
	if opts.Hooks == nil {
		opts.Hooks = &ProviderHooks{}
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}
	logger = logger.WithField("scheme", opts.AuthenticationType)

	guard := correlation.NewGuard(opts.AuthenticationType, opts.CorrelationTTL, logger)
	guard.SetSecure(strings.HasPrefix(opts.PublicOrigin, "https://"))

	return &Handler{
		opts:     opts,
		provider: provider,
		guard:    guard,
		oauth: &oauth2.Config{
			ClientID: opts.ClientID,
			Endpoint: oauth2.Endpoint{AuthURL: opts.AuthorizeURL},
		},
		logger: logger,
	}, nil
}

// Name returns the authentication type the handler signs users in with.
func (h *Handler) Name() string { return h.opts.AuthenticationType }

// CallbackPath returns the path the handler serves callbacks on.
func (h *Handler) CallbackPath() string { return h.opts.CallbackPath }

// Challenge redirects the user agent to the provider's authorize endpoint.
// props may be nil; when non-nil it is modified in place.
func (h *Handler) Challenge(w http.ResponseWriter, r *http.Request, props *domain.Properties) error {
	if props == nil {
		props = domain.NewProperties()
	}
	if props.RedirectURI() == "" {
		props.SetRedirectURI(h.origin(r) + h.opts.PathBase + r.URL.RequestURI())
	}

	if _, err := h.guard.Generate(w, r, props); err != nil {
		return err
	}

	// An explicit scope travels as a query parameter, never inside the state.
	scope, ok := props.Get(domain.ScopePropertyKey)
	if ok {
		props.Delete(domain.ScopePropertyKey)
	} else {
		scope = strings.Join(h.opts.Scope, " ")
	}

	protected, err := h.opts.StateCodec.Protect(props)
	if err != nil {
		return fmt.Errorf("protecting state: %w", err)
	}

	params := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("redirect_uri", h.callbackURL(r)),
	}
	if scope != "" {
		params = append(params, oauth2.SetAuthURLParam("scope", scope))
	}
	authURL := h.oauth.AuthCodeURL(protected, params...)

	h.opts.Hooks.ApplyRedirect(&ApplyRedirectContext{
		Request:     r,
		Response:    w,
		Properties:  props,
		RedirectURI: authURL,
	})
	return nil
}

// Authenticate processes a provider callback. It never returns nil.
func (h *Handler) Authenticate(w http.ResponseWriter, r *http.Request) (result *domain.AuthResult) {
	var props *domain.Properties
	defer func() {
		if v := recover(); v != nil {
			h.logger.WithField("panic", v).Error("authentication failed")
			result = failed(props, nil, fmt.Errorf("panic during authentication: %v", v))
		}
	}()

	q := r.URL.Query()

	states := q["state"]
	if len(states) != 1 || states[0] == "" {
		return failed(nil, nil, fmt.Errorf("%w: state parameter missing", domain.ErrStateDecode))
	}
	props, err := h.opts.StateCodec.Unprotect(states[0])
	if err != nil || props == nil {
		return failed(nil, nil, fmt.Errorf("%w: %v", domain.ErrStateDecode, err))
	}

	if q.Has("error") {
		props.Delete(domain.CorrelationKey)
		h.guard.Clear(w, r)
		h.logger.WithFields(logrus.Fields{
			"error":             q.Get("error"),
			"error_description": q.Get("error_description"),
		}).Info("provider declined authorization")
		return denied(props, domain.ErrAccessDenied)
	}

	if !h.guard.Validate(w, r, props) {
		h.logger.WithError(domain.ErrCorrelation).Warn("rejecting callback")
		return denied(props, domain.ErrAccessDenied)
	}

	codes := q["code"]
	if len(codes) != 1 || codes[0] == "" {
		h.logger.WithError(domain.ErrMissingCode).Warn("authentication failed")
		return failed(props, nil, domain.ErrMissingCode)
	}

	ctx := r.Context()
	token, err := h.provider.ExchangeCode(ctx, codes[0], h.callbackURL(r), h.opts.ClientID, h.opts.ClientSecret)
	if err != nil {
		h.logger.WithError(err).Error("authentication failed")
		return failed(props, nil, err)
	}

	raw, err := h.provider.FetchProfile(ctx, token.AccessToken())
	if err != nil {
		h.logger.WithError(err).Warn("continuing without user profile")
		raw = nil
	} else if raw == nil {
		h.logger.Warn("provider refused profile request, continuing without user profile")
	}
	profile := h.provider.MapProfile(raw)

	ac := &AuthenticatedContext{
		Request:    r,
		Token:      token,
		Profile:    profile,
		RawProfile: raw,
		Identity:   domain.NewProfileIdentity(h.opts.AuthenticationType, profile),
		Properties: props,
	}
	if err := h.opts.Hooks.Authenticated(ctx, ac); err != nil {
		h.logger.WithError(err).Error("authentication failed")
		return failed(props, token, fmt.Errorf("%w: %v", domain.ErrHookFailed, err))
	}
	if ac.Properties != nil {
		props = ac.Properties
	}
	if ac.Identity == nil {
		h.logger.Info("identity rejected by authenticated hook")
		res := denied(props, fmt.Errorf("%w: %w", domain.ErrAccessDenied, domain.ErrIdentityVetoed))
		res.Token = token
		return res
	}

	return &domain.AuthResult{
		Status:     domain.StatusSucceeded,
		Identity:   ac.Identity,
		Properties: props,
		Token:      token,
	}
}

// ServeHTTP handles the provider callback and finishes the round trip.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != h.opts.CallbackPath {
		http.NotFound(w, r)
		return
	}

	result := h.Authenticate(w, r)
	if !result.Recoverable() {
		h.logger.WithError(result.Err).Warn("invalid return state, unable to redirect")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	rc := &ReturnEndpointContext{
		Request:                    r,
		Response:                   w,
		Result:                     result,
		Identity:                   result.Identity,
		Properties:                 result.Properties,
		SignInAsAuthenticationType: h.opts.SignInAsAuthenticationType,
		RedirectURI:                result.Properties.RedirectURI(),
	}
	if err := h.opts.Hooks.ReturnEndpoint(r.Context(), rc); err != nil {
		h.logger.WithError(err).Error("return endpoint hook failed")
		rc.Identity = nil
	}

	if rc.SignInAsAuthenticationType != "" && rc.Identity != nil {
		identity := rc.Identity
		if identity.AuthenticationType != rc.SignInAsAuthenticationType {
			identity = identity.WithAuthenticationType(rc.SignInAsAuthenticationType)
		}
		if err := h.opts.SignIn(w, r, identity, rc.Properties); err != nil {
			h.logger.WithError(err).Error("sign-in failed")
			rc.Identity = nil
		}
	}
	if rc.IsRequestCompleted() {
		return
	}

	if rc.RedirectURI == "" {
		if rc.Identity == nil {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	target := rc.RedirectURI
	if rc.Identity == nil {
		target = appendQuery(target, "error", "access_denied")
	}
	http.Redirect(w, r, target, http.StatusFound)
	rc.RequestCompleted()
}

func (h *Handler) callbackURL(r *http.Request) string {
	return h.origin(r) + h.opts.PathBase + h.opts.CallbackPath
}

func (h *Handler) origin(r *http.Request) string {
	if h.opts.PublicOrigin != "" {
		return h.opts.PublicOrigin
	}
	return requestOrigin(r)
}

// parseOrigin accepts an absolute http(s) URL without path, query or
// fragment. A trailing slash is dropped.
func parseOrigin(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(raw, "/"))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" ||
		u.Path != "" || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return "", fmt.Errorf("%w: public origin %q must be an absolute http(s) origin", domain.ErrInvalidConfig, raw)
	}
	return u.Scheme + "://" + u.Host, nil
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func appendQuery(uri, key, value string) string {
	pair := url.QueryEscape(key) + "=" + url.QueryEscape(value)
	u, err := url.Parse(uri)
	if err != nil {
		sep := "?"
		if strings.Contains(uri, "?") {
			sep = "&"
		}
		return uri + sep + pair
	}
	if u.RawQuery == "" {
		u.RawQuery = pair
	} else {
		u.RawQuery += "&" + pair
	}
	return u.String()
}

func denied(props *domain.Properties, err error) *domain.AuthResult {
	return &domain.AuthResult{Status: domain.StatusDenied, Properties: props, Err: err}
}

func failed(props *domain.Properties, token *domain.TokenResult, err error) *domain.AuthResult {
	return &domain.AuthResult{Status: domain.StatusFailed, Properties: props, Token: token, Err: err}
}
