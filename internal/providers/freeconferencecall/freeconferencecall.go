// Package freeconferencecall signs users in with a FreeConferenceCall account.
package freeconferencecall

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BlackMission/fccauth/internal/flow"
	"github.com/BlackMission/fccauth/internal/state"
)

const (
	AuthenticationType  = "FreeConferenceCall"
	DefaultCallbackPath = "/signin-freeconferencecall"
)

// Options configures the FreeConferenceCall sign-in scheme.
type Options struct {
	ClientID     string
	ClientSecret string
	CallbackPath string
	PathBase     string
	PublicOrigin string
	Scope        []string
	Endpoints    Endpoints
	StateCodec   state.Codec

	SignInAsAuthenticationType string
	SignIn                     flow.SignInFunc
	Hooks                      flow.Hooks
	CorrelationTTL             time.Duration
}

var _ flow.Provider = (*Client)(nil)

// NewHandler builds the sign-in handler with FreeConferenceCall defaults.
func NewHandler(opts Options, httpClient *http.Client, logger logrus.FieldLogger) (*flow.Handler, error) {
	if opts.CallbackPath == "" {
		opts.CallbackPath = DefaultCallbackPath
	}
	endpoints := opts.Endpoints.withDefaults()

	return flow.New(flow.Options{
		AuthenticationType:         AuthenticationType,
		ClientID:                   opts.ClientID,
		ClientSecret:               opts.ClientSecret,
		CallbackPath:               opts.CallbackPath,
		PathBase:                   opts.PathBase,
		PublicOrigin:               opts.PublicOrigin,
		Scope:                      opts.Scope,
		AuthorizeURL:               endpoints.AuthorizeURL,
		StateCodec:                 opts.StateCodec,
		SignInAsAuthenticationType: opts.SignInAsAuthenticationType,
		SignIn:                     opts.SignIn,
		Hooks:                      opts.Hooks,
		CorrelationTTL:             opts.CorrelationTTL,
	}, NewClient(httpClient, endpoints), logger)
}
