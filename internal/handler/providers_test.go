package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackMission/fccauth/internal/auth"
	"github.com/BlackMission/fccauth/internal/domain"
	"github.com/BlackMission/fccauth/pkg/testutil"
)

type stubProvider struct {
	name        string
	challengeTo string
	err         error
	gotProps    *domain.Properties
}

func (s *stubProvider) Name() string         { return s.name }
func (s *stubProvider) CallbackPath() string { return "/signin-" + s.name }
func (s *stubProvider) Challenge(w http.ResponseWriter, r *http.Request, props *domain.Properties) error {
	s.gotProps = props
	if s.err != nil {
		return s.err
	}
	http.Redirect(w, r, s.challengeTo, http.StatusFound)
	return nil
}
func (s *stubProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {}

func TestProviders(t *testing.T) {
	registry := auth.NewRegistry()
	require.NoError(t, registry.Register(&stubProvider{name: "Zoom"}))
	require.NoError(t, registry.Register(&stubProvider{name: "FreeConferenceCall"}))

	rr := testutil.DoRequest(t, Providers(registry), http.MethodGet, "/providers", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got []providerInfo
	testutil.ParseJSON(t, rr, &got)
	assert.Equal(t, []providerInfo{
		{Name: "FreeConferenceCall", SignInPath: "/signin/freeconferencecall"},
		{Name: "Zoom", SignInPath: "/signin/zoom"},
	}, got)
}

func TestProviders_Empty(t *testing.T) {
	rr := testutil.DoRequest(t, Providers(auth.NewRegistry()), http.MethodGet, "/providers", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var got []providerInfo
	testutil.ParseJSON(t, rr, &got)
	assert.Empty(t, got)
}
