package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackMission/fccauth/internal/auth"
	"github.com/BlackMission/fccauth/pkg/testutil"
)

func TestHealth(t *testing.T) {
	registry := auth.NewRegistry()
	require.NoError(t, registry.Register(&stubProvider{name: "FreeConferenceCall"}))

	rr := testutil.DoRequest(t, Health(registry), http.MethodGet, "/health", nil)
	testutil.AssertStatus(t, rr, http.StatusOK)

	var body healthResponse
	testutil.ParseJSON(t, rr, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 1, body.Providers)
}
