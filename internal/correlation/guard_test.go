package correlation

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackMission/fccauth/internal/domain"
)

func newTestGuard() *Guard {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewGuard("FreeConferenceCall", 0, logger)
}

func findCookie(t *testing.T, rr *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestGenerate_SetsPropertyAndCookie(t *testing.T) {
	g := newTestGuard()
	props := domain.NewProperties()
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	token, err := g.Generate(rr, req, props)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, ok := props.Get(domain.CorrelationKey)
	require.True(t, ok)
	assert.Equal(t, token, got)

	c := findCookie(t, rr, "__fcc_correlation.FreeConferenceCall")
	require.NotNil(t, c)
	assert.Equal(t, token, c.Value)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure, "plain http request must not get a Secure cookie")
	assert.Equal(t, int(DefaultTTL.Seconds()), c.MaxAge)
}

func TestGenerate_TokensAreUnique(t *testing.T) {
	g := newTestGuard()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	t1, err := g.Generate(httptest.NewRecorder(), req, domain.NewProperties())
	require.NoError(t, err)
	t2, err := g.Generate(httptest.NewRecorder(), req, domain.NewProperties())
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestNewGuard_CustomTTL(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	g := NewGuard("x", 2*time.Minute, logger)
	rr := httptest.NewRecorder()

	_, err := g.Generate(rr, httptest.NewRequest(http.MethodGet, "/", nil), domain.NewProperties())
	require.NoError(t, err)
	assert.Equal(t, 120, findCookie(t, rr, g.CookieName()).MaxAge)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		cookie   string
		property string
		want     bool
	}{
		{"matching", "tok", "tok", true},
		{"mismatch", "tok", "other", false},
		{"missing cookie", "", "tok", false},
		{"missing property", "tok", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGuard()
			req := httptest.NewRequest(http.MethodGet, "/signin-freeconferencecall", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: g.CookieName(), Value: tt.cookie})
			}
			props := domain.NewProperties()
			if tt.property != "" {
				props.Set(domain.CorrelationKey, tt.property)
			}
			rr := httptest.NewRecorder()

			assert.Equal(t, tt.want, g.Validate(rr, req, props))

			_, still := props.Get(domain.CorrelationKey)
			assert.False(t, still, "correlation key must be consumed")
		})
	}
}

func TestValidate_ClearsCookie(t *testing.T) {
	g := newTestGuard()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: g.CookieName(), Value: "tok"})
	props := domain.NewProperties()
	props.Set(domain.CorrelationKey, "tok")
	rr := httptest.NewRecorder()

	require.True(t, g.Validate(rr, req, props))

	c := findCookie(t, rr, g.CookieName())
	require.NotNil(t, c)
	assert.Equal(t, -1, c.MaxAge)
}

func TestSetSecure_BehindTLSProxy(t *testing.T) {
	g := newTestGuard()
	g.SetSecure(true)
	req := httptest.NewRequest(http.MethodGet, "http://10.0.0.5:8080/", nil)

	rr := httptest.NewRecorder()
	_, err := g.Generate(rr, req, domain.NewProperties())
	require.NoError(t, err)
	c := findCookie(t, rr, g.CookieName())
	require.NotNil(t, c)
	assert.True(t, c.Secure)

	rr = httptest.NewRecorder()
	g.Clear(rr, req)
	c = findCookie(t, rr, g.CookieName())
	require.NotNil(t, c)
	assert.True(t, c.Secure)
}

func TestClear_ExpiresCookie(t *testing.T) {
	g := newTestGuard()
	rr := httptest.NewRecorder()

	g.Clear(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	c := findCookie(t, rr, g.CookieName())
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
	assert.Equal(t, "/", c.Path)
}
