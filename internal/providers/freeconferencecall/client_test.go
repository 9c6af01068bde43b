package freeconferencecall

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BlackMission/fccauth/internal/domain"
)

func setupTestClient(t *testing.T, tokenHandler, profileHandler http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	if tokenHandler != nil {
		mux.HandleFunc("/api/v4/token", tokenHandler)
	}
	if profileHandler != nil {
		mux.HandleFunc("/api/v4/subscription", profileHandler)
	}
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return NewClient(server.Client(), Endpoints{
		TokenURL:   server.URL + "/api/v4/token",
		ProfileURL: server.URL + "/api/v4/subscription",
	})
}

func TestExchangeCode_Request(t *testing.T) {
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		want := "Basic " + base64.StdEncoding.EncodeToString([]byte("client-id:client-secret"))
		assert.Equal(t, want, r.Header.Get("Authorization"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "auth-code", r.PostForm.Get("code"))
		assert.Equal(t, "https://app.example.com/signin-freeconferencecall", r.PostForm.Get("redirect_uri"))
		assert.Empty(t, r.PostForm.Get("client_secret"), "secret must only travel in the Authorization header")

		w.Write([]byte(`{"access_token":"at","expires_in":3600,"refresh_token":"rt"}`))
	}, nil)

	tok, err := c.ExchangeCode(context.Background(), "auth-code",
		"https://app.example.com/signin-freeconferencecall", "client-id", "client-secret")
	require.NoError(t, err)

	assert.Equal(t, "at", tok.AccessToken())
	assert.Equal(t, "rt", tok.RefreshToken())
	exp, ok := tok.ExpiresIn()
	require.True(t, ok)
	assert.Equal(t, time.Hour, exp)
}

func TestExchangeCode_ExpiresIn(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    time.Duration
		present bool
	}{
		{"number", `{"access_token":"at","expires_in":60}`, time.Minute, true},
		{"numeric string", `{"access_token":"at","expires_in":"120"}`, 2 * time.Minute, true},
		{"padded string", `{"access_token":"at","expires_in":" 30 "}`, 30 * time.Second, true},
		{"omitted", `{"access_token":"at"}`, 0, false},
		{"null", `{"access_token":"at","expires_in":null}`, 0, false},
		{"garbage string", `{"access_token":"at","expires_in":"soon"}`, 0, false},
		{"fraction", `{"access_token":"at","expires_in":1.5}`, 0, false},
		{"negative", `{"access_token":"at","expires_in":-5}`, 0, false},
		{"overflow", `{"access_token":"at","expires_in":99999999999}`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}, nil)

			tok, err := c.ExchangeCode(context.Background(), "code", "https://x", "id", "secret")
			require.NoError(t, err, "an unusable expiry must not fail the exchange")

			got, ok := tok.ExpiresIn()
			assert.Equal(t, tt.present, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExchangeCode_ProviderError(t *testing.T) {
	c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"access_token":"should-not-be-read","error":"invalid_grant"}`))
	}, nil)

	tok, err := c.ExchangeCode(context.Background(), "bad-code", "https://x", "id", "secret")
	assert.Nil(t, tok)
	assert.ErrorIs(t, err, domain.ErrProviderResponse)
}

func TestExchangeCode_Malformed(t *testing.T) {
	bodies := map[string]string{
		"not json":      `not json`,
		"array":         `[1,2,3]`,
		"missing token": `{"token_type":"bearer"}`,
		"empty token":   `{"access_token":""}`,
		"numeric token": `{"access_token":42}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := setupTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}, nil)

			_, err := c.ExchangeCode(context.Background(), "code", "https://x", "id", "secret")
			assert.ErrorIs(t, err, domain.ErrMalformedResponse)
		})
	}
}

func TestExchangeCode_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClient(nil, Endpoints{TokenURL: url + "/token"})
	_, err := c.ExchangeCode(context.Background(), "code", "https://x", "id", "secret")
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func TestFetchProfile_Success(t *testing.T) {
	c := setupTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "at", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"subscription":{"user_id":"42"}}`))
	})

	raw, err := c.FetchProfile(context.Background(), "at")
	require.NoError(t, err)
	assert.JSONEq(t, `{"subscription":{"user_id":"42"}}`, string(raw))
}

func TestFetchProfile_KeepsExistingQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v", r.URL.Query().Get("k"))
		assert.Equal(t, "at", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.Client(), Endpoints{ProfileURL: server.URL + "/profile?k=v"})
	_, err := c.FetchProfile(context.Background(), "at")
	require.NoError(t, err)
}

func TestFetchProfile_NonSuccessIsNil(t *testing.T) {
	c := setupTestClient(t, nil, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"insufficient_scope"}`))
	})

	raw, err := c.FetchProfile(context.Background(), "at")
	assert.NoError(t, err)
	assert.Nil(t, raw)
}

func TestFetchProfile_TransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	c := NewClient(nil, Endpoints{ProfileURL: url + "/subscription"})
	raw, err := c.FetchProfile(context.Background(), "at")
	assert.Nil(t, raw)
	assert.ErrorIs(t, err, domain.ErrProfileFetch)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(nil, Endpoints{})
	assert.Equal(t, http.DefaultClient, c.httpClient)
	assert.Equal(t, DefaultTokenURL, c.tokenURL)
	assert.Equal(t, DefaultProfileURL, c.profileURL)
}
