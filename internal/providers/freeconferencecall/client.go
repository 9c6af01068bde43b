package freeconferencecall

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/BlackMission/fccauth/internal/domain"
)

// see https://www.freeconferencecall.com/api/v4/documentation
const (
	DefaultAuthorizeURL = "https://www.freeconferencecall.com/api/v4/authorize"
	DefaultTokenURL     = "https://www.freeconferencecall.com/api/v4/token"
	DefaultProfileURL   = "https://www.freeconferencecall.com/api/v4/subscription"

	maxErrorBody = 512
)

// Endpoints holds the provider URLs. Empty fields take the defaults.
type Endpoints struct {
	AuthorizeURL string
	TokenURL     string
	ProfileURL   string
}

func (e Endpoints) withDefaults() Endpoints {
	if e.AuthorizeURL == "" {
		e.AuthorizeURL = DefaultAuthorizeURL
	}
	if e.TokenURL == "" {
		e.TokenURL = DefaultTokenURL
	}
	if e.ProfileURL == "" {
		e.ProfileURL = DefaultProfileURL
	}
	return e
}

// Client talks to the FreeConferenceCall token and profile endpoints.
type Client struct {
	httpClient *http.Client
	tokenURL   string
	profileURL string
}

// NewClient creates a client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, endpoints Endpoints) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	endpoints = endpoints.withDefaults()
	return &Client{
		httpClient: httpClient,
		tokenURL:   endpoints.TokenURL,
		profileURL: endpoints.ProfileURL,
	}
}

// ExchangeCode trades an authorization code for an access token.
func (c *Client) ExchangeCode(ctx context.Context, code, redirectURI, clientID, clientSecret string) (*domain.TokenResult, error) {
	data := url.Values{
		"grant_type":   {"authorization_code"},
		"code":         {code},
		"redirect_uri": {redirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(clientID, clientSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrProviderResponse, resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrTransport, err)
	}

	return parseTokenResponse(body)
}

func parseTokenResponse(body []byte) (*domain.TokenResult, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: invalid JSON", domain.ErrMalformedResponse)
	}
	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, fmt.Errorf("%w: expected a JSON object", domain.ErrMalformedResponse)
	}

	access := doc.Get("access_token")
	if access.Type != gjson.String || access.Str == "" {
		return nil, fmt.Errorf("%w: missing access_token", domain.ErrMalformedResponse)
	}

	var refresh string
	if r := doc.Get("refresh_token"); r.Type == gjson.String {
		refresh = r.Str
	}

	return domain.NewTokenResult(access.Str, refresh, parseExpiresIn(doc.Get("expires_in"))), nil
}

// parseExpiresIn accepts a whole number of seconds sent either as a JSON
// number or a numeric string. Anything else yields no expiry.
func parseExpiresIn(v gjson.Result) *time.Duration {
	var raw string
	switch v.Type {
	case gjson.Number:
		raw = v.Raw
	case gjson.String:
		raw = strings.TrimSpace(v.Str)
	default:
		return nil
	}
	secs, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || secs < 0 {
		return nil
	}
	d := time.Duration(secs) * time.Second
	return &d
}

// FetchProfile loads the raw subscription document for the token owner.
// A non-success status yields a nil profile and no error.
func (c *Client) FetchProfile(ctx context.Context, accessToken string) ([]byte, error) {
	u, err := url.Parse(c.profileURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid profile URL: %v", domain.ErrProfileFetch, err)
	}
	q := u.Query()
	q.Set("access_token", accessToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating profile request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProfileFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
		return nil, nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrProfileFetch, err)
	}
	return body, nil
}
