package domain

import (
	"strings"
	"time"
)

// TokenResult is the outcome of a successful authorization code exchange.
type TokenResult struct {
	accessToken  string
	refreshToken string
	expiresIn    time.Duration
	hasExpiry    bool
}

// NewTokenResult builds a token result. A nil expiresIn means the provider
// did not send a usable expiry.
func NewTokenResult(accessToken, refreshToken string, expiresIn *time.Duration) *TokenResult {
	t := &TokenResult{
		accessToken:  accessToken,
		refreshToken: refreshToken,
	}
	if expiresIn != nil {
		t.expiresIn = *expiresIn
		t.hasExpiry = true
	}
	return t
}

func (t *TokenResult) AccessToken() string  { return t.accessToken }
func (t *TokenResult) RefreshToken() string { return t.refreshToken }

// ExpiresIn returns the token lifetime and whether the provider supplied one.
func (t *TokenResult) ExpiresIn() (time.Duration, bool) {
	return t.expiresIn, t.hasExpiry
}

// UserProfile is the normalized provider profile. Empty fields are absent.
type UserProfile struct {
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	GivenName string `json:"given_name,omitempty"`
	Surname   string `json:"surname,omitempty"`
}

// Claim types emitted for a provider identity.
const (
	ClaimNameIdentifier = "sub"
	ClaimName           = "name"
	ClaimEmail          = "email"
	ClaimGivenName      = "given_name"
	ClaimSurname        = "family_name"

	ClaimValueTypeString = "http://www.w3.org/2001/XMLSchema#string"
)

// Claim is a single statement about the authenticated user.
type Claim struct {
	Type      string `json:"type"`
	Value     string `json:"value"`
	ValueType string `json:"value_type,omitempty"`
	Issuer    string `json:"issuer,omitempty"`
}

// Identity is a set of claims issued under one authentication type.
type Identity struct {
	AuthenticationType string  `json:"authentication_type"`
	Claims             []Claim `json:"claims"`
}

// NewIdentity creates an identity without claims.
func NewIdentity(authenticationType string) *Identity {
	return &Identity{AuthenticationType: authenticationType}
}

// AddClaim appends a string claim issued by the identity's authentication type.
func (id *Identity) AddClaim(claimType, value string) {
	id.Claims = append(id.Claims, Claim{
		Type:      claimType,
		Value:     value,
		ValueType: ClaimValueTypeString,
		Issuer:    id.AuthenticationType,
	})
}

// FindFirst returns the first claim of the given type.
func (id *Identity) FindFirst(claimType string) (Claim, bool) {
	if id == nil {
		return Claim{}, false
	}
	for _, c := range id.Claims {
		if c.Type == claimType {
			return c, true
		}
	}
	return Claim{}, false
}

// Name returns the display name claim value, if any.
func (id *Identity) Name() string {
	c, _ := id.FindFirst(ClaimName)
	return c.Value
}

// WithAuthenticationType returns a copy of the identity carrying the same
// claims under a different authentication type. Claim issuers are kept.
func (id *Identity) WithAuthenticationType(authenticationType string) *Identity {
	claims := make([]Claim, len(id.Claims))
	copy(claims, id.Claims)
	return &Identity{AuthenticationType: authenticationType, Claims: claims}
}

// AuthStatus is the terminal state of a callback.
type AuthStatus int

const (
	StatusFailed AuthStatus = iota
	StatusDenied
	StatusSucceeded
)

func (s AuthStatus) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusDenied:
		return "denied"
	default:
		return "failed"
	}
}

// AuthResult is the terminal value of callback processing.
//
// Identity is set only when Status is StatusSucceeded. Properties is nil only
// when the state could not be decoded, in which case no redirect target is known.
type AuthResult struct {
	Status     AuthStatus
	Identity   *Identity
	Properties *Properties
	Token      *TokenResult
	Err        error
}

// Recoverable reports whether the result carries properties to redirect with.
func (r *AuthResult) Recoverable() bool {
	return r != nil && r.Properties != nil
}

// NewProfileIdentity builds the claims for a provider profile. A claim is
// emitted only for fields that are present.
func NewProfileIdentity(authenticationType string, p UserProfile) *Identity {
	id := NewIdentity(authenticationType)
	if p.UserID != "" {
		id.AddClaim(ClaimNameIdentifier, p.UserID)
	}
	if p.GivenName != "" || p.Surname != "" {
		id.AddClaim(ClaimName, strings.TrimSpace(p.GivenName+" "+p.Surname))
	}
	if p.Email != "" {
		id.AddClaim(ClaimEmail, p.Email)
	}
	if p.GivenName != "" {
		id.AddClaim(ClaimGivenName, p.GivenName)
	}
	if p.Surname != "" {
		id.AddClaim(ClaimSurname, p.Surname)
	}
	return id
}
