// Package session keeps the signed-in identity in an encrypted cookie.
package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/BlackMission/fccauth/internal/domain"
)

const (
	// AuthenticationType is the scheme identities are re-typed to before they
	// are stored in the session cookie.
	AuthenticationType = "Cookies"

	CookieName    = "__Host-fcc-session"
	DefaultExpiry = 8 * time.Hour
)

// Ticket is the payload sealed into the session cookie.
type Ticket struct {
	AuthenticationType string            `json:"auth_type"`
	Claims             []domain.Claim    `json:"claims"`
	Properties         map[string]string `json:"props,omitempty"`
	ExpiresAt          time.Time         `json:"expires_at"`
}

// Identity rebuilds the identity stored in the ticket.
func (t *Ticket) Identity() *domain.Identity {
	id := domain.NewIdentity(t.AuthenticationType)
	id.Claims = append(id.Claims, t.Claims...)
	return id
}

// Codec seals tickets with AES-256-GCM.
type Codec struct {
	aead   cipher.AEAD
	expiry time.Duration
	now    func() time.Time
}

// NewCodec creates a session codec with the given 32-byte AES key.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: session key must be 32 bytes, got %d", domain.ErrInvalidConfig, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &Codec{
		aead:   aead,
		expiry: DefaultExpiry,
		now:    time.Now,
	}, nil
}

// SetExpiry overrides how long a session lives. Non-positive values are ignored.
func (c *Codec) SetExpiry(d time.Duration) {
	if d > 0 {
		c.expiry = d
	}
}

// SetNow overrides the time function (for testing).
func (c *Codec) SetNow(fn func() time.Time) {
	c.now = fn
}

// Seal encrypts the identity and properties into a cookie value.
func (c *Codec) Seal(identity *domain.Identity, props *domain.Properties) (string, *Ticket, error) {
	if identity == nil {
		return "", nil, fmt.Errorf("%w: no identity to seal", domain.ErrInvalidSession)
	}
	ticket := &Ticket{
		AuthenticationType: identity.AuthenticationType,
		Claims:             identity.Claims,
		ExpiresAt:          c.now().Add(c.expiry).UTC(),
	}
	if props != nil && len(props.Items) > 0 {
		ticket.Properties = props.Clone().Items
	}

	plaintext, err := json.Marshal(ticket)
	if err != nil {
		return "", nil, fmt.Errorf("marshaling session ticket: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", nil, fmt.Errorf("generating nonce: %w", err)
	}

	// nonce || ciphertext+tag
	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), ticket, nil
}

// Open decrypts a cookie value back into a ticket.
func (c *Codec) Open(value string) (*Ticket, error) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil || len(raw) < c.aead.NonceSize() {
		return nil, domain.ErrInvalidSession
	}

	nonce := raw[:c.aead.NonceSize()]
	plaintext, err := c.aead.Open(nil, nonce, raw[c.aead.NonceSize():], nil)
	if err != nil {
		return nil, domain.ErrInvalidSession
	}

	var ticket Ticket
	if err := json.Unmarshal(plaintext, &ticket); err != nil {
		return nil, domain.ErrInvalidSession
	}
	if c.now().After(ticket.ExpiresAt) {
		return nil, domain.ErrExpiredSession
	}
	return &ticket, nil
}

// SetCookie seals the identity and writes the session cookie.
func (c *Codec) SetCookie(w http.ResponseWriter, identity *domain.Identity, props *domain.Properties) error {
	value, ticket, err := c.Seal(identity, props)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		Expires:  ticket.ExpiresAt,
		MaxAge:   int(c.expiry.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// SignIn stores the identity in the session cookie. It has the shape the
// sign-in flow expects for its SignIn callback.
func (c *Codec) SignIn(w http.ResponseWriter, r *http.Request, identity *domain.Identity, props *domain.Properties) error {
	return c.SetCookie(w, identity, props)
}

// ClearCookie expires the session cookie.
func (c *Codec) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})
}

// FromRequest opens the session cookie carried by r.
func (c *Codec) FromRequest(r *http.Request) (*Ticket, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, domain.ErrInvalidSession
	}
	return c.Open(cookie.Value)
}
