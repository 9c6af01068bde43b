package state

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/BlackMission/fccauth/internal/domain"
)

const defaultExpiry = 15 * time.Minute

// Codec protects a property bag into the opaque OAuth state parameter and back.
type Codec interface {
	Protect(props *domain.Properties) (string, error)
	Unprotect(protected string) (*domain.Properties, error)
}

// envelope is the signed wire form. Expiry lives outside the items so the
// property bag round-trips unchanged.
type envelope struct {
	Items     map[string]string `json:"i"`
	ExpiresAt time.Time         `json:"x"`
}

// Service is a Codec that signs the property bag with HMAC-SHA256.
type Service struct {
	key    []byte
	expiry time.Duration
	now    func() time.Time
}

var _ Codec = (*Service)(nil)

// NewService creates a state codec with the given HMAC signing key.
func NewService(key []byte) *Service {
	return &Service{
		key:    key,
		expiry: defaultExpiry,
		now:    time.Now,
	}
}

// SetExpiry overrides how long a protected state stays valid. Non-positive
// values are ignored.
func (s *Service) SetExpiry(d time.Duration) {
	if d > 0 {
		s.expiry = d
	}
}

// SetNow overrides the time function (for testing).
func (s *Service) SetNow(fn func() time.Time) {
	s.now = fn
}

// Protect serializes and signs the property bag.
func (s *Service) Protect(props *domain.Properties) (string, error) {
	env := envelope{
		Items:     map[string]string{},
		ExpiresAt: s.now().Add(s.expiry),
	}
	if props != nil {
		for k, v := range props.Items {
			env.Items[k] = v
		}
	}

	data, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshaling state: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(data)
	return encoded + "." + s.sign(encoded), nil
}

// Unprotect verifies the signature and expiry and returns the property bag.
func (s *Service) Unprotect(token string) (*domain.Properties, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || encoded == "" {
		return nil, domain.ErrMalformedState
	}

	if !hmac.Equal([]byte(sig), []byte(s.sign(encoded))) {
		return nil, domain.ErrInvalidState
	}

	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, domain.ErrMalformedState
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, domain.ErrMalformedState
	}

	if s.now().After(env.ExpiresAt) {
		return nil, domain.ErrExpiredState
	}

	props := domain.NewProperties()
	for k, v := range env.Items {
		props.Items[k] = v
	}
	return props, nil
}

func (s *Service) sign(data string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
