// Package config loads the service configuration from defaults, an optional
// YAML file and the environment, in that order of precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/BlackMission/fccauth/internal/domain"
)

// Config is the top-level application configuration.
type Config struct {
	Server             ServerConfig             `yaml:"server"`
	Secrets            SecretsConfig            `yaml:"secrets"`
	Auth               AuthConfig               `yaml:"auth"`
	FreeConferenceCall FreeConferenceCallConfig `yaml:"freeconferencecall"`
	Log                LogConfig                `yaml:"log"`
}

// ServerConfig holds HTTP server settings. BaseURL is the public origin the
// service is reached on; it builds the OAuth redirect_uri.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"HOST"`
	Port            int           `yaml:"port"             env:"PORT"`
	BaseURL         string        `yaml:"base_url"         env:"BASE_URL"`
	ReturnOrigins   []string      `yaml:"return_origins"   env:"ALLOWED_RETURN_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// SecretsConfig holds cryptographic keys.
type SecretsConfig struct {
	StateSigningKey      string `yaml:"state_signing_key"      env:"STATE_SIGNING_KEY"`
	SessionEncryptionKey string `yaml:"session_encryption_key" env:"SESSION_ENCRYPTION_KEY"`
}

// AuthConfig holds lifetimes of the artifacts the sign-in flow issues.
type AuthConfig struct {
	StateTTL       time.Duration `yaml:"state_ttl"       env:"STATE_TTL"`
	CorrelationTTL time.Duration `yaml:"correlation_ttl" env:"CORRELATION_TTL"`
	SessionTTL     time.Duration `yaml:"session_ttl"     env:"SESSION_TTL"`
}

// FreeConferenceCallConfig holds the provider registration.
type FreeConferenceCallConfig struct {
	ClientID     string        `yaml:"client_id"     env:"FCC_CLIENT_ID"`
	ClientSecret string        `yaml:"client_secret" env:"FCC_CLIENT_SECRET"`
	CallbackPath string        `yaml:"callback_path" env:"FCC_CALLBACK_PATH"`
	Scopes       []string      `yaml:"scopes"        env:"FCC_SCOPES" envSeparator:","`
	AuthorizeURL string        `yaml:"authorize_url" env:"FCC_AUTHORIZE_URL"`
	TokenURL     string        `yaml:"token_url"     env:"FCC_TOKEN_URL"`
	ProfileURL   string        `yaml:"profile_url"   env:"FCC_PROFILE_URL"`
	Timeout      time.Duration `yaml:"timeout"       env:"FCC_HTTP_TIMEOUT"`
}

// LogConfig holds logger settings. An empty File logs to stderr.
type LogConfig struct {
	Level      string `yaml:"level"        env:"LOG_LEVEL"`
	Format     string `yaml:"format"       env:"LOG_FORMAT"`
	File       string `yaml:"file"         env:"LOG_FILE"`
	MaxSizeMB  int    `yaml:"max_size_mb"  env:"LOG_MAX_SIZE_MB"`
	MaxBackups int    `yaml:"max_backups"  env:"LOG_MAX_BACKUPS"`
	MaxAgeDays int    `yaml:"max_age_days" env:"LOG_MAX_AGE_DAYS"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Auth: AuthConfig{
			StateTTL:       15 * time.Minute,
			CorrelationTTL: 15 * time.Minute,
			SessionTTL:     8 * time.Hour,
		},
		FreeConferenceCall: FreeConferenceCallConfig{
			CallbackPath: "/signin-freeconferencecall",
			Timeout:      10 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load builds the configuration. path names an optional YAML file; when it
// is empty only defaults and the environment are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", domain.ErrInvalidConfig, path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%w: parse env: %v", domain.ErrInvalidConfig, err)
	}

	cfg.Server.BaseURL = strings.TrimSuffix(cfg.Server.BaseURL, "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SessionKey decodes SessionEncryptionKey. It accepts 32 raw bytes or the
// standard base64 encoding of 32 bytes.
func (c *Config) SessionKey() ([]byte, error) {
	raw := c.Secrets.SessionEncryptionKey
	if len(raw) == 32 {
		return []byte(raw), nil
	}
	if key, err := base64.StdEncoding.DecodeString(raw); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, fmt.Errorf("%w: SESSION_ENCRYPTION_KEY must be 32 bytes or base64 of 32 bytes", domain.ErrInvalidConfig)
}

func (c *Config) validate() error {
	var errs []error
	if c.Secrets.StateSigningKey == "" {
		errs = append(errs, fmt.Errorf("%w: STATE_SIGNING_KEY is required", domain.ErrMissingConfig))
	}
	if c.Secrets.SessionEncryptionKey == "" {
		errs = append(errs, fmt.Errorf("%w: SESSION_ENCRYPTION_KEY is required", domain.ErrMissingConfig))
	} else if _, err := c.SessionKey(); err != nil {
		errs = append(errs, err)
	}
	if c.FreeConferenceCall.ClientID == "" {
		errs = append(errs, fmt.Errorf("%w: FCC_CLIENT_ID is required", domain.ErrMissingConfig))
	}
	if c.FreeConferenceCall.ClientSecret == "" {
		errs = append(errs, fmt.Errorf("%w: FCC_CLIENT_SECRET is required", domain.ErrMissingConfig))
	}
	if !strings.HasPrefix(c.FreeConferenceCall.CallbackPath, "/") {
		errs = append(errs, fmt.Errorf("%w: FCC_CALLBACK_PATH must start with /", domain.ErrInvalidConfig))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: PORT %d out of range", domain.ErrInvalidConfig, c.Server.Port))
	}
	if c.Server.BaseURL == "" {
		errs = append(errs, fmt.Errorf("%w: BASE_URL is required", domain.ErrMissingConfig))
	} else if u, err := url.Parse(c.Server.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || u.Path != "" || u.RawQuery != "" {
		errs = append(errs, fmt.Errorf("%w: BASE_URL must be an absolute http(s) origin without a path", domain.ErrInvalidConfig))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("%w: LOG_LEVEL: %v", domain.ErrInvalidConfig, err))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: LOG_FORMAT must be text or json", domain.ErrInvalidConfig))
	}
	return errors.Join(errs...)
}
