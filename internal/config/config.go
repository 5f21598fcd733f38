package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultChannelID        = "UCg-dmb3hUcj4f0LH5GE8W0A"
	defaultClientSecretFile = "client_secret.json"
	defaultTokenFile        = "token.json"
	defaultPort             = "5000"
	defaultConsentTimeout   = 5 * time.Minute

	// ReadOnlyScope is the only scope the service ever requests
	ReadOnlyScope = "https://www.googleapis.com/auth/youtube.readonly"
)

var (
	ErrMissingChannelID    = errors.New("channel ID is required")
	ErrMissingClientSecret = errors.New("client secret file is required")
	ErrInvalidCallbackPort = errors.New("callback port must be between 0 and 65535")
)

// Config holds the application configuration.
// It is built once at process start and passed down explicitly.
type Config struct {
	ChannelID        string
	ClientSecretFile string
	TokenFile        string
	TokenPassphrase  string
	Scopes           []string
	CallbackPort     int
	ConsentTimeout   time.Duration
	Port             string
	LogLevel         slog.Level
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		ChannelID:        getString("SHOWCASE_CHANNEL_ID", defaultChannelID),
		ClientSecretFile: getString("SHOWCASE_CLIENT_SECRET_FILE", defaultClientSecretFile),
		TokenFile:        getString("SHOWCASE_TOKEN_FILE", defaultTokenFile),
		TokenPassphrase:  os.Getenv("SHOWCASE_TOKEN_PASSPHRASE"),
		Scopes:           []string{ReadOnlyScope},
		Port:             getString("PORT", defaultPort),
		ConsentTimeout:   defaultConsentTimeout,
		LogLevel:         slog.LevelInfo,
	}

	if v := os.Getenv("SHOWCASE_CALLBACK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SHOWCASE_CALLBACK_PORT %q: %w", v, err)
		}
		cfg.CallbackPort = port
	}

	if v := os.Getenv("SHOWCASE_CONSENT_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SHOWCASE_CONSENT_TIMEOUT %q: %w", v, err)
		}
		cfg.ConsentTimeout = d
	}

	if v := os.Getenv("SHOWCASE_LOG_LEVEL"); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(strings.ToUpper(v))); err != nil {
			return nil, fmt.Errorf("invalid SHOWCASE_LOG_LEVEL %q: %w", v, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ChannelID) == "" {
		return fmt.Errorf("%w: SHOWCASE_CHANNEL_ID environment variable is empty", ErrMissingChannelID)
	}
	if strings.TrimSpace(c.ClientSecretFile) == "" {
		return fmt.Errorf("%w: SHOWCASE_CLIENT_SECRET_FILE environment variable is empty", ErrMissingClientSecret)
	}
	if c.CallbackPort < 0 || c.CallbackPort > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidCallbackPort, c.CallbackPort)
	}
	return nil
}

// Sealed reports whether the credential cache is encrypted at rest
func (c *Config) Sealed() bool {
	return c.TokenPassphrase != ""
}

func getString(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
