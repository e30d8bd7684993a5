// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package config

import (
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected in production.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string `env:"CAMPJAM_DB_PATH" envDefault:"./data/campjam.db"`
	MediaDir      string `env:"CAMPJAM_MEDIA_DIR" envDefault:"./data/media"`
	SessionSecret string `env:"CAMPJAM_SESSION_SECRET,required"`
	ServerHost    string `env:"CAMPJAM_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"CAMPJAM_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"CAMPJAM_ENV" envDefault:"development"`
	LogLevel      string `env:"CAMPJAM_LOG_LEVEL" envDefault:"info"`

	// SiteURL is the public base URL used to build links in outgoing email.
	SiteURL string `env:"CAMPJAM_SITE_URL" envDefault:"http://localhost:8080"`

	// Transactional email (Resend)
	ResendAPIKey string `env:"CAMPJAM_RESEND_API_KEY"`                                                        // Empty disables outgoing mail
	MailFrom     string `env:"CAMPJAM_MAIL_FROM" envDefault:"CampJam Flooring Admin <onboarding@resend.dev>"` // Verified sender
	NotifyEmail  string `env:"CAMPJAM_NOTIFY_EMAIL"`                                                          // Inbox for contact form notifications

	// Cache configuration
	RedisURL    string `env:"CAMPJAM_REDIS_URL"`                          // Optional Redis URL for the review list cache
	CachePrefix string `env:"CAMPJAM_CACHE_PREFIX" envDefault:"campjam:"` // Redis key prefix
	CacheTTL    int    `env:"CAMPJAM_CACHE_TTL" envDefault:"300"`         // Review list TTL in seconds

	// BootstrapAdmin is allow-listed on first start when the allow-list is empty.
	BootstrapAdmin string `env:"CAMPJAM_BOOTSTRAP_ADMIN"`

	// Retention
	EventRetentionDays int `env:"CAMPJAM_EVENT_RETENTION_DAYS" envDefault:"90"`
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// MailEnabled returns true if the transactional email provider is configured.
func (c Config) MailEnabled() bool {
	return c.ResendAPIKey != ""
}

// CacheDuration returns the review list cache TTL.
func (c Config) CacheDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// EventRetention returns how long audit events are kept.
func (c Config) EventRetention() time.Duration {
	return time.Duration(c.EventRetentionDays) * 24 * time.Hour
}

// SlogLevel maps the configured log level to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// MinSessionSecretLength is the minimum required length for the session secret.
const MinSessionSecretLength = 32

// Load parses environment variables and returns a Config struct.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.SessionSecret) < MinSessionSecretLength {
		return fmt.Errorf("CAMPJAM_SESSION_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSessionSecretLength, len(c.SessionSecret))
	}

	for _, weak := range knownWeakSecrets {
		if c.SessionSecret == weak {
			return fmt.Errorf("CAMPJAM_SESSION_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}

	if !hasMinimumEntropy(c.SessionSecret) {
		slog.Warn("CAMPJAM_SESSION_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	if c.BootstrapAdmin != "" {
		if _, err := mail.ParseAddress(c.BootstrapAdmin); err != nil {
			return fmt.Errorf("CAMPJAM_BOOTSTRAP_ADMIN is not a valid email address: %w", err)
		}
	}

	if c.CacheTTL < 0 {
		return fmt.Errorf("CAMPJAM_CACHE_TTL must not be negative")
	}

	return nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character classes
// (lowercase, uppercase, digits, special characters).
func hasMinimumEntropy(s string) bool {
	charTypes := 0
	if strings.ContainsAny(s, "abcdefghijklmnopqrstuvwxyz") {
		charTypes++
	}
	if strings.ContainsAny(s, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		charTypes++
	}
	if strings.ContainsAny(s, "0123456789") {
		charTypes++
	}
	if strings.ContainsAny(s, "!@#$%^&*()-_=+[]{}|;:,.<>?/~`'\"\\") {
		charTypes++
	}
	return charTypes >= 3
}
