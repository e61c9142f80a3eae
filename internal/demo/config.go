// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package demo assembles every library package into a runnable
// demonstration server: an address form collection with a SQLite-backed
// county autocomplete, a file-upload form, and the janitor sweeping stale
// temp uploads.
package demo

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// knownWeakSecrets contains default/example secrets that must be rejected.
var knownWeakSecrets = []string{
	"change-me-to-32-byte-secret-key!",
	"REPLACE_WITH_YOUR_OWN_SECRET_KEY!",
}

// MinSigningSecretLength is the minimum required length for the signing
// secret backing upload references.
const MinSigningSecretLength = 32

// Config holds the demo server configuration loaded from environment
// variables.
type Config struct {
	SigningSecret string `env:"FORMSET_SIGNING_SECRET,required"`
	DBPath        string `env:"FORMSET_DB_PATH" envDefault:"./data/formset.db"`
	ServerHost    string `env:"FORMSET_SERVER_HOST" envDefault:"localhost"`
	ServerPort    int    `env:"FORMSET_SERVER_PORT" envDefault:"8080"`
	Env           string `env:"FORMSET_ENV" envDefault:"development"`
	LogLevel      string `env:"FORMSET_LOG_LEVEL" envDefault:"info"`
	MediaDir      string `env:"FORMSET_MEDIA_DIR" envDefault:"./media"`
	MediaURL      string `env:"FORMSET_MEDIA_URL" envDefault:"/media"`

	// TempMaxAgeHours is how long abandoned temp uploads survive before
	// the janitor removes them.
	TempMaxAgeHours int `env:"FORMSET_TEMP_MAX_AGE_HOURS" envDefault:"24"`

	// RateLimitRPS and RateLimitBurst bound per-IP request rates on the
	// public endpoints.
	RateLimitRPS   float64 `env:"FORMSET_RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"FORMSET_RATE_LIMIT_BURST" envDefault:"30"`
}

// IsDevelopment returns true if the server runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ServerAddr returns the listen address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// LoadConfig parses environment variables and validates the signing secret.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SigningSecret) < MinSigningSecretLength {
		return nil, fmt.Errorf("FORMSET_SIGNING_SECRET must be at least %d bytes long, got %d bytes; "+
			"generate a secure secret with: openssl rand -base64 32",
			MinSigningSecretLength, len(cfg.SigningSecret))
	}
	for _, weak := range knownWeakSecrets {
		if cfg.SigningSecret == weak {
			return nil, fmt.Errorf("FORMSET_SIGNING_SECRET is a known default value and must not be used; " +
				"generate a secure secret with: openssl rand -base64 32")
		}
	}
	if !hasMinimumEntropy(cfg.SigningSecret) {
		slog.Warn("FORMSET_SIGNING_SECRET has low character diversity; " +
			"consider generating a random secret with: openssl rand -base64 32")
	}

	return cfg, nil
}

// hasMinimumEntropy checks that a secret contains at least 3 character
// classes (lowercase, uppercase, digits, special characters).
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
