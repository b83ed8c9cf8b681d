// Package config loads the process-wide configuration from environment
// variables. The resulting Config is constructed once in main, validated,
// and passed by reference to every component that needs it — it is never
// mutated after startup.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all externally supplied configuration.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/auth.db"`
	AppURL string `env:"APP_URL" envDefault:"http://localhost:8080"`

	// JWT signing. Rotating the secret invalidates all outstanding tokens;
	// there is no revocation list.
	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"24h"`

	// Google OAuth. May be left unset — the OAuth endpoints then fail with
	// a configuration error instead of proceeding with empty credentials.
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `env:"GOOGLE_REDIRECT_URI"`

	// Outbound mail (SMTP).
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"`

	// Password reset token lifetime, in hours.
	ResetPasswordExpiryHours int `env:"RESET_PASSWORD_EXPIRY" envDefault:"1"`
}

// Load reads a .env file if present, then parses the environment into a
// Config and validates the fields the server cannot run without.
func Load() (*Config, error) {
	// The .env file is optional; a missing file is not an error.
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("config: missing JWT_SECRET environment variable")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("config: JWT_SECRET must be at least 16 characters")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("config: JWT_TTL must be positive")
	}
	if c.ResetPasswordExpiryHours <= 0 {
		return fmt.Errorf("config: RESET_PASSWORD_EXPIRY must be positive")
	}
	return nil
}

// GoogleConfigured reports whether the OAuth credentials needed for the
// authorization-code flow are all present.
func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURI != ""
}

// ResetTokenTTL returns the reset token lifetime as a duration.
func (c *Config) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetPasswordExpiryHours) * time.Hour
}
