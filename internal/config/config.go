// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config contains server configuration parameters. Required keys make
// startup fail fast instead of surfacing at the first request.
type Config struct {
	Addr                     string `env:"ADDR" envDefault:":8080"`
	LogLevel                 string `env:"LOG_LEVEL" envDefault:"info"`
	DatabaseURL              string `env:"DATABASE_URL,required,notEmpty"`
	SecretKey                string `env:"SECRET_KEY,required,notEmpty"`
	Algorithm                string `env:"ALGORITHM" envDefault:"HS256"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	OIDC                     OIDC   `envPrefix:"OIDC_"`
}

// OIDC contains the optional single-sign-on parameters. SSO is enabled
// only when an issuer and client ID are present.
type OIDC struct {
	Issuer       string `env:"ISSUER"`
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

// Enabled reports whether SSO login is configured.
func (o OIDC) Enabled() bool {
	return o.Issuer != "" && o.ClientID != ""
}

// TokenTTL returns the configured token lifetime as a duration.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

// Load reads an optional .env file and parses configuration from
// environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.AccessTokenExpireMinutes <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive, got %d", cfg.AccessTokenExpireMinutes)
	}
	return &cfg, nil
}
