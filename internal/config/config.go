package config

import (
	"fmt"
	"net/url"
	"strings"

	pkgconfig "github.com/impexo/storefront/pkg/config"
	apperrors "github.com/impexo/storefront/pkg/errors"
)

// Config holds all configuration for the relay.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"RELAY_HTTP_PORT" envDefault:"8080"`

	// Commerce platform. The consumer key pair stays server-side; nothing
	// below this line is ever sent to a browser.
	WPBaseURL      string `env:"WP_BASE_URL"`
	ConsumerKey    string `env:"WC_CONSUMER_KEY"`
	ConsumerSecret string `env:"WC_CONSUMER_SECRET"`

	// CORS allowlist for the storefront origins.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:5173" envSeparator:","`

	// Redis backs the ledger slot. Empty address switches to the in-memory
	// store, for local development without a Redis.
	RedisAddr string `env:"REDIS_ADDR" envDefault:""`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	// Ledger slot TTL in hours. Zero keeps it forever.
	LedgerTTL int `env:"LEDGER_TTL_HOURS" envDefault:"168"`

	// Per-IP rate limiting, shielding the rate-limited platform behind us.
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Cache-Control max-age on catalog reads, seconds.
	CatalogCacheSeconds int `env:"CATALOG_CACHE_SECONDS" envDefault:"300"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load relay config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants. A relay without platform
// credentials can only produce diagnostics, so missing ones are fatal.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}

	if c.WPBaseURL == "" {
		return apperrors.Configuration("WP_BASE_URL")
	}
	u, err := url.Parse(c.WPBaseURL)
	if err != nil || !strings.HasPrefix(u.Scheme, "http") || u.Host == "" {
		return apperrors.Wrap(apperrors.ErrConfiguration,
			fmt.Sprintf("WP_BASE_URL %q is not an absolute http(s) URL", c.WPBaseURL))
	}

	if c.ConsumerKey == "" {
		return apperrors.Configuration("WC_CONSUMER_KEY")
	}
	if c.ConsumerSecret == "" {
		return apperrors.Configuration("WC_CONSUMER_SECRET")
	}

	return nil
}
