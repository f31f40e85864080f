package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Signer   SignerConfig
	Auth     AuthConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `env:"SERVER_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"SERVER_PORT" envDefault:"8080"`
}

// DatabaseConfig holds database configuration.
type DatabaseConfig struct {
	Driver string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DSN    string `env:"DB_DSN" envDefault:"data/natsmesh.db"`
}

// SignerConfig holds credential signer configuration.
type SignerConfig struct {
	NSCPath     string        `env:"NSC_PATH" envDefault:"nsc"`
	StoreDir    string        `env:"NSC_STORE_DIR" envDefault:"data/nsc"`
	Fake        bool          `env:"SIGNER_FAKE" envDefault:"false"` // In-memory signer (disables the nsc binary)
	CallTimeout time.Duration `env:"SIGNER_CALL_TIMEOUT" envDefault:"30s"`
	MaxRetries  uint64        `env:"SIGNER_MAX_RETRIES" envDefault:"3"`
}

// AuthConfig holds API authentication configuration.
type AuthConfig struct {
	BootstrapAPIKey string `env:"BOOTSTRAP_API_KEY"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(&cfg.Server); err != nil {
		return nil, fmt.Errorf("parsing server config: %w", err)
	}
	if err := env.Parse(&cfg.Database); err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	if err := env.Parse(&cfg.Signer); err != nil {
		return nil, fmt.Errorf("parsing signer config: %w", err)
	}
	if err := env.Parse(&cfg.Auth); err != nil {
		return nil, fmt.Errorf("parsing auth config: %w", err)
	}

	return cfg, nil
}

// Addr returns the server address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.Driver != "sqlite3" && c.Database.Driver != "postgres" {
		return fmt.Errorf("DB_DRIVER must be sqlite3 or postgres, got %q", c.Database.Driver)
	}
	if !c.Signer.Fake && c.Signer.StoreDir == "" {
		return fmt.Errorf("NSC_STORE_DIR is required (or set SIGNER_FAKE=true)")
	}
	return nil
}
