package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fdecunta/screenie/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Debug bool `envconfig:"DEBUG" default:"false"`

	// Required, either from the environment or passed to LoadWith
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Defaults to <user config dir>/screenie/credentials.toml
	CredentialsFile string `envconfig:"CREDENTIALS_FILE"`

	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"screenie-files"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
}

func Load() (*Config, error) {
	return LoadWith("")
}

// LoadWith loads the config, letting a non-empty databaseURL override
// SCREENIE_DATABASE_URL.
func LoadWith(databaseURL string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("SCREENIE", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("%w: SCREENIE_DATABASE_URL (or --database)", domain.ErrMissingRequiredField)
	}

	return &cfg, nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}

func (c *Config) HasSentry() bool {
	return c.SentryDSN != ""
}

// CredentialsPath returns the credentials file location.
func (c *Config) CredentialsPath() (string, error) {
	if c.CredentialsFile != "" {
		return c.CredentialsFile, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, "screenie", "credentials.toml"), nil
}
