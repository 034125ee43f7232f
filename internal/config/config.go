// Package config loads client configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type Config struct {
	AppName    string `env:"BOOKSHELF_APP_NAME" envDefault:"Bookshelf"`
	BackendURL string `env:"BOOKSHELF_BACKEND" envDefault:"http://localhost:8080/api"`

	RequestTimeout time.Duration `env:"BOOKSHELF_TIMEOUT" envDefault:"10s"`

	// StorePath overrides where credentials are persisted. Empty means
	// the per-user default (see StoreFile).
	StorePath string `env:"BOOKSHELF_STORE"`

	// StorePassphrase, when set, switches the credential store to the
	// encrypted file backend sealed with this passphrase.
	StorePassphrase string `env:"BOOKSHELF_STORE_KEY"`

	LogLevel string `env:"BOOKSHELF_LOG_LEVEL" envDefault:"info"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, errors.Wrap(err, "[config.Load] env.Parse")
	}
	return c, nil
}

// StoreFile resolves the credential store location, defaulting to the
// user's config directory.
func (c Config) StoreFile() (string, error) {
	if c.StorePath != "" {
		return c.StorePath, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "[Config.StoreFile] os.UserConfigDir")
	}
	appDir := filepath.Join(dir, "bookshelf")
	if err := os.MkdirAll(appDir, 0o700); err != nil {
		return "", errors.Wrap(err, "[Config.StoreFile] os.MkdirAll")
	}
	return filepath.Join(appDir, "credentials.db"), nil
}
