package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment overrides.
const (
	EnvConfig   = "SKILLDRILL_CONFIG"
	EnvDB       = "SKILLDRILL_DB"
	EnvLogLevel = "SKILLDRILL_LOG_LEVEL"
)

// LoadEnv loads .env from the working directory when present. Variables
// already set in the environment win. A missing file is not an error.
func LoadEnv() error {
	if err := godotenv.Load(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}

// ConfigPath returns the settings file path, honoring SKILLDRILL_CONFIG.
func ConfigPath() string {
	return getEnv(EnvConfig, DefaultConfigPath())
}

// DBPath returns the database path, honoring SKILLDRILL_DB.
func DBPath() string {
	return getEnv(EnvDB, DefaultDBPath())
}

// LogLevel returns the configured log level name.
func LogLevel() string {
	return strings.ToLower(getEnv(EnvLogLevel, "info"))
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
