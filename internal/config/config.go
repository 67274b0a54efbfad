package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level notevault configuration file (notevault.yaml).
// Every value can also be supplied through NOTEVAULT_* environment
// variables; the file is optional.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	ShutdownTimeout string   `yaml:"shutdown_timeout"`
	CORSOrigins     []string `yaml:"cors_origins"`
	IssueRatePerMin int      `yaml:"issue_rate_per_minute"`
	KeyRatePerMin   int      `yaml:"key_rate_per_minute"`
}

// DatabaseConfig holds the single connection string the service needs.
// Supported schemes: mysql://, postgres://, a SQLite file path, or empty
// for an in-memory database.
type DatabaseConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig controls credential hashing.
type AuthConfig struct {
	// BcryptCost tunes the hashing work factor. Zero means the bcrypt
	// default.
	BcryptCost int `yaml:"bcrypt_cost"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the configuration used when no file and no environment
// overrides are present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3000,
			ShutdownTimeout: "30s",
			CORSOrigins:     []string{"*"},
			IssueRatePerMin: 30,
			KeyRatePerMin:   300,
		},
		Database: DatabaseConfig{URL: ""},
		Auth:     AuthConfig{BcryptCost: 0},
		Logging:  LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML configuration file, applying defaults for any absent
// fields. A missing file is not an error; the defaults are returned.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// Render serializes the configuration as YAML.
func (c Config) Render() ([]byte, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return out, nil
}
