// Package config loads passvault configuration from an optional YAML file
// and environment variables. Environment variables win.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Backends for the sealed vault
const (
	BackendBolt   = "bolt"
	BackendSQLite = "sqlite"
	BackendDir    = "dir"
)

// Stores for passphrase verifiers
const (
	SecretsKeyring = "keyring"
	SecretsLocal   = "local"
)

const (
	DefaultPath       = "passvault.db"
	DefaultConfigFile = "passvault.yaml"
	DefaultService    = "passvault"
	DefaultLogLevel   = "warn"
)

// Config holds the passvault configuration
type Config struct {
	Path           string `yaml:"path"`
	Backend        string `yaml:"backend"`
	Secrets        string `yaml:"secrets"`
	KeyringService string `yaml:"keyring_service"`
	LogLevel       string `yaml:"log_level"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Path:           DefaultPath,
		Backend:        BackendBolt,
		Secrets:        SecretsKeyring,
		KeyringService: DefaultService,
		LogLevel:       DefaultLogLevel,
	}
}

// Load reads PASSVAULT_CONFIG (or passvault.yaml when present), then applies
// PASSVAULT_PATH, PASSVAULT_BACKEND, PASSVAULT_SECRETS,
// PASSVAULT_KEYRING_SERVICE and PASSVAULT_LOG_LEVEL.
func Load() (*Config, error) {
	cfg := Default()

	path, explicit := os.LookupEnv("PASSVAULT_CONFIG")
	if !explicit {
		path = DefaultConfigFile
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	for env, field := range map[string]*string{
		"PASSVAULT_PATH":            &c.Path,
		"PASSVAULT_BACKEND":         &c.Backend,
		"PASSVAULT_SECRETS":         &c.Secrets,
		"PASSVAULT_KEYRING_SERVICE": &c.KeyringService,
		"PASSVAULT_LOG_LEVEL":       &c.LogLevel,
	} {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			*field = strings.TrimSpace(v)
		}
	}
}

// Validate checks enumerated values
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendBolt, BackendSQLite, BackendDir:
	default:
		return fmt.Errorf("unknown backend %q (want %s, %s or %s)", c.Backend, BackendBolt, BackendSQLite, BackendDir)
	}
	switch c.Secrets {
	case SecretsKeyring, SecretsLocal:
	default:
		return fmt.Errorf("unknown secrets store %q (want %s or %s)", c.Secrets, SecretsKeyring, SecretsLocal)
	}
	if c.Path == "" {
		return errors.New("vault path must not be empty")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	return nil
}

// Logger builds a stderr logger at the configured level
func (c *Config) Logger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	log.SetLevel(level)
	return log
}
