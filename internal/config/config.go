// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Server Server `yaml:"server" ignored:"true"`

	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL" validate:"oneof=DEBUG INFO WARN ERROR"`

	// Secrets only ever come from the environment.
	Secrets Secrets `yaml:"-" ignored:"true"`
}

type Server struct {
	Addr           string   `yaml:"addr" envconfig:"LISTEN_ADDR" validate:"required"`
	ServiceName    string   `yaml:"service_name" envconfig:"SERVICE_NAME" validate:"required"`
	AllowedOrigins []string `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
}

// Secrets are the three external values the service depends on. Any of them may be
// empty; callers decide how to degrade.
type Secrets struct {
	DatabaseURL string `envconfig:"DATABASE_URL"`
	DatabaseKey string `envconfig:"DATABASE_KEY"`
	AccessKey   string `envconfig:"API_ACCESS_KEY"`
}

// DatabaseConfigured reports whether both database values are present.
func (s Secrets) DatabaseConfigured() bool {
	return s.DatabaseURL != "" && s.DatabaseKey != ""
}

func defaults() *Config {
	return &Config{
		Server: Server{
			Addr:        ":8080",
			ServiceName: "chat-relay",
		},
		LogLevel: "INFO",
	}
}

// LoadConfig reads the optional YAML file at path, overlays environment variables and
// validates the non-secret settings. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// Server and Secrets are ignored here so their keys stay unprefixed.
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}
	if err := envconfig.Process("", &cfg.Server); err != nil {
		return nil, fmt.Errorf("failed to read server env: %w", err)
	}
	if err := envconfig.Process("", &cfg.Secrets); err != nil {
		return nil, fmt.Errorf("failed to read secrets env: %w", err)
	}
	cfg.LogLevel = strings.ToUpper(strings.TrimSpace(cfg.LogLevel))

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
