// Package config loads and validates server configuration from the
// environment, with an optional .env file for local development.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service.
type Config struct {
	DatabaseURL  string `mapstructure:"database_url" validate:"required"`
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`

	Port      int    `mapstructure:"port" validate:"min=1,max=65535"`
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=16"`

	LogLevel  string `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"oneof=json console"`

	// Background runner sizing.
	Workers    int           `mapstructure:"workers" validate:"min=1"`
	QueueSize  int           `mapstructure:"queue_size" validate:"min=1"`
	JobTimeout time.Duration `mapstructure:"job_timeout" validate:"min=1s"`

	// Fall back to a headless browser for URL inputs that render
	// client-side. Requires Chrome on the host.
	UseBrowser bool `mapstructure:"use_browser"`

	// Requests per minute allowed per client IP.
	RateLimit int `mapstructure:"rate_limit" validate:"min=1"`

	CORSOrigin string `mapstructure:"cors_origin"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("workers", 4)
	v.SetDefault("queue_size", 64)
	v.SetDefault("job_timeout", 5*time.Minute)
	v.SetDefault("use_browser", false)
	v.SetDefault("rate_limit", 60)
	v.SetDefault("cors_origin", "*")

	// AutomaticEnv alone does not surface env-only keys to Unmarshal;
	// binding each key explicitly does.
	for _, key := range []string{
		"database_url", "gemini_api_key", "port", "jwt_secret",
		"log_level", "log_format", "workers", "queue_size",
		"job_timeout", "use_browser", "rate_limit", "cors_origin",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
