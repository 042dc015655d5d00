// Package config loads application configuration from the environment.
//
// CONFIG PHILOSOPHY:
// Everything configurable lives in one struct, parsed once at startup and
// passed down explicitly. No package reads os.Getenv on its own and nothing
// is mutated after Load returns — handlers and services receive the values
// they need through their constructors.
//
// The `env` struct tags (github.com/caarlos0/env) declare the variable
// name, whether it is required, and its default. In development a .env file
// in the working directory is loaded first (github.com/joho/godotenv), so
// `cp .env.example .env` is all a new checkout needs.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the server.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"data/app.db"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// JWT_SECRET has no default on purpose — the server must not start
	// with a guessable signing key.
	JWTSecret       string        `env:"JWT_SECRET,required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"1h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"` // 30 days

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	GitHub GitHubConfig
	OpenAI OpenAIConfig
}

// GitHubConfig configures the outbound GitHub API client.
type GitHubConfig struct {
	APIURL  string        `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
	Token   string        `env:"GITHUB_TOKEN"` // optional; raises the rate limit when set
	Timeout time.Duration `env:"GITHUB_API_TIMEOUT" envDefault:"30s"`
	PerPage int           `env:"GITHUB_API_PER_PAGE" envDefault:"100"`
}

// OpenAIConfig configures the documentation-generation backend.
type OpenAIConfig struct {
	APIKey      string        `env:"OPENAI_API_KEY"`
	Model       string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	Temperature float32       `env:"OPENAI_TEMPERATURE" envDefault:"0.3"`
	MaxTokens   int           `env:"OPENAI_MAX_TOKENS" envDefault:"2048"`
	Timeout     time.Duration `env:"OPENAI_TIMEOUT" envDefault:"30s"`
}

// Load reads the environment (and .env, when present) into a Config.
func Load() (*Config, error) {
	// .env is a development convenience; its absence is not an error.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("config: loading .env file: %w", err)
		}
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	return cfg, nil
}
