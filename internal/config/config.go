// Package config loads the process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Backends selectable with FINTRACK_BACKEND.
const (
	BackendMock  = "mock"
	BackendMongo = "mongo"
)

// DefaultCategories are the expense categories offered by the bot keyboard.
var DefaultCategories = []string{
	"Groceries 🛒",
	"Dining Out 🍽️",
	"Entertainment 🎉",
	"Household 🏠",
	"Shopping 🛍️",
	"Other 🗂️",
}

// Config holds all configuration for the application
type Config struct {
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN"`
	ChatID        int64  `env:"TELEGRAM_CHAT_ID"`

	Backend  string `env:"FINTRACK_BACKEND,default=mock"`
	MongoURI string `env:"MONGODB_URI"`
	MongoDB  string `env:"MONGODB_DB"`

	JWTSecret string `env:"JWT_SECRET"`
	Email     string `env:"FINTRACK_EMAIL"`
	Password  string `env:"FINTRACK_PASSWORD"`
	Currency  string `env:"FINTRACK_CURRENCY,default=USD"`

	OperationTimeout time.Duration `env:"FINTRACK_OPERATION_TIMEOUT,default=10s"`
	MockLatency      time.Duration `env:"FINTRACK_MOCK_LATENCY,default=0s"`
	Seed             bool          `env:"FINTRACK_SEED,default=true"`

	MetricsAddr string `env:"METRICS_ADDR"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	Categories []string
}

// Load loads configuration from a .env file, if present, and the environment.
func Load() (*Config, error) {
	// a missing .env file is fine
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("failed to decode environment: %w", err)
	}
	cfg.Categories = DefaultCategories
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing or invalid setting.
func (c *Config) Validate() error {
	if c.TelegramToken == "" {
		return errors.New("TELEGRAM_BOT_TOKEN not set")
	}
	if c.ChatID == 0 {
		return errors.New("TELEGRAM_CHAT_ID not set")
	}
	switch c.Backend {
	case BackendMock:
	case BackendMongo:
		if c.MongoURI == "" {
			return errors.New("MONGODB_URI not set")
		}
		if c.MongoDB == "" {
			return errors.New("MONGODB_DB not set")
		}
		if c.JWTSecret == "" {
			return errors.New("JWT_SECRET not set")
		}
		if c.Email == "" {
			return errors.New("FINTRACK_EMAIL not set")
		}
		if c.Password == "" {
			return errors.New("FINTRACK_PASSWORD not set")
		}
	default:
		return fmt.Errorf("FINTRACK_BACKEND %q is not one of %s, %s", c.Backend, BackendMock, BackendMongo)
	}
	if c.OperationTimeout < 0 {
		return errors.New("FINTRACK_OPERATION_TIMEOUT must not be negative")
	}
	if c.MockLatency < 0 {
		return errors.New("FINTRACK_MOCK_LATENCY must not be negative")
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL %q is invalid: %w", c.LogLevel, err)
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// IsAuthorizedChat checks if the update comes from the configured chat
func (c *Config) IsAuthorizedChat(chatID int64) bool {
	return chatID == c.ChatID
}
