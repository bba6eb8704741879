package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setEnv(t *testing.T, env map[string]string) {
	t.Helper()
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func TestLoadDefaults(t *testing.T) {
	setEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN": "token",
		"TELEGRAM_CHAT_ID":   "-100123",
	})

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.TelegramToken)
	assert.Equal(t, int64(-100123), cfg.ChatID)
	assert.Equal(t, BackendMock, cfg.Backend)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 10*time.Second, cfg.OperationTimeout)
	assert.True(t, cfg.Seed)
	assert.Equal(t, zerolog.InfoLevel, cfg.Level())
	assert.Equal(t, DefaultCategories, cfg.Categories)
	assert.True(t, cfg.IsAuthorizedChat(-100123))
	assert.False(t, cfg.IsAuthorizedChat(42))
}

func TestLoadMongo(t *testing.T) {
	setEnv(t, map[string]string{
		"TELEGRAM_BOT_TOKEN":         "token",
		"TELEGRAM_CHAT_ID":           "7",
		"FINTRACK_BACKEND":           "Mongo",
		"MONGODB_URI":                "mongodb://localhost:27017",
		"MONGODB_DB":                 "fintrack",
		"JWT_SECRET":                 "secret",
		"FINTRACK_EMAIL":             "me@example.com",
		"FINTRACK_PASSWORD":          "hunter22",
		"FINTRACK_OPERATION_TIMEOUT": "3s",
		"LOG_LEVEL":                  "debug",
	})

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendMongo, cfg.Backend)
	assert.Equal(t, 3*time.Second, cfg.OperationTimeout)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			TelegramToken: "token",
			ChatID:        1,
			Backend:       BackendMongo,
			MongoURI:      "mongodb://localhost",
			MongoDB:       "fintrack",
			JWTSecret:     "secret",
			Email:         "me@example.com",
			Password:      "hunter22",
			LogLevel:      "info",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no token", func(c *Config) { c.TelegramToken = "" }, "TELEGRAM_BOT_TOKEN not set"},
		{"no chat", func(c *Config) { c.ChatID = 0 }, "TELEGRAM_CHAT_ID not set"},
		{"no uri", func(c *Config) { c.MongoURI = "" }, "MONGODB_URI not set"},
		{"no db", func(c *Config) { c.MongoDB = "" }, "MONGODB_DB not set"},
		{"no secret", func(c *Config) { c.JWTSecret = "" }, "JWT_SECRET not set"},
		{"no email", func(c *Config) { c.Email = "" }, "FINTRACK_EMAIL not set"},
		{"mock needs no mongo", func(c *Config) { c.Backend = BackendMock; c.MongoURI = "" }, ""},
		{"unknown backend", func(c *Config) { c.Backend = "postgres" }, "FINTRACK_BACKEND"},
		{"negative timeout", func(c *Config) { c.OperationTimeout = -time.Second }, "FINTRACK_OPERATION_TIMEOUT"},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }, "LOG_LEVEL"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
