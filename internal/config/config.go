// Package config loads the client configuration from the environment.
//
// An optional .env file in the working directory is read first, so a
// developer can keep PORTFOLIO_API_BASE_URL and the image-host settings next
// to the checkout instead of exporting them in every shell.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	API       APIConfig
	Storage   StorageConfig
	ImageHost ImageHostConfig
	Callback  CallbackConfig
	App       AppConfig
}

type APIConfig struct {
	BaseURL string
	// Timeout is applied to every API request. Zero means no client-side
	// timeout.
	Timeout time.Duration
}

type StorageConfig struct {
	// DSN is a file path (SQLite) or a redis:// URL.
	DSN string
}

type ImageHostConfig struct {
	BaseURL      string
	CloudName    string
	UploadPreset string
}

type CallbackConfig struct {
	Port int
}

type AppConfig struct {
	LogLevel string
}

// Load reads .env (if present) and the environment, applies defaults and
// validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL: strings.TrimRight(getEnv("PORTFOLIO_API_BASE_URL", "http://localhost:8080/api/v1"), "/"),
			Timeout: getEnvAsDuration("HTTP_TIMEOUT", 0),
		},
		Storage: StorageConfig{
			DSN: getEnv("PORTFOLIO_STORAGE", "data/portfolio.db"),
		},
		ImageHost: ImageHostConfig{
			BaseURL:      strings.TrimRight(getEnv("CLOUDINARY_BASE_URL", "https://api.cloudinary.com"), "/"),
			CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", "dct6fuenh"),
			UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "portfolio_unsigned"),
		},
		Callback: CallbackConfig{
			Port: getEnvAsInt("PORTFOLIO_CALLBACK_PORT", 4200),
		},
		App: AppConfig{
			LogLevel: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate rejects configurations the client cannot work with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: PORTFOLIO_API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.Storage.DSN == "" {
		return fmt.Errorf("config: PORTFOLIO_STORAGE is required")
	}
	if c.Callback.Port <= 0 || c.Callback.Port > 65535 {
		return fmt.Errorf("config: PORTFOLIO_CALLBACK_PORT out of range: %d", c.Callback.Port)
	}
	return nil
}

// Level maps LOG_LEVEL onto slog levels; unknown values fall back to info.
func (a AppConfig) Level() slog.Level {
	switch strings.ToLower(a.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// UsesRedis reports whether the storage DSN points at a Redis server.
func (s StorageConfig) UsesRedis() bool {
	return strings.HasPrefix(s.DSN, "redis://") || strings.HasPrefix(s.DSN, "rediss://")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer in environment, using default",
			slog.String("key", key),
			slog.Int("default", defaultValue),
		)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		slog.Warn("invalid duration in environment, using default",
			slog.String("key", key),
			slog.Duration("default", defaultValue),
		)
		return defaultValue
	}

	return value
}
