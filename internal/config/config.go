// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	BackendURL     string
	RelayURL       string
	FrontendURL    string
	CacheDBPath    string
	RequestTimeout time.Duration
	ChatTimeout    time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		BackendURL:     strings.TrimSuffix(getEnv("BACKEND_URL", "http://localhost:8000"), "/"),
		RelayURL:       strings.TrimSuffix(getEnv("RELAY_URL", "http://localhost:8080"), "/"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		CacheDBPath:    getEnv("CACHE_DB_PATH", defaultCachePath()),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT", 30)) * time.Second,
		ChatTimeout:    time.Duration(getEnvInt("CHAT_TIMEOUT", 120)) * time.Second,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	if c.RelayURL == "" {
		return fmt.Errorf("RELAY_URL cannot be empty")
	}
	if c.CacheDBPath == "" {
		return fmt.Errorf("CACHE_DB_PATH cannot be empty")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	if c.ChatTimeout <= 0 {
		return fmt.Errorf("CHAT_TIMEOUT must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./taskdeck-cache.db"
	}
	return filepath.Join(home, ".taskdeck", "cache.db")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
