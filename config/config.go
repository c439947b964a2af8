// Package config loads the container's ambient settings from .env files and
// the process environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// Environments recognised by NewLogger.
const (
	EnvLocal      = "local"
	EnvTesting    = "testing"
	EnvProduction = "production"
)

// Config holds the settings that shape container behaviour.
type Config struct {
	Env      string // local | testing | production
	Debug    bool
	LogLevel string
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		Env:      env("APP_ENV", EnvLocal),
		Debug:    envBool("NASC_DEBUG", false),
		LogLevel: env("NASC_LOG_LEVEL", "info"),
	}
}

// IsProduction reports whether the production environment is configured.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Values exposes the configuration and the process environment to
// condition evaluators: "env", "debug", "log_level" and "vars" (every
// environment variable).
func (c *Config) Values() map[string]interface{} {
	vars := make(map[string]interface{})
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	return map[string]interface{}{
		"env":       c.Env,
		"debug":     c.Debug,
		"log_level": c.LogLevel,
		"vars":      vars,
	}
}

// NewLogger creates a structured logger appropriate for the environment.
// Production uses JSON format at LogLevel, other environments use console
// format. Debug forces the debug level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if c.IsProduction() {
		zc = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid NASC_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	if c.Debug {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	zc.Level = level

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
