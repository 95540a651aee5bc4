// Package config handles loading application configuration from environment variables.
// All settings have sensible defaults for local development. A .env file in the
// working directory and an optional YAML file named by CONFIG_FILE are read first;
// real environment variables always win.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application settings.
type Config struct {
	Port               string        `yaml:"port"`
	LogLevel           string        `yaml:"log_level"`
	MaxQuestionLength  int           `yaml:"max_question_length"`
	HeartbeatInterval  time.Duration `yaml:"heartbeat_interval"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	TrustedProxies     []string      `yaml:"trusted_proxies"`
	SentryDSN          string        `yaml:"sentry_dsn"`
	SentryDSNFrontend  string        `yaml:"sentry_dsn_frontend"`
	SentryEnvironment  string        `yaml:"sentry_environment"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		Port:               "10000",
		LogLevel:           "info",
		MaxQuestionLength:  2000,
		HeartbeatInterval:  30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		CORSAllowedOrigins: []string{"*"},
		SentryEnvironment:  "production",
	}
}

// Load reads configuration from .env, the optional CONFIG_FILE and the
// environment, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := Defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.LogLevel = getEnv("LOGGING_LEVEL", cfg.LogLevel)
	cfg.MaxQuestionLength = getIntEnv("MAX_QUESTION_LENGTH", cfg.MaxQuestionLength)
	cfg.HeartbeatInterval = getDurationEnv("HEARTBEAT_INTERVAL", cfg.HeartbeatInterval)
	cfg.ShutdownTimeout = getDurationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if origins := getStringSliceEnv("CORS_ALLOWED_ORIGINS"); origins != nil {
		cfg.CORSAllowedOrigins = origins
	}
	if proxies := getStringSliceEnv("TRUSTED_PROXIES"); proxies != nil {
		cfg.TrustedProxies = proxies
	}
	cfg.SentryDSN = getEnv("SENTRY_DSN", cfg.SentryDSN)
	cfg.SentryDSNFrontend = getEnv("SENTRY_DSN_FRONTEND", cfg.SentryDSNFrontend)
	cfg.SentryEnvironment = getEnv("SENTRY_ENVIRONMENT", cfg.SentryEnvironment)
}

func (c *Config) validate() error {
	if c.MaxQuestionLength <= 0 {
		return fmt.Errorf("max question length must be positive, got %d", c.MaxQuestionLength)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat interval must be positive, got %s", c.HeartbeatInterval)
	}
	return nil
}

func getStringSliceEnv(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var result []string
	for _, s := range strings.Split(value, ",") {
		s = strings.TrimSpace(s)
		if s != "" {
			result = append(result, s)
		}
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
