// Package config loads OpsHub configuration from environment variables.
// Configuration is read once at startup and treated as immutable afterwards;
// request-handling code never consults the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/opshub-io/opshub/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Audit         AuditConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for probes and scrapes)
	HealthPort string

	// CORSOrigins allowed to call the API from a browser
	CORSOrigins []string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite3"
	Driver string
	// DSN is the postgres URL or the sqlite file path
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// AuthConfig holds the authentication core configuration. The signing secret
// and TTL are fixed for the life of the process.
type AuthConfig struct {
	// SigningSecret signs bearer tokens. Required; no default.
	SigningSecret string
	// TokenTTL bounds token lifetime (default 30m)
	TokenTTL time.Duration
	// HashIterations is the PBKDF2 iteration count for new credentials
	HashIterations int
}

// AuditConfig holds audit trail configuration
type AuditConfig struct {
	// RetentionDays is how long audit rows are kept before the sweeper
	// removes them. Zero disables the sweep.
	RetentionDays int
	// SweepSchedule is the cron expression for the retention sweep
	SweepSchedule string
}

// ObservabilityConfig holds logging and metrics settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("OPSHUB_HOST", "0.0.0.0"),
			Port:            getEnv("OPSHUB_PORT", "8080"),
			ReadTimeout:     getEnvDuration("OPSHUB_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("OPSHUB_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("OPSHUB_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("OPSHUB_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("OPSHUB_HEALTH_PORT", "9090"),
			CORSOrigins:     getEnvList("OPSHUB_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("OPSHUB_DB_DRIVER", "sqlite3"),
			DSN:          getEnv("OPSHUB_DB_DSN", "opshub.db"),
			MaxOpenConns: getEnvInt("OPSHUB_DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvInt("OPSHUB_DB_MAX_IDLE_CONNS", 5),
		},
		Auth: AuthConfig{
			SigningSecret:  getEnv("OPSHUB_SIGNING_SECRET", ""),
			TokenTTL:       getEnvDuration("OPSHUB_TOKEN_TTL", 30*time.Minute),
			HashIterations: getEnvInt("OPSHUB_HASH_ITERATIONS", 100_000),
		},
		Audit: AuditConfig{
			RetentionDays: getEnvInt("OPSHUB_AUDIT_RETENTION_DAYS", 90),
			SweepSchedule: getEnv("OPSHUB_AUDIT_SWEEP_SCHEDULE", "0 3 * * *"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       observability.ParseLogLevel(getEnv("OPSHUB_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("OPSHUB_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}

	if c.Auth.SigningSecret == "" {
		return fmt.Errorf("signing secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	if c.Auth.HashIterations < 100_000 {
		return fmt.Errorf("hash iterations must be at least 100000")
	}

	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("audit retention days must not be negative")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList returns a comma-separated environment variable or a default
func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
