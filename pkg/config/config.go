package config

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/pagemark/access/pkg/observability"
)

// Config holds the access-control core's configuration. The host
// application loads it at startup and owns the resulting database handle.
type Config struct {
	Database      DatabaseConfig
	Janitor       JanitorConfig
	Observability ObservabilityConfig
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	URL         string
	MaxConns    int
	MinConns    int
	Timeout     time.Duration
	MaxLifetime time.Duration
	MaxIdleTime time.Duration
}

// JanitorConfig holds the expired-grant sweep schedule.
type JanitorConfig struct {
	Enabled  bool
	Schedule string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:         getEnv("ACCESS_POSTGRES_URL", ""),
			MaxConns:    getEnvInt("ACCESS_POSTGRES_MAX_CONNS", 25),
			MinConns:    getEnvInt("ACCESS_POSTGRES_MIN_CONNS", 5),
			Timeout:     getEnvDuration("ACCESS_POSTGRES_TIMEOUT", 10*time.Second),
			MaxLifetime: getEnvDuration("ACCESS_POSTGRES_MAX_LIFETIME", time.Hour),
			MaxIdleTime: getEnvDuration("ACCESS_POSTGRES_MAX_IDLE_TIME", 10*time.Minute),
		},
		Janitor: JanitorConfig{
			Enabled:  getEnvBool("ACCESS_JANITOR_ENABLED", true),
			Schedule: getEnv("ACCESS_JANITOR_SCHEDULE", "*/30 * * * *"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       parseLogLevel(getEnv("ACCESS_LOG_LEVEL", "info")),
			MetricsEnabled: getEnvBool("ACCESS_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required (ACCESS_POSTGRES_URL)")
	}
	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max connections (%d) must be at least min connections (%d)",
			c.Database.MaxConns, c.Database.MinConns)
	}
	if c.Janitor.Enabled && c.Janitor.Schedule == "" {
		return fmt.Errorf("janitor schedule is required when the janitor is enabled")
	}
	return nil
}

// Open connects to PostgreSQL with the configured pool settings and
// verifies the connection. The caller owns the handle and closes it at
// shutdown.
func (c *DatabaseConfig) Open() (*sql.DB, error) {
	db, err := sql.Open("postgres", c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(c.MaxConns)
	db.SetMaxIdleConns(c.MinConns)
	db.SetConnMaxLifetime(c.MaxLifetime)
	db.SetConnMaxIdleTime(c.MaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// parseLogLevel converts a string log level to observability.LogLevel.
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv gets an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true"
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable with a default value.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
