// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// LeadRulesConfig provides the tunable thresholds of the validation rules
// engine.
type LeadRulesConfig interface {
	// GetWonMinProjectValue is the minimum project value (currency minor
	// units) required before a lead may transition to "won".
	GetWonMinProjectValue() int64
	// GetPhoneDefaultRegion is the ISO region used when parsing contact
	// numbers without a country prefix.
	GetPhoneDefaultRegion() string
	// GetApplyMaxRetries bounds the sequence-conflict retries of one Apply.
	GetApplyMaxRetries() int
}

// ImportConfig provides limits for the bulk CSV import pipeline.
type ImportConfig interface {
	GetImportMaxRows() int
	GetImportMaxBytes() int64
	GetImportWorkers() int
}

// SchedulerConfig provides settings for the asynq follow-up scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                string
	HTTPAddr           string
	DatabaseURL        string
	JWTAccessSecret    string
	CORSAllowAll       bool
	CORSOrigins        []string
	CORSAllowCreds     bool
	WonMinProjectValue int64
	PhoneDefaultRegion string
	ImportMaxRows      int
	ImportMaxBytes     int64
	ImportWorkers      int
	ApplyMaxRetries    int
	ApplyLockTimeout   time.Duration
	RedisURL           string
	RedisTLSInsecure   bool
	AsynqQueueName     string
	AsynqConcurrency   int
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// LeadRulesConfig implementation
func (c *Config) GetWonMinProjectValue() int64  { return c.WonMinProjectValue }
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }
func (c *Config) GetApplyMaxRetries() int       { return c.ApplyMaxRetries }

// ImportConfig implementation
func (c *Config) GetImportMaxRows() int    { return c.ImportMaxRows }
func (c *Config) GetImportMaxBytes() int64 { return c.ImportMaxBytes }
func (c *Config) GetImportWorkers() int    { return c.ImportWorkers }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		JWTAccessSecret:    getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:       corsAllowAll,
		CORSOrigins:        corsOrigins,
		CORSAllowCreds:     strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		WonMinProjectValue: mustInt64(getEnv("WON_MIN_PROJECT_VALUE", "100000")),
		PhoneDefaultRegion: getEnv("PHONE_DEFAULT_REGION", "IN"),
		ImportMaxRows:      mustInt(getEnv("IMPORT_MAX_ROWS", "1000")),
		ImportMaxBytes:     mustInt64(getEnv("IMPORT_MAX_BYTES", "2097152")),
		ImportWorkers:      mustInt(getEnv("IMPORT_WORKERS", "4")),
		ApplyMaxRetries:    mustInt(getEnv("APPLY_MAX_RETRIES", "3")),
		ApplyLockTimeout:   mustDuration(getEnv("APPLY_LOCK_TIMEOUT", "10s")),
		RedisURL:           getEnv("REDIS_URL", ""),
		RedisTLSInsecure:   strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:     getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:   mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.WonMinProjectValue < 0 {
		return nil, fmt.Errorf("WON_MIN_PROJECT_VALUE must not be negative")
	}
	if cfg.ImportMaxRows < 1 {
		return nil, fmt.Errorf("IMPORT_MAX_ROWS must be at least 1")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
