package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Spend scopes accepted by GUARDRAIL_SPEND_SCOPE.
const (
	SpendScopeCustomer = "customer"
	SpendScopeGlobal   = "global"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Auth          AuthConfig
	Guardrail     GuardrailConfig
	Policy        PolicyConfig
	Telemetry     TelemetryConfig
	Snapshot      SnapshotConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// DatabaseConfig holds PostgreSQL database configuration.
// When ConnectionString (from DATABASE_URL) is set, it takes precedence over individual fields.
type DatabaseConfig struct {
	ConnectionString string // From DATABASE_URL when set
	Host             string
	Port             int
	User             string
	Password         string
	Database         string
	SSLMode          string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  time.Duration
	AutoMigrate      bool
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKey           string
	Disabled         bool
	JWTSigningSecret string // optional; enables HS256 bearer tokens
}

// GuardrailConfig controls how daily spend is scoped during evaluation.
type GuardrailConfig struct {
	SpendScope string // customer or global
}

// PolicyConfig controls the latest-policy cache. A zero TTL disables caching.
type PolicyConfig struct {
	CacheTTL  time.Duration
	CacheSize int
}

// TelemetryConfig bounds the cost summary window.
type TelemetryConfig struct {
	SummaryDefaultDays int
	SummaryMaxDays     int
}

// SnapshotConfig holds the cron schedule of the spend snapshot job. Empty disables it.
type SnapshotConfig struct {
	Schedule string
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or text
	MetricsEnabled bool
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	environment := getEnv("ENVIRONMENT", "development")

	cfg := &Config{
		Environment: environment,
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CORSOrigins:     getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: loadDatabaseConfig(),
		Auth: AuthConfig{
			APIKey:           getEnv("API_KEY", "dev-api-key"),
			Disabled:         getEnvAsBool("AUTH_DISABLED", isDevelopmentName(environment)),
			JWTSigningSecret: getEnv("JWT_SIGNING_SECRET", ""),
		},
		Guardrail: GuardrailConfig{
			SpendScope: strings.ToLower(getEnv("GUARDRAIL_SPEND_SCOPE", SpendScopeCustomer)),
		},
		Policy: PolicyConfig{
			CacheTTL:  getEnvAsDuration("POLICY_CACHE_TTL", 0),
			CacheSize: getEnvAsInt("POLICY_CACHE_SIZE", 1000),
		},
		Telemetry: TelemetryConfig{
			SummaryDefaultDays: getEnvAsInt("SUMMARY_DEFAULT_DAYS", 7),
			SummaryMaxDays:     getEnvAsInt("SUMMARY_MAX_DAYS", 90),
		},
		Snapshot: SnapshotConfig{
			Schedule: getEnv("SNAPSHOT_SCHEDULE", ""),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	// Database validation (DATABASE_URL or DB_* vars)
	if c.Database.ConnectionString == "" && c.Database.Host == "" {
		return fmt.Errorf("database configuration required: set DATABASE_URL or DB_HOST")
	}
	if c.Database.ConnectionString == "" {
		if c.Database.User == "" {
			return fmt.Errorf("database user is required")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required")
		}
	}

	if c.IsProduction() && c.Auth.Disabled {
		return fmt.Errorf("authentication cannot be disabled in production")
	}
	if !c.Auth.Disabled && c.Auth.APIKey == "" && c.Auth.JWTSigningSecret == "" {
		return fmt.Errorf("API_KEY or JWT_SIGNING_SECRET is required when authentication is enabled")
	}

	switch c.Guardrail.SpendScope {
	case SpendScopeCustomer, SpendScopeGlobal:
	default:
		return fmt.Errorf("unknown guardrail spend scope %q", c.Guardrail.SpendScope)
	}

	if c.Policy.CacheTTL < 0 {
		return fmt.Errorf("policy cache TTL must not be negative")
	}
	if c.Policy.CacheTTL > 0 && c.Policy.CacheSize <= 0 {
		return fmt.Errorf("policy cache size must be positive when caching is enabled")
	}

	if c.Telemetry.SummaryDefaultDays <= 0 || c.Telemetry.SummaryMaxDays <= 0 {
		return fmt.Errorf("summary window bounds must be positive")
	}
	if c.Telemetry.SummaryDefaultDays > c.Telemetry.SummaryMaxDays {
		return fmt.Errorf("default summary window %d exceeds maximum %d",
			c.Telemetry.SummaryDefaultDays, c.Telemetry.SummaryMaxDays)
	}

	// Observability validation
	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return isDevelopmentName(c.Environment)
}

// GlobalSpendScope reports whether guardrail daily spend is summed across all customers.
func (c *Config) GlobalSpendScope() bool {
	return c.Guardrail.SpendScope == SpendScopeGlobal
}

func isDevelopmentName(env string) bool {
	return env == "development" || env == "dev"
}

// DSN returns the PostgreSQL connection string.
// Uses ConnectionString (from DATABASE_URL) when set; otherwise builds from individual fields.
func (c *DatabaseConfig) DSN() string {
	if c.ConnectionString != "" {
		return c.ConnectionString
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LogString returns a safe string for logging (no password). Parses ConnectionString when set.
func (c *DatabaseConfig) LogString() string {
	if c.ConnectionString != "" {
		u, err := url.Parse(c.ConnectionString)
		if err == nil {
			host := u.Hostname()
			port := u.Port()
			if port == "" {
				port = "5432"
			}
			db := strings.TrimPrefix(u.Path, "/")
			return fmt.Sprintf("host=%s port=%s database=%s", host, port, db)
		}
		return "host=<from DATABASE_URL>"
	}
	return fmt.Sprintf("host=%s port=%d database=%s", c.Host, c.Port, c.Database)
}

// loadDatabaseConfig loads database config from DATABASE_URL or DB_* env vars
func loadDatabaseConfig() DatabaseConfig {
	dbURL := getEnv("DATABASE_URL", "")
	if dbURL != "" {
		return DatabaseConfig{
			ConnectionString: dbURL,
			MaxOpenConns:     getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:     getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime:  getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			AutoMigrate:      getEnvAsBool("DB_AUTO_MIGRATE", true),
		}
	}
	return DatabaseConfig{
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvAsInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", "postgres"),
		Database:        getEnv("DB_NAME", "agent_costs"),
		SSLMode:         getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
		AutoMigrate:     getEnvAsBool("DB_AUTO_MIGRATE", true),
	}
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8000)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8000
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
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
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
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
