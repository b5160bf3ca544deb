package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/sirupsen/logrus"
)

// Session backends
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Sessions      SessionConfig
	Permissions   PermissionConfig
	Routes        RouteConfig
	RateLimit     RateLimitConfig
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
}

// Addr returns host:port
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// DatabaseConfig holds the profile and role permission database settings
type DatabaseConfig struct {
	Driver          string // postgres or sqlite3
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	Timeout         time.Duration
}

// SessionConfig holds session storage and cookie settings
type SessionConfig struct {
	Backend       string
	RedisURL      string
	RedisPoolSize int
	SessionCookie string
	ClientCookie  string
	SecureCookies bool
	TTL           time.Duration
	GracePeriod   time.Duration
	LoadTimeout   time.Duration
	ReapSchedule  string
}

// PermissionConfig holds permission loading and decision cache settings
type PermissionConfig struct {
	CacheSize        int
	CacheTTL         time.Duration
	Wait             time.Duration
	FetchTimeout     time.Duration
	ResolverPoolSize int
	RetryAfter       time.Duration
}

// RouteConfig holds the route table settings
type RouteConfig struct {
	// File is an optional YAML route table; the built-in table is used when empty
	File      string
	Watch     bool
	HomeRoute string
}

// RateLimitConfig holds per-client rate limits
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel logrus.Level

	MetricsEnabled bool

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Database:      loadDatabaseConfig(),
		Sessions:      loadSessionConfig(),
		Permissions:   loadPermissionConfig(),
		Routes:        loadRouteConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("HRPORTAL_HOST", "0.0.0.0"),
		Port:            getEnv("HRPORTAL_PORT", "8080"),
		ReadTimeout:     getEnvDuration("HRPORTAL_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("HRPORTAL_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("HRPORTAL_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("HRPORTAL_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          getEnv("HRPORTAL_DATABASE_DRIVER", "postgres"),
		URL:             getEnv("HRPORTAL_DATABASE_URL", ""),
		MaxOpenConns:    getEnvInt("HRPORTAL_DATABASE_MAX_CONNS", 20),
		MaxIdleConns:    getEnvInt("HRPORTAL_DATABASE_MIN_CONNS", 5),
		ConnMaxLifetime: getEnvDuration("HRPORTAL_DATABASE_CONN_MAX_LIFETIME", time.Hour),
		Timeout:         getEnvDuration("HRPORTAL_DATABASE_TIMEOUT", 5*time.Second),
	}
}

func loadSessionConfig() SessionConfig {
	return SessionConfig{
		Backend:       strings.ToLower(getEnv("HRPORTAL_SESSION_BACKEND", SessionBackendMemory)),
		RedisURL:      getEnv("HRPORTAL_REDIS_URL", ""),
		RedisPoolSize: getEnvInt("HRPORTAL_REDIS_POOL_SIZE", 10),
		SessionCookie: getEnv("HRPORTAL_SESSION_COOKIE", "hrportal_session"),
		ClientCookie:  getEnv("HRPORTAL_CLIENT_COOKIE", "hrportal_client"),
		SecureCookies: getEnvBool("HRPORTAL_SECURE_COOKIES", true),
		TTL:           getEnvDuration("HRPORTAL_SESSION_TTL", 8*time.Hour),
		GracePeriod:   getEnvDuration("HRPORTAL_SESSION_GRACE", 24*time.Hour),
		LoadTimeout:   getEnvDuration("HRPORTAL_SESSION_LOAD_TIMEOUT", 2*time.Second),
		ReapSchedule:  getEnv("HRPORTAL_SESSION_REAP_SCHEDULE", "@every 5m"),
	}
}

func loadPermissionConfig() PermissionConfig {
	return PermissionConfig{
		CacheSize:        getEnvInt("HRPORTAL_PERMISSION_CACHE_SIZE", 64),
		CacheTTL:         getEnvDuration("HRPORTAL_PERMISSION_CACHE_TTL", time.Minute),
		Wait:             getEnvDuration("HRPORTAL_PERMISSION_WAIT", 500*time.Millisecond),
		FetchTimeout:     getEnvDuration("HRPORTAL_PERMISSION_FETCH_TIMEOUT", 5*time.Second),
		ResolverPoolSize: getEnvInt("HRPORTAL_RESOLVER_POOL_SIZE", 10000),
		RetryAfter:       getEnvDuration("HRPORTAL_RETRY_AFTER", time.Second),
	}
}

func loadRouteConfig() RouteConfig {
	return RouteConfig{
		File:      getEnv("HRPORTAL_ROUTES_FILE", ""),
		Watch:     getEnvBool("HRPORTAL_ROUTES_WATCH", true),
		HomeRoute: getEnv("HRPORTAL_HOME_ROUTE", "/"),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:           getEnvBool("HRPORTAL_RATE_LIMIT_ENABLED", true),
		RequestsPerMinute: getEnvInt("HRPORTAL_RATE_LIMIT_PER_MINUTE", 600),
		Burst:             getEnvInt("HRPORTAL_RATE_LIMIT_BURST", 30),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLevel(getEnv("HRPORTAL_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("HRPORTAL_METRICS_ENABLED", true),
		OTelEnabled:        getEnvBool("HRPORTAL_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("HRPORTAL_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("HRPORTAL_OTEL_SERVICE_NAME", "hrportal"),
		OTelServiceVersion: getEnv("HRPORTAL_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("HRPORTAL_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("invalid database driver: %s (must be postgres or sqlite3)", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database URL is required")
	}

	switch c.Sessions.Backend {
	case SessionBackendMemory:
	case SessionBackendRedis:
		if c.Sessions.RedisURL == "" {
			return fmt.Errorf("redis URL is required for the redis session backend")
		}
	default:
		return fmt.Errorf("invalid session backend: %s (must be memory or redis)", c.Sessions.Backend)
	}
	if c.Sessions.SessionCookie == "" || c.Sessions.ClientCookie == "" {
		return fmt.Errorf("session and client cookie names are required")
	}
	if c.Sessions.SessionCookie == c.Sessions.ClientCookie {
		return fmt.Errorf("session and client cookies must be different")
	}
	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}

	if c.Permissions.Wait <= 0 || c.Permissions.FetchTimeout <= 0 {
		return fmt.Errorf("permission wait and fetch timeout must be positive")
	}

	if !strings.HasPrefix(c.Routes.HomeRoute, "/") {
		return fmt.Errorf("home route must start with /")
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate limit must be positive when enabled")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
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
		return strings.ToLower(value) == "true" || value == "1"
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

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
