// Package config provides application configuration management from environment variables.
//
// # Configuration Structure
//
// Server settings:
//
//	HRPORTAL_HOST="0.0.0.0"
//	HRPORTAL_PORT="8080"
//	HRPORTAL_SHUTDOWN_TIMEOUT="30s"
//
// Database settings (profiles and role_permissions):
//
//	HRPORTAL_DATABASE_DRIVER="postgres"  # postgres, sqlite3
//	HRPORTAL_DATABASE_URL="postgres://localhost/hrportal?sslmode=disable"
//	HRPORTAL_DATABASE_MAX_CONNS="20"
//
// Session settings:
//
//	HRPORTAL_SESSION_BACKEND="redis"  # memory, redis
//	HRPORTAL_REDIS_URL="redis://localhost:6379/0"
//	HRPORTAL_SESSION_TTL="8h"
//	HRPORTAL_SESSION_GRACE="24h"
//	HRPORTAL_SESSION_REAP_SCHEDULE="@every 5m"
//
// Permission settings:
//
//	HRPORTAL_PERMISSION_CACHE_TTL="1m"
//	HRPORTAL_PERMISSION_WAIT="500ms"
//	HRPORTAL_RESOLVER_POOL_SIZE="10000"
//
// Routes:
//
//	HRPORTAL_ROUTES_FILE="/etc/hrportal/routes.yaml"
//	HRPORTAL_ROUTES_WATCH="true"
//
// Observability settings:
//
//	HRPORTAL_LOG_LEVEL="info"  # debug, info, warn, error
//	HRPORTAL_METRICS_ENABLED="true"
//	HRPORTAL_OTEL_ENABLED="true"
//	HRPORTAL_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
package config
