// Package observability provides structured logging, Prometheus metrics, OpenTelemetry
// tracing, health checks and graceful shutdown for the portal.
//
// # Logging
//
//	logger := observability.NewLogger(logrus.InfoLevel, os.Stdout)
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).Info("...") // carries request_id and user_id
//
// # Metrics
//
// All collectors are registered on an explicit registry and every recording method is
// safe to call on a nil *Metrics, so components can run without metrics in tests.
//
// # Health
//
//	GET /health/live   - process is up
//	GET /health/ready  - database and Redis reachable
package observability
