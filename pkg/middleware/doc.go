// Package middleware provides the HTTP middleware of the portal: the route gate, client
// and request identification, request metrics, and rate limiting.
//
// # Middleware Components
//
// Gate: renders guard outcomes for a guarded route
//
//	gate := middleware.NewGate(sessions, permissions, resolvers, guard, watcher, cfg, logger)
//	router.Handle("/payroll", gate.Require("view:payroll")(payrollHandler))
//	// Loading -> 503 + Retry-After, Redirect -> 302, Content -> handler with AuthContext
//
// ClientID: assigns each browser a long-lived client cookie so permission caches are
// scoped per client
//
//	router.Use(middleware.ClientID("hrportal_client", secure))
//
// RequestID: request ids and a request-scoped logger
//
//	router.Use(middleware.RequestID(logger))
//
// RateLimitMiddleware: in-memory or Redis-backed limits per client
//
//	router.Use(middleware.NewRateLimitMiddleware(limiter, logger).Handler)
//
// # Related Packages
//
//   - pkg/guard: Route guard rules
//   - pkg/rbac: Permission resolvers
//   - pkg/session: Session and profile loading
package middleware
