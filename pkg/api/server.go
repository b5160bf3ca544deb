package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/hrportal/pkg/auth"
	"github.com/platinummonkey/hrportal/pkg/httputil"
	"github.com/platinummonkey/hrportal/pkg/middleware"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/platinummonkey/hrportal/pkg/rbac"
	"github.com/platinummonkey/hrportal/pkg/routes"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SessionEnder ends sessions on logout
type SessionEnder interface {
	Logout(ctx context.Context, token string) error
}

// PermissionCache drops cached role permission sets
type PermissionCache interface {
	Invalidate(role auth.Role)
	Purge()
}

// Deps are the collaborators of a Server
type Deps struct {
	Gate        *middleware.Gate
	Sessions    SessionEnder
	Permissions PermissionCache
	Routes      *routes.Table
	Health   *observability.HealthChecker
	Metrics  *observability.Metrics
	Logger   logrus.FieldLogger

	// Optional
	RateLimiter  middleware.Limiter
	ClientCookie string
	Secure       bool
}

// Server represents our API server
type Server struct {
	router   *mux.Router
	gate     *middleware.Gate
	sessions SessionEnder
	perms    PermissionCache
	routes   *routes.Table
	metrics  *observability.Metrics
	logger   logrus.FieldLogger
	now      func() time.Time
}

// NewServer creates a new API server
func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Server{
		router:   mux.NewRouter(),
		gate:     deps.Gate,
		sessions: deps.Sessions,
		perms:    deps.Permissions,
		routes:   deps.Routes,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      time.Now,
	}

	s.router.Use(httputil.RecoveryMiddleware(logger))
	s.router.Use(middleware.RequestID(logger))
	s.router.Use(middleware.Metrics(deps.Metrics))
	s.router.Use(middleware.AccessLog)

	// Probes and metrics stay outside client tracking and rate limits
	if deps.Health != nil {
		observability.RegisterHealthRoutes(s.router, deps.Health)
	}
	if deps.Metrics != nil {
		s.router.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	app := s.router.NewRoute().Subrouter()
	app.Use(middleware.ClientID(deps.ClientCookie, deps.Secure))
	if deps.RateLimiter != nil {
		limits := middleware.NewRateLimitMiddleware(deps.RateLimiter, logger)
		limits.SetKeyFunc(deps.Gate.ClientKey)
		app.Use(limits.Handler)
	}
	s.setupRoutes(app)
	return s
}

// setupRoutes configures all the application routes
func (s *Server) setupRoutes(r *mux.Router) {
	r.HandleFunc("/", s.home).Methods(http.MethodGet)
	r.Handle("/api/me", s.gate.Require("")(http.HandlerFunc(s.me))).Methods(http.MethodGet)
	r.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	if s.perms != nil {
		r.Handle("/api/permissions/refresh",
			s.gate.Require(rbac.PermissionManagePermissions)(http.HandlerFunc(s.refreshPermissions)),
		).Methods(http.MethodPost)
	}

	// Pages are looked up per request so route reloads apply immediately
	r.PathPrefix("/").HandlerFunc(s.page).Methods(http.MethodGet)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the server instrumented with OpenTelemetry
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.router, "hrportal",
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
