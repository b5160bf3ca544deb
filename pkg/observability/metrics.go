package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Access metrics
	AccessDecisionsTotal        *prometheus.CounterVec
	PermissionCacheLookupsTotal *prometheus.CounterVec
	PermissionCacheClearsTotal  *prometheus.CounterVec
	GuardOutcomesTotal          *prometheus.CounterVec
	ForcedLogoutsTotal          prometheus.Counter

	// Collaborator metrics
	PermissionLoadDuration *prometheus.HistogramVec
	SessionsReapedTotal    prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrportal_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hrportal_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),

		AccessDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrportal_access_decisions_total",
				Help: "Permission resolutions by decision",
			},
			[]string{"decision"},
		),
		PermissionCacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrportal_permission_cache_lookups_total",
				Help: "Permission decision cache lookups by result",
			},
			[]string{"result"},
		),
		PermissionCacheClearsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrportal_permission_cache_clears_total",
				Help: "Permission decision cache resets by reason",
			},
			[]string{"reason"},
		),
		GuardOutcomesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hrportal_guard_outcomes_total",
				Help: "Route guard outcomes by kind and reason",
			},
			[]string{"outcome", "reason"},
		),
		ForcedLogoutsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hrportal_forced_logouts_total",
				Help: "Sessions signed out after their expiry was detected",
			},
		),

		PermissionLoadDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hrportal_permission_load_duration_seconds",
				Help:    "Role permission load duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		SessionsReapedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "hrportal_sessions_reaped_total",
				Help: "Expired sessions removed by the reaper",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.AccessDecisionsTotal,
		m.PermissionCacheLookupsTotal,
		m.PermissionCacheClearsTotal,
		m.GuardOutcomesTotal,
		m.ForcedLogoutsTotal,
		m.PermissionLoadDuration,
		m.SessionsReapedTotal,
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordDecision records a resolved access decision
func (m *Metrics) RecordDecision(decision string) {
	if m == nil {
		return
	}
	m.AccessDecisionsTotal.WithLabelValues(decision).Inc()
}

// RecordCacheLookup records a decision cache hit or miss
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.PermissionCacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordCacheClear records a decision cache reset
func (m *Metrics) RecordCacheClear(reason string) {
	if m == nil {
		return
	}
	m.PermissionCacheClearsTotal.WithLabelValues(reason).Inc()
}

// RecordGuardOutcome records a route guard outcome
func (m *Metrics) RecordGuardOutcome(outcome, reason string) {
	if m == nil {
		return
	}
	m.GuardOutcomesTotal.WithLabelValues(outcome, reason).Inc()
}

// RecordForcedLogout records a forced sign-out
func (m *Metrics) RecordForcedLogout() {
	if m == nil {
		return
	}
	m.ForcedLogoutsTotal.Inc()
}

// RecordPermissionLoad records how long a role permission load took
func (m *Metrics) RecordPermissionLoad(source string, duration time.Duration) {
	if m == nil {
		return
	}
	m.PermissionLoadDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordSessionsReaped records expired sessions removed by the reaper
func (m *Metrics) RecordSessionsReaped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.SessionsReapedTotal.Add(float64(n))
}

// Handler returns the Prometheus scrape handler for the metrics registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
