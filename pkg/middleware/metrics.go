package middleware

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/hrportal/pkg/httputil"
	"github.com/platinummonkey/hrportal/pkg/observability"
)

// Metrics records request counts and latency by route template
func Metrics(m *observability.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := httputil.NewStatusRecorder(w)
			next.ServeHTTP(rw, r)
			m.RecordHTTPRequest(r.Method, routeTemplate(r), rw.StatusCode, time.Since(start))
		})
	}
}

// routeTemplate keeps label cardinality bounded by the registered routes
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
