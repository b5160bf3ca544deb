package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/platinummonkey/hrportal/pkg/contextkeys"
	"github.com/platinummonkey/hrportal/pkg/httputil"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/sirupsen/logrus"
)

// RequestIDHeader carries the request id in and out
const RequestIDHeader = "X-Request-ID"

// RequestID adds a request id and a request-scoped logger to each request
func RequestID(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := contextkeys.WithRequestID(r.Context(), requestID)
			ctx = observability.WithLogger(ctx, logger.WithField("request_id", requestID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessLog logs each request once it completes
func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := httputil.NewStatusRecorder(w)
		next.ServeHTTP(rw, r)

		observability.GetLogger(r.Context()).WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.StatusCode,
			"duration_ms": time.Since(start).Milliseconds(),
		}).Debug("Request completed")
	})
}
