package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/platinummonkey/hrportal/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_LabelsByRouteTemplate(t *testing.T) {
	m := observability.NewMetrics(prometheus.NewRegistry())

	router := mux.NewRouter()
	router.Use(Metrics(m))
	router.HandleFunc("/employees/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"1", "2", "3"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/employees/"+id, nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/employees/{id}", "404")))
}

func TestMetrics_NilMetrics(t *testing.T) {
	handler := Metrics(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusOK, w.Code)
}
