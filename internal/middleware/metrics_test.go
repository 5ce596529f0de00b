package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Metrics)
	r.Get("/scan/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	patternCounter := httpRequestsTotal.WithLabelValues("GET", "/scan/{id}", "200")
	before := testutil.ToFloat64(patternCounter)

	for _, id := range []string{
		"11111111-1111-1111-1111-111111111111",
		"22222222-2222-2222-2222-222222222222",
	} {
		req := httptest.NewRequest(http.MethodGet, "/scan/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	// Both requests fold into one series keyed by the route pattern.
	assert.Equal(t, before+2, testutil.ToFloat64(patternCounter))
	rawCounter := httpRequestsTotal.WithLabelValues("GET", "/scan/11111111-1111-1111-1111-111111111111", "200")
	assert.Zero(t, testutil.ToFloat64(rawCounter))
}
