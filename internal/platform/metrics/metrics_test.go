package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ServesRegisteredMetrics(t *testing.T) {
	r := New()
	counter := promauto.With(r.Registerer()).NewCounter(prometheus.CounterOpts{
		Name: "idlookup_test_total",
		Help: "test counter",
	})
	counter.Inc()

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "idlookup_test_total 1")
	assert.Contains(t, w.Body.String(), "go_goroutines")
}

func TestRegistry_IsolatedInstances(t *testing.T) {
	a, b := New(), New()
	opts := prometheus.CounterOpts{Name: "idlookup_dup_total", Help: "dup"}
	assert.NotPanics(t, func() {
		promauto.With(a.Registerer()).NewCounter(opts)
		promauto.With(b.Registerer()).NewCounter(opts)
	})
}
