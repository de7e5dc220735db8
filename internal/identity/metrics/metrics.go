// Package metrics provides Prometheus metrics for identity resolution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolution outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeCacheHit = "cache_hit"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Metrics contains all identity module metrics.
type Metrics struct {
	ResolutionsTotal       *prometheus.CounterVec   // by outcome
	ResolveDurationSeconds prometheus.Histogram     // full resolve latency
	HolidayFetchesTotal    *prometheus.CounterVec   // by status, category
	StoreDurationSeconds   *prometheus.HistogramVec // by operation
	CacheLookupsTotal      *prometheus.CounterVec   // projection cache by result
	AuditEmitFailuresTotal prometheus.Counter
}

// New registers the module metrics with reg; nil uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		ResolutionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idlookup_identity_resolutions_total",
			Help: "Total identity resolutions by outcome",
		}, []string{"outcome"}),

		ResolveDurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "idlookup_identity_resolve_duration_seconds",
			Help:    "Duration of identity resolutions",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		HolidayFetchesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idlookup_holiday_fetches_total",
			Help: "Holiday provider fetches by status and failure category",
		}, []string{"status", "category"}),

		StoreDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "idlookup_identity_store_duration_seconds",
			Help:    "Duration of identity store operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5, 1},
		}, []string{"operation"}),

		CacheLookupsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idlookup_identity_cache_lookups_total",
			Help: "Identity projection cache lookups by result (hit, miss, error)",
		}, []string{"result"}),

		AuditEmitFailuresTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "idlookup_audit_emit_failures_total",
			Help: "Audit events that could not be emitted",
		}),
	}
}

func (m *Metrics) RecordResolution(outcome string, durationSeconds float64) {
	m.ResolutionsTotal.WithLabelValues(outcome).Inc()
	m.ResolveDurationSeconds.Observe(durationSeconds)
}

// RecordHolidayFetch records a fetch; category is empty for successful fetches.
func (m *Metrics) RecordHolidayFetch(status, category string) {
	m.HolidayFetchesTotal.WithLabelValues(status, category).Inc()
}

func (m *Metrics) ObserveStore(operation string, durationSeconds float64) {
	m.StoreDurationSeconds.WithLabelValues(operation).Observe(durationSeconds)
}

func (m *Metrics) RecordCacheLookup(result string) {
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordAuditFailure() {
	m.AuditEmitFailuresTotal.Inc()
}
