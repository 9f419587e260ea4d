// Package telemetry defines the Prometheus metrics exposed by the service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	importStagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_stages_total",
			Help: "Total pipeline stage executions, labeled by stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)

	importReferencesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_references_total",
			Help: "Total references processed, labeled by result.",
		},
		[]string{"result"},
	)

	importDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_import_duration_seconds",
			Help:    "Histogram of per-reference import durations.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	cacheHitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_import_cache_hits_total",
			Help: "Brand/category cache hits in the fast batch path.",
		},
		[]string{"entity"},
	)

	admissionInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_admission_in_flight",
			Help: "Store reads currently admitted.",
		},
	)

	admissionQueued = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_admission_queued",
			Help: "Callers waiting for an admission slot.",
		},
	)

	remoteRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_remote_requests_total",
			Help: "Requests issued to the supplier catalog API, labeled by entity and code.",
		},
		[]string{"entity", "code"},
	)
)

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveStage records one stage execution outcome.
func ObserveStage(stage string, outcome string) {
	importStagesTotal.WithLabelValues(stage, outcome).Inc()
}

// ObserveReference records one processed reference and its duration.
func ObserveReference(result string, d time.Duration) {
	importReferencesTotal.WithLabelValues(result).Inc()
	importDurationSeconds.Observe(d.Seconds())
}

// ObserveCacheHit records a brand or category cache hit.
func ObserveCacheHit(entity string) {
	cacheHitsTotal.WithLabelValues(entity).Inc()
}

// SetAdmission publishes the admission controller gauges.
func SetAdmission(inFlight, queued int) {
	admissionInFlight.Set(float64(inFlight))
	admissionQueued.Set(float64(queued))
}

// ObserveRemoteRequest records a supplier API call by entity and status code.
func ObserveRemoteRequest(entity string, code string) {
	remoteRequestsTotal.WithLabelValues(entity, code).Inc()
}
