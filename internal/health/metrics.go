// ============================================================================
// Subpool Health Monitor - Prometheus Export
// ============================================================================
//
// Package: internal/health
// File: metrics.go
// Generalizes: internal/metrics.Collector - same "struct of
// prometheus.Counter/Gauge/Histogram fields, built and registered once,
// exposed over promhttp" shape, renamed from job-queue counters to the
// Health Monitor's own RED-style signals. Registered against a private
// prometheus.Registry rather than the global default registry so that
// constructing more than one Monitor (as the test suite does) never
// panics on a duplicate registration.
//
// ============================================================================

package health

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// collector holds the Prometheus instruments one Monitor exports.
type collector struct {
	registry *prometheus.Registry

	successes prometheus.Counter
	errors    prometheus.Counter
	duration  prometheus.Histogram

	totalWorkers prometheus.Gauge
	queueDepth   prometheus.Gauge
	verdict      prometheus.Gauge // 0 healthy, 1 degraded, 2 unhealthy
}

func newCollector() *collector {
	c := &collector{registry: prometheus.NewRegistry()}

	c.successes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "subpool_tasks_succeeded_total",
		Help: "Total number of substitution tasks that completed successfully.",
	})
	c.errors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "subpool_tasks_failed_total",
		Help: "Total number of substitution tasks that ended in any error kind.",
	})
	c.duration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "subpool_task_duration_seconds",
		Help:    "Duration of successful substitution tasks.",
		Buckets: prometheus.DefBuckets,
	})
	c.totalWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "subpool_total_workers",
		Help: "Current worker population size.",
	})
	c.queueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "subpool_queue_depth",
		Help: "Current number of queued, undispatched tasks.",
	})
	c.verdict = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "subpool_health_verdict",
		Help: "Current health verdict: 0=healthy, 1=degraded, 2=unhealthy.",
	})

	c.registry.MustRegister(c.successes, c.errors, c.duration, c.totalWorkers, c.queueDepth, c.verdict)
	return c
}

// Handler exposes the Monitor's private registry in Prometheus text
// format, for mounting at /metrics the way internal/metrics.StartServer
// does.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.metrics.registry, promhttp.HandlerOpts{})
}

func verdictValue(v Verdict) float64 {
	switch v {
	case Degraded:
		return 1
	case Unhealthy:
		return 2
	default:
		return 0
	}
}
