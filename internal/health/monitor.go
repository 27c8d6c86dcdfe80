// ============================================================================
// Subpool Health Monitor
// ============================================================================
//
// Package: internal/health
// File: monitor.go
// Function: Aggregates task outcomes (success durations, error counts) into
// a three-valued health verdict. Purely observational - this package has
// no control authority over the pool; it is consulted, never obeyed.
//
// Generalizes: internal/metrics.Collector from the job-queue lineage this
// package descends from (Prometheus-backed counters and a latency
// histogram). The verdict logic here has no Prometheus analogue - it is
// new bookkeeping layered on top of the same counting instinct - so
// record_success/record_error read like RecordCompleted/RecordFailed, but
// compute()'s threshold math is specific to this system.
//
// ============================================================================

package health

import (
	"log/slog"
	"sync"
	"time"
)

// Verdict is the three-valued health outcome derived by compute().
type Verdict string

const (
	Healthy   Verdict = "healthy"
	Degraded  Verdict = "degraded"
	Unhealthy Verdict = "unhealthy"
)

// worse returns whichever of a, b is the more severe verdict.
func worse(a, b Verdict) Verdict {
	rank := map[Verdict]int{Healthy: 0, Degraded: 1, Unhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// Thresholds carries the pieces of PoolConfig the verdict formulas need.
// Kept separate from pool.Config so this package has no import cycle back
// to internal/pool.
type Thresholds struct {
	MinWorkers int
	QueueCap   int
	ErrCap     float64
}

// Metrics is the result of one compute() call: verdict, error rate and
// average duration.
type Metrics struct {
	Verdict       Verdict
	ErrorRate     float64
	AvgDurationMS float64
	SuccessCount  uint64
	ErrorCount    uint64
}

const ringCapacity = 100

// Monitor is a running aggregate over task outcomes: a bounded ring of
// recent successful durations plus monotonic success/error counters.
type Monitor struct {
	mu sync.Mutex

	durations [ringCapacity]time.Duration
	filled    int
	next      int

	successCount uint64
	errorCount   uint64

	lastVerdict Verdict
	haveVerdict bool

	logger  *slog.Logger
	metrics *collector
}

// New builds an empty Monitor. logger may be nil, in which case
// slog.Default() is used - verdict transitions are always logged, never
// silenced, since they are the pool's primary externally-visible signal.
func New(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{logger: logger, metrics: newCollector()}
}

// RecordSuccess appends a successful task's duration to the bounded ring
// and increments the success counter.
func (m *Monitor) RecordSuccess(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations[m.next] = d
	m.next = (m.next + 1) % ringCapacity
	if m.filled < ringCapacity {
		m.filled++
	}
	m.successCount++
	m.metrics.successes.Inc()
	m.metrics.duration.Observe(d.Seconds())
}

// RecordError increments the error counter. The source of the error
// (invalid regex, timeout, crash) is not distinguished here - the
// monitor only cares that the outcome was not a success.
func (m *Monitor) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount++
	m.metrics.errors.Inc()
}

// Reset zeroes all counters and the duration ring, and clears the last
// observed verdict so the next Compute logs unconditionally.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations = [ringCapacity]time.Duration{}
	m.filled = 0
	m.next = 0
	m.successCount = 0
	m.errorCount = 0
	m.haveVerdict = false
}

// Compute derives a Metrics from the current counters plus the
// caller-supplied pool shape. Verdict derivation: the worst of
// the worker-floor, queue-depth and error-rate conditions wins. A
// transition is logged exactly on change - repeated identical
// evaluations produce no log line.
func (m *Monitor) Compute(totalWorkers, idleWorkers, queueDepth, pending int, th Thresholds) Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sum time.Duration
	for i := 0; i < m.filled; i++ {
		sum += m.durations[i]
	}
	avgMS := 0.0
	if m.filled > 0 {
		avgMS = float64(sum) / float64(m.filled) / float64(time.Millisecond)
	}

	errRate := 0.0
	if total := m.successCount + m.errorCount; total > 0 {
		errRate = float64(m.errorCount) / float64(total)
	}

	verdict := Healthy
	if totalWorkers < th.MinWorkers {
		verdict = worse(verdict, Degraded)
	}
	switch {
	case queueDepth > 2*th.QueueCap:
		verdict = worse(verdict, Unhealthy)
	case queueDepth > th.QueueCap:
		verdict = worse(verdict, Degraded)
	}
	switch {
	case errRate > 2*th.ErrCap:
		verdict = worse(verdict, Unhealthy)
	case errRate > th.ErrCap:
		verdict = worse(verdict, Degraded)
	}

	if !m.haveVerdict || verdict != m.lastVerdict {
		m.logger.Info("health verdict changed",
			"from", string(m.lastVerdict), "to", string(verdict),
			"total_workers", totalWorkers, "idle_workers", idleWorkers,
			"queue_depth", queueDepth, "pending", pending,
			"error_rate", errRate)
		m.lastVerdict = verdict
		m.haveVerdict = true
	}

	m.metrics.totalWorkers.Set(float64(totalWorkers))
	m.metrics.queueDepth.Set(float64(queueDepth))
	m.metrics.verdict.Set(verdictValue(verdict))

	return Metrics{
		Verdict:       verdict,
		ErrorRate:     errRate,
		AvgDurationMS: avgMS,
		SuccessCount:  m.successCount,
		ErrorCount:    m.errorCount,
	}
}
