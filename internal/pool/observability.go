// ============================================================================
// Subpool Worker Pool - Observability Surface
// ============================================================================
//
// Package: internal/pool
// File: observability.go
// Generalizes: internal/controller.Controller.GetStatus/GetStats, which
// read job-manager counters under a lock and return a snapshot struct -
// the same shape, applied to worker slots and queue depth instead.
//
// ============================================================================

package pool

import (
	"net/http"
	"time"
)

// Stats is a point-in-time observability snapshot of the pool.
type Stats struct {
	TotalWorkers int
	IdleWorkers  int
	BusyWorkers  int
	QueueLength  int
	PendingCount int
	Health       Health
	LoadFactor   float64
}

// WorkerInfo is one row of worker_details().
type WorkerInfo struct {
	ID           int
	Idle         bool
	LastActiveAt time.Time
	IdleFor      time.Duration
}

// Health mirrors health().
type Health struct {
	Verdict       string
	ErrorRate     float64
	AvgDurationMS float64
}

// Stats returns a point-in-time snapshot of the pool's shape.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	idle, busy, pending := 0, 0, 0
	for _, slot := range p.workers {
		if slot.idle {
			idle++
		} else {
			busy++
		}
		if slot.pending != nil {
			pending++
		}
	}
	total := len(p.workers)

	metrics := p.health.Compute(total, idle, len(p.queue), pending, p.cfg.Thresholds())

	return Stats{
		TotalWorkers: total,
		IdleWorkers:  idle,
		BusyWorkers:  busy,
		QueueLength:  len(p.queue),
		PendingCount: pending,
		Health: Health{
			Verdict:       string(metrics.Verdict),
			ErrorRate:     metrics.ErrorRate,
			AvgDurationMS: metrics.AvgDurationMS,
		},
		LoadFactor: loadFactor(busy, len(p.queue), total),
	}
}

// WorkerDetails returns one row per currently-live worker.
func (p *Pool) WorkerDetails() []WorkerInfo {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	out := make([]WorkerInfo, 0, len(p.workers))
	for _, slot := range p.workers {
		out = append(out, WorkerInfo{
			ID:           slot.id,
			Idle:         slot.idle,
			LastActiveAt: slot.lastActiveAt,
			IdleFor:      now.Sub(slot.lastActiveAt),
		})
	}
	return out
}

// LoadFactor returns (busy + queue_depth) / max(1, total_workers),
// clamped to 1.
func (p *Pool) LoadFactor() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	busy := 0
	for _, slot := range p.workers {
		if !slot.idle {
			busy++
		}
	}
	return loadFactor(busy, len(p.queue), len(p.workers))
}

// MetricsHandler exposes the pool's health monitor in Prometheus text
// format, for mounting at /metrics alongside the JSON status API.
func (p *Pool) MetricsHandler() http.Handler {
	return p.health.Handler()
}

func loadFactor(busy, queueDepth, total int) float64 {
	denom := total
	if denom < 1 {
		denom = 1
	}
	lf := float64(busy+queueDepth) / float64(denom)
	if lf > 1 {
		lf = 1
	}
	return lf
}
