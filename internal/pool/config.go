// ============================================================================
// Subpool Worker Pool - Configuration
// ============================================================================
//
// Package: internal/pool
// File: config.go
// Generalizes: internal/controller.Config (WorkerCount/TaskTimeout/...) from
// the job-queue lineage, reshaped around the dynamic min/max/idle model
// this system needs instead of internal/controller's fixed worker count.
//
// ============================================================================

package pool

import (
	"time"

	"github.com/corvidlabs/subpool/internal/executor"
	"github.com/corvidlabs/subpool/internal/health"
)

// Config is the pool's immutable-after-construction parameter set.
type Config struct {
	MinWorkers     int
	MaxWorkers     int
	InitialWorkers int

	TaskTimeout       time.Duration
	IdleTimeout       time.Duration
	IdleCheckInterval time.Duration

	// DrainSurgeCap governs the dynamic pool's drain ceiling, not the
	// legacy pool's lower figure. Configurable, defaulting to 20.
	DrainSurgeCap int

	// ExecutorSpec identifies the executor binary/args to Spawn for each
	// new worker.
	ExecutorSpec executor.Spec

	// Health thresholds, surfaced to internal/health.Thresholds at each
	// Compute call.
	HealthQueueCap int
	HealthErrCap   float64

	// NewHandle overrides how a worker's executor handle is constructed.
	// Left nil in production, where it defaults to executor.Spawn; tests
	// substitute an in-process fake so pool behavior can be exercised
	// without a real subprocess.
	NewHandle func(executor.Spec) (executor.Handle, error)
}

// Thresholds projects the health-relevant fields of Config into the form
// internal/health.Monitor.Compute expects.
func (c Config) Thresholds() health.Thresholds {
	return health.Thresholds{
		MinWorkers: c.MinWorkers,
		QueueCap:   c.HealthQueueCap,
		ErrCap:     c.HealthErrCap,
	}
}

// DefaultDrainSurgeCap is applied by New when Config.DrainSurgeCap is left
// at its zero value.
const DefaultDrainSurgeCap = 20
