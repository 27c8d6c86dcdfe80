// ============================================================================
// Subpool Worker Pool - Centrepiece
// ============================================================================
//
// Package: internal/pool
// File: pool.go
// Function: A single FIFO queue, a dynamic population of workers, and the
// four concurrent state transitions that move tasks through them
// (dispatch, completion, timeout, crash), plus idle scale-down and a
// drain-aware two-phase shutdown.
//
// Generalizes: internal/worker.Pool + internal/controller.Controller from
// the job-queue lineage this package descends from - that pair split a
// fixed-size push-based worker pool from a coordinating controller
// driving dispatch/result/timeout loops over channels. Here dispatch,
// completion, timeout and crash handling are collapsed into one
// mutex-serialised type because the population itself is dynamic and the
// "worker" is now a subprocess executor rather than an in-process
// goroutine reading off a shared channel.
//
// Concurrency model: all state mutation happens under mu. Each
// dispatched task runs its blocking round-trip to the executor in its
// own goroutine so the pool itself never blocks on a worker; that
// goroutine reports back into the pool (onCompletion/onCrash) which
// re-acquire mu. A time.AfterFunc per PendingTask enforces the deadline
// independently of that goroutine.
//
// ============================================================================

package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/corvidlabs/subpool/internal/executor"
	"github.com/corvidlabs/subpool/internal/health"
	"github.com/corvidlabs/subpool/pkg/types"
)

// unboundedCeiling stands in for "no ceiling" during drain, where the
// max_workers cap is intentionally bypassed.
const unboundedCeiling = int(^uint(0) >> 1)

// Pool is the dynamically-scaling worker pool at the centre of this system.
type Pool struct {
	mu sync.Mutex

	cfg    Config
	health *health.Monitor
	logger *slog.Logger

	workers      map[int]*workerSlot
	nextWorkerID int
	queue        []submission
	shuttingDown bool

	idleTicker *time.Ticker
	idleStop   chan struct{}
	idleDone   chan struct{}
}

// New constructs a Pool, spawning initial_workers workers and starting the
// idle-check ticker. Failure to spawn the initial population does not
// fail construction - the pool simply starts
// with fewer workers than requested and depends on on-demand spawning.
func New(cfg Config, logger *slog.Logger) *Pool {
	if cfg.DrainSurgeCap <= 0 {
		cfg.DrainSurgeCap = DefaultDrainSurgeCap
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.NewHandle == nil {
		cfg.NewHandle = executor.Spawn
	}

	p := &Pool{
		cfg:      cfg,
		health:   health.New(logger),
		logger:   logger,
		workers:  make(map[int]*workerSlot),
		idleStop: make(chan struct{}),
		idleDone: make(chan struct{}),
	}

	p.mu.Lock()
	for i := 0; i < cfg.InitialWorkers; i++ {
		if _, err := p.spawnWorkerLocked(); err != nil {
			p.logger.Error("initial worker spawn failed", "error", err)
		}
	}
	p.mu.Unlock()

	p.idleTicker = time.NewTicker(cfg.IdleCheckInterval)
	go p.idleLoop()

	return p
}

// spawnWorkerLocked starts one executor subprocess and adds its slot to
// the pool. Caller must hold mu.
func (p *Pool) spawnWorkerLocked() (*workerSlot, error) {
	handle, err := p.cfg.NewHandle(p.cfg.ExecutorSpec)
	if err != nil {
		return nil, fmt.Errorf("pool: spawn worker: %w", err)
	}
	id := p.nextWorkerID
	p.nextWorkerID++
	slot := &workerSlot{id: id, handle: handle, idle: true, lastActiveAt: time.Now()}
	p.workers[id] = slot
	return slot, nil
}

// stopWorkerLocked stops the executor and removes its slot. Caller must
// hold mu.
func (p *Pool) stopWorkerLocked(id int) {
	slot, ok := p.workers[id]
	if !ok {
		return
	}
	slot.handle.Stop()
	delete(p.workers, id)
}

// Run submits a task and returns its completion sink. If the pool is
// shutting down the sink is resolved immediately with ShuttingDown
// rather than queued.
func (p *Pool) Run(task types.Task) <-chan types.TaskResult {
	s := newSink()

	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		s.resolve(types.ErrResult(types.ErrorShuttingDown, "pool is shutting down"))
		return s.ch
	}
	p.queue = append(p.queue, submission{task: task, sink: s})
	p.dispatchLocked(p.cfg.MaxWorkers)
	p.mu.Unlock()

	return s.ch
}

// dispatchLocked is the level-triggered dispatch step. Caller
// must hold mu. ceiling is p.cfg.MaxWorkers ordinarily, or
// unboundedCeiling while draining.
func (p *Pool) dispatchLocked(ceiling int) {
	for {
		if len(p.queue) == 0 {
			return
		}

		slot := p.findIdleLocked()
		if slot == nil {
			if len(p.workers) >= ceiling {
				return // task stays queued
			}
			newSlot, err := p.spawnWorkerLocked()
			if err != nil {
				p.logger.Error("dispatch: spawn failed", "error", err)
				return
			}
			slot = newSlot
		}

		sub := p.queue[0]
		p.queue = p.queue[1:]

		slot.idle = false
		slot.lastActiveAt = time.Now()
		pt := &pendingTask{sink: sub.sink, startedAt: time.Now()}
		workerID := slot.id
		pt.timer = time.AfterFunc(p.cfg.TaskTimeout, func() { p.onTimeout(workerID) })
		slot.pending = pt

		go p.runOnWorker(workerID, slot.handle, sub.task)
	}
}

func (p *Pool) findIdleLocked() *workerSlot {
	for _, slot := range p.workers {
		if slot.idle && slot.pending == nil {
			return slot
		}
	}
	return nil
}

// runOnWorker performs the blocking round-trip to the executor outside
// of mu, then reports the outcome back into the pool's serialised event
// handling. This is what keeps the pool itself from ever waiting on a
// worker.
func (p *Pool) runOnWorker(workerID int, handle executor.Handle, task types.Task) {
	result, err := handle.Execute(context.Background(), task)
	if err != nil {
		p.onCrash(workerID, err.Error())
		return
	}
	p.onCompletion(workerID, result)
}

// onCompletion is the completion handler.
func (p *Pool) onCompletion(workerID int, result types.TaskResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.workers[workerID]
	if !ok || slot.pending == nil {
		p.logger.Warn("completion for worker with no pending task", "worker_id", workerID)
		return
	}

	pending := slot.pending
	pending.timer.Stop()
	slot.pending = nil

	if result.IsOk() {
		p.health.RecordSuccess(time.Since(pending.startedAt))
		pending.sink.resolve(result)
	} else {
		p.health.RecordError()
		pending.sink.resolve(result)
	}

	slot.idle = true
	slot.lastActiveAt = time.Now()

	p.dispatchLocked(p.ceilingLocked())
}

// onTimeout is the timeout handler.
func (p *Pool) onTimeout(workerID int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.workers[workerID]
	if !ok || slot.pending == nil {
		return // already completed/crashed/shut down; nothing to do
	}

	pending := slot.pending
	slot.pending = nil
	pending.sink.resolve(types.ErrResult(types.ErrorTimeout, "task exceeded deadline"))
	p.health.RecordError()

	p.stopWorkerLocked(workerID)

	if !p.shuttingDown && len(p.workers) < p.cfg.MinWorkers {
		if _, err := p.spawnWorkerLocked(); err != nil {
			p.logger.Error("timeout: replacement spawn failed", "error", err)
		}
	}

	p.dispatchLocked(p.ceilingLocked())
}

// onCrash is the crash handler: an executor round-trip failed at
// the IPC level (broken pipe, malformed frame, forced kill), distinct
// from an Ok-tagged Err(InvalidRegex) result.
func (p *Pool) onCrash(workerID int, detail string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slot, ok := p.workers[workerID]
	if !ok {
		return // already removed by a timeout or shutdown
	}
	if slot.pending != nil {
		pending := slot.pending
		slot.pending = nil
		pending.timer.Stop()
		pending.sink.resolve(types.ErrResult(types.ErrorWorkerCrash, detail))
		p.health.RecordError()
	}

	p.stopWorkerLocked(workerID)

	if !p.shuttingDown && len(p.workers) < p.cfg.MinWorkers {
		if _, err := p.spawnWorkerLocked(); err != nil {
			p.logger.Error("crash: replacement spawn failed", "error", err)
		}
	}

	p.dispatchLocked(p.ceilingLocked())
}

// ceilingLocked returns the worker-count ceiling currently in effect.
func (p *Pool) ceilingLocked() int {
	if p.shuttingDown {
		return unboundedCeiling
	}
	return p.cfg.MaxWorkers
}

// idleLoop runs the periodic idle-check tick until Shutdown stops it.
func (p *Pool) idleLoop() {
	defer close(p.idleDone)
	for {
		select {
		case <-p.idleTicker.C:
			p.idleScaleDownTick()
		case <-p.idleStop:
			return
		}
	}
}

// idleScaleDownTick implements the idle scale-down rule. Comparing
// idle-long-enough workers against queue depth (rather than all idle
// workers) undercounts how many workers are safe to stop when the
// queue is non-empty; that undercount is intentional, not a bug.
func (p *Pool) idleScaleDownTick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.shuttingDown {
		return
	}

	now := time.Now()
	var idleLong []int
	for id, slot := range p.workers {
		if slot.idle && slot.pending == nil && now.Sub(slot.lastActiveAt) > p.cfg.IdleTimeout {
			idleLong = append(idleLong, id)
		}
	}

	q := len(p.queue)
	n := len(p.workers)
	minW := p.cfg.MinWorkers

	var terminate int
	if q > 0 {
		terminate = len(idleLong) - q
		if terminate < 0 {
			terminate = 0
		}
	} else {
		terminate = len(idleLong)
	}
	if cap := n - minW; terminate > cap {
		terminate = cap
	}
	if terminate <= 0 {
		return
	}

	for i := 0; i < terminate; i++ {
		p.stopWorkerLocked(idleLong[i])
	}
}

// Shutdown is idempotent. With
// drain=false every queued submission and outstanding PendingTask is
// rejected with ShuttingDown and every worker is stopped immediately.
// With drain=true the pool surges workers to cover the backlog, keeps
// dispatching until the backlog is empty or drainTimeout elapses, then
// performs the non-drain shutdown on whatever remains.
func (p *Pool) Shutdown(ctx context.Context, drain bool, drainTimeout time.Duration) {
	p.mu.Lock()
	if p.shuttingDown {
		p.mu.Unlock()
		return
	}
	p.shuttingDown = true
	p.mu.Unlock()

	p.idleTicker.Stop()
	close(p.idleStop)
	<-p.idleDone

	if drain {
		p.drain(ctx, drainTimeout)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, sub := range p.queue {
		sub.sink.resolve(types.ErrResult(types.ErrorShuttingDown, "pool is shutting down"))
	}
	p.queue = nil

	for id, slot := range p.workers {
		if slot.pending != nil {
			slot.pending.timer.Stop()
			slot.pending.sink.resolve(types.ErrResult(types.ErrorShuttingDown, "pool is shutting down"))
			slot.pending = nil
		}
		p.stopWorkerLocked(id)
	}
}

// drain implements the surge-then-wait phase of a drain shutdown.
// The max_workers ceiling is bypassed throughout: the pool is
// about to disappear and throughput matters more than the bound.
func (p *Pool) drain(ctx context.Context, drainTimeout time.Duration) {
	p.mu.Lock()
	q0 := len(p.queue)
	surge := q0
	if surge > p.cfg.DrainSurgeCap {
		surge = p.cfg.DrainSurgeCap
	}
	for len(p.workers) < surge {
		if _, err := p.spawnWorkerLocked(); err != nil {
			p.logger.Error("drain: surge spawn failed", "error", err)
			break
		}
	}
	p.dispatchLocked(unboundedCeiling)
	p.mu.Unlock()

	deadline := time.Now().Add(drainTimeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		p.mu.Lock()
		outstanding := len(p.queue) + p.pendingCountLocked()
		p.mu.Unlock()

		if outstanding == 0 || time.Now().After(deadline) {
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return
		}
	}
}

func (p *Pool) pendingCountLocked() int {
	n := 0
	for _, slot := range p.workers {
		if slot.pending != nil {
			n++
		}
	}
	return n
}
