// ============================================================================
// Subpool Worker Pool - Internal Bookkeeping Types
// ============================================================================
//
// Package: internal/pool
// File: types.go
// Purpose: WorkerSlot, PendingTask, the completion sink, and the queued
// submission record - the pool's private state, all mutated only while
// Pool.mu is held. The pool's own bookkeeping is serialised entirely
// by that one mutex.
//
// ============================================================================

package pool

import (
	"sync"
	"time"

	"github.com/corvidlabs/subpool/internal/executor"
	"github.com/corvidlabs/subpool/pkg/types"
)

// sink is a single-assignment completion channel handed back to the
// caller of Run.
type sink struct {
	ch   chan types.TaskResult
	once sync.Once
}

func newSink() *sink {
	return &sink{ch: make(chan types.TaskResult, 1)}
}

// resolve delivers r exactly once; later calls are no-ops, which is what
// makes "at-most-once resolution" hold even when a timeout and a late
// completion race to resolve the same sink.
func (s *sink) resolve(r types.TaskResult) {
	s.once.Do(func() {
		s.ch <- r
	})
}

// submission is one queued (task, sink) pair awaiting dispatch.
type submission struct {
	task types.Task
	sink *sink
}

// pendingTask exists for the interval between dispatch and
// completion/timeout/crash.
type pendingTask struct {
	sink      *sink
	timer     *time.Timer
	startedAt time.Time
}

// workerSlot is one live executor binding. Invariant: exactly one of
// {idle, has-pending-task} holds at any time.
type workerSlot struct {
	id           int
	handle       executor.Handle
	idle         bool
	lastActiveAt time.Time
	pending      *pendingTask
}
