// ============================================================================
// Subpool Task Executor - Subprocess Handle
// ============================================================================
//
// Package: internal/executor
// File: process.go
// Purpose: The parent-side half of the executor capability: spawn() ->
// Executor, Executor.submit(task) -> future, Executor.stop(). One
// Handle is bound 1:1 to one WorkerSlot for its
// whole lifetime; the pool replaces the Handle (and the slot) rather
// than reusing it once Stop has been called.
//
// ============================================================================

package executor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/corvidlabs/subpool/pkg/types"
)

// Spec identifies the executor binary/script to spawn - a
// platform-specific handle identifying the executor binary/script.
type Spec struct {
	Command string
	Args    []string
}

// Handle is one running executor instance, bound to one worker.
type Handle interface {
	// Execute runs one task to completion. A non-nil error means the
	// executor itself failed to communicate (process crash, malformed
	// frame, or the handle was stopped out from under an in-flight
	// call) - the pool treats that as WorkerCrash. InvalidRegex arrives
	// instead as a nil error with a TaskResult carrying that Err kind;
	// Timeout never comes from Execute, the pool's own timer produces it.
	Execute(ctx context.Context, task types.Task) (types.TaskResult, error)

	// Stop unilaterally and forcibly terminates the executor. Safe to
	// call more than once and safe to call while Execute is in flight -
	// killing the process is exactly what unblocks a concurrent Execute
	// stuck reading a response from a catastrophically backtracking
	// match.
	Stop()
}

// Spawn starts one executor subprocess per spec and returns a Handle
// bound to it. The subprocess is expected to run internal/executor's
// Serve loop (wired up by cmd/subd's hidden "exec-task" command).
func Spawn(spec Spec) (Handle, error) {
	cmd := exec.Command(spec.Command, spec.Args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("executor: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("executor: stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("executor: start subprocess: %w", err)
	}

	return &subprocessHandle{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// subprocessHandle is the os/exec-backed Handle implementation, the
// default realisation of the executor isolation capability. Execute
// calls are serialised by callMu because the wire protocol is strictly
// request/response (one frame answers one frame); the pool only ever
// has one task in flight per worker anyway, so this is not a
// contended lock in practice.
type subprocessHandle struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	callMu   sync.Mutex
	stopOnce sync.Once
}

func (h *subprocessHandle) Execute(_ context.Context, task types.Task) (types.TaskResult, error) {
	h.callMu.Lock()
	defer h.callMu.Unlock()

	req := execRequest{
		InitialText:        task.InitialText,
		IncludePerformance: task.IncludePerformance,
	}
	for _, c := range task.Commands {
		req.Commands = append(req.Commands, wireCommand{
			Pattern:     c.Pattern(),
			Flags:       c.Flags().String(),
			Replacement: c.Replacement(),
		})
	}

	if err := writeFrame(h.stdin, req); err != nil {
		return types.TaskResult{}, err
	}

	var resp execResponse
	if err := readFrame(h.stdout, &resp); err != nil {
		return types.TaskResult{}, err
	}

	if resp.Error != "" {
		return types.ErrResult(types.ErrorInvalidRegex, resp.Error), nil
	}
	return types.OkResult(resp.Result, resp.PerformanceMS), nil
}

// Stop kills the subprocess unconditionally. It does not wait for the
// process to exit - the pool must not block its own goroutines on a
// worker.
func (h *subprocessHandle) Stop() {
	h.stopOnce.Do(func() {
		_ = h.stdin.Close()
		if h.cmd.Process != nil {
			_ = h.cmd.Process.Kill()
		}
		go func() { _ = h.cmd.Wait() }() // reap, without blocking the caller
	})
}
