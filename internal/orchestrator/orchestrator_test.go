package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvidlabs/subpool/internal/executor"
	"github.com/corvidlabs/subpool/internal/pool"
	"github.com/corvidlabs/subpool/pkg/types"
)

type stubHandle struct {
	execute func(types.Task) (types.TaskResult, error)
}

func (h *stubHandle) Execute(_ context.Context, task types.Task) (types.TaskResult, error) {
	return h.execute(task)
}
func (h *stubHandle) Stop() {}

func newTestPool(execute func(types.Task) (types.TaskResult, error)) *pool.Pool {
	cfg := pool.Config{
		MinWorkers:        0,
		MaxWorkers:        2,
		InitialWorkers:    0,
		TaskTimeout:       time.Second,
		IdleTimeout:       time.Hour,
		IdleCheckInterval: time.Hour,
		DrainSurgeCap:     pool.DefaultDrainSurgeCap,
		HealthQueueCap:    100,
		HealthErrCap:      1,
		NewHandle: func(executor.Spec) (executor.Handle, error) {
			return &stubHandle{execute: execute}, nil
		},
	}
	return pool.New(cfg, nil)
}

func uppercaseEachStep(task types.Task) (types.TaskResult, error) {
	return types.OkResult(strings.ToUpper(task.InitialText), nil), nil
}

func cmd(pattern, replacement string) types.SubstitutionCommand {
	c, _ := types.NewSubstitutionCommand(pattern, "", replacement)
	return c
}

func TestRunChainAppliesStepsInOrder(t *testing.T) {
	p := newTestPool(uppercaseEachStep)
	defer p.Shutdown(context.Background(), false, 0)
	o := New(p, Config{MaxMessageLength: 4096})

	result := o.RunChain("hello", []types.SubstitutionCommand{cmd("h", "H"), cmd("e", "E")}, false, time.Second)

	assert.False(t, result.Aborted)
	assert.Equal(t, "HELLO", result.Text)
}

func TestRunChainAbortsOnFirstFailureAndClassifiesError(t *testing.T) {
	calls := 0
	p := newTestPool(func(task types.Task) (types.TaskResult, error) {
		calls++
		if calls == 1 {
			return types.OkResult("step one done", nil), nil
		}
		return types.ErrResult(types.ErrorInvalidRegex, "unterminated group"), nil
	})
	defer p.Shutdown(context.Background(), false, 0)
	o := New(p, Config{MaxMessageLength: 4096})

	result := o.RunChain("start", []types.SubstitutionCommand{cmd("a", "b"), cmd("(bad", "x")}, false, time.Second)

	require.True(t, result.Aborted)
	assert.Equal(t, types.ErrorInvalidRegex, result.ErrorKind)
	assert.Contains(t, result.UserMessage, "Invalid pattern")
	assert.Equal(t, 2, calls) // chain never reaches a third step
}

func TestRunChainAttachesAdvisorWarningForDangerousPattern(t *testing.T) {
	p := newTestPool(uppercaseEachStep)
	defer p.Shutdown(context.Background(), false, 0)
	o := New(p, Config{MaxMessageLength: 4096})

	result := o.RunChain("input", []types.SubstitutionCommand{cmd("(a+)+", "x")}, false, time.Second)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "backtrack")
}

func TestRunChainNoWarningForSimplePattern(t *testing.T) {
	p := newTestPool(uppercaseEachStep)
	defer p.Shutdown(context.Background(), false, 0)
	o := New(p, Config{MaxMessageLength: 4096})

	result := o.RunChain("input", []types.SubstitutionCommand{cmd("abc", "xyz")}, false, time.Second)
	assert.Empty(t, result.Warnings)
}

func TestRunChainTimingInlineWhenItFits(t *testing.T) {
	p := newTestPool(func(types.Task) (types.TaskResult, error) {
		return types.OkResult("short", nil), nil
	})
	defer p.Shutdown(context.Background(), false, 0)
	o := New(p, Config{MaxMessageLength: 4096})

	result := o.RunChain("input", []types.SubstitutionCommand{cmd("a", "b")}, true, time.Second)

	assert.Empty(t, result.TimingLine)
	assert.Contains(t, result.Text, "short")
	assert.Contains(t, result.Text, "ms)")
}

func TestRunChainTimingSeparateWhenMessageTooLong(t *testing.T) {
	longText := strings.Repeat("x", 20)
	p := newTestPool(func(types.Task) (types.TaskResult, error) {
		return types.OkResult(longText, nil), nil
	})
	defer p.Shutdown(context.Background(), false, 0)
	o := New(p, Config{MaxMessageLength: len(longText)}) // no room left for a timing suffix

	result := o.RunChain("input", []types.SubstitutionCommand{cmd("a", "b")}, true, time.Second)

	assert.Equal(t, longText, result.Text)
	assert.NotEmpty(t, result.TimingLine)
}

func TestRunChainTruncatesFinalText(t *testing.T) {
	p := newTestPool(func(types.Task) (types.TaskResult, error) {
		return types.OkResult(strings.Repeat("a", 100), nil), nil
	})
	defer p.Shutdown(context.Background(), false, 0)
	o := New(p, Config{MaxMessageLength: 10})

	result := o.RunChain("input", []types.SubstitutionCommand{cmd("a", "b")}, false, time.Second)
	assert.Len(t, []rune(result.Text), 10)
}
