// ============================================================================
// Subpool Substitution Orchestrator
// ============================================================================
//
// Package: internal/orchestrator
// File: orchestrator.go
// Function: Walks an ordered chain of SubstitutionCommands, feeding each
// through the pool one task per step, threading the result text from
// step to step, and classifying the first failure into a user-facing
// message.
//
// Generalizes: internal/controller.Controller's dispatchLoop/resultLoop
// pair - there, a background goroutine pulled jobs and another consumed
// results asynchronously across the whole job population. Here there is
// exactly one logical caller per chain and it runs synchronously with
// respect to its own steps, so the loop/channel pair collapses into a
// single blocking walk: submit, receive on the sink, thread the text,
// repeat.
//
// ============================================================================

package orchestrator

import (
	"fmt"
	"time"

	"github.com/corvidlabs/subpool/internal/advisor"
	"github.com/corvidlabs/subpool/internal/pool"
	"github.com/corvidlabs/subpool/pkg/types"
)

// Config carries the upstream-enforced bounds the orchestrator itself
// does not own but must respect when formatting output.
type Config struct {
	MaxMessageLength int
}

// Orchestrator walks chains through a pool.
type Orchestrator struct {
	pool *pool.Pool
	cfg  Config
}

// New builds an Orchestrator bound to p.
func New(p *pool.Pool, cfg Config) *Orchestrator {
	return &Orchestrator{pool: p, cfg: cfg}
}

// ChainResult is the outcome of one RunChain call - the orchestrator's
// single primary output.
type ChainResult struct {
	Text        string
	TimingLine  string
	Warnings    []string
	Aborted     bool
	ErrorKind   types.ErrorKind
	UserMessage string
}

// RunChain applies commands to initialText left to right, submitting one
// task per step to the pool and aborting the chain on the first
// failure. No intermediate step produces user-visible output - only the
// final ChainResult is surfaced.
func (o *Orchestrator) RunChain(initialText string, commands []types.SubstitutionCommand, includePerformance bool, taskTimeout time.Duration) ChainResult {
	var t0 time.Time
	if includePerformance {
		t0 = time.Now()
	}

	current := initialText
	var warnings []string

	for _, c := range commands {
		pattern := decodePattern(c.Pattern())
		replacement := decodeReplacement(c.Replacement())

		if !advisor.IsSimple(pattern) {
			report := advisor.Detect(pattern)
			warnings = append(warnings, advisor.FormatWarning(pattern, report))
		}

		step := c.WithPatternAndReplacement(pattern, replacement)
		task := types.Task{
			InitialText:        current,
			Commands:           []types.SubstitutionCommand{step},
			IncludePerformance: includePerformance,
			Deadline:           taskTimeout,
		}

		result := <-o.pool.Run(task)

		if !result.IsOk() {
			return ChainResult{
				Text:        current,
				Warnings:    warnings,
				Aborted:     true,
				ErrorKind:   result.ErrKind,
				UserMessage: classifyError(result.ErrKind, result.Detail, pattern),
			}
		}
		current = result.Text
	}

	out := ChainResult{Warnings: warnings}
	if includePerformance {
		delta := time.Since(t0)
		line := fmt.Sprintf("(%.1fms)", float64(delta)/float64(time.Millisecond))
		out.TimingLine = line

		combined := current + " " + line
		if len([]rune(combined)) > o.cfg.MaxMessageLength {
			// Keep the result and append timing separately rather than
			// inline, so truncation never clips the timing marker.
			out.Text = truncate(current, o.cfg.MaxMessageLength)
		} else {
			out.Text = truncate(combined, o.cfg.MaxMessageLength)
			out.TimingLine = ""
		}
		return out
	}

	out.Text = truncate(current, o.cfg.MaxMessageLength)
	return out
}

// classifyError renders the user-facing message for each failure kind.
// InvalidRegex carries pattern context; Timeout and the
// WorkerCrash/ShuttingDown pair are intentionally generic - the user
// cannot act on executor internals.
func classifyError(kind types.ErrorKind, detail, pattern string) string {
	switch kind {
	case types.ErrorInvalidRegex:
		return fmt.Sprintf("Invalid pattern `%s`: %s", pattern, detail)
	case types.ErrorTimeout:
		return "That substitution took too long and was stopped."
	case types.ErrorWorkerCrash, types.ErrorShuttingDown:
		return "Something went wrong running that substitution. Try again."
	default:
		return "Something went wrong running that substitution. Try again."
	}
}
