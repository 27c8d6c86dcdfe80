// ============================================================================
// Subpool Task Executor - goja Regex Runner
// ============================================================================
//
// Package: internal/executor
// File: runner.go
// Purpose: The actual regex-compile-and-substitute step, run inside the
// executor subprocess. Isolation from the parent is provided by the OS
// process boundary; this file only needs to worry about
// producing the right text, not about surviving a runaway match - a
// catastrophically backtracking pattern hangs this process, and the
// pool kills the process from outside.
//
// Engine choice: github.com/dop251/goja, a JS runtime. goja's native
// RegExp supports exactly the flag alphabet this system recognises
// (g i m s u y) and exactly the replacement-string backreference
// syntax ($1, $<name>, $&) the orchestrator's escape-decoding step
// targets, so "compile one regex with these flags and run one
// replace/replaceAll" maps directly onto goja's RegExp + String
// methods with no translation layer.
//
// ============================================================================

package executor

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// runScript is evaluated once per command with __input/__pattern/__flags/
// __replacement bound as globals. It dispatches to replaceAll when the
// global flag is set (goja's replaceAll rejects non-global patterns, so
// the branch is required, not cosmetic) and to replace otherwise.
const runScript = `
(function () {
	var re = new RegExp(__pattern, __flags);
	if (re.global) {
		return __input.replaceAll(re, __replacement);
	}
	return __input.replace(re, __replacement);
})();
`

// applyCommand runs one substitution command against input and returns
// the substituted text, or an error if the pattern/flags fail to
// compile or the replace itself throws.
func applyCommand(input string, cmd wireCommand) (string, error) {
	vm := goja.New()
	if err := vm.Set("__input", input); err != nil {
		return "", fmt.Errorf("executor: bind input: %w", err)
	}
	if err := vm.Set("__pattern", cmd.Pattern); err != nil {
		return "", fmt.Errorf("executor: bind pattern: %w", err)
	}
	if err := vm.Set("__flags", cmd.Flags); err != nil {
		return "", fmt.Errorf("executor: bind flags: %w", err)
	}
	if err := vm.Set("__replacement", cmd.Replacement); err != nil {
		return "", fmt.Errorf("executor: bind replacement: %w", err)
	}

	value, err := vm.RunString(runScript)
	if err != nil {
		return "", err
	}
	return value.String(), nil
}

// runRequest applies every command in req in order, threading the
// result of each through to the next - the same left-to-right chaining
// the orchestrator performs at the task level, collapsed here to the
// (usually single) command(s) in one request.
func runRequest(req execRequest) execResponse {
	start := time.Now()
	current := req.InitialText
	for _, cmd := range req.Commands {
		next, err := applyCommand(current, cmd)
		if err != nil {
			return execResponse{Error: err.Error()}
		}
		current = next
	}

	resp := execResponse{Result: current}
	if req.IncludePerformance {
		ms := float64(time.Since(start)) / float64(time.Millisecond)
		resp.PerformanceMS = &ms
	}
	return resp
}
