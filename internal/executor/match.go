// ============================================================================
// Subpool Task Executor - Standalone Pattern Test
// ============================================================================
//
// Package: internal/executor
// File: match.go
// Purpose: A pure, in-process pattern test used by internal/chatbot to
// find which stored message a chain's first command targets. This is
// not part of the isolated-execution contract - it never runs
// inside the subprocess and carries no deadline - because it only ever
// runs against text already known to be in the store, not adversarial
// input submitted fresh by a chat participant. It exists so target
// matching uses the same regex flavour (goja's native RegExp) as actual
// substitution, rather than a second, subtly different engine.
//
// ============================================================================

package executor

import "github.com/dop251/goja"

// MatchesPattern reports whether text matches pattern under flags, using
// the same goja RegExp semantics the subprocess executor applies.
// Compilation failures are treated as "no match" - target lookup is best
// effort, and a bad pattern will be reported properly once it reaches
// the real substitution path.
func MatchesPattern(pattern, flags, text string) bool {
	vm := goja.New()
	if err := vm.Set("__text", text); err != nil {
		return false
	}
	if err := vm.Set("__pattern", pattern); err != nil {
		return false
	}
	if err := vm.Set("__flags", flags); err != nil {
		return false
	}
	value, err := vm.RunString(`new RegExp(__pattern, __flags).test(__text)`)
	if err != nil {
		return false
	}
	return value.ToBoolean()
}
