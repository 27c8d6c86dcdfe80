// ============================================================================
// Subpool Chatbot - Chain Parser
// ============================================================================
//
// Package: internal/chatbot
// File: parser.go
// Purpose: Parses the chat-message syntax the upstream chat-protocol
// integration (out of scope for the core itself) is assumed to
// produce: one or more `s/pattern/replacement/flags` steps joined by
// `&&`. This is the "upstream code parses a message into an ordered
// chain" step the core's data-flow assumes - supplemented here since
// the core's contract specifies only the input shape, not how a raw
// message becomes it.
//
// ============================================================================

package chatbot

import (
	"strings"

	"github.com/corvidlabs/subpool/pkg/types"
)

const chainSeparator = "&&"

// ParseChain parses raw chat text into a chain of SubstitutionCommands.
// ok is false if raw is not a substitution chain at all, or if it
// exceeds maxChainLength steps - upstream's enforcement of
// "max_chain_length", reproduced here since this package stands in for
// that upstream layer.
func ParseChain(raw string, maxChainLength int) (commands []types.SubstitutionCommand, includePerformance bool, ok bool) {
	parts := splitUnescaped(raw, chainSeparator)
	if len(parts) == 0 {
		return nil, false, false
	}
	if maxChainLength > 0 && len(parts) > maxChainLength {
		return nil, false, false
	}

	for _, part := range parts {
		cmd, stepOK, perf := parseStep(strings.TrimSpace(part))
		if !stepOK {
			return nil, false, false
		}
		commands = append(commands, cmd)
		if perf {
			includePerformance = true
		}
	}
	return commands, includePerformance, true
}

// parseStep parses one "s/pattern/replacement/flags" token.
func parseStep(token string) (cmd types.SubstitutionCommand, ok bool, includePerformance bool) {
	if !strings.HasPrefix(token, "s/") {
		return types.SubstitutionCommand{}, false, false
	}
	fields, fieldsOK := splitUnescapedSlash(token[2:], 2)
	if !fieldsOK {
		return types.SubstitutionCommand{}, false, false
	}

	pattern, replacement, tail := fields[0], fields[1], fields[2]
	flags := leadingLetters(tail)

	cmd, includePerformance = types.NewSubstitutionCommand(pattern, flags, replacement)
	return cmd, true, includePerformance
}

// splitUnescaped splits s on every occurrence of sep that is not
// immediately preceded by a backslash.
func splitUnescaped(s, sep string) []string {
	var out []string
	start := 0
	for i := 0; i+len(sep) <= len(s); i++ {
		if s[i:i+len(sep)] != sep {
			continue
		}
		if i > 0 && s[i-1] == '\\' {
			continue
		}
		out = append(out, s[start:i])
		start = i + len(sep)
		i = start - 1
	}
	out = append(out, s[start:])
	return out
}

// splitUnescapedSlash splits s into exactly n+1 fields on the first n
// unescaped '/' characters, leaving the remainder (which may itself
// contain '/') as the final field.
func splitUnescapedSlash(s string, n int) ([]string, bool) {
	var fields []string
	var cur strings.Builder
	count := 0

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' && i+1 < len(s) {
			cur.WriteByte(c)
			cur.WriteByte(s[i+1])
			i++
			continue
		}
		if c == '/' && count < n {
			fields = append(fields, cur.String())
			cur.Reset()
			count++
			continue
		}
		cur.WriteByte(c)
	}
	fields = append(fields, cur.String())

	if len(fields) != n+1 {
		return nil, false
	}
	return fields, true
}

// leadingLetters returns the leading run of ASCII letters in s.
func leadingLetters(s string) string {
	for i := 0; i < len(s); i++ {
		if (s[i] < 'a' || s[i] > 'z') && (s[i] < 'A' || s[i] > 'Z') {
			return s[:i]
		}
	}
	return s
}
