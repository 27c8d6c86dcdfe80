package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodePatternUnescapesSlash(t *testing.T) {
	assert.Equal(t, "a/b", decodePattern(`a\/b`))
	assert.Equal(t, "no-slash", decodePattern("no-slash"))
}

func TestDecodeReplacementUnescapesSlashNewlineTab(t *testing.T) {
	assert.Equal(t, "a/b", decodeReplacement(`a\/b`))
	assert.Equal(t, "a\nb", decodeReplacement(`a\nb`))
	assert.Equal(t, "a\tb", decodeReplacement(`a\tb`))
}

func TestDecodeReplacementTranslatesNumericBackreferences(t *testing.T) {
	assert.Equal(t, "$1-$2", decodeReplacement(`\1-\2`))
}

func TestDecodeReplacementLeavesUnknownEscapesAlone(t *testing.T) {
	assert.Equal(t, `a\qb`, decodeReplacement(`a\qb`))
}

func TestDecodeReplacementTrailingBackslashIsLiteral(t *testing.T) {
	assert.Equal(t, `a\`, decodeReplacement(`a\`))
}

func TestTruncateLeavesShortStringUntouched(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
}

func TestTruncateCutsToRuneCount(t *testing.T) {
	assert.Equal(t, "hel", truncate("hello", 3))
}

func TestTruncateIsRuneSafe(t *testing.T) {
	// 3 multi-byte runes; truncating to 2 must not split a rune.
	s := "日本語"
	assert.Equal(t, "日本", truncate(s, 2))
}
