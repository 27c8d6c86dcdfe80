package chatbot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChainSingleStep(t *testing.T) {
	commands, includePerformance, ok := ParseChain("s/foo/bar/g", 10)
	require.True(t, ok)
	require.Len(t, commands, 1)
	assert.False(t, includePerformance)
	assert.Equal(t, "foo", commands[0].Pattern())
	assert.Equal(t, "bar", commands[0].Replacement())
	assert.Equal(t, "g", commands[0].Flags().String())
}

func TestParseChainMultipleSteps(t *testing.T) {
	commands, _, ok := ParseChain("s/foo/bar/ && s/baz/qux/i", 10)
	require.True(t, ok)
	require.Len(t, commands, 2)
	assert.Equal(t, "foo", commands[0].Pattern())
	assert.Equal(t, "baz", commands[1].Pattern())
}

func TestParseChainDetectsPerformanceMarker(t *testing.T) {
	_, includePerformance, ok := ParseChain("s/foo/bar/p", 10)
	require.True(t, ok)
	assert.True(t, includePerformance)
}

func TestParseChainRejectsNonSubstitutionText(t *testing.T) {
	_, _, ok := ParseChain("just a regular chat message", 10)
	assert.False(t, ok)
}

func TestParseChainRejectsBeyondMaxChainLength(t *testing.T) {
	_, _, ok := ParseChain("s/a/b/ && s/c/d/ && s/e/f/", 2)
	assert.False(t, ok)
}

func TestParseChainEscapedSlashWithinPattern(t *testing.T) {
	commands, _, ok := ParseChain(`s/a\/b/c/`, 10)
	require.True(t, ok)
	require.Len(t, commands, 1)
	assert.Equal(t, `a\/b`, commands[0].Pattern())
}

func TestParseChainEscapedAmpersandDoesNotSplitChain(t *testing.T) {
	commands, _, ok := ParseChain(`s/a/b\&&c/`, 10)
	require.True(t, ok)
	require.Len(t, commands, 1)
	assert.Equal(t, `b\&&c`, commands[0].Replacement())
}

func TestParseChainRejectsMalformedStep(t *testing.T) {
	_, _, ok := ParseChain("s/onlyonefield", 10)
	assert.False(t, ok)
}

func TestLeadingLettersStopsAtFirstNonLetter(t *testing.T) {
	assert.Equal(t, "gi", leadingLetters("gi9"))
	assert.Equal(t, "", leadingLetters("9gi"))
}
