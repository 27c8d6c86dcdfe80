package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchesPatternTrueOnMatch(t *testing.T) {
	assert.True(t, MatchesPattern("wor.d", "", "hello world"))
}

func TestMatchesPatternFalseOnNoMatch(t *testing.T) {
	assert.False(t, MatchesPattern("xyz", "", "hello world"))
}

func TestMatchesPatternCaseInsensitiveFlag(t *testing.T) {
	assert.True(t, MatchesPattern("WORLD", "i", "hello world"))
	assert.False(t, MatchesPattern("WORLD", "", "hello world"))
}

func TestMatchesPatternInvalidPatternIsNoMatch(t *testing.T) {
	assert.False(t, MatchesPattern("(unclosed", "", "anything"))
}
