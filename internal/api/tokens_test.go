package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountTokensEmptyText(t *testing.T) {
	assert.Zero(t, CountTokens("any-model", ""))
}

func TestCountTokensHeuristicForUnknownModel(t *testing.T) {
	// Unknown model ids fall through to the word heuristic.
	n := CountTokens("test-model", "one two three four five six seven eight nine ten")
	assert.Equal(t, 13, n)
}

func TestCountTokensNeverReportsZeroForText(t *testing.T) {
	assert.Equal(t, 1, CountTokens("test-model", strings.Repeat("x", 30)))
	assert.Equal(t, 1, CountTokens("test-model", "hi"))
}

func TestCountTokensScalesWithLength(t *testing.T) {
	short := CountTokens("test-model", "a few words")
	long := CountTokens("test-model", strings.Repeat("a few words ", 50))
	assert.Greater(t, long, short)
}

func TestCountTokensCachesEncodingMiss(t *testing.T) {
	CountTokens("made-up-model", "text")
	encMu.Lock()
	_, cached := encCache["made-up-model"]
	encMu.Unlock()
	assert.True(t, cached)
}
