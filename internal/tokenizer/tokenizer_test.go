package tokenizer

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("hi"))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 25, EstimateTokens(strings.Repeat("a", 100)))
}

func TestTiktokenCounter_Count(t *testing.T) {
	c := NewTiktokenCounter(slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Exact BPE count for OpenAI-family models, estimate otherwise; both
	// must return something positive for non-empty text.
	assert.Positive(t, c.Count("hello world, this is a test", "gpt-4o"))
	assert.Positive(t, c.Count("hello world, this is a test", "claude-opus-4-20250514"))
	assert.Zero(t, c.Count("", "gpt-4o"))
}

func TestUsesCL100K(t *testing.T) {
	assert.True(t, usesCL100K("gpt-4o"))
	assert.True(t, usesCL100K("o3-mini"))
	assert.False(t, usesCL100K("claude-3-5-haiku-latest"))
	assert.False(t, usesCL100K("mistral-large-latest"))
}
