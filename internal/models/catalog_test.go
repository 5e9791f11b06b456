package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouteModel(t *testing.T) {
	tests := []struct {
		modelID  string
		expected Provider
	}{
		// Slash always wins, even when the id matches another rule.
		{"some-vendor/some-model", ProviderOpenRouter},
		{"mistralai/mistral-large", ProviderOpenRouter},
		{"anthropic/claude-3.5-sonnet", ProviderOpenRouter},

		{"gpt-4o", ProviderOpenAI},
		{"gpt-4.1", ProviderOpenAI},
		{"o1", ProviderOpenAI},
		{"o3-mini", ProviderOpenAI},
		{"o4-mini-high", ProviderOpenAI},

		{"claude-opus-4-20250514", ProviderClaude},
		{"claude-3-5-haiku-latest", ProviderClaude},

		{"llama-3.3-70b-versatile", ProviderGroq},
		{"gemma2-9b-it", ProviderGroq},
		{"mixtral-8x7b-32768", ProviderGroq},

		{"mistral-large-latest", ProviderMistral},
		{"open-mixtral-8x22b", ProviderMistral},
		{"codestral-latest", ProviderMistral},

		{"deepseek-chat", ProviderDeepSeek},
		{"deepseek-reasoner", ProviderDeepSeek},

		{"gemini-2.0-flash", ProviderGemini},
		{"gemini-pro", ProviderGemini},

		// Unknown ids fall through to the passthrough provider.
		{"qwen-2.5-72b", ProviderOpenRouter},
		{"", ProviderOpenRouter},
	}

	for _, tt := range tests {
		t.Run(tt.modelID, func(t *testing.T) {
			assert.Equal(t, tt.expected, RouteModel(tt.modelID))
		})
	}
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, IsReasoningModel("o1"))
	assert.True(t, IsReasoningModel("o3-mini"))
	assert.True(t, IsReasoningModel("o4-mini"))

	// gpt prefix wins even when the id contains a reasoning substring.
	assert.False(t, IsReasoningModel("gpt-4o"))
	assert.False(t, IsReasoningModel("gpt-4o-mini"))
	assert.False(t, IsReasoningModel("claude-opus-4-20250514"))
}

func TestLookup_ClaudeCapabilities(t *testing.T) {
	opus := Lookup("claude-opus-4-20250514")
	assert.Equal(t, ProviderClaude, opus.Provider)
	assert.True(t, opus.SupportsThinking)
	assert.True(t, opus.SupportsWebSearch)
	assert.Equal(t, 1024, opus.CacheMinimumTokens)

	haiku := Lookup("claude-3-5-haiku-latest")
	assert.False(t, haiku.SupportsThinking)
	assert.Equal(t, 2048, haiku.CacheMinimumTokens)

	sonnet35 := Lookup("claude-3-5-sonnet-latest")
	assert.False(t, sonnet35.SupportsThinking)
	assert.True(t, sonnet35.SupportsWebSearch)
}

func TestLookup_OtherProviders(t *testing.T) {
	o3 := Lookup("o3-mini")
	assert.Equal(t, ProviderOpenAI, o3.Provider)
	assert.True(t, o3.Reasoning)

	pro := Lookup("gemini-pro")
	assert.True(t, pro.MultiTurnChat)

	flash := Lookup("gemini-2.0-flash")
	assert.False(t, flash.MultiTurnChat)
}

func TestSupportsPromptCaching(t *testing.T) {
	assert.True(t, SupportsPromptCaching("claude-opus-4-20250514"))
	assert.True(t, SupportsPromptCaching("claude-3-5-haiku-latest"))
	assert.False(t, SupportsPromptCaching("gpt-4o"))
	assert.False(t, SupportsPromptCaching("deepseek-chat"))
}

func TestImageModelEnvelopes(t *testing.T) {
	imagen, ok := ImageModel("imagen-4.0-generate-preview")
	assert.True(t, ok)
	assert.Equal(t, ProviderGemini, imagen.Provider)
	assert.Equal(t, 4, imagen.MaxImages)
	assert.Len(t, imagen.AspectRatios, 5)

	flash, _ := ImageModel("gemini-2.0-flash-preview-image-generation")
	assert.Equal(t, 1, flash.MaxImages)
	assert.True(t, flash.PromptEnhancement)

	assert.False(t, IsImageModel("gpt-4o"))

	// Every fallback-chain entry has an envelope.
	for _, id := range ImageFallbackOrder {
		_, ok := ImageModel(id)
		assert.True(t, ok, "fallback model %s missing envelope", id)
	}
}
