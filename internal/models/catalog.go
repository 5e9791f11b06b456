// Package models is the declarative capability catalog for every model id the
// portal can route. Provider selection, thinking/web-search eligibility, cache
// minimums, image envelopes and pricing all live in this one table so that the
// routing decision is a single lookup instead of conditionals scattered across
// adapters.
package models

import "strings"

// Provider identifies which protocol adapter services a model id.
type Provider string

const (
	ProviderOpenAI     Provider = "openai"
	ProviderClaude     Provider = "claude"
	ProviderGemini     Provider = "gemini"
	ProviderGroq       Provider = "groq"
	ProviderMistral    Provider = "mistral"
	ProviderDeepSeek   Provider = "deepseek"
	ProviderOpenRouter Provider = "openrouter"
)

// Capability describes what the portal knows about a model id.
type Capability struct {
	Provider           Provider
	SupportsThinking   bool
	SupportsWebSearch  bool
	Reasoning          bool // uses the OpenAI Responses protocol
	MultiTurnChat      bool // Gemini chat-session mode
	CacheMinimumTokens int  // 0 means prompt caching unsupported
}

// Claude models with extended-thinking output.
var claudeThinkingModels = map[string]bool{
	"claude-3-7-sonnet-latest":  true,
	"claude-opus-4-20250514":    true,
	"claude-sonnet-4-20250514":  true,
}

// Claude models that get the web-search tool attached by default.
var claudeWebSearchModels = map[string]bool{
	"claude-opus-4-20250514":   true,
	"claude-sonnet-4-20250514": true,
	"claude-3-7-sonnet-latest": true,
	"claude-3-5-sonnet-latest": true,
}

// Minimum cacheable segment size per model. Models absent from this table but
// prefixed "claude" fall back to 1024.
var cacheMinimums = map[string]int{
	"claude-opus-4-20250514":   1024,
	"claude-sonnet-4-20250514": 1024,
	"claude-3-7-sonnet-latest": 1024,
	"claude-3-5-sonnet-latest": 1024,
	"claude-3-5-haiku-latest":  2048,
	"claude-3-haiku-20240307":  2048,
}

const defaultClaudeCacheMinimum = 1024

// Model ids hosted on Groq that don't carry a llama/gemma prefix.
var groqHostedModels = map[string]bool{
	"mixtral-8x7b-32768": true,
}

const codestralModel = "codestral-latest"

// RouteModel implements the portal's ordered routing table. First match wins
// and the table is total: every id resolves to some provider.
func RouteModel(modelID string) Provider {
	switch {
	case strings.Contains(modelID, "/"):
		return ProviderOpenRouter
	case strings.HasPrefix(modelID, "gpt") ||
		strings.Contains(modelID, "o1") ||
		strings.Contains(modelID, "o3") ||
		strings.Contains(modelID, "o4"):
		return ProviderOpenAI
	case strings.HasPrefix(modelID, "claude"):
		return ProviderClaude
	case strings.HasPrefix(modelID, "llama") ||
		strings.HasPrefix(modelID, "gemma") ||
		groqHostedModels[modelID]:
		return ProviderGroq
	case strings.Contains(modelID, "mistral") ||
		strings.Contains(modelID, "mixtral") ||
		modelID == codestralModel:
		return ProviderMistral
	case strings.Contains(modelID, "deepseek"):
		return ProviderDeepSeek
	case strings.HasPrefix(modelID, "gemini"):
		return ProviderGemini
	default:
		return ProviderOpenRouter
	}
}

// IsReasoningModel reports whether the id belongs to the o1/o3/o4 family that
// speaks the Responses protocol instead of chat completions.
func IsReasoningModel(modelID string) bool {
	if strings.HasPrefix(modelID, "gpt") {
		return false
	}
	for _, pattern := range []string{"o1", "o3", "o4"} {
		if strings.Contains(modelID, pattern) {
			return true
		}
	}
	return false
}

// Lookup returns the capability record for a model id.
func Lookup(modelID string) Capability {
	provider := RouteModel(modelID)

	cap := Capability{Provider: provider}

	switch provider {
	case ProviderOpenAI:
		cap.Reasoning = IsReasoningModel(modelID)
	case ProviderClaude:
		cap.SupportsThinking = claudeThinkingModels[modelID]
		cap.SupportsWebSearch = claudeWebSearchModels[modelID]
		if min, ok := cacheMinimums[modelID]; ok {
			cap.CacheMinimumTokens = min
		} else {
			cap.CacheMinimumTokens = defaultClaudeCacheMinimum
		}
	case ProviderGemini:
		cap.MultiTurnChat = modelID == "gemini-pro"
	}

	return cap
}

// CacheMinimum returns the minimum segment token count for prompt caching,
// or 0 when the model does not support caching at all.
func CacheMinimum(modelID string) int {
	return Lookup(modelID).CacheMinimumTokens
}

// SupportsPromptCaching reports whether the model can carry cache_control
// markers.
func SupportsPromptCaching(modelID string) bool {
	return strings.HasPrefix(modelID, "claude")
}
