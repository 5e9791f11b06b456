// Package providers contains the protocol adapters that translate the
// canonical chat contract into each vendor's wire protocol, and the router
// that composes them behind one entry point.
package providers

import (
	"context"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/session"
)

// Adapter is the contract every protocol adapter satisfies. Handle's only
// persistent effect is appending the formatted user turn and the parsed
// assistant turn to the session state.
type Adapter interface {
	Name() models.Provider
	FormatUserInput(text string, file *llm.FileRef, image *llm.ImageRef) llm.Message
	Handle(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error)
}

// Keys holds the per-vendor API keys the adapters authenticate with.
type Keys struct {
	OpenAI     string
	Anthropic  string
	Google     string
	Groq       string
	Mistral    string
	Codestral  string
	DeepSeek   string
	OpenRouter string
}

// Defaults applied when the canonical request leaves fields unset.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 4096
)

func temperatureOrDefault(t float64) float64 {
	if t == 0 {
		return DefaultTemperature
	}
	return t
}

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}
