package providers

import (
	"context"
	"log/slog"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/session"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterAdapter is the passthrough adapter: any model ID the catalog
// does not claim for a dedicated vendor is forwarded verbatim to
// OpenRouter's OpenAI-compatible endpoint.
type OpenRouterAdapter struct {
	openaiCompatible
}

func NewOpenRouterAdapter(apiKey string, logger *slog.Logger) *OpenRouterAdapter {
	return &OpenRouterAdapter{
		openaiCompatible: openaiCompatible{
			vendor:  "OpenRouter",
			baseURL: openRouterBaseURL,
			apiKey:  apiKey,
			client:  newVendorClient(),
			logger:  logger,
		},
	}
}

func (a *OpenRouterAdapter) Name() models.Provider { return models.ProviderOpenRouter }

// SetBaseURL overrides the upstream endpoint. Used by tests.
func (a *OpenRouterAdapter) SetBaseURL(u string) { a.baseURL = u }

func (a *OpenRouterAdapter) FormatUserInput(text string, file *llm.FileRef, _ *llm.ImageRef) llm.Message {
	return flatUserInput(text, file)
}

func (a *OpenRouterAdapter) Handle(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	return a.handleChat(ctx, req, st, a.baseURL+"/chat/completions", a.bearerHeaders())
}
