package providers

import (
	"context"
	"log/slog"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/session"
)

// MistralAdapter serves Mistral and Codestral models. Codestral lives on its
// own endpoint with its own key.
type MistralAdapter struct {
	openaiCompatible
	codestralURL string
	codestralKey string
}

func NewMistralAdapter(apiKey, codestralKey string, logger *slog.Logger) *MistralAdapter {
	return &MistralAdapter{
		openaiCompatible: openaiCompatible{
			vendor:  "Mistral",
			baseURL: "https://api.mistral.ai/v1",
			apiKey:  apiKey,
			client:  newVendorClient(),
			logger:  logger,
		},
		codestralURL: "https://codestral.mistral.ai/v1",
		codestralKey: codestralKey,
	}
}

func (a *MistralAdapter) Name() models.Provider { return models.ProviderMistral }

// SetBaseURL overrides both endpoints, for tests.
func (a *MistralAdapter) SetBaseURL(url string) {
	a.baseURL = url
	a.codestralURL = url
}

func (a *MistralAdapter) FormatUserInput(text string, file *llm.FileRef, _ *llm.ImageRef) llm.Message {
	return flatUserInput(text, file)
}

func (a *MistralAdapter) Handle(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	url := a.baseURL
	headers := a.bearerHeaders()

	if req.ModelID == "codestral-latest" {
		url = a.codestralURL
		if a.codestralKey != "" {
			headers = map[string]string{"Authorization": "Bearer " + a.codestralKey}
		}
	}

	return a.handleChat(ctx, req, st, url+"/chat/completions", headers)
}
