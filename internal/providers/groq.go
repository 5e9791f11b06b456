package providers

import (
	"context"
	"log/slog"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/session"
)

// GroqAdapter serves llama/gemma models via Groq's OpenAI-compatible API and
// owns Whisper transcription on Groq hardware.
type GroqAdapter struct {
	openaiCompatible
}

func NewGroqAdapter(apiKey string, logger *slog.Logger) *GroqAdapter {
	return &GroqAdapter{openaiCompatible{
		vendor:  "Groq",
		baseURL: "https://api.groq.com/openai/v1",
		apiKey:  apiKey,
		client:  newVendorClient(),
		logger:  logger,
	}}
}

func (a *GroqAdapter) Name() models.Provider { return models.ProviderGroq }

// SetBaseURL overrides the vendor endpoint, for tests.
func (a *GroqAdapter) SetBaseURL(url string) { a.baseURL = url }

func (a *GroqAdapter) FormatUserInput(text string, file *llm.FileRef, _ *llm.ImageRef) llm.Message {
	return flatUserInput(text, file)
}

func (a *GroqAdapter) Handle(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	return a.handleChat(ctx, req, st, a.baseURL+"/chat/completions", a.bearerHeaders())
}

// Transcribe runs Whisper large on Groq.
func (a *GroqAdapter) Transcribe(ctx context.Context, audio llm.AudioRef) (*llm.TranscriptResult, error) {
	fields := map[string]string{"model": models.GroqWhisperModel}

	raw, err := a.client.postMultipart(ctx, a.vendor, a.baseURL+"/audio/transcriptions",
		fields, "file", audio.Filename, audio.Data, a.bearerHeaders())
	if err != nil {
		return nil, err
	}

	text, err := transcriptionText(a.vendor, raw)
	if err != nil {
		return nil, err
	}

	return &llm.TranscriptResult{
		Success: true,
		Text:    "Voice Transcription: " + text,
		Model:   models.GroqWhisperModel,
	}, nil
}
