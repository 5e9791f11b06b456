package providers

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/promptcache"
	"github.com/gptportal/portal-go/internal/session"
)

// Router composes the protocol adapters behind one entry point. It holds no
// mutable state of its own beyond the adapter registry; conversation state
// flows through the session passed into each call.
type Router struct {
	adapters map[models.Provider]Adapter

	// Concrete handles for capabilities that only some vendors have.
	openai *OpenAIAdapter
	gemini *GeminiAdapter
	groq   *GroqAdapter

	logger *slog.Logger
}

func NewRouter(keys Keys, cache *promptcache.Engine, webSearchEnabled bool, logger *slog.Logger) *Router {
	openai := NewOpenAIAdapter(keys.OpenAI, logger)
	gemini := NewGeminiAdapter(keys.Google, logger)
	groq := NewGroqAdapter(keys.Groq, logger)

	r := &Router{
		adapters: make(map[models.Provider]Adapter),
		openai:   openai,
		gemini:   gemini,
		groq:     groq,
		logger:   logger,
	}

	for _, a := range []Adapter{
		openai,
		NewClaudeAdapter(keys.Anthropic, cache, webSearchEnabled, logger),
		gemini,
		groq,
		NewMistralAdapter(keys.Mistral, keys.Codestral, logger),
		NewDeepSeekAdapter(keys.DeepSeek, logger),
		NewOpenRouterAdapter(keys.OpenRouter, logger),
	} {
		r.adapters[a.Name()] = a
	}

	return r
}

// Route resolves a model id to its adapter. The routing table is total, so
// every id resolves; the passthrough adapter is the default.
func (r *Router) Route(modelID string) Adapter {
	return r.adapters[models.RouteModel(modelID)]
}

// FormatUserInput delegates to the adapter that will handle the model.
func (r *Router) FormatUserInput(modelID, text string, file *llm.FileRef, image *llm.ImageRef) llm.Message {
	return r.Route(modelID).FormatUserInput(text, file, image)
}

// HandleChat runs one chat turn under the session lock. Concurrent requests
// for the same session serialize here; a session can only ever be driven by
// the model family it was created for.
func (r *Router) HandleChat(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	st.Lock()
	defer st.Unlock()

	if err := st.EnsureFamily(req.ModelID); err != nil {
		return nil, err
	}

	adapter := r.Route(req.ModelID)

	r.logger.Info("routing chat",
		"model", req.ModelID,
		"provider", adapter.Name(),
		"session", st.ID,
	)

	return adapter.Handle(ctx, req, st)
}

// HandleAssistant runs a chat turn through the OpenAI Assistants flow
// instead of plain completions. Only OpenAI models qualify.
func (r *Router) HandleAssistant(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	if models.RouteModel(req.ModelID) != models.ProviderOpenAI {
		return nil, fmt.Errorf("model %q cannot run in assistant mode", req.ModelID)
	}

	st.Lock()
	defer st.Unlock()

	if err := st.EnsureFamily(req.ModelID); err != nil {
		return nil, err
	}

	return r.openai.HandleAssistant(ctx, req, st)
}

// GenerateImage tries the preferred model, then walks the fixed fallback
// order. Each candidate is validated against its capability envelope before
// an attempt; incompatible candidates are skipped, not failed. Only when
// every candidate fails does the last error surface.
func (r *Router) GenerateImage(ctx context.Context, prompt string, opts llm.ImageOptions) (*llm.ImageResult, error) {
	preferred := opts.ModelID
	if preferred == "" {
		preferred = defaultImageModel
	}

	chain := []string{preferred}
	for _, id := range models.ImageFallbackOrder {
		if id != preferred {
			chain = append(chain, id)
		}
	}

	var lastErr error
	for _, modelID := range chain {
		cap, ok := models.ImageModel(modelID)
		if !ok {
			lastErr = fmt.Errorf("unknown image model %q", modelID)
			continue
		}
		if err := validateImageOptions(cap, opts); err != nil {
			r.logger.Debug("skipping image model", "model", modelID, "reason", err)
			if lastErr == nil {
				lastErr = err
			}
			continue
		}

		attempt := opts
		attempt.ModelID = modelID
		// Pixel sizes and aspect ratios don't cross vendor families.
		if cap.Provider != models.ProviderOpenAI {
			attempt.Size = ""
		}
		if cap.Provider != models.ProviderGemini {
			attempt.AspectRatio = ""
		}

		result, err := r.dispatchImage(ctx, cap.Provider, prompt, attempt)
		if err != nil {
			r.logger.Warn("image model failed, trying next", "model", modelID, "error", err)
			lastErr = err
			continue
		}

		if modelID != preferred {
			result.UsedFallback = true
			result.OriginalModel = preferred
			if lastErr != nil {
				result.FallbackReason = lastErr.Error()
			}
		}
		return result, nil
	}

	return nil, fmt.Errorf("all image models failed: %w", lastErr)
}

func (r *Router) dispatchImage(ctx context.Context, provider models.Provider, prompt string, opts llm.ImageOptions) (*llm.ImageResult, error) {
	switch provider {
	case models.ProviderOpenAI:
		return r.openai.GenerateImage(ctx, prompt, opts)
	case models.ProviderGemini:
		return r.gemini.GenerateImage(ctx, prompt, opts)
	default:
		return nil, fmt.Errorf("provider %s does not generate images", provider)
	}
}

// validateImageOptions checks requested options against a model's envelope.
func validateImageOptions(cap models.ImageCapability, opts llm.ImageOptions) error {
	if opts.Count > cap.MaxImages {
		return fmt.Errorf("model supports at most %d images, %d requested", cap.MaxImages, opts.Count)
	}
	if opts.AspectRatio != "" && cap.Provider == models.ProviderGemini &&
		!slices.Contains(cap.AspectRatios, opts.AspectRatio) {
		return fmt.Errorf("aspect ratio %q not supported", opts.AspectRatio)
	}
	if opts.Size != "" && cap.Provider == models.ProviderOpenAI &&
		!slices.Contains(cap.Sizes, opts.Size) {
		return fmt.Errorf("size %q not supported", opts.Size)
	}
	return nil
}

// Transcribe converts audio to text. Groq Whisper is preferred when asked
// for (fast, cheap); either path falls back to the other vendor on failure.
func (r *Router) Transcribe(ctx context.Context, audio llm.AudioRef, opts llm.TranscriptOptions) (*llm.TranscriptResult, error) {
	if opts.PreferGroq {
		result, err := r.groq.Transcribe(ctx, audio)
		if err == nil {
			return result, nil
		}
		r.logger.Warn("groq transcription failed, falling back to openai", "error", err)
		return r.openai.Transcribe(ctx, audio, opts)
	}

	result, err := r.openai.Transcribe(ctx, audio, opts)
	if err == nil {
		return result, nil
	}
	r.logger.Warn("openai transcription failed, falling back to groq", "error", err)
	return r.groq.Transcribe(ctx, audio)
}

// TextToSpeech renders speech. OpenAI is the only TTS vendor.
func (r *Router) TextToSpeech(ctx context.Context, text string, opts llm.SpeechOptions) (*llm.AudioResult, error) {
	return r.openai.TextToSpeech(ctx, text, opts)
}
