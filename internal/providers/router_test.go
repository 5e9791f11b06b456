package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/promptcache"
	"github.com/gptportal/portal-go/internal/session"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	return NewRouter(Keys{
		OpenAI:     "sk-openai",
		Anthropic:  "sk-ant",
		Google:     "g-key",
		Groq:       "gsk",
		Mistral:    "mk",
		DeepSeek:   "dk",
		OpenRouter: "or-key",
	}, testCacheEngine(promptcache.DefaultConfig()), false, testLogger())
}

func TestRoute_EveryProviderResolves(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		modelID  string
		provider models.Provider
	}{
		{"gpt-4o", models.ProviderOpenAI},
		{"o3-mini", models.ProviderOpenAI},
		{"claude-opus-4-20250514", models.ProviderClaude},
		{"gemini-2.0-flash", models.ProviderGemini},
		{"llama-3.3-70b-versatile", models.ProviderGroq},
		{"mistral-large-latest", models.ProviderMistral},
		{"deepseek-chat", models.ProviderDeepSeek},
		{"some-vendor/some-model", models.ProviderOpenRouter},
		{"completely-unknown", models.ProviderOpenRouter},
	}

	for _, tt := range tests {
		adapter := r.Route(tt.modelID)
		require.NotNil(t, adapter, "no adapter for %s", tt.modelID)
		assert.Equal(t, tt.provider, adapter.Name(), tt.modelID)
	}
}

func TestHandleChat_RejectsFamilySwitch(t *testing.T) {
	r := newTestRouter(t)

	st := session.New("gpt-4o")
	_, err := r.HandleChat(context.Background(), &llm.Request{
		UserInput: llm.Message{Role: llm.RoleUser, Content: "hi"},
		ModelID:   "claude-opus-4-20250514",
	}, st)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot serve")
}

func TestGenerateImage_FallbackChain(t *testing.T) {
	r := newTestRouter(t)

	// OpenAI always fails; Gemini Imagen succeeds.
	openaiDown := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "capacity"}}`))
	}))
	t.Cleanup(openaiDown.Close)

	geminiUp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predictions": [{"bytesBase64Encoded": "aW1n"}]}`))
	}))
	t.Cleanup(geminiUp.Close)

	r.openai.SetBaseURL(openaiDown.URL)
	r.gemini.SetBaseURL(geminiUp.URL)

	enhance := false
	result, err := r.GenerateImage(context.Background(), "a red fox", llm.ImageOptions{
		ModelID:       "gpt-image-1",
		EnhancePrompt: &enhance,
	})
	require.NoError(t, err)

	assert.True(t, result.UsedFallback)
	assert.Equal(t, "gpt-image-1", result.OriginalModel)
	assert.Equal(t, "imagen-4.0-generate-preview", result.Model)
	assert.NotEmpty(t, result.FallbackReason)
	require.Len(t, result.Images, 1)
	assert.Equal(t, "aW1n", result.Images[0].B64Data)
}

func TestGenerateImage_AllModelsFail(t *testing.T) {
	r := newTestRouter(t)

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "down for maintenance"}}`))
	}))
	t.Cleanup(down.Close)

	r.openai.SetBaseURL(down.URL)
	r.gemini.SetBaseURL(down.URL)

	enhance := false
	_, err := r.GenerateImage(context.Background(), "anything", llm.ImageOptions{
		ModelID:       "dall-e-3",
		EnhancePrompt: &enhance,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all image models failed")
	assert.Contains(t, err.Error(), "down for maintenance")
}

func TestGenerateImage_EnvelopeValidationSkips(t *testing.T) {
	r := newTestRouter(t)

	// With 4 images requested, gpt-image-1 and dall-e-3 (max 1) must be
	// skipped without an HTTP attempt; dall-e-2 (max 4) is tried and fails,
	// then Imagen serves the request.
	var openaiCalls int
	openaiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		openaiCalls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(openaiSrv.Close)

	geminiUp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"predictions": [
			{"bytesBase64Encoded": "YQ=="}, {"bytesBase64Encoded": "Yg=="},
			{"bytesBase64Encoded": "Yw=="}, {"bytesBase64Encoded": "ZA=="}
		]}`))
	}))
	t.Cleanup(geminiUp.Close)

	r.openai.SetBaseURL(openaiSrv.URL)
	r.gemini.SetBaseURL(geminiUp.URL)

	result, err := r.GenerateImage(context.Background(), "four foxes", llm.ImageOptions{
		ModelID: "gpt-image-1",
		Count:   4,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, openaiCalls, "only dall-e-2 reaches the wire on the OpenAI side")
	assert.Equal(t, "imagen-4.0-generate-preview", result.Model)
	assert.True(t, result.UsedFallback)
	assert.Len(t, result.Images, 4)
}

func TestTranscribe_GroqPreferredWithFallback(t *testing.T) {
	r := newTestRouter(t)

	groqDown := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
	}))
	t.Cleanup(groqDown.Close)

	openaiUp := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"text": "fallback transcript"}`))
	}))
	t.Cleanup(openaiUp.Close)

	r.groq.SetBaseURL(groqDown.URL)
	r.openai.SetBaseURL(openaiUp.URL)

	result, err := r.Transcribe(context.Background(),
		llm.AudioRef{Filename: "a.mp3", Data: []byte("x")},
		llm.TranscriptOptions{PreferGroq: true})
	require.NoError(t, err)

	assert.Equal(t, "Voice Transcription: fallback transcript", result.Text)
}

func TestGenerateImage_DallE2MultipleImages(t *testing.T) {
	r := newTestRouter(t)

	ts, bodies := captureServer(t, `{"data": [{"b64_json": "YQ=="}, {"b64_json": "Yg=="}]}`)
	r.openai.SetBaseURL(ts.URL)

	result, err := r.GenerateImage(context.Background(), "two foxes", llm.ImageOptions{
		ModelID: "dall-e-2",
		Count:   2,
		Size:    "512x512",
	})
	require.NoError(t, err)

	assert.False(t, result.UsedFallback)
	assert.Len(t, result.Images, 2)

	wire := (*bodies)[0]
	assert.Contains(t, string(wire), `"response_format":"b64_json"`)
}
