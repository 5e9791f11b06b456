package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
)

// Default media models.
const (
	defaultImageModel      = "gpt-image-1"
	defaultTranscribeModel = "gpt-4o-transcribe"
	defaultTTSModel        = "gpt-4o-mini-tts"
	defaultTTSVoice        = "coral"
)

// GenerateImage runs one OpenAI image model. Fallback across models is the
// router's job; this method attempts exactly the requested model.
func (a *OpenAIAdapter) GenerateImage(ctx context.Context, prompt string, opts llm.ImageOptions) (*llm.ImageResult, error) {
	modelID := opts.ModelID
	if modelID == "" {
		modelID = defaultImageModel
	}

	cap, ok := models.ImageModel(modelID)
	if !ok || cap.Provider != models.ProviderOpenAI {
		return nil, fmt.Errorf("OpenAI API Error: unknown image model %q", modelID)
	}

	finalPrompt := prompt
	enhanced := ""
	if cap.PromptEnhancement && (opts.EnhancePrompt == nil || *opts.EnhancePrompt) {
		if rewritten, err := a.enhanceImagePrompt(ctx, prompt); err == nil && rewritten != "" {
			finalPrompt = rewritten
			enhanced = rewritten
		} else if err != nil {
			a.logger.Warn("image prompt enhancement failed, using original", "error", err)
		}
	}

	count := opts.Count
	if count <= 0 {
		count = 1
	}

	body := map[string]any{
		"model":  modelID,
		"prompt": finalPrompt,
		"n":      count,
	}
	if opts.Size != "" {
		body["size"] = opts.Size
	}
	if opts.Quality != "" && modelID == "dall-e-3" {
		body["quality"] = opts.Quality
	}
	// gpt-image-1 always returns base64; the DALL-E models need to be asked.
	if modelID != "gpt-image-1" {
		body["response_format"] = "b64_json"
	}

	raw, err := a.client.postJSON(ctx, a.vendor, a.baseURL+"/images/generations", body, a.bearerHeaders())
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Data []llm.GeneratedImage `json:"data"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal OpenAI image response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("OpenAI API Error: no images in response")
	}

	return &llm.ImageResult{
		Success:        true,
		Images:         parsed.Data,
		Model:          modelID,
		OriginalPrompt: prompt,
		EnhancedPrompt: enhanced,
	}, nil
}

// enhanceImagePrompt rewrites a terse prompt into a detailed one with a cheap
// chat call before generation.
func (a *OpenAIAdapter) enhanceImagePrompt(ctx context.Context, prompt string) (string, error) {
	body := chatCompletionRequest{
		Model: promptEnhanceModel,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "You rewrite image-generation prompts. Expand the user's prompt into a single vivid, detailed prompt. Reply with the rewritten prompt only."},
			{Role: llm.RoleUser, Content: prompt},
		},
		Temperature: DefaultTemperature,
		MaxTokens:   512,
	}

	raw, err := a.client.postJSON(ctx, a.vendor, a.baseURL+"/chat/completions", body, a.bearerHeaders())
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(raw, "choices.0.message.content").String(), nil
}

// Transcribe converts audio to text. gpt-4o-transcribe accepts a guiding
// prompt; whisper-1 is the plain fallback model.
func (a *OpenAIAdapter) Transcribe(ctx context.Context, audio llm.AudioRef, opts llm.TranscriptOptions) (*llm.TranscriptResult, error) {
	modelID := opts.PreferredModel
	if modelID == "" {
		modelID = defaultTranscribeModel
	}

	fields := map[string]string{"model": modelID}
	if opts.UsePrompting && modelID != "whisper-1" {
		fields["prompt"] = "Transcribe the audio verbatim, with correct punctuation and casing."
	}

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
		Model:   modelID,
	}, nil
}

// TextToSpeech renders speech audio. With IntelligentInstructions set, a
// cheap chat call first derives delivery instructions from the text itself.
func (a *OpenAIAdapter) TextToSpeech(ctx context.Context, text string, opts llm.SpeechOptions) (*llm.AudioResult, error) {
	modelID := opts.Model
	if modelID == "" {
		modelID = defaultTTSModel
	}
	voice := opts.Voice
	if voice == "" {
		voice = defaultTTSVoice
	}
	format := opts.Format
	if format == "" {
		format = "mp3"
	}

	instructions := opts.Instructions
	if instructions == "" && opts.IntelligentInstructions && modelID == defaultTTSModel {
		if derived, err := a.deriveSpeechInstructions(ctx, text); err == nil {
			instructions = derived
		} else {
			a.logger.Warn("speech instruction derivation failed", "error", err)
		}
	}

	body := map[string]any{
		"model":           modelID,
		"input":           text,
		"voice":           voice,
		"response_format": format,
	}
	if instructions != "" {
		body["instructions"] = instructions
	}

	raw, err := a.client.postJSON(ctx, a.vendor, a.baseURL+"/audio/speech", body, a.bearerHeaders())
	if err != nil {
		return nil, err
	}

	return &llm.AudioResult{
		Success:     true,
		Audio:       raw,
		ContentType: "audio/" + format,
		Model:       modelID,
	}, nil
}

func (a *OpenAIAdapter) deriveSpeechInstructions(ctx context.Context, text string) (string, error) {
	body := chatCompletionRequest{
		Model: promptEnhanceModel,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: "Given text to be read aloud, describe in one short sentence the tone, pacing and emotion a narrator should use. Reply with the instruction only."},
			{Role: llm.RoleUser, Content: text},
		},
		Temperature: DefaultTemperature,
		MaxTokens:   100,
	}

	raw, err := a.client.postJSON(ctx, a.vendor, a.baseURL+"/chat/completions", body, a.bearerHeaders())
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(raw, "choices.0.message.content").String(), nil
}
