package providers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
)

const (
	imagenModel      = "imagen-4.0-generate-preview"
	geminiImageModel = "gemini-2.0-flash-preview-image-generation"
)

// GenerateImage runs one Google image model: Imagen over the predict
// endpoint, or the Gemini flash image model over generateContent.
func (a *GeminiAdapter) GenerateImage(ctx context.Context, prompt string, opts llm.ImageOptions) (*llm.ImageResult, error) {
	switch opts.ModelID {
	case imagenModel:
		return a.generateImagen(ctx, prompt, opts)
	case geminiImageModel:
		return a.generateFlashImage(ctx, prompt, opts)
	default:
		return nil, fmt.Errorf("Gemini API Error: unknown image model %q", opts.ModelID)
	}
}

func (a *GeminiAdapter) generateImagen(ctx context.Context, prompt string, opts llm.ImageOptions) (*llm.ImageResult, error) {
	count := opts.Count
	if count <= 0 {
		count = 1
	}

	params := map[string]any{"sampleCount": count}
	if opts.AspectRatio != "" {
		params["aspectRatio"] = opts.AspectRatio
	}

	body := map[string]any{
		"instances":  []map[string]any{{"prompt": prompt}},
		"parameters": params,
	}

	url := fmt.Sprintf("%s/models/%s:predict?key=%s", a.baseURL, imagenModel, a.apiKey)
	raw, err := a.client.postJSON(ctx, "Gemini", url, body, nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Predictions []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
		} `json:"predictions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal Imagen response: %w", err)
	}
	if len(parsed.Predictions) == 0 {
		return nil, fmt.Errorf("Gemini API Error: no images in Imagen response")
	}

	images := make([]llm.GeneratedImage, 0, len(parsed.Predictions))
	for _, p := range parsed.Predictions {
		images = append(images, llm.GeneratedImage{B64Data: p.BytesBase64Encoded})
	}

	return &llm.ImageResult{
		Success:        true,
		Images:         images,
		Model:          imagenModel,
		OriginalPrompt: prompt,
	}, nil
}

// generateFlashImage uses the multimodal flash model: one image per call,
// with an optional prompt-enhancement pre-step over the plain flash model.
func (a *GeminiAdapter) generateFlashImage(ctx context.Context, prompt string, opts llm.ImageOptions) (*llm.ImageResult, error) {
	cap, _ := models.ImageModel(geminiImageModel)

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

	body := map[string]any{
		"contents": []geminiContent{{Role: "user", Parts: []geminiPart{{Text: finalPrompt}}}},
		"generationConfig": map[string]any{
			"responseModalities": []string{"TEXT", "IMAGE"},
		},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, geminiImageModel, a.apiKey)
	raw, err := a.client.postJSON(ctx, "Gemini", url, body, nil)
	if err != nil {
		return nil, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal Gemini image response: %w", err)
	}

	var images []llm.GeneratedImage
	if len(resp.Candidates) > 0 {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.InlineData != nil {
				images = append(images, llm.GeneratedImage{B64Data: part.InlineData.Data})
			}
		}
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("Gemini API Error: no image parts in response")
	}

	return &llm.ImageResult{
		Success:        true,
		Images:         images,
		Model:          geminiImageModel,
		OriginalPrompt: prompt,
		EnhancedPrompt: enhanced,
	}, nil
}

func (a *GeminiAdapter) enhanceImagePrompt(ctx context.Context, prompt string) (string, error) {
	body := map[string]any{
		"contents": []geminiContent{{Role: "user", Parts: []geminiPart{{
			Text: "Rewrite this image-generation prompt into a single vivid, detailed prompt. Reply with the rewritten prompt only.\n\n" + prompt,
		}}}},
		"generationConfig": map[string]any{"maxOutputTokens": 512},
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, geminiEnhanceModel, a.apiKey)
	raw, err := a.client.postJSON(ctx, "Gemini", url, body, nil)
	if err != nil {
		return "", err
	}
	return gjson.GetBytes(raw, "candidates.0.content.parts.0.text").String(), nil
}
