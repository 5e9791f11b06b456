package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/session"
)

const (
	geminiBaseURL      = "https://generativelanguage.googleapis.com/v1beta"
	geminiMultiTurnID  = "gemini-pro"
	geminiUserPrefix   = "User Prompt: "
	geminiReplyPrefix  = "Response: "
	geminiEnhanceModel = "gemini-2.0-flash"
)

// geminiSafetySettings disables vendor-side content blocking for every
// category; filtering is the portal's caller's concern.
var geminiSafetySettings = []map[string]string{
	{"category": "HARM_CATEGORY_HARASSMENT", "threshold": "BLOCK_NONE"},
	{"category": "HARM_CATEGORY_HATE_SPEECH", "threshold": "BLOCK_NONE"},
	{"category": "HARM_CATEGORY_SEXUALLY_EXPLICIT", "threshold": "BLOCK_NONE"},
	{"category": "HARM_CATEGORY_DANGEROUS_CONTENT", "threshold": "BLOCK_NONE"},
}

// GeminiAdapter speaks Google's generateContent protocol. Most models run
// stateless over a single growing transcript string; gemini-pro keeps a
// structured multi-turn history instead. The adapter also owns the two
// Google image models.
type GeminiAdapter struct {
	apiKey  string
	baseURL string
	client  *vendorClient
	logger  *slog.Logger
}

func NewGeminiAdapter(apiKey string, logger *slog.Logger) *GeminiAdapter {
	return &GeminiAdapter{
		apiKey:  apiKey,
		baseURL: geminiBaseURL,
		client:  newVendorClient(),
		logger:  logger,
	}
}

func (a *GeminiAdapter) Name() models.Provider { return models.ProviderGemini }

// SetBaseURL overrides the vendor endpoint, for tests.
func (a *GeminiAdapter) SetBaseURL(url string) { a.baseURL = url }

func (a *GeminiAdapter) FormatUserInput(text string, file *llm.FileRef, image *llm.ImageRef) llm.Message {
	if image == nil {
		return flatUserInput(text, file)
	}

	blocks := []llm.ContentBlock{
		{Type: llm.ContentTypeText, Text: flatUserInput(text, file).Content.(string)},
	}
	if mediaType, data, ok := parseDataURL(image.DataURL); ok {
		blocks = append(blocks, llm.ContentBlock{
			Type:   llm.ContentTypeImage,
			Source: &llm.MediaSource{Type: "base64", MediaType: mediaType, Data: data},
		})
	}
	return llm.Message{Role: llm.RoleUser, Content: blocks}
}

// Wire shapes for generateContent.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata map[string]any `json:"usageMetadata"`
}

func (a *GeminiAdapter) Handle(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	if req.ModelID == geminiMultiTurnID {
		return a.handleMultiTurn(ctx, req, st)
	}
	return a.handleTranscript(ctx, req, st)
}

// handleTranscript runs the stateless flow: the whole transcript string plus
// the new turn travels as a single prompt.
func (a *GeminiAdapter) handleTranscript(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	userText := messageText(req.UserInput)

	parts := []geminiPart{{Text: st.Gemini + geminiUserPrefix + userText}}
	parts = append(parts, inlineParts(req.UserInput)...)

	body := a.generateBody(req, []geminiContent{{Role: "user", Parts: parts}})

	answer, usage, err := a.generate(ctx, req.ModelID, body)
	if err != nil {
		return nil, err
	}

	st.Gemini += geminiUserPrefix + userText + "\n" + geminiReplyPrefix + answer + "\n"

	return &llm.Response{Success: true, Content: answer, Usage: usage}, nil
}

// handleMultiTurn keeps a structured history for gemini-pro, mirroring a
// vendor chat session: alternating user/model contents replayed each call.
func (a *GeminiAdapter) handleMultiTurn(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	st.Chat = append(st.Chat, req.UserInput)

	contents := make([]geminiContent, 0, len(st.Chat))
	for _, msg := range st.Chat {
		role := "user"
		if msg.Role == llm.RoleAssistant {
			role = "model"
		}
		parts := []geminiPart{{Text: messageText(msg)}}
		parts = append(parts, inlineParts(msg)...)
		contents = append(contents, geminiContent{Role: role, Parts: parts})
	}

	body := a.generateBody(req, contents)

	answer, usage, err := a.generate(ctx, req.ModelID, body)
	if err != nil {
		return nil, err
	}

	st.Chat = append(st.Chat, llm.Message{Role: llm.RoleAssistant, Content: answer})

	return &llm.Response{Success: true, Content: answer, Usage: usage}, nil
}

func (a *GeminiAdapter) generateBody(req *llm.Request, contents []geminiContent) map[string]any {
	body := map[string]any{
		"contents":       contents,
		"safetySettings": geminiSafetySettings,
		"generationConfig": map[string]any{
			"candidateCount":  1,
			"maxOutputTokens": maxTokensOrDefault(req.MaxTokens),
			"temperature":     temperatureOrDefault(req.Temperature),
		},
	}
	if req.SystemMessage != "" {
		body["systemInstruction"] = geminiContent{Parts: []geminiPart{{Text: req.SystemMessage}}}
	}
	return body
}

func (a *GeminiAdapter) generate(ctx context.Context, modelID string, body map[string]any) (string, map[string]any, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", a.baseURL, modelID, a.apiKey)

	raw, err := a.client.postJSON(ctx, "Gemini", url, body, nil)
	if err != nil {
		return "", nil, err
	}

	var resp geminiResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", nil, fmt.Errorf("unmarshal Gemini response: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", nil, fmt.Errorf("Gemini API Error: no candidates in response")
	}

	var answer string
	for _, part := range resp.Candidates[0].Content.Parts {
		answer += part.Text
	}

	a.logger.Debug("gemini completion",
		"model", modelID,
		"finish_reason", resp.Candidates[0].FinishReason,
	)

	return answer, resp.UsageMetadata, nil
}

// inlineParts converts image blocks of a canonical message to inline_data
// parts.
func inlineParts(msg llm.Message) []geminiPart {
	blocks, ok := msg.Content.([]llm.ContentBlock)
	if !ok {
		return nil
	}

	var parts []geminiPart
	for _, block := range blocks {
		if block.Type == llm.ContentTypeImage && block.Source != nil {
			parts = append(parts, geminiPart{InlineData: &geminiInlineData{
				MimeType: block.Source.MediaType,
				Data:     block.Source.Data,
			}})
		}
	}
	return parts
}
