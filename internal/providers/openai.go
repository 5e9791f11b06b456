package providers

import (
	"context"
	"log/slog"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/session"
)

const (
	openaiBaseURL       = "https://api.openai.com/v1"
	defaultReasonEffort = "high"

	promptEnhanceModel = "gpt-4.1"
)

// OpenAIAdapter speaks two sub-protocols: standard chat completions for gpt*
// models and the /v1/responses protocol for the o-series reasoning models.
// It also owns DALL-E / gpt-image-1 generation, Whisper transcription, TTS,
// and the Assistants flow.
type OpenAIAdapter struct {
	openaiCompatible
}

func NewOpenAIAdapter(apiKey string, logger *slog.Logger) *OpenAIAdapter {
	return &OpenAIAdapter{openaiCompatible{
		vendor:  "OpenAI",
		baseURL: openaiBaseURL,
		apiKey:  apiKey,
		client:  newVendorClient(),
		logger:  logger,
	}}
}

func (a *OpenAIAdapter) Name() models.Provider { return models.ProviderOpenAI }

// SetBaseURL overrides the vendor endpoint, for tests.
func (a *OpenAIAdapter) SetBaseURL(url string) { a.baseURL = url }

// FormatUserInput produces a flat text turn, or a multimodal content array
// when an image is attached.
func (a *OpenAIAdapter) FormatUserInput(text string, file *llm.FileRef, image *llm.ImageRef) llm.Message {
	if image == nil {
		return flatUserInput(text, file)
	}

	blocks := []llm.ContentBlock{
		{Type: llm.ContentTypeText, Text: flatUserInput(text, file).Content.(string)},
		{Type: llm.ContentTypeImageURL, ImageURL: &llm.ImageURL{URL: image.DataURL}},
	}
	return llm.Message{Role: llm.RoleUser, Content: blocks}
}

func (a *OpenAIAdapter) Handle(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	if models.IsReasoningModel(req.ModelID) {
		return a.handleResponses(ctx, req, st)
	}
	return a.handleChat(ctx, req, st, a.baseURL+"/chat/completions", a.bearerHeaders())
}

// handleResponses drives the /v1/responses protocol. Two states: fresh (no
// stored response id for this model: full input, no chaining) and continuing
// (previous_response_id carries the server-side history, only the new turn is
// sent). The returned response id becomes the session's chain head.
func (a *OpenAIAdapter) handleResponses(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	st.Chat = append(st.Chat, req.UserInput)

	effort := req.ReasoningEffort
	if effort == "" || effort == "none" {
		effort = defaultReasonEffort
	}

	body := map[string]any{
		"model": req.ModelID,
		"reasoning": map[string]any{
			"effort":  effort,
			"summary": "auto",
		},
		"store": true,
	}
	if req.Verbosity != "" {
		body["text"] = map[string]any{"verbosity": req.Verbosity}
	}

	prevID := st.LastResponseID[req.ModelID]
	if prevID == "" {
		body["input"] = responsesInput(req.SystemMessage, st.Chat)
	} else {
		body["previous_response_id"] = prevID
		body["input"] = responsesInput("", []llm.Message{req.UserInput})
	}

	raw, err := a.client.postJSON(ctx, a.vendor, a.baseURL+"/responses", body, a.bearerHeaders())
	if err != nil {
		return nil, err
	}

	thinking, answer := parseResponsesOutput(raw)
	formatted := FormatThinking(thinking, answer)

	if id := gjson.GetBytes(raw, "id").String(); id != "" {
		st.LastResponseID[req.ModelID] = id
	}
	st.Chat = append(st.Chat, llm.Message{Role: llm.RoleAssistant, Content: answer})

	a.logger.Debug("responses completion",
		"model", req.ModelID,
		"chained", prevID != "",
		"has_thinking", thinking != "",
	)

	return &llm.Response{
		Success:    true,
		Content:    formatted,
		Thinking:   thinking,
		Usage:      usageMap(raw),
		ResponseID: st.LastResponseID[req.ModelID],
	}, nil
}

// responsesInput converts canonical messages to the responses protocol's
// input items. Image blocks become input_image parts.
func responsesInput(systemMessage string, history []llm.Message) []map[string]any {
	var input []map[string]any

	if systemMessage != "" {
		input = append(input, map[string]any{
			"role":    "developer",
			"content": systemMessage,
		})
	}

	for _, msg := range history {
		switch content := msg.Content.(type) {
		case string:
			input = append(input, map[string]any{"role": msg.Role, "content": content})
		case []llm.ContentBlock:
			var parts []map[string]any
			for _, block := range content {
				switch block.Type {
				case llm.ContentTypeText:
					parts = append(parts, map[string]any{"type": "input_text", "text": block.Text})
				case llm.ContentTypeImageURL:
					if block.ImageURL != nil {
						parts = append(parts, map[string]any{"type": "input_image", "image_url": block.ImageURL.URL})
					}
				}
			}
			input = append(input, map[string]any{"role": msg.Role, "content": parts})
		}
	}

	return input
}

// parseResponsesOutput walks the output array for the reasoning summary and
// the final message. The reasoning item's summary may be absent, a bare
// string, or an array of strings/objects; all shapes collapse to one string.
func parseResponsesOutput(raw []byte) (thinking, answer string) {
	var thinkingParts, answerParts []string

	gjson.GetBytes(raw, "output").ForEach(func(_, item gjson.Result) bool {
		switch item.Get("type").String() {
		case "reasoning":
			summary := item.Get("summary")
			switch {
			case summary.IsArray():
				summary.ForEach(func(_, entry gjson.Result) bool {
					if text := summaryText(entry); text != "" {
						thinkingParts = append(thinkingParts, text)
					}
					return true
				})
			case summary.Type == gjson.String:
				thinkingParts = append(thinkingParts, summary.String())
			}
		case "message":
			item.Get("content").ForEach(func(_, part gjson.Result) bool {
				if part.Get("type").String() == "output_text" {
					answerParts = append(answerParts, part.Get("text").String())
				}
				return true
			})
		}
		return true
	})

	return strings.Join(thinkingParts, "\n\n"), strings.Join(answerParts, "")
}

func summaryText(entry gjson.Result) string {
	if entry.Type == gjson.String {
		return entry.String()
	}
	return entry.Get("text").String()
}

// usageMap lifts the usage object out of a raw vendor response.
func usageMap(raw []byte) map[string]any {
	usage := gjson.GetBytes(raw, "usage")
	if !usage.Exists() || !usage.IsObject() {
		return nil
	}

	out := make(map[string]any)
	usage.ForEach(func(key, value gjson.Result) bool {
		out[key.String()] = value.Value()
		return true
	})
	return out
}
