package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/session"
)

// openaiCompatible implements the chat-completions protocol shared by Groq,
// Mistral, DeepSeek and OpenRouter. The embedding adapters differ only in
// base URL, auth key and response parsing.
type openaiCompatible struct {
	vendor  string // error-message label, e.g. "Groq"
	baseURL string
	apiKey  string
	client  *vendorClient
	logger  *slog.Logger
}

// Wire structures for the chat-completions protocol.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role             string `json:"role"`
			Content          string `json:"content"`
			ReasoningContent string `json:"reasoning_content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage map[string]any `json:"usage"`
}

func (o *openaiCompatible) bearerHeaders() map[string]string {
	return map[string]string{"Authorization": "Bearer " + o.apiKey}
}

// completeChat appends the user turn to the flat history, calls the vendor,
// and returns the parsed completion. The assistant turn is appended by the
// caller, which may store a different rendering than it returns.
func (o *openaiCompatible) completeChat(ctx context.Context, req *llm.Request, st *session.State, url string, headers map[string]string) (*chatCompletionResponse, error) {
	st.Chat = append(st.Chat, req.UserInput)

	messages := st.Chat
	if req.SystemMessage != "" {
		messages = append([]llm.Message{{Role: llm.RoleSystem, Content: req.SystemMessage}}, messages...)
	}

	body := chatCompletionRequest{
		Model:       req.ModelID,
		Messages:    messages,
		Temperature: temperatureOrDefault(req.Temperature),
		MaxTokens:   maxTokensOrDefault(req.MaxTokens),
	}

	raw, err := o.client.postJSON(ctx, o.vendor, url, body, headers)
	if err != nil {
		return nil, err
	}

	var resp chatCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal %s response: %w", o.vendor, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s API Error: no choices in response", o.vendor)
	}

	return &resp, nil
}

// handleChat is the full standard flow: call, append assistant turn, wrap.
func (o *openaiCompatible) handleChat(ctx context.Context, req *llm.Request, st *session.State, url string, headers map[string]string) (*llm.Response, error) {
	resp, err := o.completeChat(ctx, req, st, url, headers)
	if err != nil {
		return nil, err
	}

	content := resp.Choices[0].Message.Content
	st.Chat = append(st.Chat, llm.Message{Role: llm.RoleAssistant, Content: content})

	o.logger.Debug("chat completion",
		"vendor", o.vendor,
		"model", req.ModelID,
		"finish_reason", resp.Choices[0].FinishReason,
	)

	return &llm.Response{Success: true, Content: content, Usage: resp.Usage}, nil
}
