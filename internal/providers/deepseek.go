package providers

import (
	"context"
	"log/slog"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/session"
)

const deepseekReasonerModel = "deepseek-reasoner"

// DeepSeekAdapter is OpenAI-compatible on the wire. deepseek-reasoner returns
// its chain of thought in a separate reasoning_content field, which the
// adapter splits out the same way the Claude thinking models are handled.
type DeepSeekAdapter struct {
	openaiCompatible
}

func NewDeepSeekAdapter(apiKey string, logger *slog.Logger) *DeepSeekAdapter {
	return &DeepSeekAdapter{openaiCompatible{
		vendor:  "DeepSeek",
		baseURL: "https://api.deepseek.com/v1",
		apiKey:  apiKey,
		client:  newVendorClient(),
		logger:  logger,
	}}
}

func (a *DeepSeekAdapter) Name() models.Provider { return models.ProviderDeepSeek }

// SetBaseURL overrides the vendor endpoint, for tests.
func (a *DeepSeekAdapter) SetBaseURL(url string) { a.baseURL = url }

func (a *DeepSeekAdapter) FormatUserInput(text string, file *llm.FileRef, _ *llm.ImageRef) llm.Message {
	return flatUserInput(text, file)
}

func (a *DeepSeekAdapter) Handle(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	st.Deepseek = append(st.Deepseek, req.UserInput)

	resp, err := a.completeChat(ctx, req, st, a.baseURL+"/chat/completions", a.bearerHeaders())
	if err != nil {
		return nil, err
	}

	msg := resp.Choices[0].Message

	if req.ModelID == deepseekReasonerModel && msg.ReasoningContent != "" {
		formatted := FormatThinking(msg.ReasoningContent, msg.Content)

		// Clean answer goes back on the wire next turn; the formatted
		// transcript is kept separately for display.
		st.Chat = append(st.Chat, llm.Message{Role: llm.RoleAssistant, Content: msg.Content})
		st.Deepseek = append(st.Deepseek, llm.Message{Role: llm.RoleAssistant, Content: formatted})

		return &llm.Response{
			Success:  true,
			Content:  formatted,
			Thinking: msg.ReasoningContent,
			Usage:    resp.Usage,
		}, nil
	}

	st.Chat = append(st.Chat, llm.Message{Role: llm.RoleAssistant, Content: msg.Content})
	st.Deepseek = append(st.Deepseek, llm.Message{Role: llm.RoleAssistant, Content: msg.Content})

	return &llm.Response{Success: true, Content: msg.Content, Usage: resp.Usage}, nil
}
