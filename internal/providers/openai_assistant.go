package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/session"
)

// Assistants polling bounds. A run that is not terminal by the deadline is
// reported as timed out instead of spinning forever. Vars so tests can
// shrink them.
var (
	runPollInterval = 2 * time.Second
	runPollDeadline = 3 * time.Minute
)

func (a *OpenAIAdapter) assistantHeaders() map[string]string {
	h := a.bearerHeaders()
	h["OpenAI-Beta"] = "assistants=v2"
	return h
}

// HandleAssistant drives the Assistants flow: assistant and thread handles
// are created lazily, stored on the session, and reused on later turns.
func (a *OpenAIAdapter) HandleAssistant(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	if err := a.ensureAssistant(ctx, req, st); err != nil {
		return nil, err
	}
	if err := a.ensureThread(ctx, st); err != nil {
		return nil, err
	}

	st.Chat = append(st.Chat, req.UserInput)

	msgBody := map[string]any{
		"role":    llm.RoleUser,
		"content": messageText(req.UserInput),
	}
	if _, err := a.client.postJSON(ctx, a.vendor,
		a.baseURL+"/threads/"+st.ThreadID+"/messages", msgBody, a.assistantHeaders()); err != nil {
		return nil, err
	}

	runRaw, err := a.client.postJSON(ctx, a.vendor,
		a.baseURL+"/threads/"+st.ThreadID+"/runs",
		map[string]any{"assistant_id": st.AssistantID}, a.assistantHeaders())
	if err != nil {
		return nil, err
	}
	runID := gjson.GetBytes(runRaw, "id").String()

	if err := a.awaitRun(ctx, st.ThreadID, runID); err != nil {
		return nil, err
	}

	content, err := a.latestAssistantMessage(ctx, st.ThreadID)
	if err != nil {
		return nil, err
	}

	st.Chat = append(st.Chat, llm.Message{Role: llm.RoleAssistant, Content: content})

	return &llm.Response{Success: true, Content: content}, nil
}

func (a *OpenAIAdapter) ensureAssistant(ctx context.Context, req *llm.Request, st *session.State) error {
	if st.AssistantID != "" {
		return nil
	}

	body := map[string]any{
		"model": req.ModelID,
		"name":  "portal-assistant",
	}
	if req.SystemMessage != "" {
		body["instructions"] = req.SystemMessage
	}

	raw, err := a.client.postJSON(ctx, a.vendor, a.baseURL+"/assistants", body, a.assistantHeaders())
	if err != nil {
		return err
	}

	st.AssistantID = gjson.GetBytes(raw, "id").String()
	if st.AssistantID == "" {
		return fmt.Errorf("%s API Error: assistant creation returned no id", a.vendor)
	}
	return nil
}

func (a *OpenAIAdapter) ensureThread(ctx context.Context, st *session.State) error {
	if st.ThreadID != "" {
		return nil
	}

	raw, err := a.client.postJSON(ctx, a.vendor, a.baseURL+"/threads", map[string]any{}, a.assistantHeaders())
	if err != nil {
		return err
	}

	st.ThreadID = gjson.GetBytes(raw, "id").String()
	if st.ThreadID == "" {
		return fmt.Errorf("%s API Error: thread creation returned no id", a.vendor)
	}
	return nil
}

// awaitRun polls run status until a terminal state, the deadline, or context
// cancellation.
func (a *OpenAIAdapter) awaitRun(ctx context.Context, threadID, runID string) error {
	deadline := time.Now().Add(runPollDeadline)
	ticker := time.NewTicker(runPollInterval)
	defer ticker.Stop()

	for {
		raw, err := a.client.getJSON(ctx, a.vendor,
			a.baseURL+"/threads/"+threadID+"/runs/"+runID, a.assistantHeaders())
		if err != nil {
			return err
		}

		switch status := gjson.GetBytes(raw, "status").String(); status {
		case "completed":
			return nil
		case "failed", "cancelled", "expired":
			msg := gjson.GetBytes(raw, "last_error.message").String()
			if msg == "" {
				msg = status
			}
			return fmt.Errorf("%s API Error: assistant run %s: %s", a.vendor, status, msg)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("%s API Error: assistant run %s timed out after %s", a.vendor, runID, runPollDeadline)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (a *OpenAIAdapter) latestAssistantMessage(ctx context.Context, threadID string) (string, error) {
	raw, err := a.client.getJSON(ctx, a.vendor,
		a.baseURL+"/threads/"+threadID+"/messages?order=desc&limit=1", a.assistantHeaders())
	if err != nil {
		return "", err
	}

	msg := gjson.GetBytes(raw, "data.0")
	if !msg.Exists() || msg.Get("role").String() != llm.RoleAssistant {
		return "", fmt.Errorf("%s API Error: no assistant reply in thread", a.vendor)
	}

	var text string
	msg.Get("content").ForEach(func(_, part gjson.Result) bool {
		if part.Get("type").String() == "text" {
			text += part.Get("text.value").String()
		}
		return true
	})
	return text, nil
}
