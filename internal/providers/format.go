package providers

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/gptportal/portal-go/internal/llm"
)

// FormatThinking renders a separated reasoning trace and final answer in the
// portal's uniform layout. With no reasoning trace the answer passes through
// untouched.
func FormatThinking(thinking, response string) string {
	if thinking == "" {
		return response
	}
	return "# Thinking:\n" + thinking + "\n---\n# Response:\n" + response
}

// messageText flattens a message's content to plain text, joining text blocks
// with spaces. Non-text blocks are skipped.
func messageText(msg llm.Message) string {
	switch content := msg.Content.(type) {
	case string:
		return content
	case []llm.ContentBlock:
		var parts []string
		for _, block := range content {
			if block.Type == llm.ContentTypeText && block.Text != "" {
				parts = append(parts, block.Text)
			}
		}
		return strings.Join(parts, " ")
	default:
		return ""
	}
}

// transcriptionText extracts the "text" field of a speech-to-text response.
func transcriptionText(vendor string, raw []byte) (string, error) {
	text := gjson.GetBytes(raw, "text")
	if !text.Exists() {
		return "", fmt.Errorf("%s API Error: transcription response missing text", vendor)
	}
	return text.String(), nil
}

// flatUserInput builds the flat-history user message shared by the
// OpenAI-compatible adapters: file contents are appended inline.
func flatUserInput(text string, file *llm.FileRef) llm.Message {
	content := text
	if file != nil {
		content += "\n" + file.Name + "\n" + file.Contents
	}
	return llm.Message{Role: llm.RoleUser, Content: content}
}
