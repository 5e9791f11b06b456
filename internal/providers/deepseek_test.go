package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/session"
)

const deepseekReasonerFixture = `{
	"id": "ds-1",
	"choices": [{
		"message": {
			"role": "assistant",
			"content": "the conclusion",
			"reasoning_content": "step by step"
		},
		"finish_reason": "stop"
	}],
	"usage": {"prompt_tokens": 8, "completion_tokens": 30}
}`

func TestDeepSeek_ReasonerSplitsThinking(t *testing.T) {
	ts, _ := captureServer(t, deepseekReasonerFixture)

	a := NewDeepSeekAdapter("ds-key", testLogger())
	a.SetBaseURL(ts.URL)

	st := session.New("deepseek-reasoner")
	resp, err := a.Handle(context.Background(), &llm.Request{
		UserInput: a.FormatUserInput("why?", nil, nil),
		ModelID:   "deepseek-reasoner",
	}, st)
	require.NoError(t, err)

	assert.Equal(t, "# Thinking:\nstep by step\n---\n# Response:\nthe conclusion", resp.Content)
	assert.Equal(t, "step by step", resp.Thinking)

	// Clean content goes back on the wire; the display transcript keeps the
	// formatted version.
	require.Len(t, st.Chat, 2)
	assert.Equal(t, "the conclusion", st.Chat[1].Content)

	require.Len(t, st.Deepseek, 2)
	assert.Contains(t, st.Deepseek[1].Content.(string), "# Thinking:")
}

func TestDeepSeek_ChatModelPassesThrough(t *testing.T) {
	const fixture = `{
		"choices": [{"message": {"role": "assistant", "content": "plain"}, "finish_reason": "stop"}],
		"usage": {}
	}`
	ts, bodies := captureServer(t, fixture)

	a := NewDeepSeekAdapter("ds-key", testLogger())
	a.SetBaseURL(ts.URL)

	st := session.New("deepseek-chat")
	resp, err := a.Handle(context.Background(), &llm.Request{
		UserInput: a.FormatUserInput("hi", nil, nil),
		ModelID:   "deepseek-chat",
	}, st)
	require.NoError(t, err)

	assert.Equal(t, "plain", resp.Content)
	assert.Empty(t, resp.Thinking)
	require.Len(t, *bodies, 1)
}
