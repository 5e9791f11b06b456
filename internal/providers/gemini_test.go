package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/session"
)

const geminiFixture = `{
	"candidates": [{
		"content": {"parts": [{"text": "I can help with that."}]},
		"finishReason": "STOP"
	}],
	"usageMetadata": {"promptTokenCount": 6, "candidatesTokenCount": 7}
}`

func TestGemini_TranscriptHistoryGrows(t *testing.T) {
	ts, bodies := captureServer(t, geminiFixture)

	a := NewGeminiAdapter("g-key", testLogger())
	a.SetBaseURL(ts.URL)

	st := session.New("gemini-2.0-flash")
	req := &llm.Request{
		UserInput: a.FormatUserInput("first question", nil, nil),
		ModelID:   "gemini-2.0-flash",
	}

	resp, err := a.Handle(context.Background(), req, st)
	require.NoError(t, err)
	assert.Equal(t, "I can help with that.", resp.Content)

	assert.Equal(t, "User Prompt: first question\nResponse: I can help with that.\n", st.Gemini)

	// The second turn replays the whole transcript in one prompt.
	req2 := &llm.Request{
		UserInput: a.FormatUserInput("second question", nil, nil),
		ModelID:   "gemini-2.0-flash",
	}
	_, err = a.Handle(context.Background(), req2, st)
	require.NoError(t, err)

	second := gjson.ParseBytes((*bodies)[1])
	prompt := second.Get("contents.0.parts.0.text").String()
	assert.Contains(t, prompt, "User Prompt: first question")
	assert.Contains(t, prompt, "Response: I can help with that.")
	assert.Contains(t, prompt, "User Prompt: second question")
}

func TestGemini_RequestShape(t *testing.T) {
	ts, bodies := captureServer(t, geminiFixture)

	a := NewGeminiAdapter("g-key", testLogger())
	a.SetBaseURL(ts.URL)

	st := session.New("gemini-2.0-flash")
	_, err := a.Handle(context.Background(), &llm.Request{
		UserInput:     a.FormatUserInput("hi", nil, nil),
		ModelID:       "gemini-2.0-flash",
		SystemMessage: "be helpful",
		MaxTokens:     2048,
		Temperature:   0.5,
	}, st)
	require.NoError(t, err)

	wire := gjson.ParseBytes((*bodies)[0])

	// Every safety category disabled.
	settings := wire.Get("safetySettings").Array()
	require.Len(t, settings, 4)
	for _, s := range settings {
		assert.Equal(t, "BLOCK_NONE", s.Get("threshold").String())
	}

	assert.Equal(t, int64(1), wire.Get("generationConfig.candidateCount").Int())
	assert.Equal(t, int64(2048), wire.Get("generationConfig.maxOutputTokens").Int())
	assert.InDelta(t, 0.5, wire.Get("generationConfig.temperature").Float(), 1e-9)
	assert.Equal(t, "be helpful", wire.Get("systemInstruction.parts.0.text").String())
}

func TestGemini_MultiTurnModeUsesStructuredHistory(t *testing.T) {
	ts, bodies := captureServer(t, geminiFixture)

	a := NewGeminiAdapter("g-key", testLogger())
	a.SetBaseURL(ts.URL)

	st := session.New("gemini-pro")
	_, err := a.Handle(context.Background(), &llm.Request{
		UserInput: a.FormatUserInput("turn one", nil, nil),
		ModelID:   "gemini-pro",
	}, st)
	require.NoError(t, err)

	_, err = a.Handle(context.Background(), &llm.Request{
		UserInput: a.FormatUserInput("turn two", nil, nil),
		ModelID:   "gemini-pro",
	}, st)
	require.NoError(t, err)

	second := gjson.ParseBytes((*bodies)[1])
	contents := second.Get("contents").Array()
	require.Len(t, contents, 3)
	assert.Equal(t, "user", contents[0].Get("role").String())
	assert.Equal(t, "model", contents[1].Get("role").String())
	assert.Equal(t, "turn two", contents[2].Get("parts.0.text").String())

	// Transcript string stays untouched in this mode.
	assert.Empty(t, st.Gemini)
}

func TestGemini_InlineImageParts(t *testing.T) {
	ts, bodies := captureServer(t, geminiFixture)

	a := NewGeminiAdapter("g-key", testLogger())
	a.SetBaseURL(ts.URL)

	st := session.New("gemini-2.0-flash")
	msg := a.FormatUserInput("what is in this image", nil, &llm.ImageRef{DataURL: "data:image/png;base64,QUJD"})

	_, err := a.Handle(context.Background(), &llm.Request{
		UserInput: msg,
		ModelID:   "gemini-2.0-flash",
	}, st)
	require.NoError(t, err)

	wire := gjson.ParseBytes((*bodies)[0])
	assert.Equal(t, "image/png", wire.Get("contents.0.parts.1.inline_data.mime_type").String())
	assert.Equal(t, "QUJD", wire.Get("contents.0.parts.1.inline_data.data").String())
}
