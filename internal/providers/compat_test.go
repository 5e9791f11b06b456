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

const compatFixture = `{
	"choices": [{"message": {"role": "assistant", "content": "ok"}, "finish_reason": "stop"}],
	"usage": {"prompt_tokens": 4, "completion_tokens": 1}
}`

func TestCompatAdapters_SharedChatFlow(t *testing.T) {
	tests := []struct {
		name    string
		modelID string
		adapter func(url string) Adapter
	}{
		{"groq", "llama-3.3-70b-versatile", func(url string) Adapter {
			a := NewGroqAdapter("k", testLogger())
			a.SetBaseURL(url)
			return a
		}},
		{"mistral", "mistral-large-latest", func(url string) Adapter {
			a := NewMistralAdapter("k", "", testLogger())
			a.SetBaseURL(url)
			return a
		}},
		{"openrouter", "some-vendor/some-model", func(url string) Adapter {
			a := NewOpenRouterAdapter("k", testLogger())
			a.SetBaseURL(url)
			return a
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, bodies := captureServer(t, compatFixture)
			a := tt.adapter(ts.URL)

			st := session.New(tt.modelID)
			resp, err := a.Handle(context.Background(), &llm.Request{
				UserInput:     a.FormatUserInput("hello", nil, nil),
				ModelID:       tt.modelID,
				SystemMessage: "sys",
			}, st)
			require.NoError(t, err)

			assert.True(t, resp.Success)
			assert.Equal(t, "ok", resp.Content)

			wire := gjson.ParseBytes((*bodies)[0])
			assert.Equal(t, tt.modelID, wire.Get("model").String())
			assert.Equal(t, "system", wire.Get("messages.0.role").String())
			assert.InDelta(t, DefaultTemperature, wire.Get("temperature").Float(), 1e-9)
			assert.Equal(t, int64(DefaultMaxTokens), wire.Get("max_tokens").Int())

			require.Len(t, st.Chat, 2)
			assert.Equal(t, "ok", st.Chat[1].Content)
		})
	}
}

func TestMistral_CodestralEndpointSwitch(t *testing.T) {
	ts, _ := captureServer(t, compatFixture)

	a := NewMistralAdapter("main-key", "codestral-key", testLogger())
	a.SetBaseURL(ts.URL)

	st := session.New("codestral-latest")
	_, err := a.Handle(context.Background(), &llm.Request{
		UserInput: a.FormatUserInput("complete this", nil, nil),
		ModelID:   "codestral-latest",
	}, st)
	require.NoError(t, err)
}

func TestVendorError_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"nested message", `{"error": {"message": "bad key"}}`, "Groq API Error: bad key"},
		{"flat error string", `{"error": "overloaded"}`, "Groq API Error: overloaded"},
		{"no body", ``, "Groq API Error: HTTP 500"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := vendorError("Groq", 500, []byte(tt.body))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}
