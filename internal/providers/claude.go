package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/models"
	"github.com/gptportal/portal-go/internal/promptcache"
	"github.com/gptportal/portal-go/internal/session"
)

const (
	claudeBaseURL    = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	// Long-output beta, required by the thinking models.
	claudeBetaHeader = "output-128k-2025-02-19"

	webSearchToolType = "web_search_20250305"

	// Thinking budget leaves room for the visible answer.
	thinkingReserveTokens = 100
)

// ClaudeAdapter speaks the Anthropic messages protocol: block-shaped history,
// extended thinking, the server-side web-search tool, and prompt caching via
// the cache engine.
type ClaudeAdapter struct {
	apiKey  string
	baseURL string
	client  *vendorClient
	logger  *slog.Logger

	cache *promptcache.Engine

	// Web search is attached by default for capable models; this is the
	// process-level opt-out. Requests can also opt out individually.
	webSearchEnabled bool
}

func NewClaudeAdapter(apiKey string, cache *promptcache.Engine, webSearchEnabled bool, logger *slog.Logger) *ClaudeAdapter {
	return &ClaudeAdapter{
		apiKey:           apiKey,
		baseURL:          claudeBaseURL,
		client:           newVendorClient(),
		logger:           logger,
		cache:            cache,
		webSearchEnabled: webSearchEnabled,
	}
}

func (a *ClaudeAdapter) Name() models.Provider { return models.ProviderClaude }

// SetBaseURL overrides the vendor endpoint, for tests.
func (a *ClaudeAdapter) SetBaseURL(url string) { a.baseURL = url }

func (a *ClaudeAdapter) headers(thinking bool) map[string]string {
	h := map[string]string{
		"x-api-key":         a.apiKey,
		"anthropic-version": anthropicVersion,
	}
	if thinking {
		h["anthropic-beta"] = claudeBetaHeader
	}
	return h
}

// FormatUserInput wraps the prompt in XML-style tags and attaches files and
// images as typed blocks. PDFs ride as document blocks; other files inline
// into the text.
func (a *ClaudeAdapter) FormatUserInput(text string, file *llm.FileRef, image *llm.ImageRef) llm.Message {
	prompt := "<user_message>" + text + "</user_message>"

	var blocks []llm.ContentBlock

	if file != nil {
		if file.IsPDF {
			blocks = append(blocks, llm.ContentBlock{
				Type: llm.ContentTypeDocument,
				Source: &llm.MediaSource{
					Type:      "base64",
					MediaType: "application/pdf",
					Data:      file.Contents,
				},
			})
		} else {
			prompt += "\n<file_name>" + file.Name + "</file_name>\n<file_contents>" + file.Contents + "</file_contents>"
		}
	}

	blocks = append(blocks, llm.ContentBlock{Type: llm.ContentTypeText, Text: prompt})

	if image != nil {
		if mediaType, data, ok := parseDataURL(image.DataURL); ok {
			blocks = append(blocks, llm.ContentBlock{
				Type: llm.ContentTypeImage,
				Source: &llm.MediaSource{
					Type:      "base64",
					MediaType: mediaType,
					Data:      data,
				},
			})
		}
	}

	return llm.Message{Role: llm.RoleUser, Content: blocks}
}

// Wire shape of an Anthropic messages response.
type claudeResponse struct {
	ID      string `json:"id"`
	Content []struct {
		Type      string `json:"type"`
		Text      string `json:"text"`
		Thinking  string `json:"thinking"`
		Name      string `json:"name"`
		Citations []struct {
			URL   string `json:"url"`
			Title string `json:"title"`
		} `json:"citations"`
	} `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      map[string]any `json:"usage"`
}

func (a *ClaudeAdapter) Handle(ctx context.Context, req *llm.Request, st *session.State) (*llm.Response, error) {
	st.Claude = append(st.Claude, req.UserInput)

	cap := models.Lookup(req.ModelID)
	maxTokens := maxTokensOrDefault(req.MaxTokens)

	strategy := a.cache.Analyze(req.ModelID, req.SystemMessage, st.Claude, req.CachePreference)
	system, messages := a.cache.Apply(req.SystemMessage, st.Claude, strategy)

	body := map[string]any{
		"model":      req.ModelID,
		"max_tokens": maxTokens,
		"messages":   messages,
	}
	if s, ok := system.(string); !ok || s != "" {
		body["system"] = system
	}

	if cap.SupportsThinking {
		// Extended thinking requires temperature 1.
		body["temperature"] = 1
		body["thinking"] = map[string]any{
			"type":          "enabled",
			"budget_tokens": maxTokens - thinkingReserveTokens,
		}
	} else {
		body["temperature"] = temperatureOrDefault(req.Temperature)
	}

	if tool := a.webSearchTool(cap, req.WebSearch); tool != nil {
		body["tools"] = []any{tool}
	}

	raw, err := a.client.postJSON(ctx, "Claude", a.baseURL+"/messages", body, a.headers(cap.SupportsThinking))
	if err != nil {
		return nil, err
	}

	var resp claudeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal Claude response: %w", err)
	}

	thinking, answer, citations, searched := collectClaudeContent(resp)
	formatted := FormatThinking(thinking, answer)

	st.Claude = append(st.Claude, llm.Message{
		Role:    llm.RoleAssistant,
		Content: []llm.ContentBlock{{Type: llm.ContentTypeText, Text: answer}},
	})

	a.cache.TrackPerformance(req.ModelID, cacheUsage(resp.Usage), strategy.ShouldCache)

	a.logger.Debug("claude completion",
		"model", req.ModelID,
		"stop_reason", resp.StopReason,
		"thinking", cap.SupportsThinking,
		"cached", strategy.ShouldCache,
		"web_search", searched,
	)

	return &llm.Response{
		Success:       true,
		Content:       formatted,
		Thinking:      thinking,
		Usage:         resp.Usage,
		WebSearchUsed: searched,
		Citations:     citations,
	}, nil
}

// webSearchTool builds the server-side search tool for capable models.
// Default-on, with both a process-level and a per-request opt-out.
func (a *ClaudeAdapter) webSearchTool(cap models.Capability, cfg *llm.WebSearchConfig) map[string]any {
	if !cap.SupportsWebSearch || !a.webSearchEnabled {
		return nil
	}
	if cfg != nil && cfg.Disabled {
		return nil
	}

	tool := map[string]any{
		"type": webSearchToolType,
		"name": "web_search",
	}
	if cfg != nil {
		if cfg.MaxUses > 0 {
			tool["max_uses"] = cfg.MaxUses
		}
		if len(cfg.AllowedDomains) > 0 {
			tool["allowed_domains"] = cfg.AllowedDomains
		}
		if len(cfg.BlockedDomains) > 0 {
			tool["blocked_domains"] = cfg.BlockedDomains
		}
	}
	return tool
}

// collectClaudeContent concatenates thinking blocks and text blocks into two
// strings and gathers web-search citations.
func collectClaudeContent(resp claudeResponse) (thinking, answer string, citations []llm.Citation, searched bool) {
	var thinkingParts, textParts []string

	for _, block := range resp.Content {
		switch block.Type {
		case llm.ContentTypeThinking:
			thinkingParts = append(thinkingParts, block.Thinking)
		case llm.ContentTypeText:
			textParts = append(textParts, block.Text)
			for _, c := range block.Citations {
				citations = append(citations, llm.Citation{URL: c.URL, Title: c.Title})
			}
		case "server_tool_use":
			if block.Name == "web_search" {
				searched = true
			}
		}
	}

	return strings.Join(thinkingParts, "\n"), strings.Join(textParts, ""), citations, searched
}

// cacheUsage lifts Anthropic's cache token counters out of the usage object.
func cacheUsage(usage map[string]any) promptcache.Usage {
	num := func(key string) int {
		if v, ok := usage[key].(float64); ok {
			return int(v)
		}
		return 0
	}
	return promptcache.Usage{
		InputTokens:              num("input_tokens"),
		CacheCreationInputTokens: num("cache_creation_input_tokens"),
		CacheReadInputTokens:     num("cache_read_input_tokens"),
	}
}

// parseDataURL splits "data:<media-type>;base64,<data>".
func parseDataURL(dataURL string) (mediaType, data string, ok bool) {
	rest, found := strings.CutPrefix(dataURL, "data:")
	if !found {
		return "", "", false
	}
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", false
	}
	mediaType = strings.TrimSuffix(meta, ";base64")
	return mediaType, payload, true
}
