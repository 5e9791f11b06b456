// Package llm holds the canonical request/response contract between the route
// layer, the provider adapters, and the session store. Adapters translate
// between these types and their vendor's wire protocol.
package llm

// Role and content-type constants shared across adapters.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"

	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeImageURL = "image_url"
	ContentTypeDocument = "document"
	ContentTypeThinking = "thinking"
)

// Message is one conversation turn. Content is either a plain string (flat
// history shapes) or a []ContentBlock (Claude's block shape, OpenAI
// multimodal input).
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentBlock is a single typed block inside a message.
type ContentBlock struct {
	Type         string        `json:"type"`
	Text         string        `json:"text,omitempty"`
	Source       *MediaSource  `json:"source,omitempty"`
	ImageURL     *ImageURL     `json:"image_url,omitempty"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// MediaSource carries inline base64 media for Claude image/document blocks.
type MediaSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type ImageURL struct {
	URL string `json:"url"`
}

// CacheControl marks a block as a prompt-cache breakpoint.
type CacheControl struct {
	Type string `json:"type"`
}

// EphemeralCache is the only cache_control type Anthropic currently accepts.
func EphemeralCache() *CacheControl {
	return &CacheControl{Type: "ephemeral"}
}

// CachePreference is the caller-facing caching knob.
type CachePreference string

const (
	CacheAuto  CachePreference = "auto"
	CacheForce CachePreference = "force"
	CacheNone  CachePreference = "none"
)

// WebSearchConfig tunes the web-search tool for vendors that support it.
// Disabled opts a request out of the default-on behavior.
type WebSearchConfig struct {
	Disabled       bool     `json:"disabled,omitempty"`
	MaxUses        int      `json:"max_uses,omitempty"`
	AllowedDomains []string `json:"allowed_domains,omitempty"`
	BlockedDomains []string `json:"blocked_domains,omitempty"`
}

// Request is the canonical chat request handed to the router. It is
// constructed by the route layer and never mutated by adapters.
type Request struct {
	UserInput       Message
	ModelID         string
	SystemMessage   string
	Temperature     float64
	MaxTokens       int
	ReasoningEffort string // none|minimal|low|medium|high|xhigh
	Verbosity       string // low|medium|high
	CachePreference CachePreference
	WebSearch       *WebSearchConfig
}

// Response is the canonical normalized response returned to the caller.
// Thinking is set only when the vendor separates a reasoning trace from the
// final answer.
type Response struct {
	Success       bool           `json:"success"`
	Content       string         `json:"content"`
	Thinking      string         `json:"thinking,omitempty"`
	Usage         map[string]any `json:"usage,omitempty"`
	Error         string         `json:"error,omitempty"`
	ResponseID    string         `json:"response_id,omitempty"`
	WebSearchUsed bool           `json:"web_search_used,omitempty"`
	Citations     []Citation     `json:"citations,omitempty"`
}

// Citation is a web-search source reference reported by a vendor.
type Citation struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	StartIndex int    `json:"start_index,omitempty"`
	EndIndex   int    `json:"end_index,omitempty"`
}

// FileRef is an uploaded file attached to a user turn.
type FileRef struct {
	Name     string
	Contents string
	IsPDF    bool
}

// ImageRef is an uploaded image attached to a user turn, as a data URL
// ("data:image/png;base64,...").
type ImageRef struct {
	Name    string
	DataURL string
}

// ImageOptions parameterize image generation.
type ImageOptions struct {
	ModelID       string `json:"model,omitempty"`
	Count         int    `json:"n,omitempty"`
	Size          string `json:"size,omitempty"`
	AspectRatio   string `json:"aspect_ratio,omitempty"`
	Quality       string `json:"quality,omitempty"`
	EnhancePrompt *bool  `json:"enhance_prompt,omitempty"`
}

// GeneratedImage is one produced image, base64 encoded.
type GeneratedImage struct {
	B64Data       string `json:"b64_json"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// ImageResult is the outcome of an image generation call, including fallback
// provenance when a non-preferred model produced it.
type ImageResult struct {
	Success        bool             `json:"success"`
	Images         []GeneratedImage `json:"images"`
	Model          string           `json:"model"`
	OriginalPrompt string           `json:"original_prompt"`
	EnhancedPrompt string           `json:"enhanced_prompt,omitempty"`
	UsedFallback   bool             `json:"used_fallback,omitempty"`
	FallbackReason string           `json:"fallback_reason,omitempty"`
	OriginalModel  string           `json:"original_model,omitempty"`
}

// TranscriptOptions parameterize audio transcription.
type TranscriptOptions struct {
	PreferGroq     bool
	PreferredModel string
	UsePrompting   bool
}

// TranscriptResult is the outcome of a transcription call.
type TranscriptResult struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Model   string `json:"model"`
}

// AudioRef points at uploaded audio bytes.
type AudioRef struct {
	Filename string
	Data     []byte
}

// SpeechOptions parameterize text-to-speech.
type SpeechOptions struct {
	Model                   string
	Voice                   string
	Format                  string
	Instructions            string
	IntelligentInstructions bool
}

// AudioResult is the outcome of a text-to-speech call.
type AudioResult struct {
	Success     bool
	Audio       []byte
	ContentType string
	Model       string
}
