package models

// ImageCapability is the option envelope an image model accepts. Fallback
// candidates are validated against this before an attempt is made.
type ImageCapability struct {
	Provider          Provider
	MaxImages         int
	Sizes             []string // OpenAI-family pixel sizes
	AspectRatios      []string // Gemini-family aspect ratios
	Qualities         []string
	PromptEnhancement bool
}

var imageModels = map[string]ImageCapability{
	"gpt-image-1": {
		Provider:          ProviderOpenAI,
		MaxImages:         1,
		Sizes:             []string{"1024x1024", "1024x1536", "1536x1024"},
		Qualities:         []string{"standard"},
		PromptEnhancement: true,
	},
	"dall-e-3": {
		Provider:  ProviderOpenAI,
		MaxImages: 1,
		Sizes:     []string{"1024x1024", "1024x1792", "1792x1024"},
		Qualities: []string{"standard", "hd"},
	},
	"dall-e-2": {
		Provider:  ProviderOpenAI,
		MaxImages: 4,
		Sizes:     []string{"256x256", "512x512", "1024x1024"},
		Qualities: []string{"standard"},
	},
	"imagen-4.0-generate-preview": {
		Provider:     ProviderGemini,
		MaxImages:    4,
		AspectRatios: []string{"1:1", "3:4", "4:3", "9:16", "16:9"},
	},
	"gemini-2.0-flash-preview-image-generation": {
		Provider:          ProviderGemini,
		MaxImages:         1,
		AspectRatios:      []string{"1:1"},
		PromptEnhancement: true,
	},
}

// ImageFallbackOrder is the fixed chain tried after the preferred image model
// fails. The preferred model is skipped when it appears in the chain.
var ImageFallbackOrder = []string{
	"gpt-image-1",
	"dall-e-3",
	"dall-e-2",
	"imagen-4.0-generate-preview",
	"gemini-2.0-flash-preview-image-generation",
}

// ImageModel returns the envelope for an image model id.
func ImageModel(modelID string) (ImageCapability, bool) {
	cap, ok := imageModels[modelID]
	return cap, ok
}

// IsImageModel reports whether the id is a known image-generation model.
func IsImageModel(modelID string) bool {
	_, ok := imageModels[modelID]
	return ok
}

// Audio model ids.
var (
	TranscriptionModels = []string{"gpt-4o-transcribe", "gpt-4o-mini-transcribe", "whisper-1"}
	GroqWhisperModel    = "whisper-large-v3"
	TTSModels           = []string{"gpt-4o-mini-tts", "tts-1-hd", "tts-1"}
	TTSVoices           = []string{"alloy", "echo", "fable", "onyx", "nova", "shimmer", "coral"}
)
