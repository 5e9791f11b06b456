package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/providers"
)

// ImageHandler serves POST /api/image.
type ImageHandler struct {
	router *providers.Router
	logger *slog.Logger
}

func NewImageHandler(router *providers.Router, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{router: router, logger: logger}
}

type imageRequest struct {
	Prompt string `json:"prompt"`
	llm.ImageOptions
}

func (h *ImageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body imageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.Prompt == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	result, err := h.router.GenerateImage(r.Context(), body.Prompt, body.ImageOptions)
	if err != nil {
		h.logger.Error("image generation failed", "model", body.ModelID, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// TranscribeHandler serves POST /api/transcribe (multipart).
type TranscribeHandler struct {
	router *providers.Router
	logger *slog.Logger
}

func NewTranscribeHandler(router *providers.Router, logger *slog.Logger) *TranscribeHandler {
	return &TranscribeHandler{router: router, logger: logger}
}

func (h *TranscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "read audio: "+err.Error())
		return
	}

	opts := llm.TranscriptOptions{
		PreferGroq:     r.FormValue("prefer_groq") == "true",
		PreferredModel: r.FormValue("model"),
		UsePrompting:   r.FormValue("use_prompting") == "true",
	}

	result, err := h.router.Transcribe(r.Context(),
		llm.AudioRef{Filename: header.Filename, Data: data}, opts)
	if err != nil {
		h.logger.Error("transcription failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// SpeechHandler serves POST /api/tts, returning raw audio bytes.
type SpeechHandler struct {
	router *providers.Router
	logger *slog.Logger
}

func NewSpeechHandler(router *providers.Router, logger *slog.Logger) *SpeechHandler {
	return &SpeechHandler{router: router, logger: logger}
}

type speechRequest struct {
	Text                    string `json:"text"`
	Model                   string `json:"model,omitempty"`
	Voice                   string `json:"voice,omitempty"`
	Format                  string `json:"format,omitempty"`
	Instructions            string `json:"instructions,omitempty"`
	IntelligentInstructions bool   `json:"intelligent_instructions,omitempty"`
}

func (h *SpeechHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body speechRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	result, err := h.router.TextToSpeech(r.Context(), body.Text, llm.SpeechOptions{
		Model:                   body.Model,
		Voice:                   body.Voice,
		Format:                  body.Format,
		Instructions:            body.Instructions,
		IntelligentInstructions: body.IntelligentInstructions,
	})
	if err != nil {
		h.logger.Error("speech synthesis failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Audio); err != nil {
		h.logger.Error("write audio response", "error", err)
	}
}
