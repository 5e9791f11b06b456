// Package handlers exposes the portal's HTTP surface: one chat endpoint over
// the provider router, media endpoints for images/audio, and cache analytics.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gptportal/portal-go/internal/llm"
	"github.com/gptportal/portal-go/internal/providers"
	"github.com/gptportal/portal-go/internal/session"
)

// ChatRequest is the JSON body of POST /api/chat.
type ChatRequest struct {
	Message         string               `json:"message"`
	Model           string               `json:"model"`
	SystemMessage   string               `json:"system_message,omitempty"`
	Temperature     float64              `json:"temperature,omitempty"`
	MaxTokens       int                  `json:"max_tokens,omitempty"`
	ReasoningEffort string               `json:"reasoning_effort,omitempty"`
	Verbosity       string               `json:"verbosity,omitempty"`
	CachePreference string               `json:"cache_preference,omitempty"`
	WebSearch       *llm.WebSearchConfig `json:"web_search,omitempty"`
	SessionID       string               `json:"session_id,omitempty"`
	AssistantMode   bool                 `json:"assistant_mode,omitempty"`

	File  *chatFile  `json:"file,omitempty"`
	Image *chatImage `json:"image,omitempty"`
}

type chatFile struct {
	Name     string `json:"name"`
	Contents string `json:"contents"`
	IsPDF    bool   `json:"is_pdf,omitempty"`
}

type chatImage struct {
	Name    string `json:"name"`
	DataURL string `json:"data_url"`
}

// ChatResponse wraps the normalized response with the session id so clients
// can continue the conversation.
type ChatResponse struct {
	llm.Response
	SessionID string `json:"session_id"`
}

type ChatHandler struct {
	router   *providers.Router
	sessions *session.Store
	logger   *slog.Logger
}

func NewChatHandler(router *providers.Router, sessions *session.Store, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{router: router, sessions: sessions, logger: logger}
}

func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var body ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if body.Message == "" || body.Model == "" {
		writeError(w, http.StatusBadRequest, "message and model are required")
		return
	}

	var file *llm.FileRef
	if body.File != nil {
		file = &llm.FileRef{Name: body.File.Name, Contents: body.File.Contents, IsPDF: body.File.IsPDF}
	}
	var image *llm.ImageRef
	if body.Image != nil {
		image = &llm.ImageRef{Name: body.Image.Name, DataURL: body.Image.DataURL}
	}

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = r.Header.Get("X-Session-ID")
	}
	st := h.sessions.GetOrCreate(sessionID, body.Model)

	req := &llm.Request{
		UserInput:       h.router.FormatUserInput(body.Model, body.Message, file, image),
		ModelID:         body.Model,
		SystemMessage:   body.SystemMessage,
		Temperature:     body.Temperature,
		MaxTokens:       body.MaxTokens,
		ReasoningEffort: body.ReasoningEffort,
		Verbosity:       body.Verbosity,
		CachePreference: llm.CachePreference(body.CachePreference),
		WebSearch:       body.WebSearch,
	}

	handle := h.router.HandleChat
	if body.AssistantMode {
		handle = h.router.HandleAssistant
	}

	resp, err := handle(r.Context(), req, st)
	if err != nil {
		h.logger.Error("chat failed", "model", body.Model, "session", st.ID, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{Response: *resp, SessionID: st.ID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, llm.Response{Success: false, Error: msg})
}
