package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gptportal/portal-go/internal/session"
)

type HealthHandler struct {
	sessions *session.Store
	logger   *slog.Logger
}

func NewHealthHandler(sessions *session.Store, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{sessions: sessions, logger: logger}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.sessions.Len(),
	})
}
