package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gptportal/portal-go/internal/promptcache"
)

// CacheHandler exposes cache analytics: GET /api/cache/analytics and
// POST /api/cache/reset.
type CacheHandler struct {
	engine *promptcache.Engine
	logger *slog.Logger
}

func NewCacheHandler(engine *promptcache.Engine, logger *slog.Logger) *CacheHandler {
	return &CacheHandler{engine: engine, logger: logger}
}

func (h *CacheHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	writeJSON(w, http.StatusOK, h.engine.Snapshot())
}

func (h *CacheHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	h.engine.Reset()
	h.logger.Info("cache analytics reset")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
