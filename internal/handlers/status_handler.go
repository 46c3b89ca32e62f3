package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/quaestor/internal/common"
)

// StatusHandler serves health and version endpoints
type StatusHandler struct {
	logger    arbor.ILogger
	startedAt time.Time
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		logger:    logger,
		startedAt: time.Now().UTC(),
	}
}

// HandleHealth handles GET /api/health
func (h *StatusHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// HandleVersion handles GET /api/version
func (h *StatusHandler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.Version,
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}
