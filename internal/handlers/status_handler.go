package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/common"
)

// StatusHandler reports application health and build info.
type StatusHandler struct {
	config  *common.Config
	logger  arbor.ILogger
	started time.Time
}

// NewStatusHandler creates a new StatusHandler instance
func NewStatusHandler(config *common.Config, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		config:  config,
		logger:  logger,
		started: time.Now(),
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"version":        common.GetVersion(),
		"build":          common.Build,
		"environment":    h.config.Environment,
		"storage_mode":   h.config.Storage.Mode,
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}
