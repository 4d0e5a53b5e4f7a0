package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/interfaces"
)

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	scheduler  interfaces.SchedulerService
	runStorage interfaces.RunStorage
	startTime  time.Time
	logger     arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler
func NewStatusHandler(scheduler interfaces.SchedulerService, runStorage interfaces.RunStorage, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		scheduler:  scheduler,
		runStorage: runStorage,
		startTime:  time.Now(),
		logger:     logger,
	}
}

// GetStatusHandler handles GET /api/status
func (h *StatusHandler) GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	status := map[string]interface{}{
		"status":  "ok",
		"version": common.GetVersion(),
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	}

	schedulerStatus := map[string]interface{}{
		"running": false,
		"entries": 0,
	}
	if h.scheduler != nil {
		schedulerStatus["running"] = h.scheduler.IsRunning()
		schedulerStatus["entries"] = len(h.scheduler.Entries())
	}
	status["scheduler"] = schedulerStatus

	if h.runStorage != nil {
		total, err := h.runStorage.CountRuns(r.Context())
		if err != nil {
			h.logger.Warn().Err(err).Msg("Failed to count runs for status")
		} else {
			status["runs"] = map[string]interface{}{
				"total": total,
			}
		}
	}

	WriteJSON(w, http.StatusOK, status)
}
