package handlers

import (
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/indago/internal/interfaces"
)

// WatchlistEntryStatus merges a watchlist entry with its live cron state.
type WatchlistEntryStatus struct {
	IndexName  string     `json:"index_name"`
	Indicator  string     `json:"indicator,omitempty"`
	Schedule   string     `json:"schedule"`
	TopN       int        `json:"top_n,omitempty"`
	NumQueries int        `json:"num_queries,omitempty"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	IsRunning  bool       `json:"is_running"`
	LastError  string     `json:"last_error,omitempty"`
}

// WatchlistHandler serves the scheduled-scan roster.
type WatchlistHandler struct {
	scheduler interfaces.SchedulerService
	logger    arbor.ILogger
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(scheduler interfaces.SchedulerService, logger arbor.ILogger) *WatchlistHandler {
	return &WatchlistHandler{
		scheduler: scheduler,
		logger:    logger,
	}
}

// GetWatchlistHandler returns the registered watchlist entries with their
// next and last fire times.
func (h *WatchlistHandler) GetWatchlistHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if h.scheduler == nil {
		WriteJSON(w, http.StatusOK, map[string]interface{}{
			"entries":           []WatchlistEntryStatus{},
			"count":             0,
			"scheduler_running": false,
		})
		return
	}

	entries := h.scheduler.Entries()
	statuses := h.scheduler.GetAllJobStatuses()

	out := make([]WatchlistEntryStatus, 0, len(entries))
	for _, entry := range entries {
		item := WatchlistEntryStatus{
			IndexName:  entry.IndexName,
			Indicator:  entry.Indicator,
			Schedule:   entry.Schedule,
			TopN:       entry.TopN,
			NumQueries: entry.NumQueries,
		}
		if status, ok := statuses[entry.IndexName]; ok && status != nil {
			item.Schedule = status.Schedule
			item.LastRun = status.LastRun
			item.NextRun = status.NextRun
			item.IsRunning = status.IsRunning
			item.LastError = status.LastError
		}
		out = append(out, item)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries":           out,
		"count":             len(out),
		"scheduler_running": h.scheduler.IsRunning(),
	})
}
