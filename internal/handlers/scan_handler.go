package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/indago/internal/interfaces"
	"github.com/ternarybob/indago/internal/models"
)

// ScanRequest is the body of POST /api/scan.
type ScanRequest struct {
	IndexName  string   `json:"index_name"`
	Change     float64  `json:"change"`
	NumQueries int      `json:"num_queries,omitempty"`
	TopN       int      `json:"top_n,omitempty"`
	MaxAgeDays int      `json:"max_age_days,omitempty"`
	Formats    []string `json:"formats,omitempty"`
}

// ScanResponse carries the completed run plus the ranked articles. The
// articles are the in-memory hand-off from the pipeline; only the run
// record is persisted.
type ScanResponse struct {
	Run      *models.ScanRun         `json:"run"`
	Articles []*models.ArticleRecord `json:"articles"`
}

// ScanHandler serves manual scan triggers and run history lookups.
type ScanHandler struct {
	scanService interfaces.ScanService
	runStorage  interfaces.RunStorage
	logger      arbor.ILogger
}

// NewScanHandler creates a new scan handler
func NewScanHandler(scanService interfaces.ScanService, runStorage interfaces.RunStorage, logger arbor.ILogger) *ScanHandler {
	return &ScanHandler{
		scanService: scanService,
		runStorage:  runStorage,
		logger:      logger,
	}
}

// TriggerScanHandler runs the discovery pipeline synchronously for the
// trend in the request body and responds with the run and ranked articles.
func (h *ScanHandler) TriggerScanHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	trend := models.NewTrend(req.IndexName, req.Change)
	if err := trend.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := models.ScanOptions{
		NumQueries: req.NumQueries,
		TopN:       req.TopN,
		MaxAgeDays: req.MaxAgeDays,
		Formats:    req.Formats,
		Trigger:    models.RunTriggerManual,
	}

	h.logger.Info().
		Str("index_name", trend.IndexName).
		Float64("change", trend.Change).
		Msg("Manual scan requested")

	run, articles, err := h.scanService.Scan(r.Context(), trend, opts)
	if err != nil {
		h.logger.Error().Err(err).Str("index_name", trend.IndexName).Msg("Manual scan failed")
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if articles == nil {
		articles = []*models.ArticleRecord{}
	}

	WriteJSON(w, http.StatusOK, ScanResponse{
		Run:      run,
		Articles: articles,
	})
}

// ListRunsHandler returns scan run metadata, newest first.
func (h *ScanHandler) ListRunsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit, offset := GetListParams(r)

	runs, err := h.runStorage.ListRuns(r.Context(), limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list runs")
		WriteError(w, http.StatusInternalServerError, "Failed to list runs")
		return
	}

	total, err := h.runStorage.CountRuns(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("Failed to count runs")
		total = len(runs)
	}

	if runs == nil {
		runs = []*models.ScanRun{}
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"runs":   runs,
		"count":  len(runs),
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// GetRunHandler returns a single scan run by ID.
func (h *ScanHandler) GetRunHandler(w http.ResponseWriter, r *http.Request, runID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	if runID == "" {
		WriteError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	run, err := h.runStorage.GetRun(r.Context(), runID)
	if err != nil {
		h.logger.Warn().Err(err).Str("run_id", runID).Msg("Run lookup failed")
		WriteError(w, http.StatusNotFound, "Run not found: "+runID)
		return
	}

	WriteJSON(w, http.StatusOK, run)
}

// DeleteRunHandler removes a scan run record by ID.
func (h *ScanHandler) DeleteRunHandler(w http.ResponseWriter, r *http.Request, runID string) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	if runID == "" {
		WriteError(w, http.StatusBadRequest, "Run ID is required")
		return
	}

	if err := h.runStorage.DeleteRun(r.Context(), runID); err != nil {
		h.logger.Error().Err(err).Str("run_id", runID).Msg("Failed to delete run")
		WriteError(w, http.StatusInternalServerError, "Failed to delete run")
		return
	}

	h.logger.Info().Str("run_id", runID).Msg("Run deleted")

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"run_id":  runID,
		"message": "Run deleted",
	})
}
