package server

import (
	"net/http"
	"strings"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (scan events + log stream)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Scans
	mux.HandleFunc("/api/scan", s.app.ScanHandler.TriggerScanHandler) // POST - run the pipeline for one trend
	mux.HandleFunc("/api/runs", s.app.ScanHandler.ListRunsHandler)    // GET - run history, newest first
	mux.HandleFunc("/api/runs/", s.handleRunRoutes)                   // GET/DELETE /{id}

	// API routes - Watchlist
	mux.HandleFunc("/api/watchlist", s.app.WatchlistHandler.GetWatchlistHandler) // GET - entries with schedule state

	// API routes - System
	mux.HandleFunc("/api/status", s.app.StatusHandler.GetStatusHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/shutdown", s.ShutdownHandler) // Graceful shutdown endpoint (dev mode)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", s.app.APIHandler.NotFoundHandler)

	return mux
}

// handleRunRoutes routes /api/runs/{id} requests
func (s *Server) handleRunRoutes(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimPrefix(r.URL.Path, "/api/runs/")
	if runID == "" || strings.Contains(runID, "/") {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	RouteByMethod(w, r, MethodRouter{
		"GET": func(w http.ResponseWriter, r *http.Request) {
			s.app.ScanHandler.GetRunHandler(w, r, runID)
		},
		"DELETE": func(w http.ResponseWriter, r *http.Request) {
			s.app.ScanHandler.DeleteRunHandler(w, r, runID)
		},
	})
}
