package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/indago/internal/models"
)

func TestHealthHandler(t *testing.T) {
	handler := NewAPIHandler()
	req := httptest.NewRequest("GET", "/api/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %q", response["status"])
	}
}

func TestHealthHandler_MethodNotAllowed(t *testing.T) {
	handler := NewAPIHandler()
	req := httptest.NewRequest("POST", "/api/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthHandler(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", rec.Code)
	}
}

func TestVersionHandler(t *testing.T) {
	handler := NewAPIHandler()
	req := httptest.NewRequest("GET", "/api/version", nil)
	rec := httptest.NewRecorder()

	handler.VersionHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["version"] == "" {
		t.Error("Expected a version string")
	}
	if _, ok := response["build"]; !ok {
		t.Error("Expected a build field")
	}
}

func TestNotFoundHandler(t *testing.T) {
	handler := NewAPIHandler()
	req := httptest.NewRequest("GET", "/api/unknown", nil)
	rec := httptest.NewRecorder()

	handler.NotFoundHandler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response["error"] != "Not Found" {
		t.Errorf("Expected 'Not Found', got %v", response["error"])
	}
	if response["path"] != "/api/unknown" {
		t.Errorf("Expected path '/api/unknown', got %v", response["path"])
	}
}

func TestGetStatusHandler(t *testing.T) {
	scheduler := &mockScheduler{
		running: true,
		entries: []models.WatchEntry{
			{IndexName: "New Orders", Enabled: true},
		},
	}
	storage := &mockRunStorage{
		countRunsFunc: func(ctx context.Context) (int, error) {
			return 12, nil
		},
	}

	handler := NewStatusHandler(scheduler, storage, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()

	handler.GetStatusHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response["status"] != "ok" {
		t.Errorf("Expected status 'ok', got %v", response["status"])
	}
	if response["uptime"] == nil {
		t.Error("Expected an uptime field")
	}

	schedulerStatus, ok := response["scheduler"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected scheduler object, got %T", response["scheduler"])
	}
	if schedulerStatus["running"] != true {
		t.Errorf("Expected scheduler running, got %v", schedulerStatus["running"])
	}
	if int(schedulerStatus["entries"].(float64)) != 1 {
		t.Errorf("Expected 1 scheduler entry, got %v", schedulerStatus["entries"])
	}

	runsStatus, ok := response["runs"].(map[string]interface{})
	if !ok {
		t.Fatalf("Expected runs object, got %T", response["runs"])
	}
	if int(runsStatus["total"].(float64)) != 12 {
		t.Errorf("Expected 12 total runs, got %v", runsStatus["total"])
	}
}

func TestGetStatusHandler_NoDependencies(t *testing.T) {
	handler := NewStatusHandler(nil, nil, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/status", nil)
	rec := httptest.NewRecorder()

	handler.GetStatusHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	schedulerStatus := response["scheduler"].(map[string]interface{})
	if schedulerStatus["running"] != false {
		t.Errorf("Expected scheduler running false, got %v", schedulerStatus["running"])
	}
	if _, ok := response["runs"]; ok {
		t.Error("Expected no runs section without storage")
	}
}

func TestGetListParams(t *testing.T) {
	tests := []struct {
		name           string
		url            string
		expectedLimit  int
		expectedOffset int
	}{
		{"Defaults", "/api/runs", 20, 0},
		{"Explicit values", "/api/runs?limit=5&offset=10", 5, 10},
		{"Limit capped at 100", "/api/runs?limit=500", 20, 0},
		{"Negative values ignored", "/api/runs?limit=-5&offset=-10", 20, 0},
		{"Zero limit ignored", "/api/runs?limit=0", 20, 0},
		{"Invalid strings ignored", "/api/runs?limit=abc&offset=def", 20, 0},
		{"Max limit accepted", "/api/runs?limit=100", 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.url, nil)
			limit, offset := GetListParams(req)

			if limit != tt.expectedLimit {
				t.Errorf("Expected limit %d, got %d", tt.expectedLimit, limit)
			}
			if offset != tt.expectedOffset {
				t.Errorf("Expected offset %d, got %d", tt.expectedOffset, offset)
			}
		})
	}
}
