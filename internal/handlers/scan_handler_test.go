package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/indago/internal/models"
)

// mockScanService implements interfaces.ScanService for testing
type mockScanService struct {
	scanFunc func(ctx context.Context, trend models.Trend, opts models.ScanOptions) (*models.ScanRun, []*models.ArticleRecord, error)
}

func (m *mockScanService) Scan(ctx context.Context, trend models.Trend, opts models.ScanOptions) (*models.ScanRun, []*models.ArticleRecord, error) {
	if m.scanFunc != nil {
		return m.scanFunc(ctx, trend, opts)
	}
	return models.NewScanRun(models.NewTrend(trend.IndexName, trend.Change), models.RunTriggerManual), nil, nil
}

// mockRunStorage implements interfaces.RunStorage for testing
type mockRunStorage struct {
	getRunFunc    func(ctx context.Context, id string) (*models.ScanRun, error)
	listRunsFunc  func(ctx context.Context, limit, offset int) ([]*models.ScanRun, error)
	countRunsFunc func(ctx context.Context) (int, error)
	deleteRunFunc func(ctx context.Context, id string) error
}

func (m *mockRunStorage) SaveRun(ctx context.Context, run *models.ScanRun) error {
	return nil
}

func (m *mockRunStorage) GetRun(ctx context.Context, id string) (*models.ScanRun, error) {
	if m.getRunFunc != nil {
		return m.getRunFunc(ctx, id)
	}
	return nil, &mockError{msg: "run not found: " + id}
}

func (m *mockRunStorage) ListRuns(ctx context.Context, limit, offset int) ([]*models.ScanRun, error) {
	if m.listRunsFunc != nil {
		return m.listRunsFunc(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockRunStorage) ListRunsByIndex(ctx context.Context, indexName string, limit int) ([]*models.ScanRun, error) {
	return nil, nil
}

func (m *mockRunStorage) CountRuns(ctx context.Context) (int, error) {
	if m.countRunsFunc != nil {
		return m.countRunsFunc(ctx)
	}
	return 0, nil
}

func (m *mockRunStorage) DeleteRun(ctx context.Context, id string) error {
	if m.deleteRunFunc != nil {
		return m.deleteRunFunc(ctx, id)
	}
	return nil
}

// mockError implements error interface for testing
type mockError struct {
	msg string
}

func (e *mockError) Error() string {
	return e.msg
}

func completedTestRun(indexName string, change float64) *models.ScanRun {
	run := models.NewScanRun(models.NewTrend(indexName, change), models.RunTriggerManual)
	run.MarkStarted()
	run.ResultCount = 6
	run.RankedCount = 2
	run.MarkCompleted()
	return run
}

func TestTriggerScanHandler_Success(t *testing.T) {
	var capturedTrend models.Trend
	var capturedOpts models.ScanOptions

	run := completedTestRun("New Orders", -3.2)
	articles := []*models.ArticleRecord{
		{Title: "Factory orders slump deepens", URL: "https://example.com/a"},
		{Title: "Manufacturing demand cools", URL: "https://example.com/b"},
	}

	mockService := &mockScanService{
		scanFunc: func(ctx context.Context, trend models.Trend, opts models.ScanOptions) (*models.ScanRun, []*models.ArticleRecord, error) {
			capturedTrend = trend
			capturedOpts = opts
			return run, articles, nil
		},
	}

	handler := NewScanHandler(mockService, &mockRunStorage{}, arbor.NewLogger())
	body := `{"index_name":"New Orders","change":-3.2,"top_n":5,"num_queries":3}`
	req := httptest.NewRequest("POST", "/api/scan", strings.NewReader(body))
	rec := httptest.NewRecorder()

	handler.TriggerScanHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if capturedTrend.IndexName != "New Orders" {
		t.Errorf("Expected index name 'New Orders', got %q", capturedTrend.IndexName)
	}
	if capturedTrend.Change != -3.2 {
		t.Errorf("Expected change -3.2, got %v", capturedTrend.Change)
	}
	if capturedOpts.TopN != 5 {
		t.Errorf("Expected top_n 5, got %d", capturedOpts.TopN)
	}
	if capturedOpts.NumQueries != 3 {
		t.Errorf("Expected num_queries 3, got %d", capturedOpts.NumQueries)
	}
	if capturedOpts.Trigger != models.RunTriggerManual {
		t.Errorf("Expected manual trigger, got %q", capturedOpts.Trigger)
	}

	var response ScanResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Run == nil || response.Run.ID != run.ID {
		t.Errorf("Expected run %s in response, got %+v", run.ID, response.Run)
	}
	if len(response.Articles) != 2 {
		t.Fatalf("Expected 2 articles, got %d", len(response.Articles))
	}
	if response.Articles[0].Title != "Factory orders slump deepens" {
		t.Errorf("Unexpected first article: %+v", response.Articles[0])
	}
}

func TestTriggerScanHandler_InvalidBody(t *testing.T) {
	handler := NewScanHandler(&mockScanService{}, &mockRunStorage{}, arbor.NewLogger())
	req := httptest.NewRequest("POST", "/api/scan", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()

	handler.TriggerScanHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)
	if response["status"] != "error" {
		t.Errorf("Expected error status, got %v", response["status"])
	}
}

func TestTriggerScanHandler_MissingIndexName(t *testing.T) {
	called := false
	mockService := &mockScanService{
		scanFunc: func(ctx context.Context, trend models.Trend, opts models.ScanOptions) (*models.ScanRun, []*models.ArticleRecord, error) {
			called = true
			return nil, nil, nil
		},
	}

	handler := NewScanHandler(mockService, &mockRunStorage{}, arbor.NewLogger())
	req := httptest.NewRequest("POST", "/api/scan", strings.NewReader(`{"change":-1.5}`))
	rec := httptest.NewRecorder()

	handler.TriggerScanHandler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
	if called {
		t.Error("Scan service should not run for an invalid trend")
	}
}

func TestTriggerScanHandler_ScanError(t *testing.T) {
	mockService := &mockScanService{
		scanFunc: func(ctx context.Context, trend models.Trend, opts models.ScanOptions) (*models.ScanRun, []*models.ArticleRecord, error) {
			return nil, nil, &mockError{msg: "run store unavailable"}
		},
	}

	handler := NewScanHandler(mockService, &mockRunStorage{}, arbor.NewLogger())
	req := httptest.NewRequest("POST", "/api/scan", strings.NewReader(`{"index_name":"Employment","change":1.1}`))
	rec := httptest.NewRecorder()

	handler.TriggerScanHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestTriggerScanHandler_EmptyArticles(t *testing.T) {
	mockService := &mockScanService{
		scanFunc: func(ctx context.Context, trend models.Trend, opts models.ScanOptions) (*models.ScanRun, []*models.ArticleRecord, error) {
			return completedTestRun(trend.IndexName, trend.Change), nil, nil
		},
	}

	handler := NewScanHandler(mockService, &mockRunStorage{}, arbor.NewLogger())
	req := httptest.NewRequest("POST", "/api/scan", strings.NewReader(`{"index_name":"Employment","change":0.4}`))
	rec := httptest.NewRecorder()

	handler.TriggerScanHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	articles, ok := response["articles"].([]interface{})
	if !ok {
		t.Fatalf("Expected articles array, got %T", response["articles"])
	}
	if len(articles) != 0 {
		t.Errorf("Expected empty articles array, got %d entries", len(articles))
	}
}

func TestListRunsHandler(t *testing.T) {
	var capturedLimit, capturedOffset int
	runs := []*models.ScanRun{
		completedTestRun("New Orders", -3.2),
		completedTestRun("Employment", 0.8),
	}

	storage := &mockRunStorage{
		listRunsFunc: func(ctx context.Context, limit, offset int) ([]*models.ScanRun, error) {
			capturedLimit = limit
			capturedOffset = offset
			return runs, nil
		},
		countRunsFunc: func(ctx context.Context) (int, error) {
			return 7, nil
		},
	}

	handler := NewScanHandler(&mockScanService{}, storage, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/runs?limit=5&offset=10", nil)
	rec := httptest.NewRecorder()

	handler.ListRunsHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if capturedLimit != 5 || capturedOffset != 10 {
		t.Errorf("Expected limit=5 offset=10, got limit=%d offset=%d", capturedLimit, capturedOffset)
	}

	var response map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if int(response["count"].(float64)) != 2 {
		t.Errorf("Expected count 2, got %v", response["count"])
	}
	if int(response["total"].(float64)) != 7 {
		t.Errorf("Expected total 7, got %v", response["total"])
	}
	if int(response["limit"].(float64)) != 5 {
		t.Errorf("Expected limit 5 in response, got %v", response["limit"])
	}
}

func TestListRunsHandler_Defaults(t *testing.T) {
	var capturedLimit, capturedOffset int
	storage := &mockRunStorage{
		listRunsFunc: func(ctx context.Context, limit, offset int) ([]*models.ScanRun, error) {
			capturedLimit = limit
			capturedOffset = offset
			return nil, nil
		},
	}

	handler := NewScanHandler(&mockScanService{}, storage, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/runs", nil)
	rec := httptest.NewRecorder()

	handler.ListRunsHandler(rec, req)

	if capturedLimit != 20 {
		t.Errorf("Expected default limit 20, got %d", capturedLimit)
	}
	if capturedOffset != 0 {
		t.Errorf("Expected default offset 0, got %d", capturedOffset)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)

	runs, ok := response["runs"].([]interface{})
	if !ok {
		t.Fatalf("Expected runs array, got %T", response["runs"])
	}
	if len(runs) != 0 {
		t.Errorf("Expected empty runs array, got %d entries", len(runs))
	}
}

func TestListRunsHandler_StorageError(t *testing.T) {
	storage := &mockRunStorage{
		listRunsFunc: func(ctx context.Context, limit, offset int) ([]*models.ScanRun, error) {
			return nil, &mockError{msg: "store closed"}
		},
	}

	handler := NewScanHandler(&mockScanService{}, storage, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/runs", nil)
	rec := httptest.NewRecorder()

	handler.ListRunsHandler(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

func TestGetRunHandler(t *testing.T) {
	run := completedTestRun("New Orders", -3.2)
	storage := &mockRunStorage{
		getRunFunc: func(ctx context.Context, id string) (*models.ScanRun, error) {
			if id == run.ID {
				return run, nil
			}
			return nil, &mockError{msg: "run not found: " + id}
		},
	}

	handler := NewScanHandler(&mockScanService{}, storage, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/runs/"+run.ID, nil)
	rec := httptest.NewRecorder()

	handler.GetRunHandler(rec, req, run.ID)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var fetched models.ScanRun
	if err := json.NewDecoder(rec.Body).Decode(&fetched); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if fetched.ID != run.ID {
		t.Errorf("Expected run %s, got %s", run.ID, fetched.ID)
	}
	if fetched.IndexName != "New Orders" {
		t.Errorf("Expected index name 'New Orders', got %q", fetched.IndexName)
	}
}

func TestGetRunHandler_NotFound(t *testing.T) {
	handler := NewScanHandler(&mockScanService{}, &mockRunStorage{}, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/runs/missing", nil)
	rec := httptest.NewRecorder()

	handler.GetRunHandler(rec, req, "missing")

	if rec.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", rec.Code)
	}
}

func TestGetRunHandler_EmptyID(t *testing.T) {
	handler := NewScanHandler(&mockScanService{}, &mockRunStorage{}, arbor.NewLogger())
	req := httptest.NewRequest("GET", "/api/runs/", nil)
	rec := httptest.NewRecorder()

	handler.GetRunHandler(rec, req, "")

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", rec.Code)
	}
}

func TestDeleteRunHandler(t *testing.T) {
	var deletedID string
	storage := &mockRunStorage{
		deleteRunFunc: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}

	handler := NewScanHandler(&mockScanService{}, storage, arbor.NewLogger())
	req := httptest.NewRequest("DELETE", "/api/runs/run-abc", nil)
	rec := httptest.NewRecorder()

	handler.DeleteRunHandler(rec, req, "run-abc")

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if deletedID != "run-abc" {
		t.Errorf("Expected delete of run-abc, got %q", deletedID)
	}

	var response map[string]interface{}
	json.NewDecoder(rec.Body).Decode(&response)
	if response["run_id"] != "run-abc" {
		t.Errorf("Expected run_id in response, got %v", response["run_id"])
	}
}

func TestDeleteRunHandler_StorageError(t *testing.T) {
	storage := &mockRunStorage{
		deleteRunFunc: func(ctx context.Context, id string) error {
			return &mockError{msg: "store closed"}
		},
	}

	handler := NewScanHandler(&mockScanService{}, storage, arbor.NewLogger())
	req := httptest.NewRequest("DELETE", "/api/runs/run-abc", nil)
	rec := httptest.NewRecorder()

	handler.DeleteRunHandler(rec, req, "run-abc")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}
