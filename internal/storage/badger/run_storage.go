package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/indago/internal/interfaces"
	"github.com/ternarybob/indago/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// RunStorage implements the RunStorage interface for Badger
type RunStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRunStorage creates a new RunStorage instance
func NewRunStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RunStorage {
	return &RunStorage{
		db:     db,
		logger: logger,
	}
}

// SaveRun inserts or updates a scan run record
func (s *RunStorage) SaveRun(ctx context.Context, run *models.ScanRun) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}

	if err := s.db.Store().Upsert(run.ID, run); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a scan run by ID
func (s *RunStorage) GetRun(ctx context.Context, id string) (*models.ScanRun, error) {
	var run models.ScanRun
	if err := s.db.Store().Get(id, &run); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, fmt.Errorf("run not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return &run, nil
}

// ListRuns returns runs ordered newest first
func (s *RunStorage) ListRuns(ctx context.Context, limit, offset int) ([]*models.ScanRun, error) {
	query := badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Skip(offset)
	}

	var runs []models.ScanRun
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	result := make([]*models.ScanRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

// ListRunsByIndex returns the newest runs for one index name
func (s *RunStorage) ListRunsByIndex(ctx context.Context, indexName string, limit int) ([]*models.ScanRun, error) {
	query := badgerhold.Where("IndexName").Eq(indexName).SortBy("CreatedAt").Reverse()
	if limit > 0 {
		query = query.Limit(limit)
	}

	var runs []models.ScanRun
	if err := s.db.Store().Find(&runs, query); err != nil {
		return nil, fmt.Errorf("failed to list runs for index %s: %w", indexName, err)
	}

	result := make([]*models.ScanRun, len(runs))
	for i := range runs {
		result[i] = &runs[i]
	}
	return result, nil
}

// CountRuns returns the total number of stored runs
func (s *RunStorage) CountRuns(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.ScanRun{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return int(count), nil
}

// DeleteRun removes a run record. Deleting a missing run is not an error.
func (s *RunStorage) DeleteRun(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.ScanRun{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return nil
}
