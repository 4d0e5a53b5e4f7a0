package interfaces

import (
	"context"

	"github.com/ternarybob/indago/internal/models"
)

// RunStorage - interface for scan run persistence
type RunStorage interface {
	SaveRun(ctx context.Context, run *models.ScanRun) error
	GetRun(ctx context.Context, id string) (*models.ScanRun, error)
	ListRuns(ctx context.Context, limit, offset int) ([]*models.ScanRun, error)
	ListRunsByIndex(ctx context.Context, indexName string, limit int) ([]*models.ScanRun, error)
	CountRuns(ctx context.Context) (int, error)
	DeleteRun(ctx context.Context, id string) error
}

// SeenStorage - interface for the cross-run seen-URL registry. Scheduled
// scans use it to skip articles already surfaced for an index; entries
// expire so a URL can resurface after the retention window.
type SeenStorage interface {
	MarkSeen(ctx context.Context, indexName, url string) error
	IsSeen(ctx context.Context, indexName, url string) (bool, error)
	FilterUnseen(ctx context.Context, indexName string, urls []string) ([]string, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	RunStorage() RunStorage
	SeenStorage() SeenStorage
	Close() error
}
