package interfaces

import (
	"context"

	"github.com/ternarybob/indago/internal/models"
)

// ScanService runs the full discovery pipeline for one trend: query
// generation, web search, fetch, extract, rank, digest export. The returned
// article records live only for this invocation; the run record is the only
// thing persisted.
type ScanService interface {
	// Scan executes the pipeline and returns the completed run record
	// alongside the ranked articles. A scan degrades rather than fails:
	// missing credentials or provider outages shrink the result list,
	// and only storage-level problems surface as errors.
	Scan(ctx context.Context, trend models.Trend, opts models.ScanOptions) (*models.ScanRun, []*models.ArticleRecord, error)
}
