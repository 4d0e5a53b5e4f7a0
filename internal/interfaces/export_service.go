package interfaces

import (
	"context"

	"github.com/ternarybob/indago/internal/models"
)

// ExportService renders scan digests. Rendering happens while the ranked
// articles are still in memory; only file paths survive in the run record.
type ExportService interface {
	// WriteDigest renders the ranked articles in each requested format
	// (md, html, pdf, eml) and returns format to file path. Formats that
	// fail to render are logged and absent from the map.
	WriteDigest(ctx context.Context, run *models.ScanRun, articles []*models.ArticleRecord, formats []string) (map[string]string, error)

	// RenderMarkdown produces the digest markdown without touching disk,
	// used by the MCP surface.
	RenderMarkdown(run *models.ScanRun, articles []*models.ArticleRecord) string
}
