package interfaces

import "github.com/ternarybob/indago/internal/models"

// ExtractorService turns raw page bytes into article records. Extraction
// never fails hard: when every strategy comes up empty the returned record
// carries a sentinel title and the failure reason as content.
type ExtractorService interface {
	// Extract produces a best-effort (title, content) record from HTML.
	Extract(html, url string) *models.ArticleRecord

	// ExtractPDF produces a record from a PDF body, for article URLs that
	// resolve to PDF documents.
	ExtractPDF(body []byte, url string) *models.ArticleRecord

	// ExtractDate probes document metadata for a publication date and
	// returns the first match, or "" when none is present.
	ExtractDate(html string) string
}
