package interfaces

import (
	"context"

	"github.com/ternarybob/indago/internal/models"
)

// SearchService issues queries against the web search provider and returns
// deduplicated result records. Missing credentials degrade to empty results
// rather than errors so a scan can proceed without search capability.
type SearchService interface {
	// Search runs one query. Always requests the first page; when
	// fetchAllPages is true it walks offsets 11 and 21 as well, stopping
	// early once enough unique URLs have been collected. Network failures
	// are logged and yield an empty list, never an error.
	Search(ctx context.Context, query string, numResults int, fetchAllPages bool) []models.SearchResult

	// SearchAll runs every query in order and deduplicates by URL across
	// the combined results, preserving first-seen order.
	SearchAll(ctx context.Context, queries []string, numResults int, fetchAllPages bool) []models.SearchResult

	// IsConfigured reports whether both the API key and the engine
	// identifier are present.
	IsConfigured() bool
}
