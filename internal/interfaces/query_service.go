package interfaces

import (
	"time"

	"github.com/ternarybob/indago/internal/models"
)

// QueryComposer turns a trend into an ordered list of search queries.
type QueryComposer interface {
	// GenerateQueries returns at most numQueries query strings for the
	// trend. Output is deterministic for a fixed trend and calendar
	// month/year; it never fails, at worst the list is short.
	GenerateQueries(trend models.Trend, numQueries int) []string

	// GenerateQueriesAt is GenerateQueries pinned to a reference time,
	// used by scheduled scans and tests.
	GenerateQueriesAt(trend models.Trend, numQueries int, now time.Time) []string
}
