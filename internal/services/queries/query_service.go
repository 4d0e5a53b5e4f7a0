package queries

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/models"
)

// Service composes web search queries from a trend. Output depends only on
// the trend, the requested count, and the calendar month/year, so repeated
// calls within one month produce identical queries.
type Service struct {
	logger arbor.ILogger
}

// NewService creates a query composer
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// GenerateQueries returns up to numQueries search queries for the trend,
// evaluated against the current date.
func (s *Service) GenerateQueries(trend models.Trend, numQueries int) []string {
	return s.GenerateQueriesAt(trend, numQueries, time.Now())
}

// GenerateQueriesAt returns up to numQueries search queries for the trend,
// evaluated against the supplied reference time. The base set is six
// templated queries; indexes with known extra phrasings get additional
// queries appended before truncation.
func (s *Service) GenerateQueriesAt(trend models.Trend, numQueries int, now time.Time) []string {
	index := strings.ToLower(strings.TrimSpace(trend.IndexName))
	direction := trend.Direction()
	month := now.Month().String()
	year := now.Year()

	queries := []string{
		fmt.Sprintf("%s %s %s %d", index, direction, month, year),
		fmt.Sprintf("manufacturing %s index %s news", index, direction),
		fmt.Sprintf("%s index %s manufacturing PMI %d", index, direction, year),
		fmt.Sprintf("why %s %s %s %d manufacturing", index, direction, month, year),
		fmt.Sprintf("US manufacturing %s %s analysis", index, direction),
		fmt.Sprintf("%s %s impact economy %s %d", index, direction, month, year),
	}

	queries = append(queries, extraQueries(index, direction, month, year)...)

	if numQueries > 0 && len(queries) > numQueries {
		queries = queries[:numQueries]
	}

	s.logger.Debug().
		Str("index", trend.IndexName).
		Str("direction", direction).
		Int("count", len(queries)).
		Msg("Generated search queries")

	return queries
}

// extraQueries returns index-specific phrasings for the indexes that have
// well-known alternate vocabulary. Unknown indexes get none.
func extraQueries(index, direction, month string, year int) []string {
	switch index {
	case "new orders":
		return []string{
			fmt.Sprintf("factory orders %s %s %d", direction, month, year),
			fmt.Sprintf("manufacturing demand %s news %d", direction, year),
		}
	case "production":
		return []string{
			fmt.Sprintf("industrial production %s %s %d", direction, month, year),
			fmt.Sprintf("factory output %s news %d", direction, year),
		}
	case "employment":
		return []string{
			fmt.Sprintf("manufacturing employment %s %s %d", direction, month, year),
			fmt.Sprintf("factory jobs %s news %d", direction, year),
		}
	case "prices":
		return []string{
			fmt.Sprintf("manufacturing input prices %s %s %d", direction, month, year),
			fmt.Sprintf("raw material costs %s manufacturing %d", direction, year),
		}
	case "manufacturing pmi", "pmi":
		return []string{
			fmt.Sprintf("PMI %s %s %d economy", direction, month, year),
			fmt.Sprintf("manufacturing PMI %s recession signal %d", direction, year),
		}
	}
	return nil
}
