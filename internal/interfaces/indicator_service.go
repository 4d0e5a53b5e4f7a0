package interfaces

import (
	"context"

	"github.com/ternarybob/indago/internal/models"
)

// IndicatorService resolves the latest movement of an economic index from
// the indicator data provider. Scheduled scans use it to seed trends for
// watchlist entries without a hand-supplied change value.
type IndicatorService interface {
	// LatestTrend returns the most recent period-over-period change for
	// the named index. indicator is the provider series code; when empty
	// the provider derives one from the index name.
	LatestTrend(ctx context.Context, indexName, indicator string) (models.Trend, error)

	// IsConfigured reports whether provider credentials are present.
	IsConfigured() bool
}
