package interfaces

import (
	"context"

	"github.com/ternarybob/indago/internal/models"
)

// RankerService scores candidate articles against a target description and
// keeps only the freshest, most relevant ones.
type RankerService interface {
	// FilterAndRank drops articles older than maxAgeDays (unparseable
	// dates are kept), scores the rest by cosine similarity against the
	// target description, and returns at most topN records sorted by
	// descending score. When the target embedding cannot be produced the
	// first topN inputs are returned unranked.
	FilterAndRank(ctx context.Context, articles []*models.ArticleRecord, targetDescription string, maxAgeDays, topN int) []*models.ArticleRecord
}
