package models

import (
	"fmt"
	"strings"
)

// Direction labels for trend movement
const (
	DirectionIncrease = "increase"
	DirectionDecrease = "decrease"
)

// Trend is the seed for a discovery scan: a named economic indicator
// plus its signed recent change. Immutable once created; query phrasing
// and the relevance target text are both derived from it.
type Trend struct {
	IndexName string  `json:"index_name"`
	Change    float64 `json:"change"`
}

// NewTrend creates a trend record with a normalized index name.
func NewTrend(indexName string, change float64) Trend {
	return Trend{
		IndexName: strings.TrimSpace(indexName),
		Change:    change,
	}
}

// Direction returns "increase" when the change is positive, else "decrease".
// A zero change reads as a decrease, matching how flat index movements are
// reported in commentary.
func (t Trend) Direction() string {
	if t.Change > 0 {
		return DirectionIncrease
	}
	return DirectionDecrease
}

// TargetDescription builds the text the ranker embeds as the relevance
// target, e.g. "manufacturing new orders decrease".
func (t Trend) TargetDescription() string {
	return fmt.Sprintf("manufacturing %s %s", strings.ToLower(t.IndexName), t.Direction())
}

// Label returns a short human-readable form, e.g. "New Orders -3.2".
func (t Trend) Label() string {
	return fmt.Sprintf("%s %+.1f", t.IndexName, t.Change)
}

// Validate checks the trend is usable as a scan seed.
func (t Trend) Validate() error {
	if strings.TrimSpace(t.IndexName) == "" {
		return fmt.Errorf("trend index name is required")
	}
	return nil
}
