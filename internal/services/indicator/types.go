// Package indicator provides a client for the EODHD macro-indicator API.
// Scheduled scans use it to turn a watchlist entry into a Trend without a
// hand-supplied change value.
package indicator

import (
	"fmt"
	"time"
)

// Reading is one dated observation of an indicator series.
type Reading struct {
	CountryCode string  `json:"CountryCode"`
	CountryName string  `json:"CountryName"`
	Indicator   string  `json:"Indicator"`
	DateStr     string  `json:"Date"`
	Period      string  `json:"Period"`
	Value       float64 `json:"Value"`

	// Date is parsed from DateStr after fetch.
	Date time.Time `json:"-"`
}

// APIError represents an error from the indicator API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("indicator API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// RateLimitError represents a rate limit error.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("indicator rate limit exceeded, retry after %v", e.RetryAfter)
}
