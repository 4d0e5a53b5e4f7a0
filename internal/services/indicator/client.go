package indicator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/indago/internal/models"
)

const (
	// DefaultBaseURL is the base URL for the indicator API.
	DefaultBaseURL = "https://eodhd.com/api"

	// DefaultCountry is the country whose series are queried.
	DefaultCountry = "USA"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateInterval is the default minimum interval between requests.
	DefaultRateInterval = time.Second

	// FallbackSeries is queried when an index name has no known series
	// mapping and the watchlist entry names none.
	FallbackSeries = "business_confidence_index"
)

// defaultSeries maps normalized index names to provider series codes. A
// watchlist entry can name an explicit series to override the mapping.
var defaultSeries = map[string]string{
	"manufacturing pmi":   "business_confidence_index",
	"pmi":                 "business_confidence_index",
	"business confidence": "business_confidence_index",
	"consumer confidence": "consumer_confidence_index",
	"unemployment":        "unemployment_total_percent",
	"inflation":           "inflation_consumer_prices_annual",
	"gdp growth":          "gdp_growth_annual",
}

// Client is a macro-indicator API client.
type Client struct {
	baseURL    string
	apiKey     string
	country    string
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
}

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimSuffix(baseURL, "/")
		}
	}
}

// WithCountry sets the country whose series are queried.
func WithCountry(country string) ClientOption {
	return func(c *Client) {
		if country != "" {
			c.country = country
		}
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets a logger.
func WithLogger(logger arbor.ILogger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateInterval sets the minimum interval between provider requests.
func WithRateInterval(interval time.Duration) ClientOption {
	return func(c *Client) {
		if interval > 0 {
			c.limiter = rate.NewLimiter(rate.Every(interval), 1)
		}
	}
}

// NewClient creates a new macro-indicator API client.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		country: DefaultCountry,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Every(DefaultRateInterval), 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// IsConfigured reports whether provider credentials are present.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// get performs a GET request to the API.
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return &RateLimitError{RetryAfter: time.Second}
	}

	// Add API token
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	// Build URL
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Log request
	if c.logger != nil {
		c.logger.Debug().
			Str("url", c.baseURL+path).
			Msg("Indicator API request")
	}

	// Execute request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Check status
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	// Parse response
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// MacroIndicator retrieves the dated readings of one series, newest first.
// Readings without a parseable date are dropped.
func (c *Client) MacroIndicator(ctx context.Context, indicator string) ([]Reading, error) {
	params := url.Values{}
	params.Set("indicator", indicator)

	var result []Reading
	if err := c.get(ctx, "/macro-indicator/"+c.country, params, &result); err != nil {
		return nil, err
	}

	// Parse dates
	dated := make([]Reading, 0, len(result))
	for i := range result {
		t, err := time.Parse("2006-01-02", result[i].DateStr)
		if err != nil {
			continue
		}
		result[i].Date = t
		dated = append(dated, result[i])
	}

	sort.Slice(dated, func(i, j int) bool {
		return dated[i].Date.After(dated[j].Date)
	})

	return dated, nil
}

// LatestTrend builds a Trend from the two most recent readings of the series
// backing an index. indicator overrides the name-derived series when set.
func (c *Client) LatestTrend(ctx context.Context, indexName, indicator string) (models.Trend, error) {
	if !c.IsConfigured() {
		return models.Trend{}, fmt.Errorf("indicator provider credentials missing")
	}

	series := indicator
	if series == "" {
		series = seriesForIndex(indexName)
	}

	readings, err := c.MacroIndicator(ctx, series)
	if err != nil {
		return models.Trend{}, fmt.Errorf("failed to fetch indicator %s: %w", series, err)
	}
	if len(readings) < 2 {
		return models.Trend{}, fmt.Errorf("insufficient readings for indicator %s: got %d, need 2", series, len(readings))
	}

	change := readings[0].Value - readings[1].Value
	trend := models.NewTrend(indexName, change)

	if c.logger != nil {
		c.logger.Info().
			Str("index_name", trend.IndexName).
			Str("indicator", series).
			Str("latest", readings[0].DateStr).
			Str("previous", readings[1].DateStr).
			Float64("change", change).
			Msg("Resolved latest trend")
	}

	return trend, nil
}

// seriesForIndex resolves an index name to a provider series code.
func seriesForIndex(indexName string) string {
	key := strings.ToLower(strings.TrimSpace(indexName))
	if series, ok := defaultSeries[key]; ok {
		return series
	}
	return FallbackSeries
}
