// Package websearch discovers candidate article URLs through the Google
// Custom Search JSON API.
package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/models"
)

const (
	// DefaultEndpoint is the Custom Search JSON API endpoint.
	DefaultEndpoint = "https://www.googleapis.com/customsearch/v1"

	// DefaultTimeout is the default HTTP timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxUniqueURLs stops pagination once this many distinct URLs
	// have been collected.
	DefaultMaxUniqueURLs = 15

	// maxResultsPerPage is the provider's hard cap on the num parameter.
	maxResultsPerPage = 10
)

// pageStarts are the 1-based result offsets walked when fetch_all_pages
// is enabled. The provider returns at most 10 results per page.
var pageStarts = []int{1, 11, 21}

// Service queries the search provider and returns deduplicated results.
// A service without credentials is still usable: every search returns an
// empty slice and logs a warning once.
type Service struct {
	endpoint   string
	apiKey     string
	engineID   string
	maxUnique  int
	pageDelay  time.Duration
	httpClient *http.Client
	logger     arbor.ILogger
	limiter    *rate.Limiter
	warnOnce   sync.Once
}

// NewService creates a web search service from configuration.
func NewService(cfg *common.SearchConfig, logger arbor.ILogger) *Service {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	maxUnique := cfg.MaxUniqueURLs
	if maxUnique <= 0 {
		maxUnique = DefaultMaxUniqueURLs
	}

	return &Service{
		endpoint:  endpoint,
		apiKey:    cfg.APIKey,
		engineID:  cfg.EngineID,
		maxUnique: maxUnique,
		pageDelay: cfg.PageDelayDuration(),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger:  logger,
		limiter: rate.NewLimiter(rate.Every(cfg.RateLimitDuration()), 1),
	}
}

// IsConfigured reports whether API credentials are present.
func (s *Service) IsConfigured() bool {
	return s.apiKey != "" && s.engineID != ""
}

// Search runs a single query and returns unique results in first-seen
// order. With fetchAllPages it walks result offsets 1, 11 and 21, pausing
// between pages, and stops early once the unique URL cap is reached or a
// page comes back empty or failed.
func (s *Service) Search(ctx context.Context, query string, numResults int, fetchAllPages bool) []models.SearchResult {
	if !s.IsConfigured() {
		s.warnNotConfigured()
		return []models.SearchResult{}
	}

	seen := make(map[string]bool)
	results := make([]models.SearchResult, 0, numResults)
	s.searchInto(ctx, query, numResults, fetchAllPages, seen, &results)
	return results
}

// SearchAll runs each query in order, deduplicating URLs across the whole
// batch. Queries remaining after the unique URL cap is reached are skipped.
func (s *Service) SearchAll(ctx context.Context, queries []string, numResults int, fetchAllPages bool) []models.SearchResult {
	if !s.IsConfigured() {
		s.warnNotConfigured()
		return []models.SearchResult{}
	}

	seen := make(map[string]bool)
	results := make([]models.SearchResult, 0, s.maxUnique)
	for i, query := range queries {
		if ctx.Err() != nil {
			break
		}
		if len(seen) >= s.maxUnique {
			s.logger.Debug().
				Int("unique_urls", len(seen)).
				Int("queries_skipped", len(queries)-i).
				Msg("Unique URL cap reached, skipping remaining queries")
			break
		}
		s.searchInto(ctx, query, numResults, fetchAllPages, seen, &results)
	}

	s.logger.Info().
		Int("queries", len(queries)).
		Int("results", len(results)).
		Msg("Web search completed")

	return results
}

// searchInto pages through one query, appending unseen results to out.
// Pagination stops on the first failed or empty page.
func (s *Service) searchInto(ctx context.Context, query string, numResults int, fetchAllPages bool, seen map[string]bool, out *[]models.SearchResult) {
	starts := pageStarts[:1]
	if fetchAllPages {
		starts = pageStarts
	}

	for i, start := range starts {
		if len(seen) >= s.maxUnique {
			return
		}
		if i > 0 {
			// Polite pause before offset pages
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.pageDelay):
			}
		}

		page, err := s.fetchPage(ctx, query, numResults, start)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("query", query).
				Int("start", start).
				Msg("Web search page failed")
			return
		}
		if len(page.Items) == 0 {
			return
		}

		for _, item := range page.Items {
			if item.Link == "" || seen[item.Link] {
				continue
			}
			seen[item.Link] = true
			*out = append(*out, models.SearchResult{
				Title:        item.Title,
				URL:          item.Link,
				Snippet:      item.Snippet,
				SourceDomain: item.DisplayLink,
				PublishedAt:  item.publishedAt(),
			})
			if len(seen) >= s.maxUnique {
				return
			}
		}
	}
}

// fetchPage performs one GET against the search API.
func (s *Service) fetchPage(ctx context.Context, query string, numResults, start int) (*searchResponse, error) {
	// Wait for rate limiter
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait interrupted: %w", err)
	}

	if numResults <= 0 || numResults > maxResultsPerPage {
		numResults = maxResultsPerPage
	}

	// Build URL
	params := url.Values{}
	params.Set("key", s.apiKey)
	params.Set("cx", s.engineID)
	params.Set("q", query)
	params.Set("num", strconv.Itoa(numResults))
	params.Set("start", strconv.Itoa(start))
	reqURL := fmt.Sprintf("%s?%s", s.endpoint, params.Encode())

	// Create request
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if s.logger != nil {
		s.logger.Debug().
			Str("query", query).
			Int("start", start).
			Msg("Web search request")
	}

	// Execute request
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	// Check status
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Query:      query,
		}
	}

	// Parse response
	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}

func (s *Service) warnNotConfigured() {
	s.warnOnce.Do(func() {
		s.logger.Warn().Msg("Web search credentials not configured, searches return no results")
	})
}
