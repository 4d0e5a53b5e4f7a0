// Package fetcher downloads article pages concurrently with retries and
// bounded parallelism.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
)

const (
	// DefaultUserAgent is sent when no user agent is configured. Some news
	// sites reject requests without a browser user agent.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultMaxConcurrency bounds simultaneous in-flight fetches.
	DefaultMaxConcurrency = 5

	// DefaultMaxAttempts is the number of tries per URL before giving up.
	DefaultMaxAttempts = 3

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024
)

// retryableStatusCodes are responses worth another attempt. Other 4xx
// responses fail immediately.
var retryableStatusCodes = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Doer executes HTTP requests. *http.Client satisfies it; tests substitute
// a fake transport.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Option configures the Service.
type Option func(*Service)

// WithDoer sets a custom HTTP client.
func WithDoer(doer Doer) Option {
	return func(s *Service) {
		s.client = doer
	}
}

// Service fetches URLs with per-URL retries and a concurrency cap. Failed
// URLs are logged and left out of the result map rather than failing the
// whole batch.
type Service struct {
	client         Doer
	logger         arbor.ILogger
	userAgent      string
	maxConcurrency int
	maxAttempts    int
	backoffMin     time.Duration
	backoffMax     time.Duration
	maxBodySize    int64
}

// NewService creates a fetcher from configuration.
func NewService(cfg *common.FetcherConfig, logger arbor.ILogger, opts ...Option) *Service {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = DefaultMaxConcurrency
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	maxBodySize := int64(cfg.MaxBodySize)
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}

	s := &Service{
		client: &http.Client{
			Timeout: cfg.TimeoutDuration(),
		},
		logger:         logger,
		userAgent:      userAgent,
		maxConcurrency: maxConcurrency,
		maxAttempts:    maxAttempts,
		backoffMin:     cfg.BackoffMinDuration(),
		backoffMax:     cfg.BackoffMaxDuration(),
		maxBodySize:    maxBodySize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// FetchAll downloads every URL concurrently and returns a map of URL to
// body. URLs that failed all attempts are absent from the map.
func (s *Service) FetchAll(ctx context.Context, urls []string) map[string]string {
	results := make(map[string]string, len(urls))
	if len(urls) == 0 {
		return results
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.maxConcurrency)

	for _, pageURL := range urls {
		wg.Add(1)
		go func(pageURL string) {
			defer wg.Done()

			// Acquire semaphore
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			body, err := s.Fetch(ctx, pageURL)
			if err != nil {
				s.logger.Warn().Err(err).
					Str("url", pageURL).
					Msg("Fetch failed, skipping URL")
				return
			}

			mu.Lock()
			results[pageURL] = body
			mu.Unlock()
		}(pageURL)
	}

	wg.Wait()

	s.logger.Info().
		Int("requested", len(urls)).
		Int("fetched", len(results)).
		Msg("Fetch batch completed")

	return results
}

// Fetch downloads one URL, retrying transient failures with exponential
// backoff. Redirects are followed by the underlying client.
func (s *Service) Fetch(ctx context.Context, pageURL string) (string, error) {
	var lastErr error

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := s.backoff(attempt - 1)
			s.logger.Debug().
				Str("url", pageURL).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Retrying fetch after backoff")

			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, retryable, err := s.fetchOnce(ctx, pageURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return "", err
		}
	}

	return "", fmt.Errorf("all %d attempts failed for %s: %w", s.maxAttempts, pageURL, lastErr)
}

// fetchOnce performs a single request. The second return value reports
// whether the failure is worth retrying.
func (s *Service) fetchOnce(ctx context.Context, pageURL string) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", isRetryableError(err), fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", retryableStatusCodes[resp.StatusCode], fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return "", true, fmt.Errorf("failed to read body: %w", err)
	}

	return string(body), false, nil
}

// backoff calculates the wait before the next attempt with exponential
// growth and ±25% jitter.
func (s *Service) backoff(attempt int) time.Duration {
	wait := float64(s.backoffMin) * math.Pow(2, float64(attempt))
	if wait > float64(s.backoffMax) {
		wait = float64(s.backoffMax)
	}

	jitter := wait * 0.25 * (rand.Float64()*2 - 1)
	wait += jitter

	if wait < 0 {
		wait = float64(s.backoffMin)
	}

	return time.Duration(wait)
}

// isRetryableError reports whether a transport error is transient.
func isRetryableError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr)
}
