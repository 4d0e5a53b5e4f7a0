package interfaces

import "context"

// FetchService downloads article pages under bounded concurrency.
type FetchService interface {
	// FetchAll fetches every URL in parallel, capped at the configured
	// concurrency, and returns a URL to body mapping. URLs that failed
	// all retry attempts are absent from the map; callers treat a
	// missing key as "unavailable", not as an error.
	FetchAll(ctx context.Context, urls []string) map[string]string

	// Fetch retrieves a single URL with the same retry policy.
	Fetch(ctx context.Context, url string) (string, error)
}
