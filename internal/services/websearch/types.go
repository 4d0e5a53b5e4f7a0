package websearch

import (
	"fmt"
)

// searchResponse is the Custom Search JSON API response envelope.
type searchResponse struct {
	Items             []searchItem `json:"items"`
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
}

// searchItem is a single organic result.
type searchItem struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Snippet     string   `json:"snippet"`
	DisplayLink string   `json:"displayLink"`
	PageMap     *pageMap `json:"pagemap,omitempty"`
}

// pageMap carries structured data the search provider scraped from the
// result page. Only the metatags are used here.
type pageMap struct {
	MetaTags []map[string]string `json:"metatags"`
}

// publishedAt pulls a publication timestamp from the result's metatags,
// if the source page exposed one.
func (i searchItem) publishedAt() string {
	if i.PageMap == nil {
		return ""
	}
	keys := []string{"article:published_time", "datepublished", "date", "pubdate"}
	for _, tags := range i.PageMap.MetaTags {
		for _, key := range keys {
			if v := tags[key]; v != "" {
				return v
			}
		}
	}
	return ""
}

// APIError represents an error response from the search provider.
type APIError struct {
	StatusCode int
	Message    string
	Query      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("web search API error: %s (status %d, query: %s)", e.Message, e.StatusCode, e.Query)
}
