package models

import "strings"

// ExtractionFailedTitle is the sentinel title attached to an article when
// every extraction strategy failed. The content field carries the reason.
const ExtractionFailedTitle = "extraction failed"

// TruncationMarker is appended to article content that was cut at the
// configured maximum length.
const TruncationMarker = "..."

// SearchResult is one hit returned by the web search provider. URL is the
// dedup identity within a result set; after deduplication each URL appears
// exactly once with its first-seen title and snippet.
type SearchResult struct {
	Title        string `json:"title"`
	URL          string `json:"url"`
	Snippet      string `json:"snippet"`
	SourceDomain string `json:"source_domain"`
	PublishedAt  string `json:"published_at,omitempty"` // Provider metadata, raw string
}

// ArticleRecord is the in-memory unit flowing from extraction to ranking.
// It is created by the extractor without a similarity score; the ranker
// attaches the score later. Records live for one scan invocation and are
// never persisted.
type ArticleRecord struct {
	Title           string   `json:"title"`
	URL             string   `json:"url"`
	Content         string   `json:"content"`
	PublishedAt     string   `json:"published_at,omitempty"` // Raw metadata string, may be unparseable
	SimilarityScore *float64 `json:"similarity_score,omitempty"`
}

// Score returns the similarity score, or 0.0 when no score was attached.
func (a *ArticleRecord) Score() float64 {
	if a.SimilarityScore == nil {
		return 0.0
	}
	return *a.SimilarityScore
}

// SetScore attaches a similarity score to the record.
func (a *ArticleRecord) SetScore(score float64) {
	a.SimilarityScore = &score
}

// IsExtractionFailure reports whether this record is the sentinel produced
// when no extraction strategy could recover content.
func (a *ArticleRecord) IsExtractionFailure() bool {
	return a.Title == ExtractionFailedTitle
}

// Truncated reports whether the content carries the truncation marker.
func (a *ArticleRecord) Truncated() bool {
	return strings.HasSuffix(a.Content, TruncationMarker)
}

// ContentPrefix returns the first max bytes of content, used to build the
// composite embedding text. Content shorter than max is returned whole.
func (a *ArticleRecord) ContentPrefix(max int) string {
	if max <= 0 || len(a.Content) <= max {
		return a.Content
	}
	return a.Content[:max]
}
