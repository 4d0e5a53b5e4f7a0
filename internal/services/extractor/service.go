// Package extractor turns fetched HTML and PDF bodies into article records.
// Extraction is best-effort and never fails: documents that yield no usable
// text produce a record carrying the extraction failure sentinel title.
package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/models"
)

const (
	// DefaultMaxContentLength caps extracted content in characters.
	DefaultMaxContentLength = 5000

	// DefaultMinReadableLength rejects readability output shorter than
	// this. Readability sometimes returns only a byline or cookie notice.
	DefaultMinReadableLength = 200
)

// Service extracts titles, content and publication dates from documents.
type Service struct {
	logger            arbor.ILogger
	maxContentLength  int
	minReadableLength int
}

// NewService creates an extractor from configuration.
func NewService(cfg *common.ExtractorConfig, logger arbor.ILogger) *Service {
	maxContentLength := cfg.MaxContentLength
	if maxContentLength <= 0 {
		maxContentLength = DefaultMaxContentLength
	}
	minReadableLength := cfg.MinContentLength
	if minReadableLength <= 0 {
		minReadableLength = DefaultMinReadableLength
	}

	return &Service{
		logger:            logger,
		maxContentLength:  maxContentLength,
		minReadableLength: minReadableLength,
	}
}

// Extract pulls the title, readable content and published date out of an
// HTML document. Title and date are read before cleaning since the cleaner
// drops the document head.
func (s *Service) Extract(html, pageURL string) *models.ArticleRecord {
	record := &models.ArticleRecord{URL: pageURL}

	trimmed := strings.TrimSpace(html)
	if trimmed == "" {
		return s.failed(record, "empty document body")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return s.failed(record, fmt.Sprintf("could not parse document: %v", err))
	}

	record.Title = extractTitle(doc)
	record.PublishedAt = extractPublishedDate(doc)

	cleanDocument(doc)

	content := s.readableContent(doc, pageURL)
	if content == "" {
		content = fallbackContent(doc)
	}
	if content == "" {
		return s.failed(record, "no textual content found in document")
	}

	record.Content = truncate(content, s.maxContentLength)
	return record
}

// readableContent runs readability over the cleaned document and converts
// the extracted fragment to markdown, preserving article structure for
// digests. Output below the minimum readable length is discarded so the
// caller can fall back to direct tag probing.
func (s *Service) readableContent(doc *goquery.Document, pageURL string) string {
	cleanedHTML, err := doc.Html()
	if err != nil || cleanedHTML == "" {
		return ""
	}

	parsedURL, _ := url.Parse(pageURL)
	article, err := readability.FromReader(strings.NewReader(cleanedHTML), parsedURL)
	if err != nil {
		return ""
	}

	var textBuf strings.Builder
	if err := article.RenderText(&textBuf); err != nil {
		return ""
	}
	text := strings.TrimSpace(textBuf.String())
	if len(text) < s.minReadableLength {
		return ""
	}

	var htmlBuf strings.Builder
	if err := article.RenderHTML(&htmlBuf); err != nil {
		return normalizeWhitespace(text)
	}

	converter := md.NewConverter(pageURL, true, nil)
	markdown, err := converter.ConvertString(htmlBuf.String())
	if err != nil {
		return normalizeWhitespace(text)
	}

	return strings.TrimSpace(markdown)
}

// failed fills the record with the sentinel title and the failure reason.
func (s *Service) failed(record *models.ArticleRecord, reason string) *models.ArticleRecord {
	record.Title = models.ExtractionFailedTitle
	record.Content = reason
	s.logger.Debug().
		Str("url", record.URL).
		Str("reason", reason).
		Msg("Content extraction failed")
	return record
}

// extractTitle returns the document title. Priority: <title> tag, og:title
// meta tag, first <h1>.
func extractTitle(doc *goquery.Document) string {
	if title := normalizeWhitespace(doc.Find("title").First().Text()); title != "" {
		return title
	}

	if ogTitle, ok := doc.Find("meta[property='og:title']").First().Attr("content"); ok {
		if title := normalizeWhitespace(ogTitle); title != "" {
			return title
		}
	}

	return normalizeWhitespace(doc.Find("h1").First().Text())
}

// truncate caps content at max characters, marking the cut.
func truncate(content string, max int) string {
	if max <= 0 || len(content) <= max {
		return content
	}
	runes := []rune(content)
	if len(runes) <= max {
		return content
	}
	return string(runes[:max]) + models.TruncationMarker
}

// normalizeWhitespace collapses all whitespace runs to single spaces.
func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
