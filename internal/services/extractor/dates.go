package extractor

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// dateMetaTags lists publication date sources in trust order: Open Graph,
// schema.org, Dublin Core, then generic meta names.
var dateMetaTags = []struct {
	attr  string
	value string
}{
	{"property", "article:published_time"},
	{"property", "og:article:published_time"},
	{"itemprop", "datePublished"},
	{"name", "datePublished"},
	{"name", "dc.date"},
	{"name", "DC.date"},
	{"name", "date"},
	{"name", "pubdate"},
	{"name", "publish-date"},
}

// ExtractDate returns the raw publication date string declared in the
// document's metadata, or "" when none is present. The value is not parsed
// here; the ranker's freshness filter owns date interpretation.
func (s *Service) ExtractDate(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return extractPublishedDate(doc)
}

func extractPublishedDate(doc *goquery.Document) string {
	for _, tag := range dateMetaTags {
		selector := fmt.Sprintf("meta[%s='%s']", tag.attr, tag.value)
		if content, ok := doc.Find(selector).First().Attr("content"); ok {
			if content = strings.TrimSpace(content); content != "" {
				return content
			}
		}
	}

	// <time datetime> as a last resort
	if datetime, ok := doc.Find("time[datetime]").First().Attr("datetime"); ok {
		if datetime = strings.TrimSpace(datetime); datetime != "" {
			return datetime
		}
	}

	return ""
}
