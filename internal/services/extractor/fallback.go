package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// contentContainers are probed in order for the article body when
// readability returns nothing usable.
var contentContainers = []string{
	"article",
	"[itemprop='articleBody']",
	".post",
	".content",
	"main",
}

// fallbackContent extracts text without readability: the first semantic
// container with usable block text wins, then any <p> in the document,
// then a bare tag strip as the last resort.
func fallbackContent(doc *goquery.Document) string {
	for _, selector := range contentContainers {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		if text := blockText(container); text != "" {
			return text
		}
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, sel *goquery.Selection) {
		if text := normalizeWhitespace(sel.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) > 0 {
		return strings.Join(paragraphs, "\n\n")
	}

	html, err := doc.Html()
	if err != nil {
		return ""
	}
	return normalizeWhitespace(bluemonday.StrictPolicy().Sanitize(html))
}

// blockText joins headings, paragraphs and list items under a container,
// separated by blank lines.
func blockText(container *goquery.Selection) string {
	var blocks []string
	container.Find("h1, h2, h3, h4, h5, h6, p, li").Each(func(_ int, sel *goquery.Selection) {
		if text := normalizeWhitespace(sel.Text()); text != "" {
			blocks = append(blocks, text)
		}
	})
	return strings.Join(blocks, "\n\n")
}
