package extractor

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/models"
)

const longParagraph = "The Institute for Supply Management said its manufacturing new orders index fell sharply last month as factories reported weaker demand across most industry groups, with respondents citing higher input costs and slower export orders as the main reasons for the pullback."

func setupTestService(t *testing.T) *Service {
	t.Helper()
	cfg := &common.ExtractorConfig{MaxContentLength: 5000, MinContentLength: 200}
	return NewService(cfg, arbor.NewLogger())
}

func articlePage() string {
	var b strings.Builder
	b.WriteString(`<html><head>
<title>New orders slump deepens | Example News</title>
<meta property="og:title" content="New orders slump deepens"/>
<meta property="article:published_time" content="2025-08-12T08:30:00Z"/>
</head><body>
<nav><a href="/">Home</a><a href="/markets">Markets</a></nav>
<header><span>Example News masthead</span></header>
<article><h1>New orders slump deepens</h1>`)
	for i := 0; i < 5; i++ {
		b.WriteString("<p>")
		b.WriteString(longParagraph)
		b.WriteString("</p>")
	}
	b.WriteString(`</article>
<footer>All rights reserved</footer>
<script>trackPageview()</script>
</body></html>`)
	return b.String()
}

func TestExtract_Article(t *testing.T) {
	service := setupTestService(t)

	record := service.Extract(articlePage(), "https://example.com/news/orders")

	assert.False(t, record.IsExtractionFailure())
	assert.Equal(t, "New orders slump deepens | Example News", record.Title)
	assert.Equal(t, "2025-08-12T08:30:00Z", record.PublishedAt)
	assert.Equal(t, "https://example.com/news/orders", record.URL)
	assert.Contains(t, record.Content, "new orders index fell sharply")
	assert.NotContains(t, record.Content, "trackPageview")
	assert.NotContains(t, record.Content, "All rights reserved")
}

func TestExtract_FallbackOnBareParagraphs(t *testing.T) {
	service := setupTestService(t)
	html := `<html><body><div><p>Factory output rose.</p><p>Economists were surprised.</p></div></body></html>`

	record := service.Extract(html, "https://example.com/short")

	assert.False(t, record.IsExtractionFailure())
	assert.Contains(t, record.Content, "Factory output rose.")
	assert.Contains(t, record.Content, "Economists were surprised.")
	assert.Empty(t, record.Title)
}

func TestExtract_SemanticContainer(t *testing.T) {
	service := setupTestService(t)
	html := `<html><body>
<div class="content"><h2>Survey details</h2><p>Production slowed.</p><li>New orders fell</li></div>
<p>Unrelated teaser elsewhere on the page.</p>
</body></html>`

	record := service.Extract(html, "https://example.com/survey")

	assert.False(t, record.IsExtractionFailure())
	assert.Contains(t, record.Content, "Survey details")
	assert.Contains(t, record.Content, "Production slowed.")
}

func TestExtract_SentinelOnEmptyBody(t *testing.T) {
	service := setupTestService(t)

	record := service.Extract(`<html><head><title>Empty</title></head><body></body></html>`, "https://example.com/empty")

	assert.True(t, record.IsExtractionFailure())
	assert.Equal(t, models.ExtractionFailedTitle, record.Title)
	assert.Contains(t, record.Content, "no textual content")
}

func TestExtract_SentinelOnEmptyInput(t *testing.T) {
	service := setupTestService(t)

	record := service.Extract("", "https://example.com/blank")

	assert.True(t, record.IsExtractionFailure())
	assert.Contains(t, record.Content, "empty document body")
}

func TestExtract_TruncatesWithMarker(t *testing.T) {
	cfg := &common.ExtractorConfig{MaxContentLength: 80, MinContentLength: 200}
	service := NewService(cfg, arbor.NewLogger())
	html := "<html><body><p>" + strings.Repeat(longParagraph+" ", 3) + "</p></body></html>"

	record := service.Extract(html, "https://example.com/long")

	assert.True(t, record.Truncated())
	assert.True(t, strings.HasSuffix(record.Content, models.TruncationMarker))
	assert.LessOrEqual(t, utf8.RuneCountInString(record.Content), 80+len(models.TruncationMarker))
}

func TestExtract_TitlePriority(t *testing.T) {
	service := setupTestService(t)

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "title tag wins",
			html: `<html><head><title>From Title Tag</title><meta property="og:title" content="From OG"/></head><body><h1>From H1</h1><p>body text</p></body></html>`,
			want: "From Title Tag",
		},
		{
			name: "og title when no title tag",
			html: `<html><head><meta property="og:title" content="From OG"/></head><body><h1>From H1</h1><p>body text</p></body></html>`,
			want: "From OG",
		},
		{
			name: "h1 as last resort",
			html: `<html><body><h1>From H1</h1><p>body text</p></body></html>`,
			want: "From H1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := service.Extract(tt.html, "https://example.com/t")
			assert.Equal(t, tt.want, record.Title)
		})
	}
}

func TestExtractDate_Priority(t *testing.T) {
	service := setupTestService(t)

	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "open graph beats schema.org",
			html: `<html><head><meta property="article:published_time" content="2025-08-01"/><meta itemprop="datePublished" content="2025-07-01"/></head><body></body></html>`,
			want: "2025-08-01",
		},
		{
			name: "schema.org beats dublin core",
			html: `<html><head><meta itemprop="datePublished" content="2025-07-01"/><meta name="dc.date" content="2025-06-01"/></head><body></body></html>`,
			want: "2025-07-01",
		},
		{
			name: "dublin core beats generic date",
			html: `<html><head><meta name="dc.date" content="2025-06-01"/><meta name="date" content="2025-05-01"/></head><body></body></html>`,
			want: "2025-06-01",
		},
		{
			name: "generic pubdate",
			html: `<html><head><meta name="pubdate" content="2025-04-01"/></head><body></body></html>`,
			want: "2025-04-01",
		},
		{
			name: "time element as last resort",
			html: `<html><body><time datetime="2025-03-01T12:00:00Z">March 1</time></body></html>`,
			want: "2025-03-01T12:00:00Z",
		},
		{
			name: "no date",
			html: `<html><body><p>undated</p></body></html>`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, service.ExtractDate(tt.html))
		})
	}
}

func TestExtractPDF_InvalidBytes(t *testing.T) {
	service := setupTestService(t)

	record := service.ExtractPDF([]byte("this is not a pdf"), "https://example.com/report.pdf")

	assert.True(t, record.IsExtractionFailure())
	assert.Contains(t, record.Content, "pdf extraction failed")
}

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF("%PDF-1.7 binary goes here"))
	assert.False(t, IsPDF("<html><body></body></html>"))
	assert.False(t, IsPDF(""))
}

func TestTitleFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{url: "https://example.com/reports/ism-august-2025.pdf", want: "ism august 2025"},
		{url: "https://example.com/new_orders_brief.pdf", want: "new orders brief"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, titleFromURL(tt.url))
	}
}
