package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/interfaces"
	"github.com/ternarybob/indago/internal/models"
	"github.com/ternarybob/indago/internal/services/extractor"
	"github.com/ternarybob/indago/internal/services/fetcher"
	"github.com/ternarybob/indago/internal/services/queries"
	"github.com/ternarybob/indago/internal/services/ranker"
	"github.com/ternarybob/indago/internal/services/websearch"
)

func artURL(n int) string   { return fmt.Sprintf("https://news.example.com/article-%02d", n) }
func artTitle(n int) string { return fmt.Sprintf("Article %02d", n) }

// searchHit mirrors the provider's result JSON.
type searchHit struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
}

type searchPageBody struct {
	Items []searchHit `json:"items"`
}

func searchHitFor(n int) searchHit {
	return searchHit{
		Title:       fmt.Sprintf("Search Hit %d", n),
		Link:        artURL(n),
		Snippet:     "candidate article",
		DisplayLink: "news.example.com",
	}
}

// searchAPI serves two result pages for whichever query arrives: offset 1
// carries articles 1-10, offset 11 repeats the first five and adds 11-15.
// Twenty raw hits, five duplicates, fifteen unique URLs.
type searchAPI struct {
	mu     sync.Mutex
	starts []string
}

func (a *searchAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := r.URL.Query().Get("start")
		a.mu.Lock()
		a.starts = append(a.starts, start)
		a.mu.Unlock()

		var page searchPageBody
		switch start {
		case "1":
			for n := 1; n <= 10; n++ {
				page.Items = append(page.Items, searchHitFor(n))
			}
		case "11":
			for n := 1; n <= 5; n++ {
				page.Items = append(page.Items, searchHitFor(n))
			}
			for n := 11; n <= 15; n++ {
				page.Items = append(page.Items, searchHitFor(n))
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(page)
	}
}

func (a *searchAPI) requestedStarts() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.starts...)
}

// pageDoer serves canned fetch responses keyed by URL. URLs in failures
// answer with that status on every attempt.
type pageDoer struct {
	pages    map[string]string
	failures map[string]int
}

func (d *pageDoer) Do(req *http.Request) (*http.Response, error) {
	url := req.URL.String()
	if status, ok := d.failures[url]; ok {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     make(http.Header),
		}, nil
	}
	body, ok := d.pages[url]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("")),
			Header:     make(http.Header),
		}, nil
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}, nil
}

// scriptedEmbedder hands back unit vectors whose first component is the
// cosine each article should score against the target description.
type scriptedEmbedder struct {
	scores map[string]float32 // title -> similarity
}

func (e *scriptedEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (e *scriptedEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		var c float64
		for title, score := range e.scores {
			if strings.HasPrefix(text, title) {
				c = float64(score)
				break
			}
		}
		vectors[i] = []float32{float32(c), float32(math.Sqrt(1 - c*c))}
	}
	return vectors, nil
}

func (e *scriptedEmbedder) ModelName() string                    { return "scripted" }
func (e *scriptedEmbedder) Dimension() int                       { return 2 }
func (e *scriptedEmbedder) IsAvailable(ctx context.Context) bool { return true }

// articlePage builds an article document with enough body text for the
// extraction strategies and an optional publication date meta tag.
func articlePage(title, published string) string {
	dateMeta := ""
	if published != "" {
		dateMeta = fmt.Sprintf(`<meta property="article:published_time" content="%s">`, published)
	}
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>%s</title>%s</head>
<body>
<nav>Home News Markets Opinion</nav>
<article>
<h1>%s</h1>
<p>Manufacturing activity weakened again this month as new orders pulled back
across most districts, with survey respondents citing softer demand and
thinner backlogs than at any point in the past year.</p>
<p>Purchasing managers reported that customers are postponing capital
purchases until financing conditions improve, and several noted that export
orders slowed for the third consecutive reading.</p>
<p>Economists said the pullback is consistent with a broader cooling in
industrial demand, though inventories remain lean enough to limit the depth
of the slowdown.</p>
</article>
<footer>Terms and contact</footer>
</body>
</html>`, title, dateMeta, title)
}

// TestScanPipeline_EndToEnd drives the real composer, search client, fetcher,
// extractor and ranker together. Twenty raw search hits collapse to fifteen
// unique URLs, three URLs fail permanently, two articles are stale, and the
// five most similar fresh articles come back best first.
func TestScanPipeline_EndToEnd(t *testing.T) {
	now := time.Now()
	freshDate := now.AddDate(0, 0, -5).Format(time.RFC3339)
	staleDate := now.AddDate(0, 0, -60).Format(time.RFC3339)

	api := &searchAPI{}
	ts := httptest.NewServer(api.handler())
	defer ts.Close()

	cfg := common.NewDefaultConfig()
	cfg.Search.APIKey = "test-key"
	cfg.Search.EngineID = "test-cx"
	cfg.Search.Endpoint = ts.URL
	cfg.Search.NumResults = 10
	cfg.Search.MaxUniqueURLs = 15
	cfg.Search.FetchAllPages = true
	cfg.Search.PageDelay = "1ms"
	cfg.Search.RateLimit = "1ms"
	cfg.Ranker.TopN = 5
	cfg.Ranker.MaxAgeDays = 45

	similarity := []float32{0.55, 0.95, 0.15, 0.75, 0.35, 0.85, 0.25, 0.65, 0.45, 0.05}
	scores := make(map[string]float32, len(similarity))
	for i, score := range similarity {
		scores[artTitle(i+1)] = score
	}

	doer := &pageDoer{pages: map[string]string{}, failures: map[string]int{}}
	for n := 1; n <= 9; n++ {
		doer.pages[artURL(n)] = articlePage(artTitle(n), freshDate)
	}
	doer.pages[artURL(10)] = articlePage(artTitle(10), "") // no date metadata, must be retained
	doer.pages[artURL(11)] = articlePage(artTitle(11), staleDate)
	doer.pages[artURL(12)] = articlePage(artTitle(12), staleDate)
	for n := 13; n <= 15; n++ {
		doer.failures[artURL(n)] = http.StatusNotFound
	}

	logger := arbor.NewLogger()
	runs := &fakeRunStore{}
	events := &fakeEvents{}

	service := NewService(
		cfg,
		queries.NewService(logger),
		websearch.NewService(&cfg.Search, logger),
		fetcher.NewService(&cfg.Fetcher, logger, fetcher.WithDoer(doer)),
		extractor.NewService(&cfg.Extractor, logger),
		ranker.NewService(&cfg.Ranker, &scriptedEmbedder{scores: scores}, logger),
		nil,
		runs,
		&fakeSeen{},
		events,
		logger,
	)

	trend := models.NewTrend("New Orders", -3.2)
	run, ranked, err := service.Scan(context.Background(), trend, models.ScanOptions{NumQueries: 4})
	require.NoError(t, err)

	// Four deterministic queries; the first names the index, direction and
	// the current month and year.
	require.Len(t, run.Queries, 4)
	first := strings.ToLower(run.Queries[0])
	assert.Contains(t, first, "new orders")
	assert.Contains(t, first, "decrease")
	assert.Contains(t, run.Queries[0], now.Month().String())
	assert.Contains(t, run.Queries[0], strconv.Itoa(now.Year()))

	// The first query walked offsets 1 and 11 and hit the unique URL cap;
	// the remaining queries were never issued.
	assert.Equal(t, []string{"1", "11"}, api.requestedStarts())
	assert.Equal(t, 15, run.ResultCount)

	assert.Equal(t, 12, run.FetchedCount)
	assert.Equal(t, 12, run.ExtractedCount)
	assert.Equal(t, 2, run.StaleCount)
	assert.Equal(t, 5, run.RankedCount)

	require.Len(t, ranked, 5)
	gotURLs := make([]string, len(ranked))
	for i, article := range ranked {
		gotURLs[i] = article.URL
	}
	assert.Equal(t, []string{artURL(2), artURL(6), artURL(4), artURL(8), artURL(1)}, gotURLs)

	assert.InDelta(t, 0.95, ranked[0].Score(), 1e-3)
	for i, article := range ranked {
		require.NotNil(t, article.SimilarityScore)
		assert.GreaterOrEqual(t, article.Score(), -1.0)
		assert.LessOrEqual(t, article.Score(), 1.0)
		// Titles come from the page itself, not the search hit.
		assert.True(t, strings.HasPrefix(article.Title, "Article "), "title %q", article.Title)
		assert.Equal(t, freshDate, article.PublishedAt)
		if i > 0 {
			assert.GreaterOrEqual(t, ranked[i-1].Score(), article.Score())
		}
	}

	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t,
		[]interfaces.EventType{interfaces.EventScanStarted, interfaces.EventScanCompleted},
		events.published())

	assert.Contains(t, run.Phases, "search")
	assert.Contains(t, run.Phases, "fetch")
	assert.Contains(t, run.Phases, "extract")
	assert.Contains(t, run.Phases, "rank")
	assert.NotContains(t, run.Phases, "export")
}
