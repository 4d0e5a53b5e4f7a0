package ranker

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/models"
)

// fakeEmbedder returns canned vectors: target for the single-text call and
// batch (index-aligned with the input) for the batch call.
type fakeEmbedder struct {
	target    []float32
	targetErr error
	batch     [][]float32
	batchErr  error
	batchIn   [][]string
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if f.targetErr != nil {
		return nil, f.targetErr
	}
	return f.target, nil
}

func (f *fakeEmbedder) GenerateEmbeddings(ctx context.Context, texts []string) ([][]float32, error) {
	f.batchIn = append(f.batchIn, texts)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		if i < len(f.batch) {
			out[i] = f.batch[i]
		}
	}
	return out, nil
}

func (f *fakeEmbedder) ModelName() string                    { return "fake-embed" }
func (f *fakeEmbedder) Dimension() int                       { return 2 }
func (f *fakeEmbedder) IsAvailable(ctx context.Context) bool { return true }

func setupRanker(t *testing.T, embedder *fakeEmbedder) *Service {
	t.Helper()
	cfg := &common.RankerConfig{TopN: 5, MaxAgeDays: 45, SnippetLength: 200}
	return NewService(cfg, embedder, arbor.NewLogger())
}

func testArticle(title, publishedAt string) *models.ArticleRecord {
	slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
	return &models.ArticleRecord{
		Title:       title,
		URL:         "https://news.example.com/" + slug,
		Content:     "Coverage of " + title + " with enough body text to embed.",
		PublishedAt: publishedAt,
	}
}

func recentDate(daysAgo int) string {
	return time.Now().AddDate(0, 0, -daysAgo).Format(time.RFC3339)
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    []float32
		b    []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1.0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1.0},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0.0},
		{"zero norm a", []float32{0, 0}, []float32{1, 1}, 0.0},
		{"zero norm b", []float32{1, 1}, []float32{0, 0}, 0.0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
		{"empty", nil, []float32{1}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, cosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestFilterAndRank_OrdersByDescendingScore(t *testing.T) {
	embedder := &fakeEmbedder{
		target: []float32{1, 0},
		batch: [][]float32{
			{0, 1},     // orthogonal, scores 0
			{1, 0},     // identical, scores 1
			{0.7, 0.7}, // scores ~0.707
		},
	}
	service := setupRanker(t, embedder)

	articles := []*models.ArticleRecord{
		testArticle("Orders flat in services", recentDate(1)),
		testArticle("Factory orders slump", recentDate(2)),
		testArticle("Manufacturing demand cools", recentDate(3)),
	}

	ranked := service.FilterAndRank(context.Background(), articles, "new orders decrease", 45, 5)

	require.Len(t, ranked, 3)
	assert.Equal(t, "Factory orders slump", ranked[0].Title)
	assert.Equal(t, "Manufacturing demand cools", ranked[1].Title)
	assert.Equal(t, "Orders flat in services", ranked[2].Title)
	assert.InDelta(t, 1.0, ranked[0].Score(), 1e-6)
	assert.InDelta(t, 0.7071, ranked[1].Score(), 1e-3)
	assert.InDelta(t, 0.0, ranked[2].Score(), 1e-6)
}

func TestFilterAndRank_TruncatesToTopN(t *testing.T) {
	embedder := &fakeEmbedder{
		target: []float32{1, 0},
		batch: [][]float32{
			{1, 0}, {0.9, 0.1}, {0.8, 0.2}, {0.7, 0.3},
		},
	}
	service := setupRanker(t, embedder)

	articles := []*models.ArticleRecord{
		testArticle("First", recentDate(1)),
		testArticle("Second", recentDate(1)),
		testArticle("Third", recentDate(1)),
		testArticle("Fourth", recentDate(1)),
	}

	ranked := service.FilterAndRank(context.Background(), articles, "target", 45, 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, "First", ranked[0].Title)
	assert.Equal(t, "Second", ranked[1].Title)
}

func TestFilterAndRank_FreshnessWindow(t *testing.T) {
	embedder := &fakeEmbedder{
		target: []float32{1, 0},
		batch:  [][]float32{{1, 0}, {1, 0}, {1, 0}},
	}
	service := setupRanker(t, embedder)

	articles := []*models.ArticleRecord{
		testArticle("Stale analysis", "2020-01-15T10:00:00Z"),
		testArticle("Fresh report", recentDate(3)),
		testArticle("Undated commentary", ""),
		testArticle("Oddly dated note", "sometime last quarter"),
	}

	ranked := service.FilterAndRank(context.Background(), articles, "target", 45, 10)

	require.Len(t, ranked, 3)
	titles := []string{ranked[0].Title, ranked[1].Title, ranked[2].Title}
	assert.NotContains(t, titles, "Stale analysis")
	assert.Contains(t, titles, "Fresh report")
	assert.Contains(t, titles, "Undated commentary")
	assert.Contains(t, titles, "Oddly dated note")
}

func TestFilterAndRank_TargetFailureReturnsUnranked(t *testing.T) {
	embedder := &fakeEmbedder{targetErr: errors.New("provider unavailable")}
	service := setupRanker(t, embedder)

	articles := []*models.ArticleRecord{
		testArticle("First", recentDate(1)),
		testArticle("Second", recentDate(1)),
		testArticle("Third", recentDate(1)),
		testArticle("Fourth", recentDate(1)),
	}

	ranked := service.FilterAndRank(context.Background(), articles, "target", 45, 3)

	require.Len(t, ranked, 3)
	assert.Equal(t, "First", ranked[0].Title)
	assert.Equal(t, "Second", ranked[1].Title)
	assert.Equal(t, "Third", ranked[2].Title)
	for _, article := range ranked {
		assert.Nil(t, article.SimilarityScore, "unranked articles carry no score")
	}
	assert.Empty(t, embedder.batchIn, "no batch call after target failure")
}

func TestFilterAndRank_NilVectorScoresZero(t *testing.T) {
	embedder := &fakeEmbedder{
		target: []float32{1, 0},
		batch: [][]float32{
			nil,        // embedding failed for this article
			{0.5, 0.5}, // scores ~0.707
		},
	}
	service := setupRanker(t, embedder)

	articles := []*models.ArticleRecord{
		testArticle("Vectorless", recentDate(1)),
		testArticle("Scored", recentDate(1)),
	}

	ranked := service.FilterAndRank(context.Background(), articles, "target", 45, 5)

	require.Len(t, ranked, 2)
	assert.Equal(t, "Scored", ranked[0].Title)
	assert.Equal(t, "Vectorless", ranked[1].Title)
	assert.Equal(t, 0.0, ranked[1].Score())
	require.NotNil(t, ranked[1].SimilarityScore, "zero score is attached, not absent")
}

func TestFilterAndRank_BatchErrorScoresAllZero(t *testing.T) {
	embedder := &fakeEmbedder{
		target:   []float32{1, 0},
		batchErr: errors.New("batch rejected"),
	}
	service := setupRanker(t, embedder)

	articles := []*models.ArticleRecord{
		testArticle("First", recentDate(1)),
		testArticle("Second", recentDate(1)),
		testArticle("Third", recentDate(1)),
	}

	ranked := service.FilterAndRank(context.Background(), articles, "target", 45, 2)

	require.Len(t, ranked, 2)
	assert.Equal(t, "First", ranked[0].Title, "zero scores keep input order")
	assert.Equal(t, "Second", ranked[1].Title)
	assert.Equal(t, 0.0, ranked[0].Score())
	assert.Equal(t, 0.0, ranked[1].Score())
}

func TestFilterAndRank_StableOrderOnEqualScores(t *testing.T) {
	embedder := &fakeEmbedder{
		target: []float32{1, 0},
		batch:  [][]float32{{1, 0}, {1, 0}, {1, 0}},
	}
	service := setupRanker(t, embedder)

	articles := []*models.ArticleRecord{
		testArticle("Alpha", recentDate(1)),
		testArticle("Beta", recentDate(1)),
		testArticle("Gamma", recentDate(1)),
	}

	ranked := service.FilterAndRank(context.Background(), articles, "target", 45, 5)

	require.Len(t, ranked, 3)
	assert.Equal(t, "Alpha", ranked[0].Title)
	assert.Equal(t, "Beta", ranked[1].Title)
	assert.Equal(t, "Gamma", ranked[2].Title)
}

func TestFilterAndRank_EmptyInput(t *testing.T) {
	service := setupRanker(t, &fakeEmbedder{target: []float32{1, 0}})

	ranked := service.FilterAndRank(context.Background(), []*models.ArticleRecord{}, "target", 45, 5)

	assert.NotNil(t, ranked)
	assert.Empty(t, ranked)
}

func TestFilterAndRank_CompositeEmbeddingText(t *testing.T) {
	embedder := &fakeEmbedder{
		target: []float32{1, 0},
		batch:  [][]float32{{1, 0}},
	}
	cfg := &common.RankerConfig{TopN: 5, MaxAgeDays: 45, SnippetLength: 20}
	service := NewService(cfg, embedder, arbor.NewLogger())

	long := testArticle("New orders slump deepens", recentDate(1))
	long.Content = strings.Repeat("manufacturing demand weakened across sectors ", 10)

	service.FilterAndRank(context.Background(), []*models.ArticleRecord{long}, "target", 45, 5)

	require.Len(t, embedder.batchIn, 1)
	require.Len(t, embedder.batchIn[0], 1)
	text := embedder.batchIn[0][0]
	assert.True(t, strings.HasPrefix(text, "New orders slump deepens. "), "composite text leads with title: %q", text)
	assert.Len(t, text, len("New orders slump deepens. ")+20)
}
