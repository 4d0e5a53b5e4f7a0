// Package ranker scores extracted articles against a trend description and
// keeps the freshest, most relevant subset. Scoring is cosine similarity
// between embedding vectors; articles whose vectors cannot be produced score
// zero rather than failing the scan.
package ranker

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/araddon/dateparse"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/interfaces"
	"github.com/ternarybob/indago/internal/models"
)

const (
	// DefaultTopN is the ranked list size when none is configured.
	DefaultTopN = 5

	// DefaultMaxAgeDays is the freshness window when none is configured.
	DefaultMaxAgeDays = 45

	// DefaultSnippetLength is how much article content joins the title in
	// the composite embedding text.
	DefaultSnippetLength = 200
)

// Service ranks articles by embedding similarity to a target description.
type Service struct {
	embedder      interfaces.EmbeddingService
	logger        arbor.ILogger
	snippetLength int
}

// NewService creates a ranker backed by the given embedding provider.
func NewService(cfg *common.RankerConfig, embedder interfaces.EmbeddingService, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = arbor.NewLogger()
	}

	snippetLength := DefaultSnippetLength
	if cfg != nil && cfg.SnippetLength > 0 {
		snippetLength = cfg.SnippetLength
	}

	return &Service{
		embedder:      embedder,
		logger:        logger,
		snippetLength: snippetLength,
	}
}

// FilterAndRank drops articles with a parseable published date older than
// maxAgeDays, scores the remainder against the target description, and
// returns at most topN records sorted by descending similarity. Articles
// without a parseable date are kept. When the target description cannot be
// embedded the first topN inputs are returned unranked so a provider outage
// degrades the digest instead of emptying it.
func (s *Service) FilterAndRank(ctx context.Context, articles []*models.ArticleRecord, targetDescription string, maxAgeDays, topN int) []*models.ArticleRecord {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if maxAgeDays <= 0 {
		maxAgeDays = DefaultMaxAgeDays
	}
	if len(articles) == 0 {
		return []*models.ArticleRecord{}
	}

	targetVector, err := s.embedder.GenerateEmbedding(ctx, targetDescription)
	if err != nil || len(targetVector) == 0 {
		s.logger.Warn().Err(err).
			Int("articles", len(articles)).
			Msg("Target embedding unavailable, returning articles unranked")
		return head(articles, topN)
	}

	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	fresh := s.filterFresh(articles, cutoff)
	if len(fresh) == 0 {
		s.logger.Info().
			Int("candidates", len(articles)).
			Int("max_age_days", maxAgeDays).
			Msg("No articles inside freshness window")
		return []*models.ArticleRecord{}
	}

	texts := make([]string, len(fresh))
	for i, article := range fresh {
		texts[i] = compositeText(article, s.snippetLength)
	}

	vectors, err := s.embedder.GenerateEmbeddings(ctx, texts)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Article embedding batch failed, all articles score zero")
		vectors = make([][]float32, len(fresh))
	}

	for i, article := range fresh {
		var vector []float32
		if i < len(vectors) {
			vector = vectors[i]
		}
		article.SetScore(cosineSimilarity(targetVector, vector))
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Score() > fresh[j].Score()
	})

	ranked := head(fresh, topN)

	s.logger.Info().
		Int("candidates", len(articles)).
		Int("fresh", len(fresh)).
		Int("ranked", len(ranked)).
		Msg("Ranking completed")

	return ranked
}

// filterFresh keeps articles published inside the freshness window. Dates
// the parser cannot handle keep the article, only a confirmed stale date
// excludes it.
func (s *Service) filterFresh(articles []*models.ArticleRecord, cutoff time.Time) []*models.ArticleRecord {
	fresh := make([]*models.ArticleRecord, 0, len(articles))
	for _, article := range articles {
		if article == nil {
			continue
		}
		if isStale(article.PublishedAt, cutoff) {
			s.logger.Debug().
				Str("url", article.URL).
				Str("published_at", article.PublishedAt).
				Msg("Excluding stale article")
			continue
		}
		fresh = append(fresh, article)
	}
	return fresh
}

// isStale reports whether publishedAt parses to a time before the cutoff.
func isStale(publishedAt string, cutoff time.Time) bool {
	if publishedAt == "" {
		return false
	}
	parsed, err := dateparse.ParseAny(publishedAt)
	if err != nil {
		return false
	}
	return parsed.Before(cutoff)
}

// compositeText builds the text embedded for an article: the title followed
// by the leading slice of its content.
func compositeText(article *models.ArticleRecord, snippetLength int) string {
	prefix := article.ContentPrefix(snippetLength)
	if prefix == "" {
		return article.Title
	}
	return fmt.Sprintf("%s. %s", article.Title, prefix)
}

func head(articles []*models.ArticleRecord, n int) []*models.ArticleRecord {
	if len(articles) <= n {
		return articles
	}
	return articles[:n]
}
