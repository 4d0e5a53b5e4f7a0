// Package export renders scan digests. One markdown document is composed
// per run and every other format (HTML, PDF, EML) is derived from it.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/interfaces"
	"github.com/ternarybob/indago/internal/models"
)

// digestExcerptLength caps the amount of article content quoted per entry.
const digestExcerptLength = 500

// Service renders and writes scan digests.
type Service struct {
	cfg    *common.ExportConfig
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ExportService = (*Service)(nil)

// NewService creates a digest export service.
func NewService(cfg *common.ExportConfig, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &Service{
		cfg:    cfg,
		logger: logger,
	}
}

// WriteDigest renders the ranked articles in each requested format and
// writes digest_<runid>.<ext> files under the configured output directory.
// A format that fails to render is logged and left out of the returned map;
// only filesystem-level problems surface as errors.
func (s *Service) WriteDigest(ctx context.Context, run *models.ScanRun, articles []*models.ArticleRecord, formats []string) (map[string]string, error) {
	if run == nil {
		return nil, fmt.Errorf("run is required")
	}

	paths := make(map[string]string)
	if len(formats) == 0 {
		return paths, nil
	}

	outputDir := s.cfg.OutputDir
	if outputDir == "" {
		outputDir = "./digests"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create digest directory %s: %w", outputDir, err)
	}

	markdown := s.RenderMarkdown(run, articles)

	for _, format := range formats {
		if ctx.Err() != nil {
			return paths, ctx.Err()
		}

		name := strings.ToLower(strings.TrimSpace(format))
		if name == "markdown" {
			name = "md"
		}

		var data []byte
		var err error
		switch name {
		case "md":
			data = []byte(markdown)
		case "html":
			data, err = s.renderHTML(markdown)
		case "pdf":
			data, err = s.renderPDF(markdown)
		case "eml":
			data, err = s.renderEML(run, markdown)
		default:
			s.logger.Warn().
				Str("format", format).
				Msg("Unknown digest format, skipping")
			continue
		}
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("format", name).
				Str("run_id", run.ID).
				Msg("Digest format failed to render")
			continue
		}

		path := filepath.Join(outputDir, fmt.Sprintf("digest_%s.%s", run.ID, name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			s.logger.Warn().
				Err(err).
				Str("path", path).
				Msg("Failed to write digest file")
			continue
		}

		s.logger.Debug().
			Str("format", name).
			Str("path", path).
			Int("bytes", len(data)).
			Msg("Digest file written")
		paths[name] = path
	}

	s.logger.Info().
		Str("run_id", run.ID).
		Int("formats", len(paths)).
		Str("output_dir", outputDir).
		Msg("Digest export completed")

	return paths, nil
}

// RenderMarkdown composes the digest document for a run: header, trend
// summary, ranked articles with scores and dates, deduplicated sources,
// and the queries that were issued.
func (s *Service) RenderMarkdown(run *models.ScanRun, articles []*models.ArticleRecord) string {
	trend := run.Trend()

	var content strings.Builder
	content.WriteString(fmt.Sprintf("# Trend Digest: %s\n\n", trend.Label()))

	scannedAt := run.CreatedAt
	if run.StartedAt != nil {
		scannedAt = *run.StartedAt
	}
	content.WriteString(fmt.Sprintf("*Scan performed: %s | Trigger: %s | Run: %s*\n\n",
		scannedAt.Format(time.RFC3339), run.Trigger, run.ID))

	content.WriteString("## Trend\n\n")
	content.WriteString(fmt.Sprintf("**Index:** %s | **Change:** %+.1f | **Direction:** %s\n\n",
		run.IndexName, run.Change, run.Direction))
	content.WriteString(fmt.Sprintf("Candidates: %d found, %d fetched, %d extracted, %d ranked.\n\n",
		run.ResultCount, run.FetchedCount, run.ExtractedCount, run.RankedCount))

	content.WriteString("## Top Articles\n\n")
	if len(articles) == 0 {
		content.WriteString("No articles passed the freshness and relevance filters.\n\n")
	}
	for i, article := range articles {
		title := article.Title
		if title == "" {
			title = article.URL
		}
		content.WriteString(fmt.Sprintf("### %d. %s\n\n", i+1, title))

		var meta []string
		if article.SimilarityScore != nil {
			meta = append(meta, fmt.Sprintf("Score: %.4f", *article.SimilarityScore))
		}
		if article.PublishedAt != "" {
			meta = append(meta, fmt.Sprintf("Published: %s", article.PublishedAt))
		}
		if len(meta) > 0 {
			content.WriteString(fmt.Sprintf("*%s*\n\n", strings.Join(meta, " | ")))
		}

		if excerpt := articleExcerpt(article); excerpt != "" {
			content.WriteString(excerpt)
			content.WriteString("\n\n")
		}
		if article.URL != "" {
			content.WriteString(fmt.Sprintf("<%s>\n\n", article.URL))
		}
	}

	// Sources section, deduplicated by URL
	if len(articles) > 0 {
		content.WriteString("## Sources\n\n")
		seen := make(map[string]bool)
		for _, article := range articles {
			if article.URL == "" || seen[article.URL] {
				continue
			}
			seen[article.URL] = true
			if article.Title != "" {
				content.WriteString(fmt.Sprintf("- [%s](%s)\n", article.Title, article.URL))
			} else {
				content.WriteString(fmt.Sprintf("- <%s>\n", article.URL))
			}
		}
		content.WriteString("\n")
	}

	if len(run.Queries) > 0 {
		content.WriteString("## Search Queries\n\n")
		for _, query := range run.Queries {
			content.WriteString(fmt.Sprintf("- %s\n", query))
		}
		content.WriteString("\n")
	}

	return content.String()
}

func articleExcerpt(article *models.ArticleRecord) string {
	excerpt := strings.TrimSpace(article.ContentPrefix(digestExcerptLength))
	if excerpt == "" {
		return ""
	}
	if len(article.Content) > digestExcerptLength {
		excerpt += "..."
	}
	return excerpt
}
