// Package scan orchestrates the discovery pipeline for one trend: query
// composition, web search, page fetch, content extraction, relevance
// ranking, and digest export. Provider problems shrink the result list
// instead of failing the scan; only invalid input and storage errors
// surface to the caller.
package scan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/interfaces"
	"github.com/ternarybob/indago/internal/models"
)

// Service implements the ScanService interface
type Service struct {
	cfg       *common.Config
	queries   interfaces.QueryComposer
	search    interfaces.SearchService
	fetcher   interfaces.FetchService
	extractor interfaces.ExtractorService
	ranker    interfaces.RankerService
	exporter  interfaces.ExportService
	runs      interfaces.RunStorage
	seen      interfaces.SeenStorage
	events    interfaces.EventService
	logger    arbor.ILogger
}

// NewService creates a scan orchestrator. exporter, runs, seen, and events
// may be nil; the corresponding steps are skipped.
func NewService(
	cfg *common.Config,
	queries interfaces.QueryComposer,
	search interfaces.SearchService,
	fetcher interfaces.FetchService,
	extractor interfaces.ExtractorService,
	ranker interfaces.RankerService,
	exporter interfaces.ExportService,
	runs interfaces.RunStorage,
	seen interfaces.SeenStorage,
	events interfaces.EventService,
	logger arbor.ILogger,
) *Service {
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &Service{
		cfg:       cfg,
		queries:   queries,
		search:    search,
		fetcher:   fetcher,
		extractor: extractor,
		ranker:    ranker,
		exporter:  exporter,
		runs:      runs,
		seen:      seen,
		events:    events,
		logger:    logger,
	}
}

// Scan executes the pipeline for one trend and returns the completed run
// record alongside the ranked articles.
func (s *Service) Scan(ctx context.Context, trend models.Trend, opts models.ScanOptions) (*models.ScanRun, []*models.ArticleRecord, error) {
	if err := trend.Validate(); err != nil {
		return nil, nil, err
	}

	trigger := opts.Trigger
	if trigger == "" {
		trigger = models.RunTriggerManual
	}

	run := models.NewScanRun(trend, trigger)
	run.MarkStarted()

	s.logger.Info().
		Str("run_id", run.ID).
		Str("index_name", trend.IndexName).
		Float64("change", trend.Change).
		Str("trigger", trigger).
		Msg("Starting scan")

	if err := s.saveRun(ctx, run); err != nil {
		return run, nil, err
	}
	s.publish(ctx, interfaces.EventScanStarted, run, false)

	// Stage 1: compose search queries
	queries := s.queries.GenerateQueries(trend, opts.NumQueries)
	run.Queries = queries

	// Stage 2: web search across all queries with global URL dedup
	searchStart := time.Now()
	fetchAllPages := opts.FetchAllPages || s.cfg.Search.FetchAllPages
	results := s.search.SearchAll(ctx, queries, s.cfg.Search.NumResults, fetchAllPages)
	run.RecordPhase("search", time.Since(searchStart))
	run.ResultCount = len(results)

	if err := ctx.Err(); err != nil {
		return s.fail(ctx, run, fmt.Sprintf("scan cancelled during search: %v", err))
	}

	// Scheduled scans drop URLs already surfaced for this index
	results = s.suppressSeen(ctx, trigger, trend.IndexName, results)

	// Stage 3: fetch pages under bounded concurrency
	fetchStart := time.Now()
	urls := make([]string, len(results))
	for i, result := range results {
		urls[i] = result.URL
	}
	bodies := s.fetcher.FetchAll(ctx, urls)
	run.RecordPhase("fetch", time.Since(fetchStart))
	run.FetchedCount = len(bodies)

	if err := ctx.Err(); err != nil {
		return s.fail(ctx, run, fmt.Sprintf("scan cancelled during fetch: %v", err))
	}

	// Stage 4: extract article content, dropping records no strategy
	// could recover
	extractStart := time.Now()
	extracted := s.extractAll(results, bodies)
	run.RecordPhase("extract", time.Since(extractStart))
	run.ExtractedCount = len(extracted)

	// Stage 5: rank against the trend description
	topN := opts.TopN
	if topN <= 0 {
		topN = s.cfg.Ranker.TopN
	}
	maxAgeDays := opts.MaxAgeDays
	if maxAgeDays <= 0 {
		maxAgeDays = s.cfg.Ranker.MaxAgeDays
	}

	rankStart := time.Now()
	ranked := s.ranker.FilterAndRank(ctx, extracted, trend.TargetDescription(), maxAgeDays, topN)
	run.RecordPhase("rank", time.Since(rankStart))
	run.RankedCount = len(ranked)
	run.StaleCount = countStale(extracted, maxAgeDays)

	// Stage 6: render digests while the articles are still in memory
	formats := opts.Formats
	if len(formats) == 0 {
		formats = s.cfg.Export.Formats
	}
	if s.exporter != nil && len(ranked) > 0 && len(formats) > 0 {
		exportStart := time.Now()
		paths, err := s.exporter.WriteDigest(ctx, run, ranked, formats)
		if err != nil {
			s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Digest export failed")
		}
		run.DigestPaths = paths
		run.RecordPhase("export", time.Since(exportStart))
	}

	s.markSurfaced(ctx, trigger, trend.IndexName, ranked)

	run.MarkCompleted()
	if err := s.saveRun(ctx, run); err != nil {
		return run, ranked, err
	}
	s.publish(ctx, interfaces.EventScanCompleted, run, true)

	s.logger.Info().
		Str("run_id", run.ID).
		Int("results", run.ResultCount).
		Int("fetched", run.FetchedCount).
		Int("extracted", run.ExtractedCount).
		Int("ranked", run.RankedCount).
		Int64("total_ms", run.TotalMs).
		Msg("Scan completed")

	return run, ranked, nil
}

// extractAll turns fetched bodies into article records, preserving search
// result order. Bodies starting with the PDF magic bytes take the PDF path.
// Search metadata backfills missing titles and dates.
func (s *Service) extractAll(results []models.SearchResult, bodies map[string]string) []*models.ArticleRecord {
	extracted := make([]*models.ArticleRecord, 0, len(bodies))
	for _, result := range results {
		body, ok := bodies[result.URL]
		if !ok {
			continue
		}

		var record *models.ArticleRecord
		if strings.HasPrefix(body, "%PDF") {
			record = s.extractor.ExtractPDF([]byte(body), result.URL)
		} else {
			record = s.extractor.Extract(body, result.URL)
		}

		if record.IsExtractionFailure() {
			s.logger.Debug().
				Str("url", result.URL).
				Str("reason", record.Content).
				Msg("Dropping article without extractable content")
			continue
		}

		if record.Title == "" {
			record.Title = result.Title
		}
		if record.PublishedAt == "" {
			record.PublishedAt = result.PublishedAt
		}

		extracted = append(extracted, record)
	}
	return extracted
}

// suppressSeen filters out URLs already surfaced for this index. Only
// scheduled scans suppress, and only when the feature is enabled; manual and
// MCP scans always see the full result set.
func (s *Service) suppressSeen(ctx context.Context, trigger, indexName string, results []models.SearchResult) []models.SearchResult {
	if trigger != models.RunTriggerScheduled || !s.cfg.Scheduler.SkipSeen || s.seen == nil {
		return results
	}

	urls := make([]string, len(results))
	for i, result := range results {
		urls[i] = result.URL
	}

	unseen, err := s.seen.FilterUnseen(ctx, indexName, urls)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Seen registry unavailable, keeping all results")
		return results
	}

	keep := make(map[string]bool, len(unseen))
	for _, url := range unseen {
		keep[url] = true
	}

	filtered := make([]models.SearchResult, 0, len(unseen))
	for _, result := range results {
		if keep[result.URL] {
			filtered = append(filtered, result)
		}
	}

	if dropped := len(results) - len(filtered); dropped > 0 {
		s.logger.Info().
			Str("index_name", indexName).
			Int("dropped", dropped).
			Msg("Suppressed previously surfaced URLs")
	}

	return filtered
}

// markSurfaced records the digest articles in the seen registry so later
// scheduled scans of the same index skip them.
func (s *Service) markSurfaced(ctx context.Context, trigger, indexName string, ranked []*models.ArticleRecord) {
	if trigger != models.RunTriggerScheduled || !s.cfg.Scheduler.SkipSeen || s.seen == nil {
		return
	}
	for _, article := range ranked {
		if err := s.seen.MarkSeen(ctx, indexName, article.URL); err != nil {
			s.logger.Warn().Err(err).Str("url", article.URL).Msg("Failed to mark article seen")
		}
	}
}

// fail finalizes a cancelled or aborted run.
func (s *Service) fail(ctx context.Context, run *models.ScanRun, reason string) (*models.ScanRun, []*models.ArticleRecord, error) {
	run.MarkFailed(reason)
	if err := s.saveRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to persist failed run")
	}
	s.publish(ctx, interfaces.EventScanFailed, run, true)

	s.logger.Warn().
		Str("run_id", run.ID).
		Str("reason", reason).
		Msg("Scan failed")

	return run, nil, fmt.Errorf("%s", reason)
}

// saveRun persists the run record when a run store is wired.
func (s *Service) saveRun(ctx context.Context, run *models.ScanRun) error {
	if s.runs == nil {
		return nil
	}
	if err := s.runs.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("failed to persist run %s: %w", run.ID, err)
	}
	return nil
}

// publish emits a scan lifecycle event. Completion events publish
// synchronously so subscribers observe terminal state before Scan returns.
func (s *Service) publish(ctx context.Context, eventType interfaces.EventType, run *models.ScanRun, sync bool) {
	if s.events == nil {
		return
	}

	payload := map[string]interface{}{
		"run_id":     run.ID,
		"index_name": run.IndexName,
		"direction":  run.Direction,
		"status":     string(run.Status),
		"timestamp":  time.Now().Format(time.RFC3339),
	}
	if run.IsTerminal() {
		payload["result_count"] = run.ResultCount
		payload["ranked_count"] = run.RankedCount
		payload["total_ms"] = run.TotalMs
		if run.Error != "" {
			payload["error"] = run.Error
		}
	}

	event := interfaces.Event{Type: eventType, Payload: payload}

	var err error
	if sync {
		err = s.events.PublishSync(ctx, event)
	} else {
		err = s.events.Publish(ctx, event)
	}
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("event_type", string(eventType)).
			Str("run_id", run.ID).
			Msg("Failed to publish scan event")
	}
}

// countStale counts extracted articles whose parseable published date falls
// outside the freshness window. Unparseable dates never count as stale.
func countStale(articles []*models.ArticleRecord, maxAgeDays int) int {
	cutoff := time.Now().AddDate(0, 0, -maxAgeDays)
	stale := 0
	for _, article := range articles {
		if article.PublishedAt == "" {
			continue
		}
		parsed, err := dateparse.ParseAny(article.PublishedAt)
		if err != nil {
			continue
		}
		if parsed.Before(cutoff) {
			stale++
		}
	}
	return stale
}
