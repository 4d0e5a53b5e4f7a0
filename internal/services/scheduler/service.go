// Package scheduler fires watchlist scans on cron schedules. Each enabled
// watchlist entry becomes one cron job that resolves the latest indicator
// trend and hands it to the scan pipeline.
package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/interfaces"
	"github.com/ternarybob/indago/internal/models"
)

// scanTimeout bounds one scheduled pipeline invocation.
const scanTimeout = 30 * time.Minute

// jobEntry tracks one watchlist index registered with cron.
type jobEntry struct {
	entry     models.WatchEntry
	schedule  string
	cronID    cron.EntryID
	lastRun   *time.Time
	isRunning bool
	lastError string
}

// Service implements interfaces.SchedulerService.
type Service struct {
	cfg       *common.SchedulerConfig
	indicator interfaces.IndicatorService
	scanner   interfaces.ScanService
	cron      *cron.Cron
	logger    arbor.ILogger

	jobMu    sync.Mutex // Protects jobs map
	jobs     map[string]*jobEntry
	running  bool
	inFlight sync.WaitGroup // Manually triggered scans outside cron's bookkeeping
}

// Compile-time assertion
var _ interfaces.SchedulerService = (*Service)(nil)

// NewService creates a watchlist scan scheduler.
func NewService(cfg *common.SchedulerConfig, indicator interfaces.IndicatorService, scanner interfaces.ScanService, logger arbor.ILogger) *Service {
	if logger == nil {
		logger = arbor.NewLogger()
	}
	return &Service{
		cfg:       cfg,
		indicator: indicator,
		scanner:   scanner,
		cron:      cron.New(cron.WithSeconds()),
		logger:    logger,
		jobs:      make(map[string]*jobEntry),
	}
}

// Start loads the watchlist and registers a cron job per enabled entry.
// Entries that fail to register are logged and skipped so one bad schedule
// does not block the rest of the watchlist.
func (s *Service) Start(cronExpr string) error {
	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	if cronExpr == "" {
		cronExpr = s.cfg.Schedule
	}
	if cronExpr == "" {
		cronExpr = "0 0 6 * * *" // Daily at 06:00
	}

	watchlist, err := LoadWatchlist(s.cfg.WatchlistPath)
	if err != nil {
		return err
	}

	entries := watchlist.EnabledEntries()
	if len(entries) == 0 {
		s.logger.Warn().
			Str("path", s.cfg.WatchlistPath).
			Msg("Watchlist has no enabled entries")
	}

	for _, entry := range entries {
		if err := s.registerEntry(entry, cronExpr); err != nil {
			s.logger.Error().
				Err(err).
				Str("index_name", entry.IndexName).
				Msg("Failed to register watchlist entry, skipping")
		}
	}

	s.cron.Start()
	s.running = true

	s.jobMu.Lock()
	registered := len(s.jobs)
	s.jobMu.Unlock()

	s.logger.Info().
		Int("entries", registered).
		Str("default_schedule", cronExpr).
		Msg("Scheduler started")
	return nil
}

// registerEntry adds one watchlist entry to the cron loop. A per-entry
// schedule overrides the default.
func (s *Service) registerEntry(entry models.WatchEntry, defaultSchedule string) error {
	schedule := entry.Schedule
	if schedule == "" {
		schedule = defaultSchedule
	}

	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	if _, exists := s.jobs[entry.IndexName]; exists {
		return fmt.Errorf("watchlist entry %s already registered", entry.IndexName)
	}

	indexName := entry.IndexName
	cronID, err := s.cron.AddFunc(schedule, func() {
		s.executeScan(indexName)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job for %s: %w", entry.IndexName, err)
	}

	s.jobs[entry.IndexName] = &jobEntry{
		entry:    entry,
		schedule: schedule,
		cronID:   cronID,
	}

	s.logger.Info().
		Str("index_name", entry.IndexName).
		Str("schedule", schedule).
		Msg("Watchlist entry registered")
	return nil
}

// Stop halts the cron loop and waits for in-flight scans to finish.
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	cronCtx := s.cron.Stop()
	<-cronCtx.Done()
	s.inFlight.Wait()
	s.running = false

	s.logger.Info().Msg("Scheduler stopped")
	return nil
}

// TriggerScanNow sweeps every registered index immediately, outside the
// cron schedule.
func (s *Service) TriggerScanNow() error {
	s.jobMu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.jobMu.Unlock()

	if len(names) == 0 {
		return fmt.Errorf("no watchlist entries registered")
	}

	s.logger.Info().
		Int("entries", len(names)).
		Msg("Manual watchlist sweep triggered")

	for _, name := range names {
		s.inFlight.Add(1)
		go func(indexName string) {
			defer s.inFlight.Done()
			s.executeScan(indexName)
		}(name)
	}
	return nil
}

// IsRunning returns true if scheduler is active
func (s *Service) IsRunning() bool {
	return s.running
}

// Entries returns the registered watchlist entries sorted by index name.
func (s *Service) Entries() []models.WatchEntry {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	out := make([]models.WatchEntry, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job.entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IndexName < out[j].IndexName })
	return out
}

// GetJobStatus returns the status of one watchlist job.
func (s *Service) GetJobStatus(name string) (*interfaces.JobStatus, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	job, exists := s.jobs[name]
	if !exists {
		return nil, fmt.Errorf("watchlist entry %s not found", name)
	}

	// Next fire time comes from cron
	var nextRun *time.Time
	for _, cronEntry := range s.cron.Entries() {
		if cronEntry.ID == job.cronID {
			next := cronEntry.Next
			nextRun = &next
			break
		}
	}

	return &interfaces.JobStatus{
		Name:      name,
		Enabled:   true,
		Schedule:  job.schedule,
		LastRun:   job.lastRun,
		NextRun:   nextRun,
		IsRunning: job.isRunning,
		LastError: job.lastError,
	}, nil
}

// GetAllJobStatuses returns the status of every watchlist job.
func (s *Service) GetAllJobStatuses() map[string]*interfaces.JobStatus {
	s.jobMu.Lock()
	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	s.jobMu.Unlock()

	statuses := make(map[string]*interfaces.JobStatus)
	for _, name := range names {
		status, err := s.GetJobStatus(name)
		if err == nil {
			statuses[name] = status
		}
	}
	return statuses
}

// executeScan wraps one scheduled scan with panic recovery, overlap
// suppression, and status tracking.
func (s *Service) executeScan(indexName string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("index_name", indexName).
				Str("panic", fmt.Sprintf("%v", r)).
				Msg("Panic recovered in scheduled scan")

			s.jobMu.Lock()
			if job, exists := s.jobs[indexName]; exists {
				job.isRunning = false
				job.lastError = fmt.Sprintf("panic: %v", r)
			}
			s.jobMu.Unlock()
		}
	}()

	s.jobMu.Lock()
	job, exists := s.jobs[indexName]
	if !exists {
		s.jobMu.Unlock()
		s.logger.Warn().
			Str("index_name", indexName).
			Msg("Watchlist entry not found")
		return
	}
	if job.isRunning {
		s.jobMu.Unlock()
		s.logger.Warn().
			Str("index_name", indexName).
			Msg("Previous scan still running, skipping this fire")
		return
	}
	job.isRunning = true
	entry := job.entry
	s.jobMu.Unlock()

	started := time.Now()
	s.logger.Info().
		Str("index_name", indexName).
		Msg("Scheduled scan started")

	ctx, cancel := context.WithTimeout(context.Background(), scanTimeout)
	defer cancel()

	err := s.runEntry(ctx, entry)

	completed := time.Now()
	s.jobMu.Lock()
	job.isRunning = false
	job.lastRun = &completed
	if err != nil {
		job.lastError = err.Error()
	} else {
		job.lastError = ""
	}
	s.jobMu.Unlock()

	if err != nil {
		s.logger.Error().
			Err(err).
			Str("index_name", indexName).
			Dur("duration", time.Since(started)).
			Msg("Scheduled scan failed")
		return
	}

	s.logger.Info().
		Str("index_name", indexName).
		Dur("duration", time.Since(started)).
		Msg("Scheduled scan completed")
}

// runEntry resolves the latest trend for the entry and runs the pipeline.
func (s *Service) runEntry(ctx context.Context, entry models.WatchEntry) error {
	trend, err := s.indicator.LatestTrend(ctx, entry.IndexName, entry.Indicator)
	if err != nil {
		return fmt.Errorf("failed to resolve trend for %s: %w", entry.IndexName, err)
	}

	opts := models.ScanOptions{
		NumQueries: entry.NumQueries,
		TopN:       entry.TopN,
		Trigger:    models.RunTriggerScheduled,
	}
	if _, _, err := s.scanner.Scan(ctx, trend, opts); err != nil {
		return err
	}
	return nil
}
