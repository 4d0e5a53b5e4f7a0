package models

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus tracks a scan run through its lifecycle.
type RunStatus string

const (
	RunStatusPending   RunStatus = "pending"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunTrigger records what started a scan run.
const (
	RunTriggerManual    = "manual"
	RunTriggerScheduled = "scheduled"
	RunTriggerMCP       = "mcp"
)

// ScanRun is the persisted record of one pipeline invocation. It stores
// metadata only: the trend, the queries issued, stage counts, and timings.
// Article content is deliberately absent; digests are rendered while the
// scan runs and only their output paths are kept here.
type ScanRun struct {
	ID      string `json:"id"`
	Trigger string `json:"trigger" badgerhold:"index"` // manual, scheduled, mcp

	// Scan seed
	IndexName string  `json:"index_name" badgerhold:"index"`
	Change    float64 `json:"change"`
	Direction string  `json:"direction"`

	// What the pipeline did
	Queries        []string `json:"queries"`
	ResultCount    int      `json:"result_count"`    // Unique URLs after dedup
	FetchedCount   int      `json:"fetched_count"`   // URLs that yielded HTML
	ExtractedCount int      `json:"extracted_count"` // Records with usable content
	RankedCount    int      `json:"ranked_count"`    // Records in the final list
	StaleCount     int      `json:"stale_count"`     // Dropped by the freshness cutoff

	// Digest files written during the run, keyed by format (md, html, pdf, eml)
	DigestPaths map[string]string `json:"digest_paths,omitempty"`

	// Lifecycle
	Status      RunStatus  `json:"status" badgerhold:"index"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Per-stage timings in milliseconds: search, fetch, extract, rank, export
	Phases  map[string]int64 `json:"phases,omitempty"`
	TotalMs int64            `json:"total_ms"`
}

// NewScanRun creates a pending run record for a trend.
func NewScanRun(trend Trend, trigger string) *ScanRun {
	return &ScanRun{
		ID:          uuid.New().String(),
		Trigger:     trigger,
		IndexName:   trend.IndexName,
		Change:      trend.Change,
		Direction:   trend.Direction(),
		Status:      RunStatusPending,
		CreatedAt:   time.Now(),
		DigestPaths: make(map[string]string),
		Phases:      make(map[string]int64),
	}
}

// Trend reconstructs the scan seed from the stored fields.
func (r *ScanRun) Trend() Trend {
	return Trend{IndexName: r.IndexName, Change: r.Change}
}

// MarkStarted transitions the run to running.
func (r *ScanRun) MarkStarted() {
	r.Status = RunStatusRunning
	now := time.Now()
	r.StartedAt = &now
}

// MarkCompleted transitions the run to completed and records total duration.
func (r *ScanRun) MarkCompleted() {
	r.Status = RunStatusCompleted
	now := time.Now()
	r.CompletedAt = &now
	if r.StartedAt != nil {
		r.TotalMs = now.Sub(*r.StartedAt).Milliseconds()
	}
}

// MarkFailed transitions the run to failed with an error message.
func (r *ScanRun) MarkFailed(errMsg string) {
	r.Status = RunStatusFailed
	r.Error = errMsg
	now := time.Now()
	r.CompletedAt = &now
	if r.StartedAt != nil {
		r.TotalMs = now.Sub(*r.StartedAt).Milliseconds()
	}
}

// RecordPhase stores the duration of one pipeline stage.
func (r *ScanRun) RecordPhase(name string, d time.Duration) {
	if r.Phases == nil {
		r.Phases = make(map[string]int64)
	}
	r.Phases[name] = d.Milliseconds()
}

// IsTerminal returns true when the run has finished, successfully or not.
func (r *ScanRun) IsTerminal() bool {
	return r.Status == RunStatusCompleted || r.Status == RunStatusFailed
}

// ScanOptions carries per-invocation overrides for a scan. Zero values fall
// back to the configured defaults.
type ScanOptions struct {
	NumQueries    int      `json:"num_queries,omitempty"`
	TopN          int      `json:"top_n,omitempty"`
	MaxAgeDays    int      `json:"max_age_days,omitempty"`
	FetchAllPages bool     `json:"fetch_all_pages,omitempty"`
	Formats       []string `json:"formats,omitempty"` // Digest formats: md, html, pdf, eml
	Trigger       string   `json:"-"`                 // Set by the caller, not the request body
}
