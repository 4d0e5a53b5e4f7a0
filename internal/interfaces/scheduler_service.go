package interfaces

import (
	"time"

	"github.com/ternarybob/indago/internal/models"
)

// JobStatus represents the current status of a scheduled job
type JobStatus struct {
	Name      string
	Enabled   bool
	Schedule  string
	LastRun   *time.Time
	NextRun   *time.Time
	IsRunning bool
	LastError string
}

// SchedulerService manages cron-based scheduling of watchlist scans
type SchedulerService interface {
	// Start the scheduler with a cron expression
	Start(cronExpr string) error

	// Stop the scheduler
	Stop() error

	// TriggerScanNow manually triggers the watchlist sweep
	TriggerScanNow() error

	// IsRunning returns true if scheduler is active
	IsRunning() bool

	// Entries returns the registered watchlist entries
	Entries() []models.WatchEntry

	// GetJobStatus returns the status of a specific job
	GetJobStatus(name string) (*JobStatus, error)

	// GetAllJobStatuses returns all job statuses
	GetAllJobStatuses() map[string]*JobStatus
}
