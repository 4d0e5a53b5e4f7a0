package models

import (
	"fmt"
	"strings"
)

// WatchEntry is one indicator tracked by the scheduled scanner. The latest
// change value is resolved from the indicator provider at scan time, so the
// entry only names the index and optional per-entry overrides. Indicator is
// the provider series code; empty means the provider client derives one from
// the index name. Schedule overrides the global cron expression.
type WatchEntry struct {
	IndexName  string `yaml:"index_name" json:"index_name"`
	Indicator  string `yaml:"indicator,omitempty" json:"indicator,omitempty"`
	Schedule   string `yaml:"schedule,omitempty" json:"schedule,omitempty"`
	Enabled    bool   `yaml:"enabled" json:"enabled"`
	TopN       int    `yaml:"top_n,omitempty" json:"top_n,omitempty"`
	NumQueries int    `yaml:"num_queries,omitempty" json:"num_queries,omitempty"`
}

// Watchlist is the scheduled-scan roster loaded from a YAML file.
type Watchlist struct {
	Entries []WatchEntry `yaml:"entries" json:"entries"`
}

// EnabledEntries returns only the entries eligible for scheduled scans.
func (w *Watchlist) EnabledEntries() []WatchEntry {
	var out []WatchEntry
	for _, e := range w.Entries {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks every entry names an index.
func (w *Watchlist) Validate() error {
	for i, e := range w.Entries {
		if strings.TrimSpace(e.IndexName) == "" {
			return fmt.Errorf("watchlist entry %d: index name is required", i)
		}
	}
	return nil
}
