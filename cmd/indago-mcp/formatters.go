package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/indago/internal/models"
)

// formatRunList formats recent runs as markdown
func formatRunList(runs []*models.ScanRun) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Scan Runs (%d)\n\n", len(runs)))

	if len(runs) == 0 {
		sb.WriteString("No runs recorded.\n")
		return sb.String()
	}

	for i, run := range runs {
		sb.WriteString(fmt.Sprintf("%d. **%s** %+.2f (%s)\n", i+1, run.IndexName, run.Change, run.Direction))
		sb.WriteString(fmt.Sprintf("   ID: %s\n", run.ID))
		sb.WriteString(fmt.Sprintf("   Status: %s | Trigger: %s | Articles: %d\n", run.Status, run.Trigger, run.RankedCount))
		sb.WriteString(fmt.Sprintf("   Created: %s\n", run.CreatedAt.Format(time.RFC3339)))
		if run.Error != "" {
			sb.WriteString(fmt.Sprintf("   Error: %s\n", run.Error))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// formatRun formats a single run as markdown
func formatRun(run *models.ScanRun) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Scan Run: %s %+.2f\n\n", run.IndexName, run.Change))
	sb.WriteString(fmt.Sprintf("**ID:** %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("**Status:** %s\n", run.Status))
	sb.WriteString(fmt.Sprintf("**Trigger:** %s\n", run.Trigger))
	sb.WriteString(fmt.Sprintf("**Direction:** %s\n", run.Direction))
	sb.WriteString(fmt.Sprintf("**Created:** %s\n", run.CreatedAt.Format(time.RFC3339)))
	if run.CompletedAt != nil {
		sb.WriteString(fmt.Sprintf("**Completed:** %s\n", run.CompletedAt.Format(time.RFC3339)))
	}
	if run.Error != "" {
		sb.WriteString(fmt.Sprintf("**Error:** %s\n", run.Error))
	}
	sb.WriteString("\n")

	sb.WriteString("## Pipeline\n\n")
	sb.WriteString(fmt.Sprintf("- Unique URLs discovered: %d\n", run.ResultCount))
	sb.WriteString(fmt.Sprintf("- Pages fetched: %d\n", run.FetchedCount))
	sb.WriteString(fmt.Sprintf("- Articles extracted: %d\n", run.ExtractedCount))
	sb.WriteString(fmt.Sprintf("- Dropped as stale: %d\n", run.StaleCount))
	sb.WriteString(fmt.Sprintf("- Kept after ranking: %d\n", run.RankedCount))
	sb.WriteString(fmt.Sprintf("- Total duration: %dms\n\n", run.TotalMs))

	if len(run.Queries) > 0 {
		sb.WriteString("## Queries\n\n")
		for _, q := range run.Queries {
			sb.WriteString(fmt.Sprintf("- %s\n", q))
		}
		sb.WriteString("\n")
	}

	if len(run.Phases) > 0 {
		sb.WriteString("## Stage Timings\n\n")
		for _, phase := range []string{"search", "fetch", "extract", "rank", "export"} {
			if ms, ok := run.Phases[phase]; ok {
				sb.WriteString(fmt.Sprintf("- %s: %dms\n", phase, ms))
			}
		}
		sb.WriteString("\n")
	}

	if len(run.DigestPaths) > 0 {
		sb.WriteString("## Digest Files\n\n")
		for format, path := range run.DigestPaths {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", format, path))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
