package main

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createScanTrendTool returns the scan_trend tool definition
func createScanTrendTool() mcp.Tool {
	return mcp.NewTool("scan_trend",
		mcp.WithDescription("Run the news discovery pipeline for a macro-index movement and return a markdown digest of the most relevant articles"),
		mcp.WithString("index_name",
			mcp.Required(),
			mcp.Description("Economic indicator name, e.g. \"Employment\" or \"New Orders\""),
		),
		mcp.WithNumber("change",
			mcp.Required(),
			mcp.Description("Signed recent change in the index, e.g. -2.1"),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Number of articles to keep in the digest (default: config ranker.top_n)"),
		),
		mcp.WithNumber("max_age_days",
			mcp.Description("Drop articles older than this many days (default: config ranker.max_age_days)"),
		),
	)
}

// createListRunsTool returns the list_runs tool definition
func createListRunsTool() mcp.Tool {
	return mcp.NewTool("list_runs",
		mcp.WithDescription("List recent scan runs, newest first"),
		mcp.WithNumber("limit",
			mcp.Description("Maximum runs to return (default: 20, max: 100)"),
		),
	)
}

// createGetRunTool returns the get_run tool definition
func createGetRunTool() mcp.Tool {
	return mcp.NewTool("get_run",
		mcp.WithDescription("Retrieve a single scan run by its ID, including queries, counts, and stage timings"),
		mcp.WithString("run_id",
			mcp.Required(),
			mcp.Description("Run ID (UUID) as returned by scan_trend or list_runs"),
		),
	)
}
