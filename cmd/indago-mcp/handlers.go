package main

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/indago/internal/interfaces"
	"github.com/ternarybob/indago/internal/models"
)

// handleScanTrend implements the scan_trend tool
func handleScanTrend(scanService interfaces.ScanService, exportService interfaces.ExportService, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse index_name parameter (required)
		indexName, err := request.RequireString("index_name")
		if err != nil || indexName == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: index_name parameter is required"),
				},
			}, nil
		}

		// Parse change parameter (required)
		change, err := request.RequireFloat("change")
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: change parameter is required"),
				},
			}, nil
		}

		// Optional overrides; zero values fall back to config defaults
		opts := models.ScanOptions{
			TopN:       request.GetInt("top_n", 0),
			MaxAgeDays: request.GetInt("max_age_days", 0),
			Trigger:    models.RunTriggerMCP,
		}

		// Execute the pipeline
		run, articles, err := scanService.Scan(ctx, models.NewTrend(indexName, change), opts)
		if err != nil {
			logger.Error().Err(err).Str("index", indexName).Msg("Scan failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Scan error: %v", err)),
				},
			}, nil
		}

		// The digest is returned inline instead of written to disk
		markdown := exportService.RenderMarkdown(run, articles)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// handleListRuns implements the list_runs tool
func handleListRuns(runStorage interfaces.RunStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse limit (default: 20, max: 100)
		limit := request.GetInt("limit", 20)
		if limit > 100 {
			limit = 100
		}

		runs, err := runStorage.ListRuns(ctx, limit, 0)
		if err != nil {
			logger.Error().Err(err).Msg("List runs failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("List error: %v", err)),
				},
			}, nil
		}

		markdown := formatRunList(runs)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}

// handleGetRun implements the get_run tool
func handleGetRun(runStorage interfaces.RunStorage, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Parse run_id parameter (required)
		runID, err := request.RequireString("run_id")
		if err != nil || runID == "" {
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent("Error: run_id parameter is required"),
				},
			}, nil
		}

		run, err := runStorage.GetRun(ctx, runID)
		if err != nil {
			logger.Error().Err(err).Str("run_id", runID).Msg("GetRun failed")
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.NewTextContent(fmt.Sprintf("Run not found: %v", err)),
				},
			}, nil
		}

		markdown := formatRun(run)
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				mcp.NewTextContent(markdown),
			},
		}, nil
	}
}
