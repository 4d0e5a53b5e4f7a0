package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"
	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/services/embeddings"
	"github.com/ternarybob/indago/internal/services/export"
	"github.com/ternarybob/indago/internal/services/extractor"
	"github.com/ternarybob/indago/internal/services/fetcher"
	"github.com/ternarybob/indago/internal/services/queries"
	"github.com/ternarybob/indago/internal/services/ranker"
	"github.com/ternarybob/indago/internal/services/scan"
	"github.com/ternarybob/indago/internal/services/websearch"
	"github.com/ternarybob/indago/internal/storage"
)

func main() {
	// Load configuration
	configPath := os.Getenv("INDAGO_CONFIG")
	if configPath == "" {
		configPath = "indago.toml"
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize minimal logger for MCP server (console only, no file output)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Minimal logging to avoid cluttering MCP stdio

	// Initialize storage
	storageManager, err := storage.NewStorageManager(logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	// Assemble the scan pipeline. No exporter and no event bus here: the
	// scan_trend tool returns its digest inline, so nothing is written to
	// disk and there is no websocket to notify.
	queryService := queries.NewService(logger)
	searchService := websearch.NewService(&config.Search, logger)
	fetchService := fetcher.NewService(&config.Fetcher, logger)
	extractorService := extractor.NewService(&config.Extractor, logger)

	embedder, err := embeddings.NewService(context.Background(), &config.Embeddings, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize embedding service")
	}
	rankerService := ranker.NewService(&config.Ranker, embedder, logger)
	exportService := export.NewService(&config.Export, logger)

	scanService := scan.NewService(
		config,
		queryService,
		searchService,
		fetchService,
		extractorService,
		rankerService,
		nil,
		storageManager.RunStorage(),
		storageManager.SeenStorage(),
		nil,
		logger,
	)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"indago",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register scan tools
	mcpServer.AddTool(createScanTrendTool(), handleScanTrend(scanService, exportService, logger))
	mcpServer.AddTool(createListRunsTool(), handleListRuns(storageManager.RunStorage(), logger))
	mcpServer.AddTool(createGetRunTool(), handleGetRun(storageManager.RunStorage(), logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}
