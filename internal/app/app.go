package app

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	arbormodels "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/indago/internal/common"
	"github.com/ternarybob/indago/internal/handlers"
	"github.com/ternarybob/indago/internal/interfaces"
	"github.com/ternarybob/indago/internal/services/embeddings"
	"github.com/ternarybob/indago/internal/services/events"
	"github.com/ternarybob/indago/internal/services/export"
	"github.com/ternarybob/indago/internal/services/extractor"
	"github.com/ternarybob/indago/internal/services/fetcher"
	"github.com/ternarybob/indago/internal/services/indicator"
	"github.com/ternarybob/indago/internal/services/queries"
	"github.com/ternarybob/indago/internal/services/ranker"
	"github.com/ternarybob/indago/internal/services/scan"
	"github.com/ternarybob/indago/internal/services/scheduler"
	"github.com/ternarybob/indago/internal/services/websearch"
	"github.com/ternarybob/indago/internal/storage"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Scan pipeline services
	QueryService     interfaces.QueryComposer
	SearchService    interfaces.SearchService
	FetchService     interfaces.FetchService
	ExtractorService interfaces.ExtractorService
	EmbeddingService interfaces.EmbeddingService
	RankerService    interfaces.RankerService
	ExportService    interfaces.ExportService
	ScanService      interfaces.ScanService

	// Event-driven services
	EventService     interfaces.EventService
	IndicatorService interfaces.IndicatorService
	SchedulerService interfaces.SchedulerService

	// HTTP handlers
	APIHandler       *handlers.APIHandler
	WSHandler        *handlers.WebSocketHandler
	ScanHandler      *handlers.ScanHandler
	WatchlistHandler *handlers.WatchlistHandler
	StatusHandler    *handlers.StatusHandler

	// Log streaming plumbing
	wsLogWriter *handlers.WebSocketWriter
	logChannel  chan []arbormodels.LogEvent
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	// Initialize database
	if err := app.initDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize WebSocket handler early so log streaming is live before
	// services start emitting events. EventService is needed for the
	// WebSocketHandler's event relay.
	app.EventService = events.NewService(app.Logger)
	app.WSHandler = handlers.NewWebSocketHandler(app.EventService, app.Logger, &app.Config.WebSocket)

	// Bridge arbor log batches onto the WebSocket stream. The channel
	// writer inside WebSocketWriter filters by level and pattern so HTTP
	// request noise never reaches clients.
	wsWriter, err := handlers.NewWebSocketWriter(app.WSHandler, arbormodels.WriterConfiguration{
		Type:       arbormodels.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
	}, &app.Config.WebSocket)
	if err != nil {
		return nil, fmt.Errorf("failed to create websocket log writer: %w", err)
	}
	app.wsLogWriter = wsWriter

	app.logChannel = make(chan []arbormodels.LogEvent, 100)
	app.Logger.SetChannel("websocket", app.logChannel)
	common.SafeGo(app.Logger, "websocketLogBridge", func() {
		for batch := range app.logChannel {
			for _, event := range batch {
				// Drop entries the writer rejects rather than block logging
				_ = wsWriter.ProcessEvent(event)
			}
		}
	})

	// Mirror pipeline events into the log stream
	if err := events.SubscribeLoggerToAllEvents(app.EventService, app.Logger); err != nil {
		app.Logger.Warn().Err(err).Msg("Failed to subscribe logger to events")
	}

	// Initialize services
	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	// Initialize handlers
	if err := app.initHandlers(); err != nil {
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	// Log initialization summary
	logger.Info().
		Str("embeddings_provider", cfg.Embeddings.Provider).
		Bool("scheduler_enabled", cfg.Scheduler.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initDatabase initializes the storage layer (Badger)
func (a *App) initDatabase() error {
	storageManager, err := storage.NewStorageManager(a.Logger, a.Config)
	if err != nil {
		return fmt.Errorf("failed to create storage manager: %w", err)
	}

	a.StorageManager = storageManager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices initializes all business services in dependency order.
//
// SCAN PIPELINE:
// 1. QueryService - composes search queries from a trend phrase
// 2. SearchService - web discovery via Google Custom Search
// 3. FetchService - article download with paywall detection
// 4. ExtractorService - readability extraction from fetched HTML
// 5. RankerService - embedding-based relevance filter
// 6. ExportService - markdown digest rendering
//
// ScanService orchestrates the steps per trend and records runs.
// SchedulerService drives watchlist sweeps on a cron cadence, with
// IndicatorService supplying macro-indicator context for each index.
func (a *App) initServices() error {
	// 1. Query composer
	a.QueryService = queries.NewService(a.Logger)

	// 2. Web search
	searchSvc := websearch.NewService(&a.Config.Search, a.Logger)
	if !searchSvc.IsConfigured() {
		a.Logger.Warn().Msg("Search API credentials missing - scans will discover no articles")
		a.Logger.Info().Msg("To enable discovery, set INDAGO_SEARCH_API_KEY or search.api_key in config")
	}
	a.SearchService = searchSvc

	// 3. Fetcher
	a.FetchService = fetcher.NewService(&a.Config.Fetcher, a.Logger)

	// 4. Extractor
	a.ExtractorService = extractor.NewService(&a.Config.Extractor, a.Logger)

	// 5. Embeddings. The ranker calls the embedder unconditionally, so a
	// broken provider config fails startup instead of panicking mid-scan.
	embedder, err := embeddings.NewService(context.Background(), &a.Config.Embeddings, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize embedding service: %w", err)
	}
	a.EmbeddingService = embedder
	a.Logger.Debug().Str("provider", a.Config.Embeddings.Provider).Msg("Embedding service initialized")

	// 6. Ranker
	a.RankerService = ranker.NewService(&a.Config.Ranker, a.EmbeddingService, a.Logger)

	// 7. Export
	a.ExportService = export.NewService(&a.Config.Export, a.Logger)

	// 8. Scan orchestrator wired to run history and seen-URL dedupe
	a.ScanService = scan.NewService(
		a.Config,
		a.QueryService,
		a.SearchService,
		a.FetchService,
		a.ExtractorService,
		a.RankerService,
		a.ExportService,
		a.StorageManager.RunStorage(),
		a.StorageManager.SeenStorage(),
		a.EventService,
		a.Logger,
	)
	a.Logger.Debug().Msg("Scan service initialized")

	// 9. Macro indicator client
	a.IndicatorService = indicator.NewClient(
		a.Config.Indicator.APIKey,
		indicator.WithBaseURL(a.Config.Indicator.Endpoint),
		indicator.WithCountry(a.Config.Indicator.Country),
		indicator.WithRateInterval(a.Config.Indicator.RateLimitDuration()),
		indicator.WithLogger(a.Logger),
	)

	// 10. Scheduler for watchlist sweeps
	a.SchedulerService = scheduler.NewService(&a.Config.Scheduler, a.IndicatorService, a.ScanService, a.Logger)

	if a.Config.Scheduler.Enabled {
		if err := a.SchedulerService.Start(a.Config.Scheduler.Schedule); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to start scheduler service")
		} else {
			a.Logger.Debug().Str("schedule", a.Config.Scheduler.Schedule).Msg("Scheduler service started")
		}
	} else {
		a.Logger.Debug().Msg("Scheduler disabled - scans run on demand only")
	}

	return nil
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() error {
	a.APIHandler = handlers.NewAPIHandler()
	// WSHandler already initialized in New() before the log bridge

	a.ScanHandler = handlers.NewScanHandler(a.ScanService, a.StorageManager.RunStorage(), a.Logger)
	a.WatchlistHandler = handlers.NewWatchlistHandler(a.SchedulerService, a.Logger)
	a.StatusHandler = handlers.NewStatusHandler(a.SchedulerService, a.StorageManager.RunStorage(), a.Logger)

	a.Logger.Debug().Msg("HTTP handlers initialized")
	return nil
}

// Close closes all application resources
func (a *App) Close() error {
	// Stop scheduler service
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	// Drain and stop the websocket log writer. The log channel itself
	// stays open; arbor owns the send side.
	if a.wsLogWriter != nil {
		if err := a.wsLogWriter.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close websocket log writer")
		}
	}

	// Close event service
	if a.EventService != nil {
		if err := a.EventService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close event service")
		}
	}

	// Close storage
	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
		a.Logger.Info().Msg("Storage closed")
	}

	return nil
}
