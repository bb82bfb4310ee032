// Package app wires configuration, storage, services and handlers into
// one application instance.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/common"
	"github.com/gobapps/financepro/internal/fmp"
	"github.com/gobapps/financepro/internal/handlers"
	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/services/events"
	"github.com/gobapps/financepro/internal/services/marketdata"
	"github.com/gobapps/financepro/internal/services/scheduler"
	"github.com/gobapps/financepro/internal/snapshots"
	badgerstore "github.com/gobapps/financepro/internal/storage/badger"
	syncengine "github.com/gobapps/financepro/internal/sync"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	db *badgerstore.BadgerDB

	// Storage
	SnapshotStore interfaces.SnapshotStorage
	PresetStore   interfaces.PresetStorage
	RatingStore   interfaces.RatingStorage

	// Services
	EventService      interfaces.EventService
	MarketDataService interfaces.MarketDataService
	SyncScheduler     *syncengine.Scheduler
	CronService       *scheduler.Service

	// HTTP handlers
	SyncHandler     *handlers.SyncHandler
	SnapshotHandler *handlers.SnapshotHandler
	PresetHandler   *handlers.PresetHandler
	StatusHandler   *handlers.StatusHandler
	WSHandler       *handlers.WebSocketHandler
}

// New creates a fully wired application.
func New(config *common.Config, logger arbor.ILogger) (*App, error) {
	a := &App{
		Config: config,
		Logger: logger,
	}

	// Embedded store opens in both modes: presets and ratings always
	// live locally.
	db, err := badgerstore.NewBadgerDB(logger, &config.Storage.Badger)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	a.db = db
	a.PresetStore = badgerstore.NewPresetStorage(db, logger)
	a.RatingStore = badgerstore.NewRatingStorage(db, logger)

	switch config.Storage.Mode {
	case "remote":
		a.SnapshotStore = snapshots.NewClient(config.Snapshots.BaseURL,
			snapshots.WithAPIKey(config.Snapshots.APIKey),
			snapshots.WithHTTPClient(&http.Client{Timeout: config.Snapshots.RequestTimeout.Std()}),
			snapshots.WithLogger(logger),
		)
		logger.Info().Str("base_url", config.Snapshots.BaseURL).Msg("Using remote snapshot backend")
	default:
		a.SnapshotStore = badgerstore.NewSnapshotStorage(db, logger)
	}

	// Market data
	rps := requestsPerSecond(config.FMP.RateLimit.Std())
	fmpClient := fmp.NewClient(config.FMP.APIKey,
		fmp.WithBaseURL(config.FMP.BaseURL),
		fmp.WithHTTPClient(&http.Client{Timeout: config.FMP.RequestTimeout.Std()}),
		fmp.WithRateLimit(rps),
		fmp.WithLogger(logger),
	)
	a.MarketDataService = marketdata.NewService(fmpClient, config.FMP.YearsOfHistory, logger)

	// Sync engine
	a.EventService = events.NewService(logger)
	calculator := syncengine.NewCalculator(config.Sync.CAGRWindowYears)
	detector := syncengine.NewOutlierDetector(config.Sync.OutlierMaxMultiple, config.Sync.OutlierMinMultiple)
	retry := syncengine.RetryConfig{
		MaxRetries: config.Sync.MaxRetries,
		BaseDelay:  config.Sync.RetryBaseDelay.Std(),
		Multiplier: 2.0,
		MaxDelay:   30 * time.Second,
	}
	orchestrator := syncengine.NewOrchestrator(
		a.SnapshotStore,
		a.MarketDataService,
		a.RatingStore,
		calculator,
		detector,
		retry,
		config.Sync.EPSTolerancePct,
		logger,
	)
	a.SyncScheduler = syncengine.NewScheduler(orchestrator, a.EventService, config.Sync.ConcurrencyLimit, config.Sync.BatchDelay.Std(), logger)
	a.CronService = scheduler.NewService(a.SyncScheduler, a.SnapshotStore, a.PresetStore, &config.Sync, logger)

	// Handlers
	a.SyncHandler = handlers.NewSyncHandler(a.SyncScheduler, a.PresetStore, logger)
	a.SnapshotHandler = handlers.NewSnapshotHandler(a.SnapshotStore, logger)
	a.PresetHandler = handlers.NewPresetHandler(a.PresetStore, logger)
	a.StatusHandler = handlers.NewStatusHandler(config, logger)
	a.WSHandler = handlers.NewWebSocketHandler(a.EventService, logger)

	return a, nil
}

// Start launches background services.
func (a *App) Start() error {
	return a.CronService.Start()
}

// Shutdown stops background services and closes storage.
func (a *App) Shutdown(ctx context.Context) error {
	a.CronService.Stop()

	if err := a.SnapshotStore.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to close snapshot store")
	}
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}

// requestsPerSecond converts a minimum request interval into the whole
// requests-per-second rate the limiter expects, minimum 1.
func requestsPerSecond(interval time.Duration) int {
	if interval <= 0 {
		return fmp.DefaultRateLimit
	}
	rps := int(time.Second / interval)
	if rps < 1 {
		rps = 1
	}
	return rps
}
