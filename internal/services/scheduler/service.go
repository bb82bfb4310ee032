// Package scheduler runs scheduled bulk syncs from a cron expression.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/common"
	"github.com/gobapps/financepro/internal/interfaces"
	syncengine "github.com/gobapps/financepro/internal/sync"
)

// Service triggers a bulk sync on a cron schedule. Disabled when no
// schedule is configured.
type Service struct {
	cron    *cron.Cron
	runner  *syncengine.Scheduler
	store   interfaces.SnapshotStorage
	presets interfaces.PresetStorage
	config  *common.SyncConfig
	logger  arbor.ILogger
}

// NewService creates the scheduled-sync service.
func NewService(runner *syncengine.Scheduler, store interfaces.SnapshotStorage, presets interfaces.PresetStorage, config *common.SyncConfig, logger arbor.ILogger) *Service {
	return &Service{
		cron:    cron.New(),
		runner:  runner,
		store:   store,
		presets: presets,
		config:  config,
		logger:  logger,
	}
}

// Start registers the cron entry and starts the scheduler.
func (s *Service) Start() error {
	if s.config.Schedule == "" {
		s.logger.Debug().Msg("Scheduled sync disabled (no schedule configured)")
		return nil
	}

	if _, err := s.cron.AddFunc(s.config.Schedule, s.runScheduledSync); err != nil {
		return err
	}
	s.cron.Start()

	s.logger.Info().
		Str("schedule", s.config.Schedule).
		Str("preset", s.config.SchedulePreset).
		Msg("Scheduled sync enabled")
	return nil
}

// Stop stops the cron scheduler. Running jobs finish.
func (s *Service) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Service) runScheduledSync() {
	ctx := context.Background()

	tickers := s.config.ScheduleTickers
	if len(tickers) == 0 {
		var err error
		tickers, err = s.store.CurrentTickers(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("Scheduled sync failed to list current tickers")
			return
		}
	}
	if len(tickers) == 0 {
		s.logger.Debug().Msg("Scheduled sync found no tickers to sync")
		return
	}

	presetID := s.config.SchedulePreset
	preset, err := s.presets.Get(ctx, presetID)
	if err != nil {
		s.logger.Error().Str("preset", presetID).Err(err).Msg("Scheduled sync preset not found")
		return
	}

	runID, err := s.runner.StartBulk(ctx, tickers, preset.Options, 0, -1)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Scheduled sync could not start")
		return
	}

	s.logger.Info().
		Str("run_id", runID).
		Int("tickers", len(tickers)).
		Str("preset", presetID).
		Msg("Scheduled sync started")
}
