package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/common"
	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

// Orchestrator runs the sync pipeline for a single ticker: fetch,
// merge, derive, outlier-check, snapshot. One Orchestrator is safe for
// concurrent use across tickers.
type Orchestrator struct {
	store      interfaces.SnapshotStorage
	marketData interfaces.MarketDataService
	ratings    interfaces.RatingStorage
	calculator *Calculator
	detector   *OutlierDetector
	retry      RetryConfig
	epsTolPct  float64
	logger     arbor.ILogger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	store interfaces.SnapshotStorage,
	marketData interfaces.MarketDataService,
	ratings interfaces.RatingStorage,
	calculator *Calculator,
	detector *OutlierDetector,
	retry RetryConfig,
	epsTolerancePct float64,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		store:      store,
		marketData: marketData,
		ratings:    ratings,
		calculator: calculator,
		detector:   detector,
		retry:      retry,
		epsTolPct:  epsTolerancePct,
		logger:     logger,
	}
}

// SyncTicker syncs one ticker and writes a new current snapshot.
// The returned result always describes the outcome, success or not.
func (o *Orchestrator) SyncTicker(ctx context.Context, ticker string, opts models.SyncOptions) (models.TickerResult, error) {
	started := time.Now()
	result := models.TickerResult{Ticker: ticker, Status: models.ResultFailed}

	if err := opts.Validate(); err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("invalid sync options: %w", err)
	}

	normalized, err := common.NormalizeTicker(ticker)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Ticker = normalized

	existing, err := o.store.GetCurrent(ctx, normalized)
	if err != nil && err != interfaces.ErrSnapshotNotFound {
		result.Error = err.Error()
		return result, fmt.Errorf("failed to load current snapshot: %w", err)
	}

	if opts.SaveBeforeSync && existing != nil {
		backup := *existing
		backup.ID = ""
		backup.IsCurrent = false
		backup.Notes = "Backup before sync"
		if _, err := o.persist(ctx, &backup, false); err != nil {
			result.Error = err.Error()
			return result, fmt.Errorf("failed to back up snapshot: %w", err)
		}
		o.logger.Debug().Str("ticker", normalized).Msg("Backup snapshot created")
	}

	var data *models.TickerData
	attempts, err := WithRetry(ctx, o.retry, func() error {
		var fetchErr error
		data, fetchErr = o.marketData.FetchTickerData(ctx, normalized, opts)
		return fetchErr
	})
	result.Attempts = attempts
	if err != nil {
		result.Error = err.Error()
		result.DurationMS = time.Since(started).Milliseconds()
		o.logger.Warn().
			Str("ticker", normalized).
			Int("attempts", attempts).
			Err(err).
			Msg("Ticker fetch failed")
		return result, fmt.Errorf("failed to fetch %s: %w", normalized, err)
	}

	snapshot, metadata := o.buildSnapshot(ctx, normalized, existing, data, opts)
	metadata.Attempts = attempts

	created, err := o.persist(ctx, snapshot, true)
	if err != nil {
		result.Error = err.Error()
		result.DurationMS = time.Since(started).Milliseconds()
		return result, fmt.Errorf("failed to store snapshot: %w", err)
	}

	result.Status = models.ResultSuccess
	result.SnapshotID = created.ID
	result.Version = created.Version
	result.Warnings = metadata.Warnings
	result.DurationMS = time.Since(started).Milliseconds()
	metadata.DurationMS = result.DurationMS

	o.logger.Info().
		Str("ticker", normalized).
		Str("snapshot_id", created.ID).
		Int("version", created.Version).
		Int("years_added", metadata.YearsAdded).
		Int("fields_replaced", metadata.FieldsReplaced).
		Int("warnings", len(metadata.Warnings)).
		Msg("Ticker synced")

	return result, nil
}

// persist writes a snapshot through the store under the same backoff
// policy as fetch. Backend throttling and 5xx responses retry;
// validation errors fail on the first attempt.
func (o *Orchestrator) persist(ctx context.Context, snapshot *models.Snapshot, makeCurrent bool) (*models.Snapshot, error) {
	var created *models.Snapshot
	attempts, err := WithRetry(ctx, o.retry, func() error {
		var createErr error
		created, createErr = o.store.Create(ctx, snapshot, makeCurrent)
		return createErr
	})
	if err != nil {
		o.logger.Warn().
			Str("ticker", snapshot.Ticker).
			Int("attempts", attempts).
			Err(err).
			Msg("Snapshot persist failed")
		return nil, err
	}
	return created, nil
}

// buildSnapshot merges fetched data with the existing snapshot under
// the sync options.
func (o *Orchestrator) buildSnapshot(ctx context.Context, ticker string, existing *models.Snapshot, data *models.TickerData, opts models.SyncOptions) (*models.Snapshot, *models.SyncMetadata) {
	metadata := &models.SyncMetadata{
		OptionsUsed: opts,
		SyncedAt:    time.Now(),
	}

	var existingSeries []models.AnnualRecord
	var existingAssumptions *models.Assumptions
	var existingInfo *models.CompanyInfo
	if existing != nil {
		existingSeries = existing.AnnualData
		existingAssumptions = existing.Assumptions
		existingInfo = existing.CompanyInfo
	}

	// Series
	merged := existingSeries
	if opts.SyncSeries && len(data.Annual) > 0 {
		plan := PlanSeries(existingSeries, data.Annual, opts.FieldPolicy)
		var stats SeriesStats
		merged, stats = ApplySeriesPlan(existingSeries, data.Annual, plan)
		metadata.YearsAdded = stats.YearsAdded
		metadata.FieldsReplaced = stats.FieldsReplaced
		metadata.SourceCounts = stats.SourceCounts
	}
	if merged == nil {
		merged = []models.AnnualRecord{}
	}

	// Assumptions
	var assumptions *models.Assumptions
	if opts.SyncAssumptions {
		derived := o.calculator.Derive(merged)
		var replaced int
		assumptions, replaced = MergeAssumptions(existingAssumptions, derived, opts)
		metadata.FieldsReplaced += replaced
	} else if existingAssumptions != nil {
		assumptions = existingAssumptions.Clone()
	} else {
		assumptions = models.NewAssumptions()
	}
	UpdateMarketValues(assumptions, data, opts)

	// Outliers
	if opts.RecalculateOutliers {
		for _, check := range o.detector.Check(merged, assumptions) {
			if check.Excluded {
				assumptions.Exclude(check.Metric, check.Reason)
				metadata.OutliersExcluded = append(metadata.OutliersExcluded, check.Metric)
			} else if !opts.PreserveExclusions {
				assumptions.ClearExclusion(check.Metric)
			}
		}
	}

	// Company info
	var ratings models.ReferenceRatings
	if opts.SyncRatings {
		r, err := o.ratings.Get(ctx, ticker)
		if err != nil && err != interfaces.ErrRatingsNotFound {
			o.logger.Warn().Str("ticker", ticker).Err(err).Msg("Failed to load reference ratings")
		} else {
			ratings = r
		}
	}
	var info *models.CompanyInfo
	if opts.SyncInfo {
		info = MergeInfo(existingInfo, data.Info, ratings, opts.SyncRatings)
	} else {
		info = MergeInfo(existingInfo, nil, ratings, false)
	}
	if info == nil {
		info = &models.CompanyInfo{Symbol: ticker}
	}

	// Data quality
	metadata.Warnings = append(metadata.Warnings, data.Warnings...)
	metadata.Warnings = append(metadata.Warnings, QualityWarnings(merged)...)
	if w := EPSConsistencyWarning(merged, data.TTMEps, o.epsTolPct); w != "" {
		metadata.Warnings = append(metadata.Warnings, w)
	}

	snapshot := &models.Snapshot{
		Ticker:       ticker,
		AnnualData:   merged,
		Assumptions:  assumptions,
		CompanyInfo:  info,
		AutoFetched:  true,
		SyncMetadata: metadata,
	}
	return snapshot, metadata
}
