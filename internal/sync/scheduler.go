package sync

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/common"
	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

// ErrRunActive is returned when a bulk run is requested while another
// is still running.
var ErrRunActive = fmt.Errorf("a bulk sync run is already active")

// Scheduler runs bulk syncs in parallel batches. One run at a time;
// pause takes effect at the next batch boundary, cancel marks every
// unstarted ticker skipped. Failures stay inside their ticker's result
// and never stop the run.
type Scheduler struct {
	orchestrator *Orchestrator
	events       interfaces.EventService
	logger       arbor.ILogger

	concurrency int
	batchDelay  time.Duration

	mu        sync.Mutex
	state     models.RunState
	runID     string
	total     int
	completed int
	succeeded int
	failed    int
	skipped   int
	batch     int
	batches   int
	startedAt time.Time
	results   map[string]models.TickerResult
	report    *models.BulkReport
	cancelled bool
	paused    bool
	stop      chan struct{}
	cancelRun context.CancelFunc
}

// NewScheduler creates a Scheduler with the given defaults. Callers
// may override concurrency and batch delay per run.
func NewScheduler(orchestrator *Orchestrator, events interfaces.EventService, concurrency int, batchDelay time.Duration, logger arbor.ILogger) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		orchestrator: orchestrator,
		events:       events,
		logger:       logger,
		concurrency:  concurrency,
		batchDelay:   batchDelay,
		state:        models.RunStateIdle,
		results:      make(map[string]models.TickerResult),
	}
}

// SyncOne runs a single-ticker sync outside any bulk run, publishing
// the same progress events a bulk run would.
func (s *Scheduler) SyncOne(ctx context.Context, ticker string, opts models.SyncOptions) (models.TickerResult, error) {
	result, err := s.orchestrator.SyncTicker(ctx, ticker, opts)
	if s.events != nil {
		s.events.Publish(interfaces.EventTickerDone, result)
	}
	return result, err
}

// StartBulk begins a bulk run over the tickers and returns its run id.
// The run proceeds in the background; observe it via Progress, Report
// and the event service.
func (s *Scheduler) StartBulk(ctx context.Context, tickers []string, opts models.SyncOptions, concurrency int, batchDelay time.Duration) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", fmt.Errorf("invalid sync options: %w", err)
	}
	if len(tickers) == 0 {
		return "", fmt.Errorf("no tickers to sync")
	}

	// A malformed symbol fails only its own entry. The rest of the run
	// proceeds.
	seen := make(map[string]bool, len(tickers))
	var normalized []string
	var rejected []models.TickerResult
	for _, ticker := range tickers {
		symbol, err := common.NormalizeTicker(ticker)
		if err != nil {
			rejected = append(rejected, models.TickerResult{
				Ticker: ticker,
				Status: models.ResultFailed,
				Error:  err.Error(),
			})
			continue
		}
		if seen[symbol] {
			continue
		}
		seen[symbol] = true
		normalized = append(normalized, symbol)
	}

	if concurrency < 1 {
		concurrency = s.concurrency
	}
	if batchDelay < 0 {
		batchDelay = s.batchDelay
	}

	s.mu.Lock()
	if s.state == models.RunStateRunning || s.state == models.RunStatePaused {
		s.mu.Unlock()
		return "", ErrRunActive
	}
	runCtx, cancel := context.WithCancel(ctx)
	stop := make(chan struct{})
	runID := common.NewRunID()
	total := len(normalized) + len(rejected)
	s.state = models.RunStateRunning
	s.runID = runID
	s.total = total
	s.completed = 0
	s.succeeded = 0
	s.failed = 0
	s.skipped = 0
	s.batch = 0
	s.batches = batchCount(len(normalized), concurrency)
	s.startedAt = time.Now()
	s.results = make(map[string]models.TickerResult, total)
	s.report = nil
	s.cancelled = false
	s.paused = false
	s.stop = stop
	s.cancelRun = cancel
	s.mu.Unlock()

	if s.events != nil {
		s.events.Publish(interfaces.EventSyncStarted, map[string]interface{}{
			"run_id":  runID,
			"tickers": normalized,
			"total":   total,
		})
	}

	for _, result := range rejected {
		s.recordResult(result)
	}

	go s.run(runCtx, stop, normalized, opts, concurrency, batchDelay)

	return runID, nil
}

func (s *Scheduler) run(ctx context.Context, stop <-chan struct{}, tickers []string, opts models.SyncOptions, concurrency int, batchDelay time.Duration) {
	for start := 0; start < len(tickers); start += concurrency {
		if !s.waitWhilePaused(ctx, stop) {
			s.skipRemaining(tickers[start:])
			break
		}

		end := start + concurrency
		if end > len(tickers) {
			end = len(tickers)
		}
		batch := tickers[start:end]

		s.mu.Lock()
		s.batch++
		currentBatch := s.batch
		s.mu.Unlock()

		s.logger.Debug().
			Int("batch", currentBatch).
			Int("size", len(batch)).
			Msg("Starting sync batch")

		var wg sync.WaitGroup
		for _, ticker := range batch {
			wg.Add(1)
			go func(ticker string) {
				defer wg.Done()
				result, _ := s.orchestrator.SyncTicker(ctx, ticker, opts)
				s.recordResult(result)
			}(ticker)
		}
		wg.Wait()

		s.publishProgress()

		if end < len(tickers) && batchDelay > 0 {
			select {
			case <-ctx.Done():
				s.skipRemaining(tickers[end:])
				s.finish()
				return
			case <-stop:
				s.skipRemaining(tickers[end:])
				s.finish()
				return
			case <-time.After(batchDelay):
			}
		}
	}

	s.finish()
}

// waitWhilePaused blocks at a batch boundary while the run is paused.
// Returns false when the run was cancelled.
func (s *Scheduler) waitWhilePaused(ctx context.Context, stop <-chan struct{}) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-stop:
			return false
		default:
		}

		s.mu.Lock()
		paused := s.paused
		cancelled := s.cancelled
		s.mu.Unlock()

		if cancelled {
			return false
		}
		if !paused {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-stop:
			return false
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func (s *Scheduler) recordResult(result models.TickerResult) {
	s.mu.Lock()
	s.results[result.Ticker] = result
	s.completed++
	switch result.Status {
	case models.ResultSuccess:
		s.succeeded++
	case models.ResultSkipped:
		s.skipped++
	default:
		s.failed++
	}
	s.mu.Unlock()

	if s.events != nil {
		s.events.Publish(interfaces.EventTickerDone, result)
	}
}

func (s *Scheduler) skipRemaining(tickers []string) {
	s.mu.Lock()
	for _, ticker := range tickers {
		if _, done := s.results[ticker]; done {
			continue
		}
		s.results[ticker] = models.TickerResult{
			Ticker: ticker,
			Status: models.ResultSkipped,
			Error:  "run cancelled",
		}
		s.completed++
		s.skipped++
	}
	s.mu.Unlock()
}

func (s *Scheduler) publishProgress() {
	if s.events == nil {
		return
	}
	s.events.Publish(interfaces.EventSyncProgress, s.Progress())
}

func (s *Scheduler) finish() {
	s.mu.Lock()
	cancel := s.cancelRun
	s.cancelRun = nil
	state := models.RunStateCompleted
	if s.cancelled {
		state = models.RunStateCancelled
	}
	s.state = state

	report := &models.BulkReport{
		RunID:      s.runID,
		State:      state,
		StartedAt:  s.startedAt,
		FinishedAt: time.Now(),
		Results:    make(map[string]models.TickerResult, len(s.results)),
	}
	for ticker, result := range s.results {
		report.Results[ticker] = result
		switch result.Status {
		case models.ResultSuccess:
			report.SuccessCount++
		case models.ResultSkipped:
			report.SkippedCount++
		default:
			report.ErrorCount++
		}
		report.GlobalStats.Warnings += len(result.Warnings)
	}
	s.report = report
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	s.logger.Info().
		Str("run_id", report.RunID).
		Str("state", string(state)).
		Int("success", report.SuccessCount).
		Int("errors", report.ErrorCount).
		Int("skipped", report.SkippedCount).
		Msg("Bulk sync finished")

	if s.events != nil {
		s.events.Publish(interfaces.EventSyncCompleted, report)
	}
}

// Pause stops new batches from starting. In-flight tickers complete.
func (s *Scheduler) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != models.RunStateRunning {
		return fmt.Errorf("no running bulk sync to pause")
	}
	s.paused = true
	s.state = models.RunStatePaused
	return nil
}

// Resume continues a paused run.
func (s *Scheduler) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != models.RunStatePaused {
		return fmt.Errorf("no paused bulk sync to resume")
	}
	s.paused = false
	s.state = models.RunStateRunning
	return nil
}

// Cancel stops the run cooperatively: tickers already syncing finish
// and keep their real outcome, everything not yet started is marked
// skipped.
func (s *Scheduler) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != models.RunStateRunning && s.state != models.RunStatePaused {
		return fmt.Errorf("no active bulk sync to cancel")
	}
	if !s.cancelled {
		s.cancelled = true
		if s.stop != nil {
			close(s.stop)
		}
	}
	s.paused = false
	return nil
}

// Progress returns a point-in-time view of the active (or last) run.
func (s *Scheduler) Progress() models.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Progress{
		RunID:        s.runID,
		State:        s.state,
		Total:        s.total,
		Completed:    s.completed,
		Succeeded:    s.succeeded,
		Failed:       s.failed,
		Skipped:      s.skipped,
		CurrentBatch: s.batch,
		TotalBatches: s.batches,
		StartedAt:    s.startedAt,
	}
}

// Report returns the report of the last finished run, or nil while a
// run is active or none has run.
func (s *Scheduler) Report() *models.BulkReport {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.report
}

// Per-ticker time estimates. Advisory only.
const (
	estimateBase        = 1 * time.Second        // Profile and quote
	estimateSeries      = 2 * time.Second        // Statements, prices, dividends
	estimateAssumptions = 200 * time.Millisecond // Derivation
	estimateInfo        = 300 * time.Millisecond
	estimateBackup      = 200 * time.Millisecond
	estimateReduced     = -500 * time.Millisecond // Append-only policies write less
)

// Estimate predicts the wall-clock duration of a bulk run.
func (s *Scheduler) Estimate(tickerCount int, opts models.SyncOptions, concurrency int, batchDelay time.Duration) models.Estimate {
	if concurrency < 1 {
		concurrency = s.concurrency
	}
	if batchDelay < 0 {
		batchDelay = s.batchDelay
	}

	perTicker := estimateBase
	if opts.SyncSeries {
		perTicker += estimateSeries
		if opts.FieldPolicy == models.FieldPolicyNewYearsOnly || opts.FieldPolicy == models.FieldPolicyMissingOnly {
			perTicker += estimateReduced
		}
	}
	if opts.SyncAssumptions {
		perTicker += estimateAssumptions
	}
	if opts.SyncInfo {
		perTicker += estimateInfo
	}
	if opts.SaveBeforeSync {
		perTicker += estimateBackup
	}

	if tickerCount < 0 {
		tickerCount = 0
	}
	batches := batchCount(tickerCount, concurrency)
	// Serial per-ticker cost plus inter-batch pacing. Advisory, so it
	// deliberately ignores the parallelism inside a batch.
	total := time.Duration(tickerCount)*perTicker + time.Duration(maxInt(batches-1, 0))*batchDelay

	return models.Estimate{
		TickerCount:       tickerCount,
		BatchCount:        batches,
		PerTicker:         perTicker,
		EstimatedDuration: total,
		EstimatedSeconds:  total.Seconds(),
	}
}

func batchCount(total, concurrency int) int {
	if total <= 0 || concurrency <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(concurrency)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
