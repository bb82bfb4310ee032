package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
	syncengine "github.com/gobapps/financepro/internal/sync"
)

// SyncHandler exposes the sync engine over HTTP.
type SyncHandler struct {
	scheduler *syncengine.Scheduler
	presets   interfaces.PresetStorage
	logger    arbor.ILogger
}

// NewSyncHandler creates a new SyncHandler instance
func NewSyncHandler(scheduler *syncengine.Scheduler, presets interfaces.PresetStorage, logger arbor.ILogger) *SyncHandler {
	return &SyncHandler{
		scheduler: scheduler,
		presets:   presets,
		logger:    logger,
	}
}

// syncRequest selects options for a sync: a preset id, explicit
// options, or neither (defaults).
type syncRequest struct {
	Preset  string              `json:"preset,omitempty"`
	Options *models.SyncOptions `json:"options,omitempty"`
}

type bulkSyncRequest struct {
	syncRequest
	Tickers      []string `json:"tickers"`
	Concurrency  int      `json:"concurrency,omitempty"`
	BatchDelayMS int      `json:"batch_delay_ms,omitempty"`
}

type estimateRequest struct {
	syncRequest
	Tickers      []string `json:"tickers,omitempty"`
	TickerCount  int      `json:"ticker_count,omitempty"`
	Concurrency  int      `json:"concurrency,omitempty"`
	BatchDelayMS int      `json:"batch_delay_ms,omitempty"`
}

// resolveOptions turns a request into validated sync options.
func (h *SyncHandler) resolveOptions(ctx context.Context, req syncRequest) (models.SyncOptions, error) {
	if req.Preset != "" {
		preset, err := h.presets.Get(ctx, req.Preset)
		if err != nil {
			return models.SyncOptions{}, err
		}
		return preset.Options, nil
	}
	if req.Options != nil {
		if err := req.Options.Validate(); err != nil {
			return models.SyncOptions{}, err
		}
		return *req.Options, nil
	}
	return models.DefaultSyncOptions(), nil
}

// SyncTickerHandler handles POST /api/sync/{ticker}
func (h *SyncHandler) SyncTickerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	ticker := strings.TrimPrefix(r.URL.Path, "/api/sync/")
	if ticker == "" || strings.Contains(ticker, "/") {
		WriteError(w, http.StatusBadRequest, "Ticker is required")
		return
	}

	var req syncRequest
	if r.ContentLength > 0 {
		if err := DecodeBody(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	opts, err := h.resolveOptions(r.Context(), req)
	if err != nil {
		if errors.Is(err, interfaces.ErrPresetNotFound) {
			WriteError(w, http.StatusNotFound, "Preset not found")
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.scheduler.SyncOne(r.Context(), ticker, opts)
	if err != nil {
		h.logger.Warn().Str("ticker", ticker).Err(err).Msg("Single sync failed")
		WriteJSON(w, http.StatusBadGateway, result)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}

// BulkSyncHandler handles POST /api/sync/bulk
func (h *SyncHandler) BulkSyncHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req bulkSyncRequest
	if err := DecodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Tickers) == 0 {
		WriteError(w, http.StatusBadRequest, "At least one ticker is required")
		return
	}

	opts, err := h.resolveOptions(r.Context(), req.syncRequest)
	if err != nil {
		if errors.Is(err, interfaces.ErrPresetNotFound) {
			WriteError(w, http.StatusNotFound, "Preset not found")
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	batchDelay := time.Duration(req.BatchDelayMS) * time.Millisecond
	if req.BatchDelayMS == 0 {
		batchDelay = -1 // Use configured default
	}

	// Background context: the run outlives this request
	runID, err := h.scheduler.StartBulk(context.Background(), req.Tickers, opts, req.Concurrency, batchDelay)
	if err != nil {
		if errors.Is(err, syncengine.ErrRunActive) {
			WriteError(w, http.StatusConflict, err.Error())
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	WriteStarted(w, map[string]interface{}{
		"run_id":  runID,
		"tickers": len(req.Tickers),
	})
}

// StatusHandler handles GET /api/sync/status
func (h *SyncHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	response := map[string]interface{}{
		"progress": h.scheduler.Progress(),
	}
	if report := h.scheduler.Report(); report != nil {
		response["report"] = report
	}
	WriteJSON(w, http.StatusOK, response)
}

// PauseHandler handles POST /api/sync/pause
func (h *SyncHandler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := h.scheduler.Pause(); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteSuccess(w, "Bulk sync paused")
}

// ResumeHandler handles POST /api/sync/resume
func (h *SyncHandler) ResumeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := h.scheduler.Resume(); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteSuccess(w, "Bulk sync resumed")
}

// CancelHandler handles POST /api/sync/cancel
func (h *SyncHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if err := h.scheduler.Cancel(); err != nil {
		WriteError(w, http.StatusConflict, err.Error())
		return
	}
	WriteSuccess(w, "Bulk sync cancelled")
}

// EstimateHandler handles POST /api/sync/estimate
func (h *SyncHandler) EstimateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req estimateRequest
	if err := DecodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	count := req.TickerCount
	if count == 0 {
		count = len(req.Tickers)
	}
	if count == 0 {
		WriteError(w, http.StatusBadRequest, "Ticker count is required")
		return
	}

	opts, err := h.resolveOptions(r.Context(), req.syncRequest)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	batchDelay := time.Duration(req.BatchDelayMS) * time.Millisecond
	if req.BatchDelayMS == 0 {
		batchDelay = -1
	}

	WriteJSON(w, http.StatusOK, h.scheduler.Estimate(count, opts, req.Concurrency, batchDelay))
}
