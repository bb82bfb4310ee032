package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

// SnapshotHandler exposes snapshot storage over HTTP.
type SnapshotHandler struct {
	store  interfaces.SnapshotStorage
	logger arbor.ILogger
}

// NewSnapshotHandler creates a new SnapshotHandler instance
func NewSnapshotHandler(store interfaces.SnapshotStorage, logger arbor.ILogger) *SnapshotHandler {
	return &SnapshotHandler{
		store:  store,
		logger: logger,
	}
}

type createSnapshotRequest struct {
	Snapshot    *models.Snapshot `json:"snapshot"`
	MakeCurrent bool             `json:"make_current"`
}

// CollectionHandler handles GET and POST /api/snapshots
func (h *SnapshotHandler) CollectionHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodPost:
		h.create(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SnapshotHandler) list(w http.ResponseWriter, r *http.Request) {
	filter := models.SnapshotFilter{
		Ticker:      r.URL.Query().Get("ticker"),
		CurrentOnly: r.URL.Query().Get("current_only") == "true",
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}

	snapshots, err := h.store.List(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list snapshots")
		WriteError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}
	WriteJSON(w, http.StatusOK, snapshots)
}

func (h *SnapshotHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSnapshotRequest
	if err := DecodeBody(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Snapshot == nil {
		WriteError(w, http.StatusBadRequest, "Snapshot is required")
		return
	}
	if err := req.Snapshot.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.store.Create(r.Context(), req.Snapshot, req.MakeCurrent)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to create snapshot")
		WriteError(w, http.StatusInternalServerError, "Failed to create snapshot")
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// ItemHandler handles /api/snapshots/{id} and /api/snapshots/{id}/current
func (h *SnapshotHandler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/snapshots/")
	if path == "" {
		WriteError(w, http.StatusBadRequest, "Snapshot id is required")
		return
	}

	if rest, found := strings.CutSuffix(path, "/current"); found {
		if !RequireMethod(w, r, http.MethodPost) {
			return
		}
		h.setCurrent(w, r, rest)
		return
	}

	if strings.Contains(path, "/") {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, path)
	case http.MethodPut:
		h.update(w, r, path)
	case http.MethodDelete:
		h.delete(w, r, path)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *SnapshotHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	snapshot, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrSnapshotNotFound) {
			WriteError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}
	WriteJSON(w, http.StatusOK, snapshot)
}

func (h *SnapshotHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var snapshot models.Snapshot
	if err := DecodeBody(r, &snapshot); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	snapshot.ID = id
	if err := snapshot.Validate(); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.store.Update(r.Context(), &snapshot)
	if err != nil {
		if errors.Is(err, interfaces.ErrSnapshotNotFound) {
			WriteError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to update snapshot")
		return
	}
	WriteJSON(w, http.StatusOK, updated)
}

func (h *SnapshotHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Delete(r.Context(), id); err != nil {
		if errors.Is(err, interfaces.ErrSnapshotNotFound) {
			WriteError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}
	WriteSuccess(w, "Snapshot deleted")
}

func (h *SnapshotHandler) setCurrent(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.SetCurrent(r.Context(), id); err != nil {
		if errors.Is(err, interfaces.ErrSnapshotNotFound) {
			WriteError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to set current snapshot")
		return
	}
	WriteSuccess(w, "Snapshot marked current")
}

// CurrentTickersHandler handles GET /api/snapshots/current-tickers
func (h *SnapshotHandler) CurrentTickersHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	tickers, err := h.store.CurrentTickers(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list current tickers")
		WriteError(w, http.StatusInternalServerError, "Failed to list current tickers")
		return
	}
	WriteJSON(w, http.StatusOK, tickers)
}
