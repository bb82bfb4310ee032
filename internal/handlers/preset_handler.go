package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

// PresetHandler exposes sync option presets over HTTP.
type PresetHandler struct {
	store  interfaces.PresetStorage
	logger arbor.ILogger
}

// NewPresetHandler creates a new PresetHandler instance
func NewPresetHandler(store interfaces.PresetStorage, logger arbor.ILogger) *PresetHandler {
	return &PresetHandler{
		store:  store,
		logger: logger,
	}
}

// ListHandler handles GET /api/presets
func (h *PresetHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	presets, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list presets")
		WriteError(w, http.StatusInternalServerError, "Failed to list presets")
		return
	}
	WriteJSON(w, http.StatusOK, presets)
}

// ItemHandler handles GET/PUT/DELETE /api/presets/{id}
func (h *PresetHandler) ItemHandler(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/presets/")
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, http.StatusBadRequest, "Preset id is required")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.put(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *PresetHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	preset, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, interfaces.ErrPresetNotFound) {
			WriteError(w, http.StatusNotFound, "Preset not found")
			return
		}
		WriteError(w, http.StatusInternalServerError, "Failed to get preset")
		return
	}
	WriteJSON(w, http.StatusOK, preset)
}

func (h *PresetHandler) put(w http.ResponseWriter, r *http.Request, id string) {
	var preset models.Preset
	if err := DecodeBody(r, &preset); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	preset.ID = id

	if err := h.store.Put(r.Context(), &preset); err != nil {
		if errors.Is(err, interfaces.ErrBuiltInPreset) {
			WriteError(w, http.StatusForbidden, "Built-in presets cannot be modified")
			return
		}
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, preset)
}

func (h *PresetHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, interfaces.ErrBuiltInPreset):
			WriteError(w, http.StatusForbidden, "Built-in presets cannot be deleted")
		case errors.Is(err, interfaces.ErrPresetNotFound):
			WriteError(w, http.StatusNotFound, "Preset not found")
		default:
			WriteError(w, http.StatusInternalServerError, "Failed to delete preset")
		}
		return
	}
	WriteSuccess(w, "Preset deleted")
}
