package badger

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

// PresetStorage implements the PresetStorage interface for Badger.
// Built-in presets are served from memory and never written; operator
// presets persist in the store. A stored preset may not shadow a
// built-in id.
type PresetStorage struct {
	db       *BadgerDB
	logger   arbor.ILogger
	builtIns map[string]*models.Preset
}

// NewPresetStorage creates a new PresetStorage instance
func NewPresetStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PresetStorage {
	builtIns := make(map[string]*models.Preset)
	for _, p := range models.BuiltInPresets() {
		builtIns[p.ID] = p
	}
	return &PresetStorage{
		db:       db,
		logger:   logger,
		builtIns: builtIns,
	}
}

func (s *PresetStorage) normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Get retrieves a preset by id, checking built-ins first.
func (s *PresetStorage) Get(ctx context.Context, id string) (*models.Preset, error) {
	normalizedID := s.normalizeID(id)
	if p, ok := s.builtIns[normalizedID]; ok {
		clone := *p
		return &clone, nil
	}

	var preset models.Preset
	err := s.db.Store().Get(normalizedID, &preset)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrPresetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preset: %w", err)
	}
	return &preset, nil
}

// List returns built-in presets followed by operator presets sorted by
// name.
func (s *PresetStorage) List(ctx context.Context) ([]*models.Preset, error) {
	var stored []models.Preset
	err := s.db.Store().Find(&stored, badgerhold.Where("ID").Ne("").SortBy("Name"))
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	builtIns := make([]*models.Preset, 0, len(s.builtIns))
	for _, p := range s.builtIns {
		clone := *p
		builtIns = append(builtIns, &clone)
	}
	sort.Slice(builtIns, func(i, j int) bool { return builtIns[i].Name < builtIns[j].Name })

	result := builtIns
	for i := range stored {
		result = append(result, &stored[i])
	}
	return result, nil
}

// Put inserts or updates an operator preset.
func (s *PresetStorage) Put(ctx context.Context, preset *models.Preset) error {
	normalizedID := s.normalizeID(preset.ID)
	if normalizedID == "" {
		return fmt.Errorf("preset id is empty")
	}
	if _, ok := s.builtIns[normalizedID]; ok {
		return interfaces.ErrBuiltInPreset
	}
	if err := preset.Options.Validate(); err != nil {
		return fmt.Errorf("preset %s has invalid options: %w", normalizedID, err)
	}

	now := time.Now()
	stored := *preset
	stored.ID = normalizedID
	stored.BuiltIn = false
	stored.UpdatedAt = now
	stored.CreatedAt = now

	// Preserve CreatedAt on update
	var existing models.Preset
	if err := s.db.Store().Get(normalizedID, &existing); err == nil {
		stored.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Store().Upsert(normalizedID, &stored); err != nil {
		return fmt.Errorf("failed to store preset: %w", err)
	}

	s.logger.Debug().Str("preset_id", normalizedID).Msg("Preset stored")
	return nil
}

// Delete removes an operator preset.
func (s *PresetStorage) Delete(ctx context.Context, id string) error {
	normalizedID := s.normalizeID(id)
	if _, ok := s.builtIns[normalizedID]; ok {
		return interfaces.ErrBuiltInPreset
	}

	err := s.db.Store().Delete(normalizedID, &models.Preset{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrPresetNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete preset: %w", err)
	}
	return nil
}
