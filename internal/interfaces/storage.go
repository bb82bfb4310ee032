package interfaces

import (
	"context"
	"errors"

	"github.com/gobapps/financepro/internal/models"
)

// Storage sentinel errors
var (
	ErrSnapshotNotFound = errors.New("snapshot not found")
	ErrPresetNotFound   = errors.New("preset not found")
	ErrRatingsNotFound  = errors.New("ratings not found")
	ErrBuiltInPreset    = errors.New("built-in presets cannot be modified")
)

// SnapshotStorage persists versioned ticker snapshots.
//
// Create allocates the next per-ticker version and, when makeCurrent is
// set, flips the current flag off every other snapshot for the ticker.
// Both happen atomically: no interleaving of two Creates may produce
// duplicate versions or two current snapshots.
type SnapshotStorage interface {
	Create(ctx context.Context, snapshot *models.Snapshot, makeCurrent bool) (*models.Snapshot, error)
	Get(ctx context.Context, id string) (*models.Snapshot, error)
	Update(ctx context.Context, snapshot *models.Snapshot) (*models.Snapshot, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.SnapshotFilter) ([]*models.Snapshot, error)
	GetCurrent(ctx context.Context, ticker string) (*models.Snapshot, error)
	SetCurrent(ctx context.Context, id string) error
	CurrentTickers(ctx context.Context) ([]string, error)
	Close() error
}

// PresetStorage persists operator-defined sync option bundles.
// Implementations surface built-in presets on List/Get but refuse
// Put/Delete against them with ErrBuiltInPreset.
type PresetStorage interface {
	Get(ctx context.Context, id string) (*models.Preset, error)
	List(ctx context.Context) ([]*models.Preset, error)
	Put(ctx context.Context, preset *models.Preset) error
	Delete(ctx context.Context, id string) error
}

// RatingStorage holds locally maintained reference ratings per ticker.
// Sync reads from here only; the market-data provider never supplies
// these values.
type RatingStorage interface {
	Get(ctx context.Context, ticker string) (models.ReferenceRatings, error)
	Put(ctx context.Context, ticker string, ratings models.ReferenceRatings) error
	Delete(ctx context.Context, ticker string) error
}
