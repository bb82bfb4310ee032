package badger

import (
	"context"
	"fmt"
	"sort"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/gobapps/financepro/internal/common"
	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

// SnapshotStorage implements the SnapshotStorage interface for Badger.
// Version allocation and the single-current flip run inside one Badger
// transaction so a crash can never leave a ticker with two current
// snapshots or a duplicate version.
type SnapshotStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewSnapshotStorage creates a new SnapshotStorage instance
func NewSnapshotStorage(db *BadgerDB, logger arbor.ILogger) interfaces.SnapshotStorage {
	return &SnapshotStorage{
		db:     db,
		logger: logger,
	}
}

// Create stores a new snapshot with the next per-ticker version.
func (s *SnapshotStorage) Create(ctx context.Context, snapshot *models.Snapshot, makeCurrent bool) (*models.Snapshot, error) {
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}

	snap := *snapshot
	if snap.ID == "" {
		snap.ID = common.NewSnapshotID()
	}
	now := time.Now()
	snap.CreatedAt = now
	snap.UpdatedAt = now
	snap.IsCurrent = makeCurrent

	err := s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		var existing []models.Snapshot
		err := s.db.Store().TxFind(tx, &existing, badgerhold.Where("Ticker").Eq(snap.Ticker))
		if err != nil && err != badgerhold.ErrNotFound {
			return fmt.Errorf("failed to load snapshots for version allocation: %w", err)
		}

		maxVersion := 0
		for _, e := range existing {
			if e.Version > maxVersion {
				maxVersion = e.Version
			}
		}
		snap.Version = maxVersion + 1

		if makeCurrent {
			err := s.db.Store().TxUpdateMatching(tx, &models.Snapshot{},
				badgerhold.Where("Ticker").Eq(snap.Ticker).And("IsCurrent").Eq(true),
				func(record interface{}) error {
					other, ok := record.(*models.Snapshot)
					if !ok {
						return fmt.Errorf("unexpected record type %T", record)
					}
					other.IsCurrent = false
					other.UpdatedAt = now
					return nil
				})
			if err != nil {
				return fmt.Errorf("failed to unmark previous current snapshot: %w", err)
			}
		}

		return s.db.Store().TxInsert(tx, snap.ID, &snap)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	s.logger.Debug().
		Str("ticker", snap.Ticker).
		Str("snapshot_id", snap.ID).
		Int("version", snap.Version).
		Bool("current", snap.IsCurrent).
		Msg("Snapshot created")

	return &snap, nil
}

// Get retrieves a snapshot by id.
func (s *SnapshotStorage) Get(ctx context.Context, id string) (*models.Snapshot, error) {
	var snap models.Snapshot
	err := s.db.Store().Get(id, &snap)
	if err == badgerhold.ErrNotFound {
		return nil, interfaces.ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return &snap, nil
}

// Update replaces a snapshot's mutable fields. Ticker, version and
// creation time are immutable. Marking the snapshot current unmarks
// every other snapshot for the ticker in the same transaction.
func (s *SnapshotStorage) Update(ctx context.Context, snapshot *models.Snapshot) (*models.Snapshot, error) {
	if snapshot.ID == "" {
		return nil, interfaces.ErrSnapshotNotFound
	}

	now := time.Now()
	var updated models.Snapshot

	err := s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		var existing models.Snapshot
		err := s.db.Store().TxGet(tx, snapshot.ID, &existing)
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrSnapshotNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}

		updated = *snapshot
		updated.Ticker = existing.Ticker
		updated.Version = existing.Version
		updated.CreatedAt = existing.CreatedAt
		updated.UpdatedAt = now

		if updated.IsCurrent && !existing.IsCurrent {
			err := s.db.Store().TxUpdateMatching(tx, &models.Snapshot{},
				badgerhold.Where("Ticker").Eq(existing.Ticker).And("IsCurrent").Eq(true),
				func(record interface{}) error {
					other, ok := record.(*models.Snapshot)
					if !ok {
						return fmt.Errorf("unexpected record type %T", record)
					}
					other.IsCurrent = false
					other.UpdatedAt = now
					return nil
				})
			if err != nil {
				return fmt.Errorf("failed to unmark previous current snapshot: %w", err)
			}
		}

		return s.db.Store().TxUpdate(tx, updated.ID, &updated)
	})
	if err != nil {
		if err == interfaces.ErrSnapshotNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update snapshot: %w", err)
	}

	return &updated, nil
}

// Delete removes a snapshot.
func (s *SnapshotStorage) Delete(ctx context.Context, id string) error {
	err := s.db.Store().Delete(id, &models.Snapshot{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrSnapshotNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// List retrieves snapshots newest-first, narrowed by the filter.
func (s *SnapshotStorage) List(ctx context.Context, filter models.SnapshotFilter) ([]*models.Snapshot, error) {
	var query *badgerhold.Query
	if filter.Ticker != "" {
		query = badgerhold.Where("Ticker").Eq(filter.Ticker)
	} else {
		query = badgerhold.Where("Ticker").Ne("")
	}
	if filter.CurrentOnly {
		query = query.And("IsCurrent").Eq(true)
	}
	query = query.SortBy("CreatedAt").Reverse()
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var found []models.Snapshot
	if err := s.db.Store().Find(&found, query); err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	result := make([]*models.Snapshot, len(found))
	for i := range found {
		result[i] = &found[i]
	}
	return result, nil
}

// GetCurrent retrieves the current snapshot for a ticker.
func (s *SnapshotStorage) GetCurrent(ctx context.Context, ticker string) (*models.Snapshot, error) {
	var found []models.Snapshot
	err := s.db.Store().Find(&found, badgerhold.Where("Ticker").Eq(ticker).And("IsCurrent").Eq(true))
	if err != nil {
		return nil, fmt.Errorf("failed to get current snapshot: %w", err)
	}
	if len(found) == 0 {
		return nil, interfaces.ErrSnapshotNotFound
	}
	return &found[0], nil
}

// SetCurrent marks a snapshot current, unmarking every other snapshot
// for the same ticker in the same transaction.
func (s *SnapshotStorage) SetCurrent(ctx context.Context, id string) error {
	now := time.Now()

	err := s.db.Store().Badger().Update(func(tx *badgerdb.Txn) error {
		var snap models.Snapshot
		err := s.db.Store().TxGet(tx, id, &snap)
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrSnapshotNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}

		err = s.db.Store().TxUpdateMatching(tx, &models.Snapshot{},
			badgerhold.Where("Ticker").Eq(snap.Ticker).And("IsCurrent").Eq(true),
			func(record interface{}) error {
				other, ok := record.(*models.Snapshot)
				if !ok {
					return fmt.Errorf("unexpected record type %T", record)
				}
				other.IsCurrent = false
				other.UpdatedAt = now
				return nil
			})
		if err != nil {
			return fmt.Errorf("failed to unmark previous current snapshot: %w", err)
		}

		snap.IsCurrent = true
		snap.UpdatedAt = now
		return s.db.Store().TxUpdate(tx, snap.ID, &snap)
	})
	if err != nil {
		if err == interfaces.ErrSnapshotNotFound {
			return err
		}
		return fmt.Errorf("failed to set current snapshot: %w", err)
	}
	return nil
}

// CurrentTickers returns the distinct tickers that have a current
// snapshot, sorted alphabetically.
func (s *SnapshotStorage) CurrentTickers(ctx context.Context) ([]string, error) {
	var found []models.Snapshot
	err := s.db.Store().Find(&found, badgerhold.Where("IsCurrent").Eq(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list current snapshots: %w", err)
	}

	seen := make(map[string]bool, len(found))
	tickers := make([]string, 0, len(found))
	for _, snap := range found {
		if !seen[snap.Ticker] {
			seen[snap.Ticker] = true
			tickers = append(tickers, snap.Ticker)
		}
	}
	sort.Strings(tickers)
	return tickers, nil
}

// Close is a no-op; the shared connection is closed by the app.
func (s *SnapshotStorage) Close() error {
	return nil
}
