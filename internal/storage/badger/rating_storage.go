package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

// ratingRecord is the stored form of a ticker's reference ratings.
type ratingRecord struct {
	Ticker    string                  `badgerhold:"key"`
	Ratings   models.ReferenceRatings `json:"ratings"`
	UpdatedAt time.Time               `json:"updated_at"`
}

// RatingStorage implements the RatingStorage interface for Badger.
// Ratings are maintained locally (imported or hand-entered); sync only
// reads them.
type RatingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRatingStorage creates a new RatingStorage instance
func NewRatingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RatingStorage {
	return &RatingStorage{
		db:     db,
		logger: logger,
	}
}

// Get retrieves ratings for a ticker.
func (s *RatingStorage) Get(ctx context.Context, ticker string) (models.ReferenceRatings, error) {
	var record ratingRecord
	err := s.db.Store().Get("rating_"+ticker, &record)
	if err == badgerhold.ErrNotFound {
		return models.ReferenceRatings{}, interfaces.ErrRatingsNotFound
	}
	if err != nil {
		return models.ReferenceRatings{}, fmt.Errorf("failed to get ratings: %w", err)
	}
	return record.Ratings, nil
}

// Put inserts or updates ratings for a ticker.
func (s *RatingStorage) Put(ctx context.Context, ticker string, ratings models.ReferenceRatings) error {
	record := ratingRecord{
		Ticker:    ticker,
		Ratings:   ratings,
		UpdatedAt: time.Now(),
	}
	if err := s.db.Store().Upsert("rating_"+ticker, &record); err != nil {
		return fmt.Errorf("failed to store ratings: %w", err)
	}
	return nil
}

// Delete removes ratings for a ticker.
func (s *RatingStorage) Delete(ctx context.Context, ticker string) error {
	err := s.db.Store().Delete("rating_"+ticker, &ratingRecord{})
	if err == badgerhold.ErrNotFound {
		return interfaces.ErrRatingsNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete ratings: %w", err)
	}
	return nil
}
