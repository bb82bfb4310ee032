package interfaces

import (
	"context"

	"github.com/gobapps/financepro/internal/models"
)

// MarketDataService fetches and cleans provider data for one ticker.
// The returned bundle only carries the sections the options request.
type MarketDataService interface {
	FetchTickerData(ctx context.Context, ticker string, opts models.SyncOptions) (*models.TickerData, error)
}
