// Package marketdata assembles raw FMP payloads into the per-ticker
// bundle the sync engine merges: cleaned annual rows, company profile
// and current market values.
package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/gobapps/financepro/internal/fmp"
	"github.com/gobapps/financepro/internal/interfaces"
	"github.com/gobapps/financepro/internal/models"
)

// Service implements MarketDataService over the FMP client.
type Service struct {
	client *fmp.Client
	years  int
	logger arbor.ILogger
}

// NewService creates a market-data service keeping the given number of
// years of history.
func NewService(client *fmp.Client, yearsOfHistory int, logger arbor.ILogger) interfaces.MarketDataService {
	if yearsOfHistory < 1 {
		yearsOfHistory = 15
	}
	return &Service{
		client: client,
		years:  yearsOfHistory,
		logger: logger,
	}
}

// FetchTickerData fetches the sections the options request and cleans
// them into annual records.
func (s *Service) FetchTickerData(ctx context.Context, ticker string, opts models.SyncOptions) (*models.TickerData, error) {
	data := &models.TickerData{Ticker: ticker}

	quote, err := s.client.GetQuote(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	data.CurrentPrice = quote.Price
	data.TTMEps = quote.EPS

	if opts.SyncInfo {
		profile, err := s.client.GetProfile(ctx, ticker)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch profile: %w", err)
		}
		data.Info = &models.CompanyInfo{
			Symbol:    ticker,
			Name:      profile.CompanyName,
			Sector:    profile.Sector,
			Industry:  profile.Industry,
			Exchange:  profile.ExchangeShortName,
			Currency:  profile.Currency,
			Country:   profile.Country,
			Website:   profile.Website,
			LogoURL:   profile.Image,
			Beta:      profile.Beta,
			MarketCap: profile.MarketCap,
		}
	}

	if opts.SyncSeries {
		annual, warnings, err := s.fetchAnnualSeries(ctx, ticker)
		if err != nil {
			return nil, err
		}
		data.Annual = annual
		data.Warnings = warnings
	}

	return data, nil
}

// fetchAnnualSeries pulls statements, metrics, prices and dividends and
// folds them into one row per fiscal year.
func (s *Service) fetchAnnualSeries(ctx context.Context, ticker string) ([]models.AnnualRecord, []string, error) {
	statements, err := s.client.GetIncomeStatements(ctx, ticker, fmp.WithLimit(s.years))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch income statements: %w", err)
	}
	metrics, err := s.client.GetKeyMetrics(ctx, ticker, fmp.WithLimit(s.years))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch key metrics: %w", err)
	}

	now := time.Now()
	from := time.Date(now.Year()-s.years, 1, 1, 0, 0, 0, 0, time.UTC)
	prices, err := s.client.GetHistoricalPrices(ctx, ticker, fmp.WithDateRange(from, now))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch price history: %w", err)
	}
	dividends, err := s.client.GetDividends(ctx, ticker)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch dividend history: %w", err)
	}

	rows := make(map[int]*models.AnnualRecord)
	row := func(year int) *models.AnnualRecord {
		if r, ok := rows[year]; ok {
			return r
		}
		r := &models.AnnualRecord{
			Year:        year,
			AutoFetched: true,
			DataSource:  models.DataSourceVerified,
		}
		rows[year] = r
		return r
	}

	for _, st := range statements {
		year := fiscalYear(st.CalendarYear, st.Date)
		if year == 0 {
			continue
		}
		r := row(year)
		r.EarningsPerShare = st.EPS
		if r.EarningsPerShare == 0 && st.EPSDiluted != 0 {
			r.EarningsPerShare = st.EPSDiluted
			r.DataSource = models.DataSourceAdjusted
		}
	}

	for _, km := range metrics {
		year := fiscalYear(km.CalendarYear, km.Date)
		if year == 0 {
			continue
		}
		r := row(year)
		r.CashFlowPerShare = km.OperatingCashFlowPerShare
		if r.CashFlowPerShare == 0 && km.FreeCashFlowPerShare != 0 {
			r.CashFlowPerShare = km.FreeCashFlowPerShare
			r.DataSource = models.DataSourceAdjusted
		}
		r.BookValuePerShare = km.BookValuePerShare
	}

	// Yearly price range from daily bars
	for _, p := range prices.Historical {
		year := yearOf(p.Date)
		if year == 0 {
			continue
		}
		r, ok := rows[year]
		if !ok {
			continue
		}
		high, low := p.High, p.Low
		if high == 0 && p.Close != 0 {
			high = p.Close
			r.DataSource = models.DataSourceAdjusted
		}
		if low == 0 && p.Close != 0 {
			low = p.Close
			r.DataSource = models.DataSourceAdjusted
		}
		if high > r.PriceHigh {
			r.PriceHigh = high
		}
		if low > 0 && (r.PriceLow == 0 || low < r.PriceLow) {
			r.PriceLow = low
		}
	}

	// Dividends summed per year
	for _, d := range dividends.Historical {
		year := yearOf(d.Date)
		if year == 0 {
			continue
		}
		r, ok := rows[year]
		if !ok {
			continue
		}
		amount := d.AdjDividend
		if amount == 0 {
			amount = d.Dividend
		}
		r.DividendPerShare += amount
	}

	var warnings []string
	currentYear := now.Year()
	cutoff := currentYear - s.years

	result := make([]models.AnnualRecord, 0, len(rows))
	for year, r := range rows {
		if year < cutoff {
			continue
		}
		// The running fiscal year is incomplete
		if year >= currentYear {
			r.IsEstimate = true
		}
		if r.PriceHigh == 0 || r.PriceLow == 0 {
			warnings = append(warnings, fmt.Sprintf("no price range for %d", year))
		}
		result = append(result, *r)
	}
	models.SortAnnualData(result)

	s.logger.Debug().
		Str("ticker", ticker).
		Int("years", len(result)).
		Msg("Annual series assembled")

	return result, warnings, nil
}

// fiscalYear resolves the fiscal year label, preferring the provider's
// calendar year over the period end date.
func fiscalYear(calendarYear, date string) int {
	if y, err := strconv.Atoi(calendarYear); err == nil && y > 0 {
		return y
	}
	return yearOf(date)
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}
