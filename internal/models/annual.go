package models

import "sort"

// Data source labels recorded against fetched annual rows.
const (
	DataSourceVerified   = "fmp-verified" // High/low came straight from the provider
	DataSourceAdjusted   = "fmp-adjusted" // Provider value adjusted during cleaning
	DataSourceManual     = "manual"       // Operator-entered row
	DataSourceCalculated = "calculated"   // Derived from other fields
)

// AnnualRecord holds one fiscal year of per-share fundamentals for a ticker.
type AnnualRecord struct {
	Year              int     `json:"year" badgerhold:"index"`
	EarningsPerShare  float64 `json:"earnings_per_share"`
	CashFlowPerShare  float64 `json:"cash_flow_per_share"`
	BookValuePerShare float64 `json:"book_value_per_share"`
	DividendPerShare  float64 `json:"dividend_per_share"`
	PriceHigh         float64 `json:"price_high"`
	PriceLow          float64 `json:"price_low"`
	IsEstimate        bool    `json:"is_estimate,omitempty"`
	AutoFetched       bool    `json:"auto_fetched"`
	DataSource        string  `json:"data_source,omitempty"`
}

// MetricValue returns the named per-share metric from the record.
// Unknown metric names return 0, false.
func (r AnnualRecord) MetricValue(metric string) (float64, bool) {
	switch metric {
	case MetricEPS:
		return r.EarningsPerShare, true
	case MetricCashFlow:
		return r.CashFlowPerShare, true
	case MetricBookValue:
		return r.BookValuePerShare, true
	case MetricDividend:
		return r.DividendPerShare, true
	default:
		return 0, false
	}
}

// Metric names used for growth rates, exclusions and outlier checks.
const (
	MetricEPS       = "eps"
	MetricCashFlow  = "cash_flow"
	MetricBookValue = "book_value"
	MetricDividend  = "dividend"
)

// AllMetrics lists the valuation metrics in display order.
func AllMetrics() []string {
	return []string{MetricEPS, MetricCashFlow, MetricBookValue, MetricDividend}
}

// SortAnnualData orders records ascending by year in place.
func SortAnnualData(records []AnnualRecord) {
	sort.Slice(records, func(i, j int) bool {
		return records[i].Year < records[j].Year
	})
}

// LatestYear returns the highest year present, or 0 for an empty series.
func LatestYear(records []AnnualRecord) int {
	latest := 0
	for _, r := range records {
		if r.Year > latest {
			latest = r.Year
		}
	}
	return latest
}
