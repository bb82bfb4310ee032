package sync

import (
	"fmt"

	"github.com/gobapps/financepro/internal/models"
)

// metricLabels are the human-readable names used in warnings.
var metricLabels = map[string]string{
	models.MetricEPS:       "earnings per share",
	models.MetricCashFlow:  "cash flow per share",
	models.MetricBookValue: "book value per share",
	models.MetricDividend:  "dividend per share",
}

// QualityWarnings inspects a merged series for gaps worth flagging to
// the operator. Warnings are advisory; they never block a sync.
func QualityWarnings(records []models.AnnualRecord) []string {
	var warnings []string

	actual := 0
	zeros := map[string]int{}
	for _, r := range records {
		if r.IsEstimate {
			continue
		}
		actual++
		for _, metric := range models.AllMetrics() {
			if v, ok := r.MetricValue(metric); ok && v == 0 {
				zeros[metric]++
			}
		}
	}
	if actual == 0 {
		return []string{"series has no reported years"}
	}

	for _, metric := range models.AllMetrics() {
		// Zero dividends usually mean the company pays none
		if metric == models.MetricDividend {
			continue
		}
		if n := zeros[metric]; n > 0 {
			warnings = append(warnings, fmt.Sprintf("%s is zero in %d of %d reported years", metricLabels[metric], n, actual))
		}
	}

	missingPrices := 0
	for _, r := range records {
		if !r.IsEstimate && (r.PriceHigh == 0 || r.PriceLow == 0) {
			missingPrices++
		}
	}
	if missingPrices > 0 {
		warnings = append(warnings, fmt.Sprintf("price range missing in %d of %d reported years", missingPrices, actual))
	}

	return warnings
}

// EPSConsistencyWarning compares the latest annual EPS against the
// provider's trailing-12-month figure. A gap beyond the tolerance gets
// flagged; the annual-statement value stays authoritative either way.
func EPSConsistencyWarning(records []models.AnnualRecord, ttmEps, tolerancePct float64) string {
	if ttmEps == 0 || tolerancePct <= 0 {
		return ""
	}
	annual, year, _ := trailingValue(records, models.MetricEPS)
	if annual == 0 {
		return ""
	}
	diff := (ttmEps - annual) / annual * 100
	if diff < 0 {
		diff = -diff
	}
	if diff > tolerancePct {
		return fmt.Sprintf("trailing-12-month EPS %.2f differs %.1f%% from %d annual EPS %.2f; keeping the annual value", ttmEps, diff, year, annual)
	}
	return ""
}
