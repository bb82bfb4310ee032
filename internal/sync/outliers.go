package sync

import (
	"fmt"

	"github.com/gobapps/financepro/internal/models"
)

// Default outlier thresholds: an implied price more than 10x or less
// than 0.1x the market price marks the metric as unusable.
const (
	DefaultOutlierMaxMultiple = 10.0
	DefaultOutlierMinMultiple = 0.1
)

// OutlierResult is the outlier verdict for one valuation metric.
type OutlierResult struct {
	Metric       string  `json:"metric"`
	ImpliedPrice float64 `json:"implied_price"`
	Excluded     bool    `json:"excluded"`
	Reason       string  `json:"reason,omitempty"`
}

// OutlierDetector flags valuation metrics whose implied price is so far
// from the market price that including them would distort the
// composite valuation.
type OutlierDetector struct {
	maxMultiple float64
	minMultiple float64
}

// NewOutlierDetector creates a detector with the given thresholds.
// Non-positive or inverted thresholds fall back to the defaults.
func NewOutlierDetector(maxMultiple, minMultiple float64) *OutlierDetector {
	if maxMultiple <= 0 || minMultiple <= 0 || maxMultiple <= minMultiple {
		maxMultiple = DefaultOutlierMaxMultiple
		minMultiple = DefaultOutlierMinMultiple
	}
	return &OutlierDetector{maxMultiple: maxMultiple, minMultiple: minMultiple}
}

// trailingValue returns the latest reported (non-estimate) value for a
// metric and the count of usable positive data points.
func trailingValue(records []models.AnnualRecord, metric string) (value float64, year, usable int) {
	for _, r := range records {
		if r.IsEstimate {
			continue
		}
		v, ok := r.MetricValue(metric)
		if !ok {
			continue
		}
		if v > 0 {
			usable++
		}
		if r.Year > year {
			year = r.Year
			value = v
		}
	}
	return value, year, usable
}

// Check evaluates every metric against the assumptions' targets and the
// current market price. Metrics that cannot produce a sane implied
// price come back excluded with the reason.
func (d *OutlierDetector) Check(records []models.AnnualRecord, a *models.Assumptions) []OutlierResult {
	results := make([]OutlierResult, 0, 4)
	for _, metric := range models.AllMetrics() {
		results = append(results, d.checkMetric(records, a, metric))
	}
	return results
}

func (d *OutlierDetector) checkMetric(records []models.AnnualRecord, a *models.Assumptions, metric string) OutlierResult {
	result := OutlierResult{Metric: metric}

	trailing, _, usable := trailingValue(records, metric)

	if usable < 2 {
		result.Excluded = true
		result.Reason = "insufficient data"
		return result
	}
	if trailing <= 0 {
		result.Excluded = true
		result.Reason = fmt.Sprintf("non-positive trailing value %.2f", trailing)
		return result
	}

	var implied float64
	switch metric {
	case models.MetricEPS:
		implied = trailing * a.TargetPE
	case models.MetricCashFlow:
		implied = trailing * a.TargetPCF
	case models.MetricBookValue:
		implied = trailing * a.TargetPBV
	case models.MetricDividend:
		if a.TargetYield <= 0 {
			result.Excluded = true
			result.Reason = "no target yield"
			return result
		}
		dividend := a.CurrentDividend
		if dividend <= 0 {
			dividend = trailing
		}
		implied = dividend / (a.TargetYield / 100)
	}
	result.ImpliedPrice = implied

	if implied <= 0 {
		result.Excluded = true
		result.Reason = fmt.Sprintf("negative implied price %.2f", implied)
		return result
	}

	if a.CurrentPrice > 0 {
		ratio := implied / a.CurrentPrice
		if ratio > d.maxMultiple {
			result.Excluded = true
			result.Reason = fmt.Sprintf("implied price %.2f is %.1fx the market price", implied, ratio)
		} else if ratio < d.minMultiple {
			result.Excluded = true
			result.Reason = fmt.Sprintf("implied price %.2f is %.2fx the market price", implied, ratio)
		}
	}

	return result
}
