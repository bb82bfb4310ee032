// Package sync implements the ticker data synchronization engine:
// fetching provider data, merging it with operator-maintained state,
// deriving valuation assumptions and writing versioned snapshots.
package sync

import (
	"math"

	"github.com/gobapps/financepro/internal/models"
)

// Clamp bounds for derived assumption values. Derived values outside
// these ranges are noise from tiny denominators, not signal.
const (
	growthMin = 0.0
	growthMax = 20.0

	targetPEMin      = 1.0
	targetPEMax      = 100.0
	targetPEFallback = 15.0

	targetPCFMin      = 1.0
	targetPCFMax      = 100.0
	targetPCFFallback = 10.0

	targetPBVMin      = 0.5
	targetPBVMax      = 50.0
	targetPBVFallback = 6.0

	targetYieldMin      = 0.0
	targetYieldMax      = 20.0
	targetYieldFallback = 2.0
)

// DefaultWindowYears is the historical window for growth and target
// derivation.
const DefaultWindowYears = 5

// CAGR returns the compound annual growth rate as a percentage.
// Non-positive endpoints or a non-positive year span return 0: a sign
// flip has no meaningful compound rate.
func CAGR(start, end float64, years int) float64 {
	if start <= 0 || end <= 0 || years <= 0 {
		return 0
	}
	return (math.Pow(end/start, 1.0/float64(years)) - 1) * 100
}

// Derived holds assumption values computed from an annual series.
// Fields only contains entries the series could actually support;
// callers decide how an absent entry falls back.
type Derived struct {
	Fields   map[string]float64
	BaseYear int
}

// Calculator derives valuation assumptions from an annual series.
type Calculator struct {
	windowYears int
}

// NewCalculator creates a Calculator with the given derivation window.
// Values below 2 fall back to the default window.
func NewCalculator(windowYears int) *Calculator {
	if windowYears < 2 {
		windowYears = DefaultWindowYears
	}
	return &Calculator{windowYears: windowYears}
}

// window returns the trailing derivation window, oldest first,
// excluding estimate rows.
func (c *Calculator) window(records []models.AnnualRecord) []models.AnnualRecord {
	actuals := make([]models.AnnualRecord, 0, len(records))
	for _, r := range records {
		if !r.IsEstimate {
			actuals = append(actuals, r)
		}
	}
	models.SortAnnualData(actuals)
	if len(actuals) > c.windowYears {
		actuals = actuals[len(actuals)-c.windowYears:]
	}
	return actuals
}

// GrowthRate computes the clamped CAGR of a metric over the window.
// It needs two positive endpoint values at least one year apart.
func (c *Calculator) GrowthRate(records []models.AnnualRecord, metric string) (float64, bool) {
	window := c.window(records)

	var first, last models.AnnualRecord
	haveFirst := false
	for _, r := range window {
		v, ok := r.MetricValue(metric)
		if !ok || v <= 0 {
			continue
		}
		if !haveFirst {
			first = r
			haveFirst = true
		}
		last = r
	}
	if !haveFirst || last.Year <= first.Year {
		return 0, false
	}

	startVal, _ := first.MetricValue(metric)
	endVal, _ := last.MetricValue(metric)
	rate := CAGR(startVal, endVal, last.Year-first.Year)
	return clamp(rate, growthMin, growthMax), true
}

// TargetMultiple computes the average historical price multiple for a
// metric over the window: mid-price divided by the per-share value.
// For dividends it returns the average yield percentage instead.
func (c *Calculator) TargetMultiple(records []models.AnnualRecord, metric string) (float64, bool) {
	window := c.window(records)

	var sum float64
	count := 0
	for _, r := range window {
		if r.PriceHigh <= 0 || r.PriceLow <= 0 {
			continue
		}
		mid := (r.PriceHigh + r.PriceLow) / 2
		v, ok := r.MetricValue(metric)
		if !ok || v <= 0 || mid <= 0 {
			continue
		}
		if metric == models.MetricDividend {
			sum += v / mid * 100
		} else {
			sum += mid / v
		}
		count++
	}
	if count == 0 {
		return 0, false
	}

	avg := sum / float64(count)
	switch metric {
	case models.MetricEPS:
		return clamp(avg, targetPEMin, targetPEMax), true
	case models.MetricCashFlow:
		return clamp(avg, targetPCFMin, targetPCFMax), true
	case models.MetricBookValue:
		return clamp(avg, targetPBVMin, targetPBVMax), true
	case models.MetricDividend:
		return clamp(avg, targetYieldMin, targetYieldMax), true
	}
	return 0, false
}

// BaseYear returns the latest non-estimate year with reported earnings,
// falling back to the latest year in the series.
func (c *Calculator) BaseYear(records []models.AnnualRecord) int {
	base := 0
	latest := 0
	for _, r := range records {
		if r.Year > latest {
			latest = r.Year
		}
		if !r.IsEstimate && r.EarningsPerShare != 0 && r.Year > base {
			base = r.Year
		}
	}
	if base == 0 {
		return latest
	}
	return base
}

// Derive computes every assumption value the series supports. Target
// multiples always produce a value: when history is unusable the
// metric's conventional fallback applies. Growth rates are omitted
// when the series cannot support them.
func (c *Calculator) Derive(records []models.AnnualRecord) Derived {
	fields := make(map[string]float64)

	growthFields := map[string]string{
		models.MetricEPS:       models.FieldGrowthRateEPS,
		models.MetricCashFlow:  models.FieldGrowthRateCashFlow,
		models.MetricBookValue: models.FieldGrowthRateBookValue,
		models.MetricDividend:  models.FieldGrowthRateDividend,
	}
	for metric, field := range growthFields {
		if rate, ok := c.GrowthRate(records, metric); ok {
			fields[field] = rate
		}
	}

	targetFields := map[string]string{
		models.MetricEPS:       models.FieldTargetPE,
		models.MetricCashFlow:  models.FieldTargetPCF,
		models.MetricBookValue: models.FieldTargetPBV,
		models.MetricDividend:  models.FieldTargetYield,
	}
	fallbacks := map[string]float64{
		models.FieldTargetPE:    targetPEFallback,
		models.FieldTargetPCF:   targetPCFFallback,
		models.FieldTargetPBV:   targetPBVFallback,
		models.FieldTargetYield: targetYieldFallback,
	}
	for metric, field := range targetFields {
		if multiple, ok := c.TargetMultiple(records, metric); ok {
			fields[field] = multiple
		} else {
			fields[field] = fallbacks[field]
		}
	}

	return Derived{
		Fields:   fields,
		BaseYear: c.BaseYear(records),
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
