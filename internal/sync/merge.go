package sync

import (
	"github.com/gobapps/financepro/internal/models"
)

// SeriesStats summarizes what a series merge changed.
type SeriesStats struct {
	YearsAdded     int
	FieldsReplaced int
	SourceCounts   map[string]int
}

// ApplySeriesPlan executes a plan against the two series and returns
// the merged series sorted by year.
func ApplySeriesPlan(existing, incoming []models.AnnualRecord, plan []RowPlan) ([]models.AnnualRecord, SeriesStats) {
	existingByYear := make(map[int]models.AnnualRecord, len(existing))
	for _, r := range existing {
		existingByYear[r.Year] = r
	}
	incomingByYear := make(map[int]models.AnnualRecord, len(incoming))
	for _, r := range incoming {
		incomingByYear[r.Year] = r
	}

	stats := SeriesStats{SourceCounts: make(map[string]int)}
	merged := make([]models.AnnualRecord, 0, len(plan))

	for _, p := range plan {
		switch p.Action {
		case ActionKeep:
			merged = append(merged, existingByYear[p.Year])

		case ActionTake:
			row := incomingByYear[p.Year]
			row.AutoFetched = true
			if row.DataSource == "" {
				row.DataSource = models.DataSourceVerified
			}
			if prev, ok := existingByYear[p.Year]; ok {
				stats.FieldsReplaced += countChangedFields(prev, row)
			}
			merged = append(merged, row)

		case ActionFill:
			row := existingByYear[p.Year]
			inc := incomingByYear[p.Year]
			stats.FieldsReplaced += fillZeroFields(&row, inc)
			merged = append(merged, row)

		case ActionAppend:
			row := incomingByYear[p.Year]
			row.AutoFetched = true
			if row.DataSource == "" {
				row.DataSource = models.DataSourceVerified
			}
			merged = append(merged, row)
			stats.YearsAdded++
		}
	}

	models.SortAnnualData(merged)
	for _, r := range merged {
		source := r.DataSource
		if source == "" {
			source = models.DataSourceManual
		}
		stats.SourceCounts[source]++
	}
	return merged, stats
}

// countChangedFields counts numeric fields whose value differs between
// the old and new row.
func countChangedFields(old, new models.AnnualRecord) int {
	changed := 0
	pairs := [][2]float64{
		{old.EarningsPerShare, new.EarningsPerShare},
		{old.CashFlowPerShare, new.CashFlowPerShare},
		{old.BookValuePerShare, new.BookValuePerShare},
		{old.DividendPerShare, new.DividendPerShare},
		{old.PriceHigh, new.PriceHigh},
		{old.PriceLow, new.PriceLow},
	}
	for _, p := range pairs {
		if p[0] != p[1] {
			changed++
		}
	}
	return changed
}

// fillZeroFields copies incoming values into zero-valued fields only,
// returning how many fields were filled.
func fillZeroFields(row *models.AnnualRecord, inc models.AnnualRecord) int {
	filled := 0
	fill := func(dst *float64, src float64) {
		if *dst == 0 && src != 0 {
			*dst = src
			filled++
		}
	}
	fill(&row.EarningsPerShare, inc.EarningsPerShare)
	fill(&row.CashFlowPerShare, inc.CashFlowPerShare)
	fill(&row.BookValuePerShare, inc.BookValuePerShare)
	fill(&row.DividendPerShare, inc.DividendPerShare)
	fill(&row.PriceHigh, inc.PriceHigh)
	fill(&row.PriceLow, inc.PriceLow)
	return filled
}

// MergeAssumptions folds derived values into the existing assumptions
// under the options' assumption mode. Operator-edited fields survive
// unless replace-manual is requested. Returns the merged assumptions
// and how many fields changed.
func MergeAssumptions(existing *models.Assumptions, derived Derived, opts models.SyncOptions) (*models.Assumptions, int) {
	var merged *models.Assumptions
	if existing != nil {
		merged = existing.Clone()
	} else {
		merged = models.NewAssumptions()
	}

	if opts.AssumptionMode == models.AssumptionReplaceManual {
		merged.ManualFields = make(map[string]bool)
	}

	replaced := 0
	set := func(field string, dst *float64, value float64) {
		if merged.IsManual(field) {
			return
		}
		if *dst != value {
			*dst = value
			replaced++
		}
	}

	if v, ok := derived.Fields[models.FieldGrowthRateEPS]; ok {
		set(models.FieldGrowthRateEPS, &merged.GrowthRateEPS, v)
	}
	if v, ok := derived.Fields[models.FieldGrowthRateCashFlow]; ok {
		set(models.FieldGrowthRateCashFlow, &merged.GrowthRateCashFlow, v)
	}
	if v, ok := derived.Fields[models.FieldGrowthRateBookValue]; ok {
		set(models.FieldGrowthRateBookValue, &merged.GrowthRateBookValue, v)
	}
	if v, ok := derived.Fields[models.FieldGrowthRateDividend]; ok {
		set(models.FieldGrowthRateDividend, &merged.GrowthRateDividend, v)
	}
	if v, ok := derived.Fields[models.FieldTargetPE]; ok {
		set(models.FieldTargetPE, &merged.TargetPE, v)
	}
	if v, ok := derived.Fields[models.FieldTargetPCF]; ok {
		set(models.FieldTargetPCF, &merged.TargetPCF, v)
	}
	if v, ok := derived.Fields[models.FieldTargetPBV]; ok {
		set(models.FieldTargetPBV, &merged.TargetPBV, v)
	}
	if v, ok := derived.Fields[models.FieldTargetYield]; ok {
		set(models.FieldTargetYield, &merged.TargetYield, v)
	}

	if derived.BaseYear > 0 && !merged.IsManual(models.FieldBaseYear) && merged.BaseYear != derived.BaseYear {
		merged.BaseYear = derived.BaseYear
		replaced++
	}

	if merged.RequiredReturn == 0 {
		merged.RequiredReturn = models.DefaultRequiredReturn
	}

	// Exclusions only clear when the detector is about to re-evaluate
	// them. Dropping the flags without a recalculation would un-quarantine
	// metrics nobody re-checked.
	if !opts.PreserveExclusions && opts.RecalculateOutliers {
		merged.Excluded = make(map[string]bool)
		merged.ExclusionReasons = make(map[string]string)
	}

	return merged, replaced
}

// UpdateMarketValues applies the current price and dividend from fresh
// provider data, honoring manual edits under preserve-manual.
func UpdateMarketValues(a *models.Assumptions, data *models.TickerData, opts models.SyncOptions) {
	if data == nil {
		return
	}
	if opts.UpdateCurrentPrice && data.CurrentPrice > 0 {
		if !(a.IsManual(models.FieldCurrentPrice) && opts.AssumptionMode == models.AssumptionPreserveManual) {
			a.CurrentPrice = data.CurrentPrice
		}
	}
	if dividend := latestDividend(data.Annual); dividend > 0 {
		if !(a.IsManual(models.FieldCurrentDividend) && opts.AssumptionMode == models.AssumptionPreserveManual) {
			a.CurrentDividend = dividend
		}
	}
}

func latestDividend(records []models.AnnualRecord) float64 {
	value := 0.0
	year := 0
	for _, r := range records {
		if r.IsEstimate || r.DividendPerShare <= 0 {
			continue
		}
		if r.Year > year {
			year = r.Year
			value = r.DividendPerShare
		}
	}
	return value
}

// MergeInfo replaces company info wholesale with the incoming profile.
// Reference ratings never come from the provider: the existing ratings
// carry over, and fresh ratings only apply when the sync explicitly
// loads them from the local ratings store.
func MergeInfo(existing, incoming *models.CompanyInfo, ratings models.ReferenceRatings, syncRatings bool) *models.CompanyInfo {
	if incoming == nil {
		if existing == nil {
			return nil
		}
		merged := *existing
		if syncRatings && !ratings.IsZero() {
			merged.Ratings = ratings
		}
		return &merged
	}

	merged := *incoming
	if existing != nil {
		merged.Ratings = existing.Ratings
	}
	if syncRatings && !ratings.IsZero() {
		merged.Ratings = ratings
	}
	return &merged
}
