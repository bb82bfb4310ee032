package sync

import (
	"testing"

	"github.com/gobapps/financepro/internal/models"
)

func findYear(t *testing.T, records []models.AnnualRecord, year int) models.AnnualRecord {
	t.Helper()
	for _, r := range records {
		if r.Year == year {
			return r
		}
	}
	t.Fatalf("year %d missing from merged series", year)
	return models.AnnualRecord{}
}

func TestApplySeriesPlanSmart(t *testing.T) {
	existing := []models.AnnualRecord{
		{Year: 2021, EarningsPerShare: 2.2, DataSource: models.DataSourceManual},
		{Year: 2022, EarningsPerShare: 2.4, AutoFetched: true, DataSource: models.DataSourceVerified},
	}
	incoming := []models.AnnualRecord{
		{Year: 2021, EarningsPerShare: 2.25},
		{Year: 2022, EarningsPerShare: 2.45, PriceHigh: 50, PriceLow: 30},
		{Year: 2023, EarningsPerShare: 2.70},
	}

	plan := PlanSeries(existing, incoming, models.FieldPolicySmart)
	merged, stats := ApplySeriesPlan(existing, incoming, plan)

	if len(merged) != 3 {
		t.Fatalf("merged series has %d rows, want 3", len(merged))
	}

	// Operator row survives untouched.
	if row := findYear(t, merged, 2021); row.EarningsPerShare != 2.2 || row.AutoFetched {
		t.Errorf("2021 = %+v, want operator row preserved", row)
	}

	// Auto-fetched row takes provider values.
	row := findYear(t, merged, 2022)
	if row.EarningsPerShare != 2.45 || row.PriceHigh != 50 {
		t.Errorf("2022 = %+v, want provider values", row)
	}
	if !row.AutoFetched || row.DataSource != models.DataSourceVerified {
		t.Errorf("2022 provenance = %s/%v, want verified/auto-fetched", row.DataSource, row.AutoFetched)
	}

	// New year appended with provenance set.
	if row := findYear(t, merged, 2023); !row.AutoFetched || row.DataSource != models.DataSourceVerified {
		t.Errorf("2023 = %+v, want auto-fetched append", row)
	}

	if stats.YearsAdded != 1 {
		t.Errorf("YearsAdded = %d, want 1", stats.YearsAdded)
	}
	// 2022 changed eps, price high, price low
	if stats.FieldsReplaced != 3 {
		t.Errorf("FieldsReplaced = %d, want 3", stats.FieldsReplaced)
	}
	if stats.SourceCounts[models.DataSourceVerified] != 2 || stats.SourceCounts[models.DataSourceManual] != 1 {
		t.Errorf("SourceCounts = %v", stats.SourceCounts)
	}
}

func TestApplySeriesPlanFillOnlyTouchesZeroFields(t *testing.T) {
	existing := []models.AnnualRecord{
		{Year: 2022, EarningsPerShare: 2.4, PriceHigh: 0, PriceLow: 0},
	}
	incoming := []models.AnnualRecord{
		{Year: 2022, EarningsPerShare: 9.9, PriceHigh: 50, PriceLow: 30},
	}

	plan := PlanSeries(existing, incoming, models.FieldPolicyMissingOnly)
	merged, stats := ApplySeriesPlan(existing, incoming, plan)

	row := findYear(t, merged, 2022)
	if row.EarningsPerShare != 2.4 {
		t.Errorf("EPS = %f, fill must not overwrite a reported value", row.EarningsPerShare)
	}
	if row.PriceHigh != 50 || row.PriceLow != 30 {
		t.Errorf("price range = %f/%f, want filled from provider", row.PriceHigh, row.PriceLow)
	}
	if stats.FieldsReplaced != 2 {
		t.Errorf("FieldsReplaced = %d, want 2", stats.FieldsReplaced)
	}
}

func TestApplySeriesPlanIdempotent(t *testing.T) {
	incoming := []models.AnnualRecord{
		{Year: 2022, EarningsPerShare: 2.45, PriceHigh: 50, PriceLow: 30},
		{Year: 2023, EarningsPerShare: 2.70, PriceHigh: 60, PriceLow: 40},
	}

	plan := PlanSeries(nil, incoming, models.FieldPolicySmart)
	first, stats := ApplySeriesPlan(nil, incoming, plan)
	if stats.YearsAdded != 2 {
		t.Fatalf("first pass YearsAdded = %d, want 2", stats.YearsAdded)
	}

	// Same provider payload against the merged result changes nothing.
	plan = PlanSeries(first, incoming, models.FieldPolicySmart)
	second, stats := ApplySeriesPlan(first, incoming, plan)
	if stats.YearsAdded != 0 || stats.FieldsReplaced != 0 {
		t.Errorf("second pass stats = %+v, want no changes", stats)
	}
	if len(second) != len(first) {
		t.Errorf("second pass has %d rows, want %d", len(second), len(first))
	}
}

func TestMergeAssumptionsPreservesManual(t *testing.T) {
	existing := models.NewAssumptions()
	existing.GrowthRateEPS = 12.0
	existing.MarkManual(models.FieldGrowthRateEPS)
	existing.TargetPE = 18.0

	derived := Derived{
		Fields: map[string]float64{
			models.FieldGrowthRateEPS: 7.0,
			models.FieldTargetPE:      15.0,
		},
		BaseYear: 2023,
	}

	opts := models.DefaultSyncOptions()
	merged, replaced := MergeAssumptions(existing, derived, opts)

	if merged.GrowthRateEPS != 12.0 {
		t.Errorf("GrowthRateEPS = %f, manual value must survive", merged.GrowthRateEPS)
	}
	if merged.TargetPE != 15.0 {
		t.Errorf("TargetPE = %f, want derived 15.0", merged.TargetPE)
	}
	if merged.BaseYear != 2023 {
		t.Errorf("BaseYear = %d, want 2023", merged.BaseYear)
	}
	// target pe + base year
	if replaced != 2 {
		t.Errorf("replaced = %d, want 2", replaced)
	}

	// Input untouched: merge works on a clone.
	if existing.TargetPE != 18.0 {
		t.Error("MergeAssumptions mutated its input")
	}
}

func TestMergeAssumptionsReplaceManual(t *testing.T) {
	existing := models.NewAssumptions()
	existing.GrowthRateEPS = 12.0
	existing.MarkManual(models.FieldGrowthRateEPS)

	derived := Derived{Fields: map[string]float64{models.FieldGrowthRateEPS: 7.0}}

	opts, err := models.NewOptionsBuilder().AssumptionMode(models.AssumptionReplaceManual).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	merged, _ := MergeAssumptions(existing, derived, opts)
	if merged.GrowthRateEPS != 7.0 {
		t.Errorf("GrowthRateEPS = %f, replace-manual must take the derived value", merged.GrowthRateEPS)
	}
	if merged.IsManual(models.FieldGrowthRateEPS) {
		t.Error("manual flag must be cleared under replace-manual")
	}
}

func TestMergeAssumptionsFromNil(t *testing.T) {
	derived := Derived{Fields: map[string]float64{models.FieldTargetPE: 15.0}}

	merged, _ := MergeAssumptions(nil, derived, models.DefaultSyncOptions())
	if merged == nil {
		t.Fatal("merged assumptions are nil")
	}
	if merged.RequiredReturn != models.DefaultRequiredReturn {
		t.Errorf("RequiredReturn = %f, want default %f", merged.RequiredReturn, models.DefaultRequiredReturn)
	}
	if merged.TargetPE != 15.0 {
		t.Errorf("TargetPE = %f, want 15.0", merged.TargetPE)
	}
}

func TestMergeAssumptionsExclusions(t *testing.T) {
	existing := models.NewAssumptions()
	existing.Exclude(models.MetricEPS, "implied price out of range")

	merged, _ := MergeAssumptions(existing, Derived{}, models.DefaultSyncOptions())
	if !merged.IsExcluded(models.MetricEPS) {
		t.Error("exclusion must survive under preserve-exclusions")
	}

	opts, err := models.NewOptionsBuilder().PreserveExclusions(false).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	merged, _ = MergeAssumptions(existing, Derived{}, opts)
	if merged.IsExcluded(models.MetricEPS) {
		t.Error("exclusion must clear when the detector re-evaluates")
	}

	// Without a recalculation there is nothing to re-check, so the
	// quarantine stands even when preserve-exclusions is off.
	noRecalc, err := models.NewOptionsBuilder().PreserveExclusions(false).RecalculateOutliers(false).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	merged, _ = MergeAssumptions(existing, Derived{}, noRecalc)
	if !merged.IsExcluded(models.MetricEPS) {
		t.Error("exclusion must survive when outliers are not re-evaluated")
	}
}

func TestUpdateMarketValues(t *testing.T) {
	a := models.NewAssumptions()
	a.CurrentPrice = 90

	data := &models.TickerData{
		CurrentPrice: 101.5,
		Annual: []models.AnnualRecord{
			{Year: 2022, DividendPerShare: 1.9},
			{Year: 2023, DividendPerShare: 2.1},
			{Year: 2024, DividendPerShare: 2.5, IsEstimate: true},
		},
	}

	UpdateMarketValues(a, data, models.DefaultSyncOptions())
	if a.CurrentPrice != 101.5 {
		t.Errorf("CurrentPrice = %f, want 101.5", a.CurrentPrice)
	}
	// Latest reported year wins, estimates never contribute.
	if a.CurrentDividend != 2.1 {
		t.Errorf("CurrentDividend = %f, want 2.1", a.CurrentDividend)
	}
}

func TestUpdateMarketValuesManualPrice(t *testing.T) {
	a := models.NewAssumptions()
	a.CurrentPrice = 90
	a.MarkManual(models.FieldCurrentPrice)

	UpdateMarketValues(a, &models.TickerData{CurrentPrice: 101.5}, models.DefaultSyncOptions())
	if a.CurrentPrice != 90 {
		t.Errorf("CurrentPrice = %f, manual price must survive preserve-manual", a.CurrentPrice)
	}

	opts, err := models.NewOptionsBuilder().AssumptionMode(models.AssumptionReplaceManual).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	UpdateMarketValues(a, &models.TickerData{CurrentPrice: 101.5}, opts)
	if a.CurrentPrice != 101.5 {
		t.Errorf("CurrentPrice = %f, replace-manual must take the quote", a.CurrentPrice)
	}
}

func TestMergeInfo(t *testing.T) {
	existing := &models.CompanyInfo{
		Symbol: "KO",
		Name:   "Coca-Cola (old name)",
		Ratings: models.ReferenceRatings{
			SecurityRank: "A++", EarningsPredictability: "95",
		},
	}
	incoming := &models.CompanyInfo{Symbol: "KO", Name: "The Coca-Cola Company", Sector: "Consumer Defensive"}

	merged := MergeInfo(existing, incoming, models.ReferenceRatings{}, false)
	if merged.Name != "The Coca-Cola Company" || merged.Sector != "Consumer Defensive" {
		t.Errorf("merged info = %+v, want incoming profile", merged)
	}
	if merged.Ratings.SecurityRank != "A++" {
		t.Errorf("Ratings = %+v, existing ratings must carry over", merged.Ratings)
	}

	fresh := models.ReferenceRatings{SecurityRank: "A", EarningsPredictability: "80"}
	merged = MergeInfo(existing, incoming, fresh, true)
	if merged.Ratings.SecurityRank != "A" {
		t.Errorf("Ratings = %+v, want fresh ratings when requested", merged.Ratings)
	}

	// No incoming profile: existing survives.
	merged = MergeInfo(existing, nil, models.ReferenceRatings{}, false)
	if merged == nil || merged.Name != "Coca-Cola (old name)" {
		t.Errorf("merged = %+v, want existing info kept", merged)
	}
}
