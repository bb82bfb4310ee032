package models

// Assumptions holds the valuation inputs derived from a ticker's annual
// series plus any operator overrides. ManualFields records which fields
// the operator has edited by hand; those survive a sync unless the
// operator explicitly asks for them to be replaced.
type Assumptions struct {
	CurrentPrice    float64 `json:"current_price"`
	CurrentDividend float64 `json:"current_dividend"`

	GrowthRateEPS       float64 `json:"growth_rate_eps"`
	GrowthRateCashFlow  float64 `json:"growth_rate_cash_flow"`
	GrowthRateBookValue float64 `json:"growth_rate_book_value"`
	GrowthRateDividend  float64 `json:"growth_rate_dividend"`

	TargetPE    float64 `json:"target_pe"`
	TargetPCF   float64 `json:"target_pcf"`
	TargetPBV   float64 `json:"target_pbv"`
	TargetYield float64 `json:"target_yield"`

	RequiredReturn      float64 `json:"required_return"`
	DividendPayoutRatio float64 `json:"dividend_payout_ratio"`
	BaseYear            int     `json:"base_year"`

	// Per-metric exclusions from the composite valuation, with the
	// reason the metric was excluded (operator note or outlier check).
	Excluded         map[string]bool   `json:"excluded,omitempty"`
	ExclusionReasons map[string]string `json:"exclusion_reasons,omitempty"`

	// Field names the operator has hand-edited.
	ManualFields map[string]bool `json:"manual_fields,omitempty"`
}

// Assumption field names used in ManualFields.
const (
	FieldCurrentPrice        = "current_price"
	FieldCurrentDividend     = "current_dividend"
	FieldGrowthRateEPS       = "growth_rate_eps"
	FieldGrowthRateCashFlow  = "growth_rate_cash_flow"
	FieldGrowthRateBookValue = "growth_rate_book_value"
	FieldGrowthRateDividend  = "growth_rate_dividend"
	FieldTargetPE            = "target_pe"
	FieldTargetPCF           = "target_pcf"
	FieldTargetPBV           = "target_pbv"
	FieldTargetYield         = "target_yield"
	FieldRequiredReturn      = "required_return"
	FieldBaseYear            = "base_year"
)

// DefaultRequiredReturn is applied when no operator value exists.
const DefaultRequiredReturn = 10.0

// NewAssumptions returns an empty Assumptions with maps initialized and
// the required return defaulted.
func NewAssumptions() *Assumptions {
	return &Assumptions{
		RequiredReturn:   DefaultRequiredReturn,
		Excluded:         make(map[string]bool),
		ExclusionReasons: make(map[string]string),
		ManualFields:     make(map[string]bool),
	}
}

// IsManual reports whether the operator has hand-edited the field.
func (a *Assumptions) IsManual(field string) bool {
	if a == nil || a.ManualFields == nil {
		return false
	}
	return a.ManualFields[field]
}

// MarkManual records an operator edit against the field.
func (a *Assumptions) MarkManual(field string) {
	if a.ManualFields == nil {
		a.ManualFields = make(map[string]bool)
	}
	a.ManualFields[field] = true
}

// Exclude marks a metric as excluded from the composite valuation.
func (a *Assumptions) Exclude(metric, reason string) {
	if a.Excluded == nil {
		a.Excluded = make(map[string]bool)
	}
	if a.ExclusionReasons == nil {
		a.ExclusionReasons = make(map[string]string)
	}
	a.Excluded[metric] = true
	a.ExclusionReasons[metric] = reason
}

// ClearExclusion removes a metric exclusion.
func (a *Assumptions) ClearExclusion(metric string) {
	delete(a.Excluded, metric)
	delete(a.ExclusionReasons, metric)
}

// IsExcluded reports whether a metric is excluded.
func (a *Assumptions) IsExcluded(metric string) bool {
	if a == nil || a.Excluded == nil {
		return false
	}
	return a.Excluded[metric]
}

// Clone returns a deep copy.
func (a *Assumptions) Clone() *Assumptions {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Excluded = make(map[string]bool, len(a.Excluded))
	for k, v := range a.Excluded {
		clone.Excluded[k] = v
	}
	clone.ExclusionReasons = make(map[string]string, len(a.ExclusionReasons))
	for k, v := range a.ExclusionReasons {
		clone.ExclusionReasons[k] = v
	}
	clone.ManualFields = make(map[string]bool, len(a.ManualFields))
	for k, v := range a.ManualFields {
		clone.ManualFields[k] = v
	}
	return &clone
}
