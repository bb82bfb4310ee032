package models

import "fmt"

// FieldPolicy controls how fetched annual rows merge with existing rows.
type FieldPolicy string

const (
	// FieldPolicySmart keeps operator-edited rows and takes provider
	// values everywhere else.
	FieldPolicySmart FieldPolicy = "smart"
	// FieldPolicyNewYearsOnly appends years absent from the existing
	// series and leaves every existing row untouched.
	FieldPolicyNewYearsOnly FieldPolicy = "new-years-only"
	// FieldPolicyMissingOnly fills zero-valued fields on existing rows
	// and appends missing years, changing nothing already populated.
	FieldPolicyMissingOnly FieldPolicy = "missing-only"
	// FieldPolicyReplaceAll discards the existing series entirely.
	FieldPolicyReplaceAll FieldPolicy = "replace-all"
)

// Valid reports whether the policy is a known value.
func (p FieldPolicy) Valid() bool {
	switch p {
	case FieldPolicySmart, FieldPolicyNewYearsOnly, FieldPolicyMissingOnly, FieldPolicyReplaceAll:
		return true
	}
	return false
}

// AssumptionMode controls whether operator-edited assumption fields
// survive a sync.
type AssumptionMode string

const (
	AssumptionPreserveManual AssumptionMode = "preserve-manual"
	AssumptionReplaceManual  AssumptionMode = "replace-manual"
)

// Valid reports whether the mode is a known value.
func (m AssumptionMode) Valid() bool {
	return m == AssumptionPreserveManual || m == AssumptionReplaceManual
}

// SyncOptions selects what a sync touches and how conflicts resolve.
// Build via OptionsBuilder so invalid combinations are rejected before
// a sync starts.
type SyncOptions struct {
	FieldPolicy    FieldPolicy    `json:"field_policy"`
	AssumptionMode AssumptionMode `json:"assumption_mode"`

	SyncSeries          bool `json:"sync_series"`
	SyncAssumptions     bool `json:"sync_assumptions"`
	SyncInfo            bool `json:"sync_info"`
	SyncRatings         bool `json:"sync_ratings"`
	UpdateCurrentPrice  bool `json:"update_current_price"`
	PreserveExclusions  bool `json:"preserve_exclusions"`
	RecalculateOutliers bool `json:"recalculate_outliers"`
	SaveBeforeSync      bool `json:"save_before_sync"`
}

// Validate rejects option combinations that would silently lose data or
// request contradictory behavior.
func (o SyncOptions) Validate() error {
	if !o.FieldPolicy.Valid() {
		return fmt.Errorf("unknown field policy %q", o.FieldPolicy)
	}
	if !o.AssumptionMode.Valid() {
		return fmt.Errorf("unknown assumption mode %q", o.AssumptionMode)
	}
	if !o.SyncSeries && !o.SyncAssumptions && !o.SyncInfo && !o.UpdateCurrentPrice {
		return fmt.Errorf("sync options select nothing to sync")
	}
	if o.FieldPolicy == FieldPolicyReplaceAll && o.AssumptionMode != AssumptionReplaceManual {
		return fmt.Errorf("replace-all field policy requires replace-manual assumption mode")
	}
	if (o.FieldPolicy == FieldPolicyNewYearsOnly || o.FieldPolicy == FieldPolicyMissingOnly) && !o.SyncSeries {
		return fmt.Errorf("field policy %q requires series sync", o.FieldPolicy)
	}
	if o.SyncRatings && !o.SyncInfo {
		return fmt.Errorf("ratings sync requires company info sync")
	}
	return nil
}

// OptionsBuilder assembles SyncOptions with safe defaults: smart merge,
// manual values preserved, everything synced except ratings.
type OptionsBuilder struct {
	opts SyncOptions
}

// NewOptionsBuilder returns a builder seeded with the default options.
func NewOptionsBuilder() *OptionsBuilder {
	return &OptionsBuilder{opts: SyncOptions{
		FieldPolicy:         FieldPolicySmart,
		AssumptionMode:      AssumptionPreserveManual,
		SyncSeries:          true,
		SyncAssumptions:     true,
		SyncInfo:            true,
		UpdateCurrentPrice:  true,
		PreserveExclusions:  true,
		RecalculateOutliers: true,
	}}
}

func (b *OptionsBuilder) FieldPolicy(p FieldPolicy) *OptionsBuilder {
	b.opts.FieldPolicy = p
	return b
}

func (b *OptionsBuilder) AssumptionMode(m AssumptionMode) *OptionsBuilder {
	b.opts.AssumptionMode = m
	return b
}

func (b *OptionsBuilder) Series(enabled bool) *OptionsBuilder {
	b.opts.SyncSeries = enabled
	return b
}

func (b *OptionsBuilder) Assumptions(enabled bool) *OptionsBuilder {
	b.opts.SyncAssumptions = enabled
	return b
}

func (b *OptionsBuilder) Info(enabled bool) *OptionsBuilder {
	b.opts.SyncInfo = enabled
	return b
}

func (b *OptionsBuilder) Ratings(enabled bool) *OptionsBuilder {
	b.opts.SyncRatings = enabled
	return b
}

func (b *OptionsBuilder) CurrentPrice(enabled bool) *OptionsBuilder {
	b.opts.UpdateCurrentPrice = enabled
	return b
}

func (b *OptionsBuilder) PreserveExclusions(enabled bool) *OptionsBuilder {
	b.opts.PreserveExclusions = enabled
	return b
}

func (b *OptionsBuilder) RecalculateOutliers(enabled bool) *OptionsBuilder {
	b.opts.RecalculateOutliers = enabled
	return b
}

func (b *OptionsBuilder) SaveBeforeSync(enabled bool) *OptionsBuilder {
	b.opts.SaveBeforeSync = enabled
	return b
}

// Build validates and returns the assembled options.
func (b *OptionsBuilder) Build() (SyncOptions, error) {
	if err := b.opts.Validate(); err != nil {
		return SyncOptions{}, err
	}
	return b.opts, nil
}

// DefaultSyncOptions returns the builder defaults. Panics are impossible
// here: the defaults always validate.
func DefaultSyncOptions() SyncOptions {
	opts, err := NewOptionsBuilder().Build()
	if err != nil {
		panic(err)
	}
	return opts
}
