package models

import "time"

// Preset is a named, reusable bundle of sync options. Built-in presets
// are read-only; operator presets persist in the preset store.
type Preset struct {
	ID          string      `json:"id" badgerhold:"key"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Options     SyncOptions `json:"options"`
	BuiltIn     bool        `json:"built_in"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Built-in preset ids.
const (
	PresetStandard     = "standard"
	PresetNewYearsOnly = "new-years-only"
	PresetFillGaps     = "fill-gaps"
	PresetFullRefresh  = "full-refresh"
)

func mustBuild(b *OptionsBuilder) SyncOptions {
	opts, err := b.Build()
	if err != nil {
		panic(err)
	}
	return opts
}

// BuiltInPresets returns the read-only presets every deployment ships
// with.
func BuiltInPresets() []*Preset {
	return []*Preset{
		{
			ID:          PresetStandard,
			Name:        "Standard",
			Description: "Smart merge keeping operator edits, assumptions refreshed, ratings untouched",
			Options:     mustBuild(NewOptionsBuilder()),
			BuiltIn:     true,
		},
		{
			ID:          PresetNewYearsOnly,
			Name:        "New years only",
			Description: "Append newly reported fiscal years, touch nothing else",
			Options: mustBuild(NewOptionsBuilder().
				FieldPolicy(FieldPolicyNewYearsOnly).
				Assumptions(false).
				Info(false).
				RecalculateOutliers(false)),
			BuiltIn: true,
		},
		{
			ID:          PresetFillGaps,
			Name:        "Fill gaps",
			Description: "Fill empty fields and missing years, leave populated values alone",
			Options: mustBuild(NewOptionsBuilder().
				FieldPolicy(FieldPolicyMissingOnly).
				Assumptions(false).
				Info(false).
				RecalculateOutliers(false)),
			BuiltIn: true,
		},
		{
			ID:          PresetFullRefresh,
			Name:        "Full refresh",
			Description: "Discard local data and rebuild from the provider, backing up first",
			Options: mustBuild(NewOptionsBuilder().
				FieldPolicy(FieldPolicyReplaceAll).
				AssumptionMode(AssumptionReplaceManual).
				PreserveExclusions(false).
				SaveBeforeSync(true)),
			BuiltIn: true,
		},
	}
}
