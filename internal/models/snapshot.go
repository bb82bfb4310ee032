package models

import "time"

// SyncMetadata records what a sync run did to produce a snapshot.
type SyncMetadata struct {
	OptionsUsed      SyncOptions    `json:"options_used"`
	SyncedAt         time.Time      `json:"synced_at"`
	DurationMS       int64          `json:"duration_ms"`
	Attempts         int            `json:"attempts"`
	YearsAdded       int            `json:"years_added"`
	FieldsReplaced   int            `json:"fields_replaced"`
	OutliersExcluded []string       `json:"outliers_excluded,omitempty"` // Metric names the outlier check excluded
	SourceCounts     map[string]int `json:"source_counts,omitempty"`     // Rows per data source label
	Warnings         []string       `json:"warnings,omitempty"`          // Data-quality findings, advisory only
	Error            string         `json:"error,omitempty"`
}

// Snapshot is one immutable, versioned valuation state for a ticker.
// Versions count from 1 per ticker; at most one snapshot per ticker
// carries IsCurrent.
type Snapshot struct {
	ID      string `json:"id" badgerhold:"key"`
	Ticker  string `json:"ticker" badgerhold:"index"`
	Version int    `json:"version"`

	AnnualData  []AnnualRecord `json:"annual_data"`
	Assumptions *Assumptions   `json:"assumptions"`
	CompanyInfo *CompanyInfo   `json:"company_info"`

	Notes       string `json:"notes,omitempty"`
	IsCurrent   bool   `json:"is_current" badgerhold:"index"`
	IsApproved  bool   `json:"is_approved"`
	AutoFetched bool   `json:"auto_fetched"`

	SyncMetadata *SyncMetadata `json:"sync_metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields a snapshot must carry before it is stored.
func (s *Snapshot) Validate() error {
	switch {
	case s.Ticker == "":
		return ErrMissingTicker
	case s.AnnualData == nil:
		return ErrMissingAnnualData
	case s.Assumptions == nil:
		return ErrMissingAssumptions
	case s.CompanyInfo == nil:
		return ErrMissingCompanyInfo
	}
	return nil
}

// SnapshotFilter narrows snapshot listings.
type SnapshotFilter struct {
	Ticker      string `json:"ticker,omitempty"`
	CurrentOnly bool   `json:"current_only,omitempty"`
	Limit       int    `json:"limit,omitempty"` // 0 = no limit
}
