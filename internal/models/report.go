package models

import "time"

// RunState is the lifecycle state of a bulk sync run.
type RunState string

const (
	RunStateIdle      RunState = "idle"
	RunStateRunning   RunState = "running"
	RunStatePaused    RunState = "paused"
	RunStateCancelled RunState = "cancelled"
	RunStateCompleted RunState = "completed"
)

// Per-ticker outcome labels.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"
	ResultSkipped = "skipped"
)

// TickerResult is the outcome of syncing a single ticker within a run.
type TickerResult struct {
	Ticker     string   `json:"ticker"`
	Status     string   `json:"status"`
	SnapshotID string   `json:"snapshot_id,omitempty"`
	Version    int      `json:"version,omitempty"`
	Attempts   int      `json:"attempts,omitempty"`
	DurationMS int64    `json:"duration_ms,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Progress is a point-in-time view of a bulk run.
type Progress struct {
	RunID        string    `json:"run_id"`
	State        RunState  `json:"state"`
	Total        int       `json:"total"`
	Completed    int       `json:"completed"`
	Succeeded    int       `json:"succeeded"`
	Failed       int       `json:"failed"`
	Skipped      int       `json:"skipped"`
	CurrentBatch int       `json:"current_batch"`
	TotalBatches int       `json:"total_batches"`
	StartedAt    time.Time `json:"started_at"`
}

// GlobalStats aggregates sync metadata across a whole run.
type GlobalStats struct {
	YearsAdded       int `json:"years_added"`
	FieldsReplaced   int `json:"fields_replaced"`
	OutliersExcluded int `json:"outliers_excluded"`
	Warnings         int `json:"warnings"`
}

// BulkReport is the final report for a bulk sync run.
type BulkReport struct {
	RunID        string                  `json:"run_id"`
	State        RunState                `json:"state"`
	StartedAt    time.Time               `json:"started_at"`
	FinishedAt   time.Time               `json:"finished_at"`
	SuccessCount int                     `json:"success_count"`
	ErrorCount   int                     `json:"error_count"`
	SkippedCount int                     `json:"skipped_count"`
	Results      map[string]TickerResult `json:"results"`
	GlobalStats  GlobalStats             `json:"global_stats"`
}

// Estimate is an advisory duration estimate for a bulk run. Actual
// duration varies with provider latency and retries.
type Estimate struct {
	TickerCount       int           `json:"ticker_count"`
	BatchCount        int           `json:"batch_count"`
	PerTicker         time.Duration `json:"per_ticker_ns"`
	EstimatedDuration time.Duration `json:"estimated_duration_ns"`
	EstimatedSeconds  float64       `json:"estimated_seconds"`
}
