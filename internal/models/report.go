package models

// SyncResult is the JSON report a sync run returns. Per-lead failures are
// accumulated here instead of aborting the run; only a top-level failure
// (e.g. the first leads page not loading) becomes an HTTP error.
type SyncResult struct {
	RunID          string        `json:"run_id"`
	TotalLeads     int           `json:"total_leads"`
	LeadsProcessed int           `json:"leads_processed"`
	LeadsSkipped   int           `json:"leads_skipped"`
	Matched        int           `json:"matched"`
	Unmatched      int           `json:"unmatched"`
	ActionsApplied int           `json:"actions_applied"`
	PagesFetched   int           `json:"pages_fetched"`
	DryRun         bool          `json:"dry_run,omitempty"`
	Errors         []string      `json:"errors,omitempty"`
	Details        []LeadOutcome `json:"details"`
	PartialTimeout bool          `json:"partial_timeout,omitempty"`
	DurationMS     int64         `json:"duration_ms"`
}

// LeadOutcome records what happened to a single lead during a run.
type LeadOutcome struct {
	Reference      string   `json:"reference"`
	ShippingStatus string   `json:"shipping_status"`
	MatchedOrderID int64    `json:"matched_order_id,omitempty"`
	MatchMethod    string   `json:"match_method,omitempty"`
	Actions        []string `json:"actions,omitempty"`
	Skipped        bool     `json:"skipped,omitempty"`
	SkipReason     string   `json:"skip_reason,omitempty"`
	Errors         []string `json:"errors,omitempty"`
}
