package models

// SyncRequest represents the body of POST /sync. All fields are optional;
// zero values fall back to configured defaults.
type SyncRequest struct {
	MaxPages int  `json:"max_pages,omitempty"`
	DryRun   bool `json:"dry_run,omitempty"`

	// Statuses limits the run to leads in the given shipping statuses.
	Statuses []string `json:"statuses,omitempty"`
}
