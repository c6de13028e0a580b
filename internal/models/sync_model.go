package models

// SyncResult records the outcome of syncing one account inside a batch run.
// It is never persisted.
type SyncResult struct {
	AccountID int64  `json:"account_id"`
	Platform  string `json:"platform"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// SyncReport is the aggregate a batch run hands back to its caller.
type SyncReport struct {
	SuccessCount int          `json:"success_count"`
	FailureCount int          `json:"failure_count"`
	Failures     []SyncResult `json:"failures"`
}

// RefreshReport aggregates one token-refresh pass. Deactivated lists the
// accounts turned off because their refresh token was rejected; the list is
// meant for external alerting.
type RefreshReport struct {
	RefreshedCount   int          `json:"refreshed_count"`
	DeactivatedCount int          `json:"deactivated_count"`
	Failures         []SyncResult `json:"failures"`
}
