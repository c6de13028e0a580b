package service

import (
	"log/slog"

	"github.com/maheshrc27/creatorpulse/internal/models"
)

// Notifier receives sync-lifecycle events. It is injected into the jobs so
// the ingestion core stays testable; the real broadcast channel lives
// elsewhere in the product.
type Notifier interface {
	SyncCompleted(report *models.SyncReport)
	AccountDeactivated(account *models.SocialAccount)
}

// LogNotifier is the default implementation; it only writes to the log.
type LogNotifier struct{}

func (LogNotifier) SyncCompleted(report *models.SyncReport) {
	slog.Info("sync batch completed",
		"success_count", report.SuccessCount,
		"failure_count", report.FailureCount)
}

func (LogNotifier) AccountDeactivated(account *models.SocialAccount) {
	slog.Info("account deactivated after failed token refresh",
		"account_id", account.ID,
		"platform", account.Platform)
}
