package job

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/creatorpulse/internal/models"
	"github.com/maheshrc27/creatorpulse/internal/repository"
	"github.com/maheshrc27/creatorpulse/internal/service"
	"github.com/maheshrc27/creatorpulse/internal/vault"
)

// credentialVault is the slice of the vault the refresh job needs.
type credentialVault interface {
	Refresh(ctx context.Context, sa *models.SocialAccount) (*vault.TokenSet, error)
	Encrypt(token string) (string, error)
}

// TokenRefreshJob proactively renews OAuth credentials before they expire.
// An account whose refresh token is rejected gets deactivated so the sync
// scheduler stops selecting it until the owner reconnects.
type TokenRefreshJob struct {
	sr          repository.SocialAccountRepository
	vault       credentialVault
	notifier    service.Notifier
	horizonDays int
	running     atomic.Bool
	now         func() time.Time
}

func NewTokenRefreshJob(
	sr repository.SocialAccountRepository,
	v credentialVault,
	notifier service.Notifier,
	horizonDays int) *TokenRefreshJob {
	return &TokenRefreshJob{
		sr:          sr,
		vault:       v,
		notifier:    notifier,
		horizonDays: horizonDays,
		now:         time.Now,
	}
}

// RefreshTokens runs one refresh pass. Like the sync batch it is
// single-flight and never raises; the failure list in the report is for
// external alerting.
func (j *TokenRefreshJob) RefreshTokens() *models.RefreshReport {
	report := &models.RefreshReport{Failures: []models.SyncResult{}}

	if !j.running.CompareAndSwap(false, true) {
		slog.Info("token refresh already running, invocation skipped")
		return report
	}
	defer j.running.Store(false)

	ctx := context.Background()
	deadline := j.now().Add(time.Duration(j.horizonDays) * 24 * time.Hour)

	accounts, err := j.sr.ListExpiringTokens(ctx, deadline)
	if err != nil {
		slog.Info(err.Error())
		return report
	}

	slog.Info("token refresh starting", "expiring_accounts", len(accounts))

	for _, acc := range accounts {
		set, err := j.vault.Refresh(ctx, acc)
		if err != nil {
			report.Failures = append(report.Failures, models.SyncResult{
				AccountID: acc.ID,
				Platform:  acc.Platform,
				Success:   false,
				Error:     err.Error(),
			})

			if errors.Is(err, vault.ErrRefreshFailed) {
				if derr := j.sr.Deactivate(ctx, acc.ID); derr != nil {
					slog.Info(derr.Error())
					continue
				}
				report.DeactivatedCount++
				if j.notifier != nil {
					j.notifier.AccountDeactivated(acc)
				}
			} else {
				// Decrypt or storage trouble, not a provider rejection;
				// leave the account active and let the next pass retry.
				slog.Error("token refresh error", "account_id", acc.ID, "err", err)
			}
			continue
		}

		encryptedAccess, err := j.vault.Encrypt(set.AccessToken)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		encryptedRefresh := ""
		if set.RefreshToken != "" {
			encryptedRefresh, err = j.vault.Encrypt(set.RefreshToken)
			if err != nil {
				slog.Info(err.Error())
				continue
			}
		}

		if err := j.sr.SetToken(ctx, acc.ID, encryptedAccess, encryptedRefresh, set.ExpiresAt); err != nil {
			slog.Info(err.Error())
			continue
		}
		report.RefreshedCount++
	}

	return report
}
