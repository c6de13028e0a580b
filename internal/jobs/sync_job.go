package job

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/maheshrc27/creatorpulse/internal/cache"
	"github.com/maheshrc27/creatorpulse/internal/models"
	"github.com/maheshrc27/creatorpulse/internal/repository"
	"github.com/maheshrc27/creatorpulse/internal/service"
)

// SyncJob is the recurring batch that keeps the mirror current. Accounts are
// synced one at a time with a fixed delay between external calls; that
// serialization is the backpressure protecting us from provider rate limits,
// so the loop must never fan out.
type SyncJob struct {
	sr       repository.SocialAccountRepository
	ps       service.PlatformService
	policy   *cache.Policy
	notifier service.Notifier
	delay    time.Duration
	running  atomic.Bool
	sleep    func(time.Duration)
}

func NewSyncJob(
	sr repository.SocialAccountRepository,
	ps service.PlatformService,
	policy *cache.Policy,
	notifier service.Notifier,
	delayMs int) *SyncJob {
	return &SyncJob{
		sr:       sr,
		ps:       ps,
		policy:   policy,
		notifier: notifier,
		delay:    time.Duration(delayMs) * time.Millisecond,
		sleep:    time.Sleep,
	}
}

// Run executes one batch pass and always returns a report; per-account
// failures are recorded, never propagated. A call arriving while a batch is
// already running is dropped.
func (j *SyncJob) Run() *models.SyncReport {
	report := &models.SyncReport{Failures: []models.SyncResult{}}

	if !j.running.CompareAndSwap(false, true) {
		slog.Info("sync batch already running, invocation skipped")
		return report
	}
	defer j.running.Store(false)

	ctx := context.Background()

	accounts, err := j.sr.ListDueForSync(ctx, j.policy.Cutoff())
	if err != nil {
		slog.Info(err.Error())
		return report
	}

	slog.Info("sync batch starting", "due_accounts", len(accounts))

	for i, acc := range accounts {
		if i > 0 {
			j.sleep(j.delay)
		}

		_, cached, err := j.ps.SyncAccount(ctx, acc)
		if err != nil {
			slog.Info("account sync failed", "account_id", acc.ID, "platform", acc.Platform)
			report.FailureCount++
			report.Failures = append(report.Failures, models.SyncResult{
				AccountID: acc.ID,
				Platform:  acc.Platform,
				Success:   false,
				Error:     err.Error(),
			})
			continue
		}

		if cached {
			// Another call path refreshed this account after selection;
			// the cache policy kept us from paying for a second fetch.
			slog.Info("account already fresh", "account_id", acc.ID)
		}
		report.SuccessCount++
	}

	if j.notifier != nil {
		j.notifier.SyncCompleted(report)
	}
	return report
}

// RunCatchUp covers scheduler downtime: it waits out the warm-up period
// after process start, then syncs whatever went overdue while the process
// was down. Meant to be started in its own goroutine.
func (j *SyncJob) RunCatchUp(warmup time.Duration) {
	j.sleep(warmup)
	slog.Info("startup catch-up sync starting")
	j.Run()
}
