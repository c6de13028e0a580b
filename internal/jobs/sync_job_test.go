package job

import (
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/creatorpulse/internal/cache"
	"github.com/maheshrc27/creatorpulse/internal/models"
	"github.com/maheshrc27/creatorpulse/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jobNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func staleAccount(id int64, platform string) *models.SocialAccount {
	synced := jobNow.Add(-10 * 24 * time.Hour)
	return &models.SocialAccount{
		ID:           id,
		UserID:       1,
		Platform:     platform,
		IsActive:     true,
		LastSyncedAt: &synced,
	}
}

// The notifier parameter is the interface type on purpose: a typed-nil
// *fakeNotifier stored into the interface would slip past the job's nil
// check and crash the batch inside SyncCompleted.
func newTestSyncJob(repo *fakeAccountRepo, ps *fakePlatformService, notifier service.Notifier) (*SyncJob, *[]time.Duration) {
	j := NewSyncJob(repo, ps, cache.NewPolicyWithClock(7, func() time.Time { return jobNow }), notifier, 2000)
	var slept []time.Duration
	j.sleep = func(d time.Duration) { slept = append(slept, d) }
	return j, &slept
}

func TestSyncJobRun_CountsSuccessesAndFailures(t *testing.T) {
	repo := newFakeAccountRepo(
		staleAccount(1, models.PlatformInstagram),
		staleAccount(2, models.PlatformTiktok),
		staleAccount(3, models.PlatformTwitter),
		staleAccount(4, models.PlatformYoutube),
	)
	ps := &fakePlatformService{failIDs: map[int64]bool{2: true, 4: true}}
	notifier := &fakeNotifier{}
	j, _ := newTestSyncJob(repo, ps, notifier)

	report := j.Run()

	assert.Equal(t, 2, report.SuccessCount)
	assert.Equal(t, 2, report.FailureCount)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, int64(2), report.Failures[0].AccountID)
	assert.Equal(t, models.PlatformTiktok, report.Failures[0].Platform)
	assert.Equal(t, int64(4), report.Failures[1].AccountID)

	// a failure never stops the batch
	assert.Equal(t, []int64{1, 2, 3, 4}, ps.synced)

	require.Len(t, notifier.reports, 1)
	assert.Same(t, report, notifier.reports[0])
}

func TestSyncJobRun_WithoutNotifier(t *testing.T) {
	repo := newFakeAccountRepo(
		staleAccount(1, models.PlatformInstagram),
		staleAccount(2, models.PlatformTiktok),
	)
	ps := &fakePlatformService{failIDs: map[int64]bool{2: true}}
	j, _ := newTestSyncJob(repo, ps, nil)

	// the batch completes and reports normally with no notifier attached
	report := j.Run()
	assert.Equal(t, 1, report.SuccessCount)
	assert.Equal(t, 1, report.FailureCount)
}

func TestSyncJobRun_DelayBetweenAccounts(t *testing.T) {
	repo := newFakeAccountRepo(
		staleAccount(1, models.PlatformInstagram),
		staleAccount(2, models.PlatformInstagram),
		staleAccount(3, models.PlatformInstagram),
	)
	j, slept := newTestSyncJob(repo, &fakePlatformService{}, nil)

	j.Run()

	// no delay before the first account, one between each pair after
	require.Len(t, *slept, 2)
	for _, d := range *slept {
		assert.Equal(t, 2*time.Second, d)
	}
}

func TestSyncJobRun_SkipsFreshAccounts(t *testing.T) {
	fresh := staleAccount(1, models.PlatformInstagram)
	syncedRecently := jobNow.Add(-time.Hour)
	fresh.LastSyncedAt = &syncedRecently

	inactive := staleAccount(2, models.PlatformInstagram)
	inactive.IsActive = false

	never := staleAccount(3, models.PlatformInstagram)
	never.LastSyncedAt = nil

	repo := newFakeAccountRepo(fresh, inactive, never, staleAccount(4, models.PlatformTiktok))
	ps := &fakePlatformService{}
	j, _ := newTestSyncJob(repo, ps, nil)

	report := j.Run()

	assert.Equal(t, []int64{3, 4}, ps.synced, "fresh and inactive accounts are not selected")
	assert.Equal(t, 2, report.SuccessCount)
}

func TestSyncJobRun_SingleFlight(t *testing.T) {
	repo := newFakeAccountRepo(staleAccount(1, models.PlatformInstagram))
	ps := &fakePlatformService{block: make(chan struct{})}
	j, _ := newTestSyncJob(repo, ps, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		j.Run()
	}()

	// wait for the first run to hold the flag, then overlap it
	for !j.running.Load() {
		time.Sleep(time.Millisecond)
	}
	overlapped := j.Run()
	assert.Zero(t, overlapped.SuccessCount)
	assert.Zero(t, overlapped.FailureCount)
	assert.Empty(t, ps.synced, "dropped invocation never reached the adapter")

	close(ps.block)
	wg.Wait()
	assert.Len(t, ps.synced, 1)

	// after the batch finishes the next invocation runs normally
	again := j.Run()
	assert.Equal(t, 1, again.SuccessCount)
}

func TestSyncJobRun_ListFailure(t *testing.T) {
	repo := newFakeAccountRepo(staleAccount(1, models.PlatformInstagram))
	repo.listErr = assert.AnError
	j, _ := newTestSyncJob(repo, &fakePlatformService{}, nil)

	report := j.Run()
	assert.Zero(t, report.SuccessCount)
	assert.Zero(t, report.FailureCount)
	assert.False(t, j.running.Load(), "flag released even on an aborted pass")
}

func TestSyncJobRunCatchUp(t *testing.T) {
	repo := newFakeAccountRepo(staleAccount(1, models.PlatformInstagram))
	ps := &fakePlatformService{}
	j, slept := newTestSyncJob(repo, ps, nil)

	j.RunCatchUp(30 * time.Second)

	require.NotEmpty(t, *slept)
	assert.Equal(t, 30*time.Second, (*slept)[0])
	assert.Equal(t, []int64{1}, ps.synced)
}
