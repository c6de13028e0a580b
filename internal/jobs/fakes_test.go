package job

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/maheshrc27/creatorpulse/internal/models"
	"github.com/maheshrc27/creatorpulse/internal/vault"
)

// fakeAccountRepo keeps just enough state for the batch jobs: the due list,
// deactivations and stored tokens.
type fakeAccountRepo struct {
	byID        map[int64]*models.SocialAccount
	deactivated []int64
	tokens      map[int64][3]string
	listErr     error
}

func newFakeAccountRepo(accounts ...*models.SocialAccount) *fakeAccountRepo {
	m := map[int64]*models.SocialAccount{}
	for _, a := range accounts {
		m[a.ID] = a
	}
	return &fakeAccountRepo{byID: m, tokens: map[int64][3]string{}}
}

func (r *fakeAccountRepo) sorted() []*models.SocialAccount {
	out := make([]*models.SocialAccount, 0, len(r.byID))
	for _, a := range r.byID {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeAccountRepo) Upsert(_ context.Context, sa *models.SocialAccount) (int64, error) {
	r.byID[sa.ID] = sa
	return sa.ID, nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id int64) (*models.SocialAccount, error) {
	return r.byID[id], nil
}

func (r *fakeAccountRepo) GetByUserAndPlatform(_ context.Context, userID int64, platform string) (*models.SocialAccount, error) {
	for _, a := range r.sorted() {
		if a.UserID == userID && a.Platform == platform {
			return a, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) ListByUserID(_ context.Context, userID int64) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, a := range r.sorted() {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) ListDueForSync(_ context.Context, cutoff time.Time) ([]*models.SocialAccount, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.SocialAccount
	for _, a := range r.sorted() {
		if a.IsActive && (a.LastSyncedAt == nil || a.LastSyncedAt.Before(cutoff)) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) ListExpiringTokens(_ context.Context, deadline time.Time) ([]*models.SocialAccount, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*models.SocialAccount
	for _, a := range r.sorted() {
		if a.IsActive && a.HasCredential() && a.TokenExpiresAt != nil && a.TokenExpiresAt.Before(deadline) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) CheckByUserID(_ context.Context, accountID, userID int64) (bool, error) {
	a := r.byID[accountID]
	return a != nil && a.UserID == userID, nil
}

func (r *fakeAccountRepo) SetToken(_ context.Context, accountID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	r.tokens[accountID] = [3]string{accessToken, refreshToken, expiresAt.Format(time.RFC3339)}
	if a := r.byID[accountID]; a != nil {
		a.AccessToken = accessToken
		if refreshToken != "" {
			a.RefreshToken = refreshToken
		}
		a.TokenExpiresAt = &expiresAt
	}
	return nil
}

func (r *fakeAccountRepo) Deactivate(_ context.Context, id int64) error {
	r.deactivated = append(r.deactivated, id)
	if a := r.byID[id]; a != nil {
		a.IsActive = false
	}
	return nil
}

func (r *fakeAccountRepo) Remove(_ context.Context, id int64) error {
	delete(r.byID, id)
	return nil
}

// fakePlatformService records sync order and fails the account ids it is
// told to.
type fakePlatformService struct {
	synced  []int64
	failIDs map[int64]bool
	block   chan struct{}
}

func (s *fakePlatformService) SyncAccount(_ context.Context, account *models.SocialAccount) (*models.SocialAccount, bool, error) {
	if s.block != nil {
		<-s.block
	}
	s.synced = append(s.synced, account.ID)
	if s.failIDs[account.ID] {
		return nil, false, fmt.Errorf("upstream unavailable for account %d", account.ID)
	}
	return account, false, nil
}

func (s *fakePlatformService) GetAuthURL(context.Context, string, string) string { return "" }

func (s *fakePlatformService) Connect(context.Context, int64, string, string) (*models.SocialAccount, error) {
	return nil, errors.New("not implemented")
}

func (s *fakePlatformService) Sync(context.Context, int64, int64) (*models.SocialAccount, bool, error) {
	return nil, false, errors.New("not implemented")
}

func (s *fakePlatformService) Disconnect(context.Context, int64, int64) error {
	return errors.New("not implemented")
}

func (s *fakePlatformService) List(context.Context, int64) ([]*models.SocialAccount, error) {
	return nil, nil
}

func (s *fakePlatformService) AddPublicAccount(ctx context.Context, userID int64, platform, identifier string) (*models.SocialAccount, error) {
	return s.Connect(ctx, userID, platform, identifier)
}

func (s *fakePlatformService) SyncPublicAccount(ctx context.Context, userID, accountID int64) (*models.SocialAccount, bool, error) {
	return s.Sync(ctx, userID, accountID)
}

// fakeVault returns canned token sets, rejecting the ids in failIDs the way
// the provider would.
type fakeVault struct {
	failIDs    map[int64]bool
	encryptErr error
	expiresAt  time.Time
}

func (v *fakeVault) Refresh(_ context.Context, sa *models.SocialAccount) (*vault.TokenSet, error) {
	if v.failIDs[sa.ID] {
		return nil, fmt.Errorf("%w: provider rejected grant", vault.ErrRefreshFailed)
	}
	return &vault.TokenSet{
		AccessToken:  fmt.Sprintf("access-%d", sa.ID),
		RefreshToken: "",
		ExpiresAt:    v.expiresAt,
	}, nil
}

func (v *fakeVault) Encrypt(token string) (string, error) {
	if v.encryptErr != nil {
		return "", v.encryptErr
	}
	return "enc:" + token, nil
}

// fakeNotifier records what the jobs report out.
type fakeNotifier struct {
	reports     []*models.SyncReport
	deactivated []int64
}

func (n *fakeNotifier) SyncCompleted(report *models.SyncReport) {
	n.reports = append(n.reports, report)
}

func (n *fakeNotifier) AccountDeactivated(sa *models.SocialAccount) {
	n.deactivated = append(n.deactivated, sa.ID)
}
