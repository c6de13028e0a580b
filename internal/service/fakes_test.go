package service

import (
	"context"
	"errors"
	"time"

	"github.com/maheshrc27/creatorpulse/internal/models"
)

// In-memory fakes mirroring the repository semantics the services rely on:
// idempotent upserts, monotonic last_synced_at and token preservation.

type fakeAccountRepo struct {
	byID   map[int64]*models.SocialAccount
	nextID int64
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byID: map[int64]*models.SocialAccount{}}
}

func (r *fakeAccountRepo) Upsert(_ context.Context, sa *models.SocialAccount) (int64, error) {
	for id, existing := range r.byID {
		if existing.UserID == sa.UserID && existing.Platform == sa.Platform {
			merged := *sa
			merged.ID = id
			if merged.AccessToken == "" {
				merged.AccessToken = existing.AccessToken
			}
			if merged.RefreshToken == "" {
				merged.RefreshToken = existing.RefreshToken
			}
			if merged.TokenExpiresAt == nil {
				merged.TokenExpiresAt = existing.TokenExpiresAt
			}
			if existing.LastSyncedAt != nil &&
				(merged.LastSyncedAt == nil || merged.LastSyncedAt.Before(*existing.LastSyncedAt)) {
				merged.LastSyncedAt = existing.LastSyncedAt
			}
			r.byID[id] = &merged
			return id, nil
		}
	}

	r.nextID++
	stored := *sa
	stored.ID = r.nextID
	r.byID[r.nextID] = &stored
	return r.nextID, nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id int64) (*models.SocialAccount, error) {
	sa, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copied := *sa
	return &copied, nil
}

func (r *fakeAccountRepo) GetByUserAndPlatform(_ context.Context, userID int64, platform string) (*models.SocialAccount, error) {
	for _, sa := range r.byID {
		if sa.UserID == userID && sa.Platform == platform {
			copied := *sa
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeAccountRepo) ListByUserID(_ context.Context, userID int64) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for _, sa := range r.byID {
		if sa.UserID == userID {
			out = append(out, sa)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) ListDueForSync(_ context.Context, cutoff time.Time) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for id := int64(1); id <= r.nextID; id++ {
		sa, ok := r.byID[id]
		if !ok || !sa.IsActive {
			continue
		}
		if sa.LastSyncedAt == nil || !sa.LastSyncedAt.After(cutoff) {
			out = append(out, sa)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) ListExpiringTokens(_ context.Context, deadline time.Time) ([]*models.SocialAccount, error) {
	var out []*models.SocialAccount
	for id := int64(1); id <= r.nextID; id++ {
		sa, ok := r.byID[id]
		if !ok || !sa.IsActive || sa.TokenExpiresAt == nil {
			continue
		}
		if !sa.TokenExpiresAt.After(deadline) {
			out = append(out, sa)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) CheckByUserID(_ context.Context, accountID, userID int64) (bool, error) {
	sa, ok := r.byID[accountID]
	return ok && sa.UserID == userID, nil
}

func (r *fakeAccountRepo) SetToken(_ context.Context, accountID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	sa, ok := r.byID[accountID]
	if !ok {
		return errors.New("account not found")
	}
	if accessToken != "" {
		sa.AccessToken = accessToken
	}
	if refreshToken != "" {
		sa.RefreshToken = refreshToken
	}
	sa.TokenExpiresAt = &expiresAt
	return nil
}

func (r *fakeAccountRepo) Deactivate(_ context.Context, id int64) error {
	sa, ok := r.byID[id]
	if !ok {
		return errors.New("account not found")
	}
	sa.IsActive = false
	return nil
}

func (r *fakeAccountRepo) Remove(_ context.Context, id int64) error {
	delete(r.byID, id)
	return nil
}

type fakePostRepo struct {
	byAccount map[int64]map[string]*models.SocialPost
	nextID    int64
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{byAccount: map[int64]map[string]*models.SocialPost{}}
}

func (r *fakePostRepo) Upsert(_ context.Context, p *models.SocialPost) (int64, error) {
	posts, ok := r.byAccount[p.AccountID]
	if !ok {
		posts = map[string]*models.SocialPost{}
		r.byAccount[p.AccountID] = posts
	}

	if existing, ok := posts[p.ExternalPostID]; ok {
		updated := *p
		updated.ID = existing.ID
		posts[p.ExternalPostID] = &updated
		return existing.ID, nil
	}

	r.nextID++
	stored := *p
	stored.ID = r.nextID
	posts[p.ExternalPostID] = &stored
	return r.nextID, nil
}

func (r *fakePostRepo) ListByAccountID(_ context.Context, accountID int64, limit int) ([]*models.SocialPost, error) {
	var out []*models.SocialPost
	for _, p := range r.byAccount[accountID] {
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakePostRepo) CountByAccountID(_ context.Context, accountID int64) (int64, error) {
	return int64(len(r.byAccount[accountID])), nil
}

func (r *fakePostRepo) RemoveByAccountID(_ context.Context, accountID int64) error {
	delete(r.byAccount, accountID)
	return nil
}

type fakeUserRepo struct {
	users map[int64]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	m := map[int64]*models.User{}
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUserRepo{users: m}
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	return r.users[id], nil
}

// fakeRunner plays back canned scrape results and counts external calls.
type fakeRunner struct {
	items []map[string]interface{}
	err   error
	calls int
}

func (r *fakeRunner) Run(_ context.Context, _ string, _ interface{}, _ int) ([]map[string]interface{}, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	return r.items, nil
}
