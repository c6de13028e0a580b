package service

import (
	"context"
	"log/slog"

	"github.com/maheshrc27/creatorpulse/internal/models"
	"github.com/maheshrc27/creatorpulse/internal/repository"
)

// persistMirror writes a normalized profile and its recent posts through the
// account store. The account upsert is idempotent on (user, platform); post
// upserts are idempotent on (account, external post id). A single post
// failing to persist is logged and skipped, it does not fail the sync.
func persistMirror(
	ctx context.Context,
	sa repository.SocialAccountRepository,
	sp repository.SocialPostRepository,
	account *models.SocialAccount,
	posts []*models.SocialPost,
) (*models.SocialAccount, error) {
	id, err := sa.Upsert(ctx, account)
	if err != nil {
		return nil, err
	}

	for _, post := range posts {
		post.AccountID = id
		if _, err := sp.Upsert(ctx, post); err != nil {
			slog.Info("post upsert failed", "account_id", id, "external_post_id", post.ExternalPostID)
		}
	}

	stored, err := sa.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// requireAttachRole enforces who may connect a platform account.
func requireAttachRole(ctx context.Context, ur repository.UserRepository, userID int64) error {
	user, err := ur.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || !user.CanAttachPlatform() {
		return ErrForbidden
	}
	return nil
}

// rawItems coerces a scraped array field into a slice of objects, dropping
// anything that is not an object.
func rawItems(v interface{}) []map[string]interface{} {
	arr, ok := v.([]interface{})
	if !ok {
		return nil
	}
	items := make([]map[string]interface{}, 0, len(arr))
	for _, item := range arr {
		if m, ok := item.(map[string]interface{}); ok {
			items = append(items, m)
		}
	}
	return items
}
