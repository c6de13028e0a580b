package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/creatorpulse/internal/models"
)

type SocialPostRepository interface {
	Upsert(ctx context.Context, p *models.SocialPost) (int64, error)
	ListByAccountID(ctx context.Context, accountID int64, limit int) ([]*models.SocialPost, error)
	CountByAccountID(ctx context.Context, accountID int64) (int64, error)
	RemoveByAccountID(ctx context.Context, accountID int64) error
}

type socialPostRepository struct {
	db *sql.DB
}

func NewSocialPostRepository(db *sql.DB) SocialPostRepository {
	return &socialPostRepository{db: db}
}

// Upsert inserts the post or updates its counters when the external post id
// is already mirrored for this account. Rows only ever accumulate or update;
// posts deleted upstream are kept as-is.
func (r *socialPostRepository) Upsert(ctx context.Context, p *models.SocialPost) (int64, error) {
	query := `
		INSERT INTO social_posts(
			account_id, external_post_id, media_type, caption, media_url,
			thumbnail_url, like_count, comment_count, share_count, view_count,
			posted_at, metadata
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (account_id, external_post_id) DO UPDATE SET
			media_type = EXCLUDED.media_type,
			caption = EXCLUDED.caption,
			media_url = EXCLUDED.media_url,
			thumbnail_url = EXCLUDED.thumbnail_url,
			like_count = EXCLUDED.like_count,
			comment_count = EXCLUDED.comment_count,
			share_count = EXCLUDED.share_count,
			view_count = EXCLUDED.view_count,
			metadata = EXCLUDED.metadata,
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	var id int64
	err := r.db.QueryRowContext(ctx, query,
		p.AccountID,
		p.ExternalPostID,
		p.MediaType,
		p.Caption,
		p.MediaURL,
		p.ThumbnailURL,
		p.LikeCount,
		p.CommentCount,
		p.ShareCount,
		p.ViewCount,
		p.PostedAt,
		p.Metadata,
	).Scan(&id)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *socialPostRepository) ListByAccountID(ctx context.Context, accountID int64, limit int) ([]*models.SocialPost, error) {
	query := `SELECT id, account_id, external_post_id, media_type, caption, media_url,
			thumbnail_url, like_count, comment_count, share_count, view_count,
			posted_at, metadata, created_at, updated_at
		FROM social_posts
		WHERE account_id = $1
		ORDER BY posted_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var posts []*models.SocialPost
	for rows.Next() {
		var p models.SocialPost
		err := rows.Scan(&p.ID, &p.AccountID, &p.ExternalPostID, &p.MediaType,
			&p.Caption, &p.MediaURL, &p.ThumbnailURL, &p.LikeCount, &p.CommentCount,
			&p.ShareCount, &p.ViewCount, &p.PostedAt, &p.Metadata, &p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		posts = append(posts, &p)
	}
	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *socialPostRepository) CountByAccountID(ctx context.Context, accountID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM social_posts WHERE account_id = $1`

	var count int64
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(&count)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	return count, nil
}

func (r *socialPostRepository) RemoveByAccountID(ctx context.Context, accountID int64) error {
	query := `DELETE FROM social_posts WHERE account_id = $1`
	_, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
