package models

import "time"

type SocialPost struct {
	ID             int64     `db:"id" json:"id"`
	AccountID      int64     `db:"account_id" json:"account_id"`
	ExternalPostID string    `db:"external_post_id" json:"external_post_id"`
	MediaType      string    `db:"media_type" json:"media_type"`
	Caption        string    `db:"caption" json:"caption"`
	MediaURL       string    `db:"media_url" json:"media_url"`
	ThumbnailURL   string    `db:"thumbnail_url" json:"thumbnail_url"`
	LikeCount      int64     `db:"like_count" json:"like_count"`
	CommentCount   int64     `db:"comment_count" json:"comment_count"`
	ShareCount     int64     `db:"share_count" json:"share_count"`
	ViewCount      int64     `db:"view_count" json:"view_count"`
	PostedAt       time.Time `db:"posted_at" json:"posted_at"`
	Metadata       Metadata  `db:"metadata" json:"metadata"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
