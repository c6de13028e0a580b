package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

const (
	PlatformInstagram = "instagram"
	PlatformTiktok    = "tiktok"
	PlatformTwitter   = "twitter"
	PlatformYoutube   = "youtube"
)

// SupportedPlatforms lists every platform an account can be attached to.
// youtube is the only one with an OAuth-backed credential; the rest are
// scrape-only, so their token columns stay NULL.
var SupportedPlatforms = []string{
	PlatformInstagram,
	PlatformTiktok,
	PlatformTwitter,
	PlatformYoutube,
}

func IsSupportedPlatform(platform string) bool {
	for _, p := range SupportedPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

// Metadata is the open extension map persisted as jsonb: bio, verified flag,
// top hashtags, computed averages and whatever else a platform exposes.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = Metadata{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("metadata: unsupported scan source")
	}
	if len(b) == 0 {
		*m = Metadata{}
		return nil
	}
	return json.Unmarshal(b, m)
}

type SocialAccount struct {
	ID              int64      `db:"id" json:"id"`
	UserID          int64      `db:"user_id" json:"user_id"`
	Platform        string     `db:"platform" json:"platform"`
	AccountID       string     `db:"account_id" json:"account_id"`
	AccountName     string     `db:"account_name" json:"account_name"`
	AccountUsername string     `db:"account_username" json:"account_username"`
	ProfileURL      string     `db:"profile_url" json:"profile_url"`
	ProfilePicture  string     `db:"profile_picture_url" json:"profile_picture"`
	FollowerCount   int64      `db:"follower_count" json:"follower_count"`
	FollowingCount  int64      `db:"following_count" json:"following_count"`
	PostCount       int64      `db:"post_count" json:"post_count"`
	EngagementRate  float64    `db:"engagement_rate" json:"engagement_rate"`
	IsActive        bool       `db:"is_active" json:"is_active"`
	AccessToken     string     `db:"access_token" json:"-"`
	RefreshToken    string     `db:"refresh_token" json:"-"`
	TokenExpiresAt  *time.Time `db:"token_expires_at" json:"token_expires_at,omitempty"`
	LastSyncedAt    *time.Time `db:"last_synced_at" json:"last_synced_at,omitempty"`
	Metadata        Metadata   `db:"metadata" json:"metadata"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}

// HasCredential reports whether the account carries an OAuth credential.
func (a *SocialAccount) HasCredential() bool {
	return a.AccessToken != "" && a.TokenExpiresAt != nil
}
