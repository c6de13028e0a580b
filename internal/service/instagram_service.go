package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	config "github.com/maheshrc27/creatorpulse/configs"
	"github.com/maheshrc27/creatorpulse/internal/cache"
	"github.com/maheshrc27/creatorpulse/internal/models"
	"github.com/maheshrc27/creatorpulse/internal/repository"
	"github.com/maheshrc27/creatorpulse/internal/scraper"
	"github.com/maheshrc27/creatorpulse/internal/transfer"
	"github.com/maheshrc27/creatorpulse/pkg/utils"
)

type InstagramService interface {
	Connect(ctx context.Context, userID int64, username string) (*models.SocialAccount, error)
	Sync(ctx context.Context, accountID int64) (*models.SocialAccount, bool, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
}

type instagramService struct {
	cfg    config.Config
	runner scraper.Runner
	sa     repository.SocialAccountRepository
	sp     repository.SocialPostRepository
	ur     repository.UserRepository
	policy *cache.Policy
	media  *MediaService
	now    func() time.Time
}

func NewInstagramService(
	cfg config.Config,
	runner scraper.Runner,
	sa repository.SocialAccountRepository,
	sp repository.SocialPostRepository,
	ur repository.UserRepository,
	policy *cache.Policy,
	media *MediaService) InstagramService {
	return &instagramService{
		cfg:    cfg,
		runner: runner,
		sa:     sa,
		sp:     sp,
		ur:     ur,
		policy: policy,
		media:  media,
		now:    time.Now,
	}
}

func (s *instagramService) Connect(ctx context.Context, userID int64, username string) (*models.SocialAccount, error) {
	username = strings.TrimSpace(strings.TrimPrefix(username, "@"))
	if username == "" {
		return nil, fmt.Errorf("%w: username is empty", ErrValidation)
	}

	if err := requireAttachRole(ctx, s.ur, userID); err != nil {
		return nil, err
	}

	account, posts, err := s.fetch(ctx, username)
	if err != nil {
		return nil, err
	}
	account.UserID = userID

	return persistMirror(ctx, s.sa, s.sp, account, posts)
}

func (s *instagramService) Sync(ctx context.Context, accountID int64) (*models.SocialAccount, bool, error) {
	stored, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil || stored.Platform != models.PlatformInstagram {
		return nil, false, fmt.Errorf("%w: instagram account %d", ErrNotFound, accountID)
	}

	if s.policy.IsValid(stored.LastSyncedAt) {
		return stored, true, nil
	}

	account, posts, err := s.fetch(ctx, stored.AccountUsername)
	if err != nil {
		return nil, false, err
	}
	account.UserID = stored.UserID

	fresh, err := persistMirror(ctx, s.sa, s.sp, account, posts)
	if err != nil {
		return nil, false, err
	}
	return fresh, false, nil
}

func (s *instagramService) Disconnect(ctx context.Context, userID, accountID int64) error {
	owns, err := s.sa.CheckByUserID(ctx, accountID, userID)
	if err != nil {
		return err
	}
	if !owns {
		return ErrForbidden
	}

	if err := s.sp.RemoveByAccountID(ctx, accountID); err != nil {
		return err
	}
	return s.sa.Remove(ctx, accountID)
}

// fetch scrapes the profile and its recent posts, normalized into the
// canonical shape with engagement and hashtags computed.
func (s *instagramService) fetch(ctx context.Context, username string) (*models.SocialAccount, []*models.SocialPost, error) {
	input := transfer.ScrapeInput{Usernames: []string{username}, ResultsLimit: s.cfg.ScrapeResultLimit}
	items, err := s.runner.Run(ctx, s.cfg.InstagramActorID, input, s.cfg.ScrapeResultLimit)
	if err != nil {
		return nil, nil, upstream(models.PlatformInstagram, "profile scrape", err)
	}
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("%w: instagram profile %q", ErrNotFound, username)
	}

	raw := items[0]
	if ResolveBool(raw, "private", "isPrivate", "is_private") || ResolveString(raw, "error") != "" {
		return nil, nil, fmt.Errorf("%w: instagram profile %q is private or unavailable", ErrNotFound, username)
	}

	account := s.normalizeProfile(raw)
	posts := s.normalizePosts(rawItems(raw["latestPosts"]))

	account.EngagementRate = ComputeEngagementRate(posts, account.FollowerCount)
	avgLikes, avgComments, avgViews := PostAverages(posts)
	account.Metadata["top_hashtags"] = utils.TopHashtags(captions(posts), 10)
	account.Metadata["avg_likes"] = avgLikes
	account.Metadata["avg_comments"] = avgComments
	account.Metadata["avg_views"] = avgViews

	if s.media != nil {
		account.ProfilePicture = s.media.MirrorImage(ctx, "instagram/avatars", account.ProfilePicture)
	}

	return account, posts, nil
}

var (
	instagramFollowerExtractors = []CountExtractor{
		Key("followersCount"),
		Key("follower_count"),
		Path("edge_followed_by", "count"),
	}
	instagramFollowingExtractors = []CountExtractor{
		Key("followsCount"),
		Key("following_count"),
		Path("edge_follow", "count"),
	}
	instagramPostCountExtractors = []CountExtractor{
		Key("postsCount"),
		Key("media_count"),
		Path("edge_owner_to_timeline_media", "count"),
	}
	instagramLikeExtractors = []CountExtractor{
		Key("likesCount"),
		Key("like_count"),
		Path("edge_liked_by", "count"),
	}
	instagramCommentExtractors = []CountExtractor{
		Key("commentsCount"),
		Key("comment_count"),
		Path("edge_media_to_comment", "count"),
	}
	instagramViewExtractors = []CountExtractor{
		Key("videoViewCount"),
		Key("video_view_count"),
		Key("viewsCount"),
	}
)

func (s *instagramService) normalizeProfile(raw map[string]interface{}) *models.SocialAccount {
	username := ResolveString(raw, "username", "userName")

	return &models.SocialAccount{
		Platform:        models.PlatformInstagram,
		AccountID:       ResolveString(raw, "id", "pk", "userId"),
		AccountName:     ResolveString(raw, "fullName", "full_name", "name"),
		AccountUsername: username,
		ProfileURL:      "https://www.instagram.com/" + username,
		ProfilePicture:  ResolveString(raw, "profilePicUrlHD", "profilePicUrl", "profile_pic_url"),
		FollowerCount:   ResolveCount(raw, instagramFollowerExtractors),
		FollowingCount:  ResolveCount(raw, instagramFollowingExtractors),
		PostCount:       ResolveCount(raw, instagramPostCountExtractors),
		IsActive:        true,
		LastSyncedAt:    timePtr(s.now()),
		Metadata: models.Metadata{
			"bio":         ResolveString(raw, "biography", "bio"),
			"is_verified": ResolveBool(raw, "verified", "isVerified", "is_verified"),
		},
	}
}

func (s *instagramService) normalizePosts(items []map[string]interface{}) []*models.SocialPost {
	posts := make([]*models.SocialPost, 0, len(items))
	for _, item := range items {
		externalID := ResolveString(item, "id", "shortCode", "pk")
		if externalID == "" {
			continue
		}

		posts = append(posts, &models.SocialPost{
			ExternalPostID: externalID,
			MediaType:      strings.ToLower(ResolveString(item, "type", "mediaType", "__typename")),
			Caption:        ResolveString(item, "caption", "text"),
			MediaURL:       ResolveString(item, "url", "displayUrl", "display_url"),
			ThumbnailURL:   ResolveString(item, "displayUrl", "thumbnailUrl", "thumbnail_src"),
			LikeCount:      ResolveCount(item, instagramLikeExtractors),
			CommentCount:   ResolveCount(item, instagramCommentExtractors),
			ViewCount:      ResolveCount(item, instagramViewExtractors),
			PostedAt:       ResolveTime(item, s.now(), "timestamp", "taken_at_timestamp", "taken_at"),
			Metadata:       models.Metadata{},
		})
	}
	return posts
}

func timePtr(t time.Time) *time.Time {
	return &t
}
