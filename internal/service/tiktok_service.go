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

type TiktokService interface {
	Connect(ctx context.Context, userID int64, username string) (*models.SocialAccount, error)
	Sync(ctx context.Context, accountID int64) (*models.SocialAccount, bool, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
}

type tiktokService struct {
	cfg    config.Config
	runner scraper.Runner
	sa     repository.SocialAccountRepository
	sp     repository.SocialPostRepository
	ur     repository.UserRepository
	policy *cache.Policy
	media  *MediaService
	now    func() time.Time
}

func NewTiktokService(
	cfg config.Config,
	runner scraper.Runner,
	sa repository.SocialAccountRepository,
	sp repository.SocialPostRepository,
	ur repository.UserRepository,
	policy *cache.Policy,
	media *MediaService) TiktokService {
	return &tiktokService{
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

func (s *tiktokService) Connect(ctx context.Context, userID int64, username string) (*models.SocialAccount, error) {
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

func (s *tiktokService) Sync(ctx context.Context, accountID int64) (*models.SocialAccount, bool, error) {
	stored, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil || stored.Platform != models.PlatformTiktok {
		return nil, false, fmt.Errorf("%w: tiktok account %d", ErrNotFound, accountID)
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

func (s *tiktokService) Disconnect(ctx context.Context, userID, accountID int64) error {
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

// fetch scrapes the profile's recent videos. The actor returns one item per
// video, each carrying the author's metadata, so the profile is normalized
// from the first item and the items double as the activity set.
func (s *tiktokService) fetch(ctx context.Context, username string) (*models.SocialAccount, []*models.SocialPost, error) {
	input := transfer.ScrapeInput{Usernames: []string{username}, ResultsLimit: s.cfg.ScrapeResultLimit}
	items, err := s.runner.Run(ctx, s.cfg.TiktokActorID, input, s.cfg.ScrapeResultLimit)
	if err != nil {
		return nil, nil, upstream(models.PlatformTiktok, "profile scrape", err)
	}
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("%w: tiktok profile %q", ErrNotFound, username)
	}

	author := authorMeta(items[0])
	if author == nil {
		return nil, nil, fmt.Errorf("%w: tiktok profile %q", ErrNotFound, username)
	}
	if ResolveBool(author, "privateAccount", "private", "secret") {
		return nil, nil, fmt.Errorf("%w: tiktok profile %q is private", ErrNotFound, username)
	}

	account := s.normalizeProfile(author)
	posts := s.normalizePosts(items)

	account.EngagementRate = ComputeEngagementRate(posts, account.FollowerCount)
	avgLikes, avgComments, avgViews := PostAverages(posts)
	account.Metadata["top_hashtags"] = utils.TopHashtags(captions(posts), 10)
	account.Metadata["avg_likes"] = avgLikes
	account.Metadata["avg_comments"] = avgComments
	account.Metadata["avg_views"] = avgViews

	if s.media != nil {
		account.ProfilePicture = s.media.MirrorImage(ctx, "tiktok/avatars", account.ProfilePicture)
	}

	return account, posts, nil
}

func authorMeta(item map[string]interface{}) map[string]interface{} {
	if meta, ok := item["authorMeta"].(map[string]interface{}); ok {
		return meta
	}
	if meta, ok := item["author"].(map[string]interface{}); ok {
		return meta
	}
	// Some actor versions flatten author fields onto the item itself.
	if ResolveString(item, "name", "uniqueId") != "" {
		return item
	}
	return nil
}

var (
	tiktokFollowerExtractors = []CountExtractor{
		Key("fans"),
		Key("followerCount"),
		Key("follower_count"),
	}
	tiktokFollowingExtractors = []CountExtractor{
		Key("following"),
		Key("followingCount"),
		Key("following_count"),
	}
	tiktokVideoCountExtractors = []CountExtractor{
		Key("video"),
		Key("videoCount"),
		Key("video_count"),
	}
	tiktokLikeExtractors = []CountExtractor{
		Key("diggCount"),
		Key("likesCount"),
		Key("like_count"),
	}
	tiktokCommentExtractors = []CountExtractor{
		Key("commentCount"),
		Key("comment_count"),
	}
	tiktokShareExtractors = []CountExtractor{
		Key("shareCount"),
		Key("share_count"),
	}
	tiktokViewExtractors = []CountExtractor{
		Key("playCount"),
		Key("play_count"),
		Key("viewCount"),
	}
)

func (s *tiktokService) normalizeProfile(author map[string]interface{}) *models.SocialAccount {
	username := ResolveString(author, "name", "uniqueId", "unique_id")

	return &models.SocialAccount{
		Platform:        models.PlatformTiktok,
		AccountID:       ResolveString(author, "id", "secUid"),
		AccountName:     ResolveString(author, "nickName", "nickname"),
		AccountUsername: username,
		ProfileURL:      "https://www.tiktok.com/@" + username,
		ProfilePicture:  ResolveString(author, "avatar", "avatarLarger", "avatar_url"),
		FollowerCount:   ResolveCount(author, tiktokFollowerExtractors),
		FollowingCount:  ResolveCount(author, tiktokFollowingExtractors),
		PostCount:       ResolveCount(author, tiktokVideoCountExtractors),
		IsActive:        true,
		LastSyncedAt:    timePtr(s.now()),
		Metadata: models.Metadata{
			"bio":         ResolveString(author, "signature", "bio"),
			"is_verified": ResolveBool(author, "verified"),
		},
	}
}

func (s *tiktokService) normalizePosts(items []map[string]interface{}) []*models.SocialPost {
	posts := make([]*models.SocialPost, 0, len(items))
	for _, item := range items {
		externalID := ResolveString(item, "id", "videoId")
		if externalID == "" {
			continue
		}

		post := &models.SocialPost{
			ExternalPostID: externalID,
			MediaType:      "video",
			Caption:        ResolveString(item, "text", "desc", "title"),
			MediaURL:       ResolveString(item, "webVideoUrl", "video_url"),
			ThumbnailURL:   tiktokCover(item),
			LikeCount:      ResolveCount(item, tiktokLikeExtractors),
			CommentCount:   ResolveCount(item, tiktokCommentExtractors),
			ShareCount:     ResolveCount(item, tiktokShareExtractors),
			ViewCount:      ResolveCount(item, tiktokViewExtractors),
			PostedAt:       ResolveTime(item, s.now(), "createTime", "createTimeISO", "created_at"),
			Metadata:       models.Metadata{},
		}

		if d := ResolveString(item, "duration", "videoDuration"); d != "" {
			if secs, err := utils.ParseDurationSeconds(d); err == nil {
				post.Metadata["duration_seconds"] = secs
			}
		} else if secs := ResolveCount(item, []CountExtractor{Key("duration")}); secs > 0 {
			post.Metadata["duration_seconds"] = secs
		}

		posts = append(posts, post)
	}
	return posts
}

func tiktokCover(item map[string]interface{}) string {
	if covers, ok := item["covers"].([]interface{}); ok && len(covers) > 0 {
		if s, ok := covers[0].(string); ok {
			return s
		}
	}
	return ResolveString(item, "coverUrl", "cover")
}
