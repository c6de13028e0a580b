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

type TwitterService interface {
	Connect(ctx context.Context, userID int64, username string) (*models.SocialAccount, error)
	Sync(ctx context.Context, accountID int64) (*models.SocialAccount, bool, error)
	Disconnect(ctx context.Context, userID, accountID int64) error
}

type twitterService struct {
	cfg    config.Config
	runner scraper.Runner
	sa     repository.SocialAccountRepository
	sp     repository.SocialPostRepository
	ur     repository.UserRepository
	policy *cache.Policy
	media  *MediaService
	now    func() time.Time
}

func NewTwitterService(
	cfg config.Config,
	runner scraper.Runner,
	sa repository.SocialAccountRepository,
	sp repository.SocialPostRepository,
	ur repository.UserRepository,
	policy *cache.Policy,
	media *MediaService) TwitterService {
	return &twitterService{
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

func (s *twitterService) Connect(ctx context.Context, userID int64, username string) (*models.SocialAccount, error) {
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

func (s *twitterService) Sync(ctx context.Context, accountID int64) (*models.SocialAccount, bool, error) {
	stored, err := s.sa.GetByID(ctx, accountID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil || stored.Platform != models.PlatformTwitter {
		return nil, false, fmt.Errorf("%w: twitter account %d", ErrNotFound, accountID)
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

func (s *twitterService) Disconnect(ctx context.Context, userID, accountID int64) error {
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

func (s *twitterService) fetch(ctx context.Context, username string) (*models.SocialAccount, []*models.SocialPost, error) {
	input := transfer.ScrapeInput{Usernames: []string{username}, ResultsLimit: s.cfg.ScrapeResultLimit}
	items, err := s.runner.Run(ctx, s.cfg.TwitterActorID, input, s.cfg.ScrapeResultLimit)
	if err != nil {
		return nil, nil, upstream(models.PlatformTwitter, "profile scrape", err)
	}
	if len(items) == 0 {
		return nil, nil, fmt.Errorf("%w: twitter profile %q", ErrNotFound, username)
	}

	raw := items[0]
	if ResolveBool(raw, "protected", "isProtected", "private") {
		return nil, nil, fmt.Errorf("%w: twitter profile %q is protected", ErrNotFound, username)
	}

	account := s.normalizeProfile(raw)

	tweets := rawItems(raw["latestTweets"])
	if tweets == nil {
		tweets = rawItems(raw["tweets"])
	}
	posts := s.normalizePosts(tweets)

	account.EngagementRate = ComputeEngagementRate(posts, account.FollowerCount)
	avgLikes, avgComments, avgViews := PostAverages(posts)
	account.Metadata["top_hashtags"] = utils.TopHashtags(captions(posts), 10)
	account.Metadata["avg_likes"] = avgLikes
	account.Metadata["avg_comments"] = avgComments
	account.Metadata["avg_views"] = avgViews

	if s.media != nil {
		account.ProfilePicture = s.media.MirrorImage(ctx, "twitter/avatars", account.ProfilePicture)
	}

	return account, posts, nil
}

var (
	twitterFollowerExtractors = []CountExtractor{
		Key("followers"),
		Key("followersCount"),
		Key("followers_count"),
	}
	twitterFollowingExtractors = []CountExtractor{
		Key("following"),
		Key("friendsCount"),
		Key("friends_count"),
	}
	twitterPostCountExtractors = []CountExtractor{
		Key("statusesCount"),
		Key("statuses_count"),
		Key("tweetsCount"),
	}
	twitterLikeExtractors = []CountExtractor{
		Key("likeCount"),
		Key("favoriteCount"),
		Key("favorite_count"),
	}
	twitterReplyExtractors = []CountExtractor{
		Key("replyCount"),
		Key("reply_count"),
	}
	twitterRetweetExtractors = []CountExtractor{
		Key("retweetCount"),
		Key("retweet_count"),
	}
	twitterViewExtractors = []CountExtractor{
		Key("viewCount"),
		Key("views"),
	}
)

func (s *twitterService) normalizeProfile(raw map[string]interface{}) *models.SocialAccount {
	username := ResolveString(raw, "userName", "screen_name", "username")

	return &models.SocialAccount{
		Platform:        models.PlatformTwitter,
		AccountID:       ResolveString(raw, "id", "id_str", "userId"),
		AccountName:     ResolveString(raw, "name", "displayName"),
		AccountUsername: username,
		ProfileURL:      "https://x.com/" + username,
		ProfilePicture:  ResolveString(raw, "profilePicture", "profile_image_url_https", "profile_image_url"),
		FollowerCount:   ResolveCount(raw, twitterFollowerExtractors),
		FollowingCount:  ResolveCount(raw, twitterFollowingExtractors),
		PostCount:       ResolveCount(raw, twitterPostCountExtractors),
		IsActive:        true,
		LastSyncedAt:    timePtr(s.now()),
		Metadata: models.Metadata{
			"bio":         ResolveString(raw, "description", "bio"),
			"is_verified": ResolveBool(raw, "isVerified", "isBlueVerified", "verified"),
		},
	}
}

func (s *twitterService) normalizePosts(items []map[string]interface{}) []*models.SocialPost {
	posts := make([]*models.SocialPost, 0, len(items))
	for _, item := range items {
		externalID := ResolveString(item, "id", "id_str")
		if externalID == "" {
			continue
		}

		posts = append(posts, &models.SocialPost{
			ExternalPostID: externalID,
			MediaType:      "tweet",
			Caption:        ResolveString(item, "text", "full_text"),
			MediaURL:       ResolveString(item, "url", "twitterUrl"),
			LikeCount:      ResolveCount(item, twitterLikeExtractors),
			CommentCount:   ResolveCount(item, twitterReplyExtractors),
			ShareCount:     ResolveCount(item, twitterRetweetExtractors),
			ViewCount:      ResolveCount(item, twitterViewExtractors),
			PostedAt:       ResolveTime(item, s.now(), "createdAt", "created_at"),
			Metadata:       models.Metadata{},
		})
	}
	return posts
}
