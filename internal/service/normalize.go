package service

import (
	"log/slog"
	"math"
	"time"

	"github.com/maheshrc27/creatorpulse/internal/models"
	"github.com/maheshrc27/creatorpulse/pkg/utils"
)

// The scrapers do not promise a stable schema: the same number shows up as
// "followersCount", "followers", or nested under an edge object depending on
// actor version. Each canonical field is resolved by trying a named list of
// extractors in order, so the fallback order stays explicit and each
// extractor stays testable on its own.

type CountExtractor struct {
	Name string
	Fn   func(raw map[string]interface{}) (interface{}, bool)
}

// Key reads a top-level field.
func Key(name string) CountExtractor {
	return CountExtractor{
		Name: name,
		Fn: func(raw map[string]interface{}) (interface{}, bool) {
			v, ok := raw[name]
			return v, ok && v != nil
		},
	}
}

// Path walks nested objects, e.g. Path("edge_followed_by", "count").
func Path(names ...string) CountExtractor {
	joined := names[0]
	for _, n := range names[1:] {
		joined += "." + n
	}
	return CountExtractor{
		Name: joined,
		Fn: func(raw map[string]interface{}) (interface{}, bool) {
			current := raw
			for i, name := range names {
				v, ok := current[name]
				if !ok || v == nil {
					return nil, false
				}
				if i == len(names)-1 {
					return v, true
				}
				current, ok = v.(map[string]interface{})
				if !ok {
					return nil, false
				}
			}
			return nil, false
		},
	}
}

// ResolveCount tries the extractors in order and coerces the first hit into
// an integer. A record where no extractor matches resolves to zero; the
// platforms regularly omit counts for restricted profiles.
func ResolveCount(raw map[string]interface{}, extractors []CountExtractor) int64 {
	for _, ex := range extractors {
		v, ok := ex.Fn(raw)
		if !ok {
			continue
		}
		n, err := utils.NormalizeCount(v)
		if err != nil {
			slog.Info("count extractor " + ex.Name + ": " + err.Error())
			continue
		}
		return n
	}
	return 0
}

// ResolveString returns the first non-empty string among the candidate keys.
func ResolveString(raw map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// ResolveBool returns the first boolean among the candidate keys.
func ResolveBool(raw map[string]interface{}, keys ...string) bool {
	for _, key := range keys {
		if v, ok := raw[key]; ok {
			if b, ok := v.(bool); ok {
				return b
			}
		}
	}
	return false
}

// ResolveTime parses the first timestamp-looking value among the candidate
// keys, handling unix seconds, RFC3339 and relative phrases. Unparsable input
// falls back to now and is logged as a parse miss; a bad timestamp must not
// abort a sync.
func ResolveTime(raw map[string]interface{}, now time.Time, keys ...string) time.Time {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case float64:
			return time.Unix(int64(t), 0).UTC()
		case string:
			parsed, err := utils.ParseRelativeTime(t, now)
			if err != nil {
				slog.Info("timestamp parse miss on " + key + ": " + err.Error())
				continue
			}
			return parsed
		}
	}
	return now
}

// Fixed heuristic ratios for platforms that only expose view counts at the
// channel level. These are approximations, not measured values.
const (
	viewLikeRatio    = 0.04
	viewCommentRatio = 0.005
)

// ComputeEngagementRate is the canonical engagement formula: mean interaction
// count per post over followers, as a percentage rounded to 2 decimals.
func ComputeEngagementRate(posts []*models.SocialPost, followerCount int64) float64 {
	if followerCount == 0 || len(posts) == 0 {
		return 0
	}

	var total int64
	for _, p := range posts {
		total += p.LikeCount + p.CommentCount + p.ShareCount
	}
	mean := float64(total) / float64(len(posts))

	return round2(mean / float64(followerCount) * 100)
}

// ComputeViewEngagementRate is the fallback for view-only platforms where
// per-item like/comment counts are unavailable.
func ComputeViewEngagementRate(posts []*models.SocialPost, followerCount int64) float64 {
	if followerCount == 0 || len(posts) == 0 {
		return 0
	}

	var total int64
	for _, p := range posts {
		total += p.ViewCount
	}
	mean := float64(total) / float64(len(posts))

	return round2(mean / float64(followerCount) * 100)
}

// EstimateInteractionsFromViews synthesizes per-item like/comment counts as
// fixed fractions of views for platforms that only expose views.
func EstimateInteractionsFromViews(views int64) (likes, comments int64) {
	likes = int64(math.Round(float64(views) * viewLikeRatio))
	comments = int64(math.Round(float64(views) * viewCommentRatio))
	return likes, comments
}

// PostAverages computes the mean like/comment/view counts stored in account
// metadata alongside the engagement rate.
func PostAverages(posts []*models.SocialPost) (avgLikes, avgComments, avgViews float64) {
	if len(posts) == 0 {
		return 0, 0, 0
	}

	var likes, comments, views int64
	for _, p := range posts {
		likes += p.LikeCount
		comments += p.CommentCount
		views += p.ViewCount
	}
	n := float64(len(posts))
	return round2(float64(likes) / n), round2(float64(comments) / n), round2(float64(views) / n)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func captions(posts []*models.SocialPost) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Caption)
	}
	return out
}
