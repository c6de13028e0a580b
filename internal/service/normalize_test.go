package service

import (
	"testing"
	"time"

	"github.com/maheshrc27/creatorpulse/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResolveCount_FallbackOrder(t *testing.T) {
	extractors := []CountExtractor{
		Key("followersCount"),
		Key("follower_count"),
		Path("edge_followed_by", "count"),
	}

	// first name wins when present
	raw := map[string]interface{}{
		"followersCount": float64(100),
		"follower_count": float64(999),
	}
	assert.Equal(t, int64(100), ResolveCount(raw, extractors))

	// falls through to the second name
	raw = map[string]interface{}{"follower_count": "12.3K"}
	assert.Equal(t, int64(12300), ResolveCount(raw, extractors))

	// nested shape last
	raw = map[string]interface{}{
		"edge_followed_by": map[string]interface{}{"count": float64(42)},
	}
	assert.Equal(t, int64(42), ResolveCount(raw, extractors))

	// nothing matches
	assert.Equal(t, int64(0), ResolveCount(map[string]interface{}{}, extractors))
}

func TestResolveCount_SkipsUnparsableValues(t *testing.T) {
	extractors := []CountExtractor{Key("a"), Key("b")}
	raw := map[string]interface{}{
		"a": "not a number",
		"b": "1.5M",
	}
	assert.Equal(t, int64(1500000), ResolveCount(raw, extractors))
}

func TestResolveString(t *testing.T) {
	raw := map[string]interface{}{"userName": "", "username": "creator1"}
	assert.Equal(t, "creator1", ResolveString(raw, "userName", "username"))
	assert.Equal(t, "", ResolveString(raw, "missing"))
}

func TestResolveTime_FallsBackToNow(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	raw := map[string]interface{}{"timestamp": "definitely not a time"}
	assert.Equal(t, now, ResolveTime(raw, now, "timestamp"))

	raw = map[string]interface{}{"timestamp": float64(1735689600)}
	assert.Equal(t, time.Unix(1735689600, 0).UTC(), ResolveTime(raw, now, "timestamp"))

	raw = map[string]interface{}{"date": "6 days ago"}
	assert.Equal(t, now.Add(-6*24*time.Hour), ResolveTime(raw, now, "date"))
}

func TestComputeEngagementRate(t *testing.T) {
	posts := []*models.SocialPost{
		{LikeCount: 100, CommentCount: 10},
		{LikeCount: 200, CommentCount: 20, ShareCount: 10},
	}

	// mean interactions = (110 + 230) / 2 = 170; 170/10000*100 = 1.7
	assert.Equal(t, 1.7, ComputeEngagementRate(posts, 10000))
}

func TestComputeEngagementRate_ZeroCases(t *testing.T) {
	posts := []*models.SocialPost{{LikeCount: 5}}

	assert.Equal(t, float64(0), ComputeEngagementRate(nil, 100))
	assert.Equal(t, float64(0), ComputeEngagementRate([]*models.SocialPost{}, 100))
	assert.Equal(t, float64(0), ComputeEngagementRate(posts, 0))
}

func TestComputeEngagementRate_RoundsToTwoDecimals(t *testing.T) {
	posts := []*models.SocialPost{{LikeCount: 1}, {LikeCount: 2}}

	// mean 1.5 over 700 followers = 0.214285...% -> 0.21
	assert.Equal(t, 0.21, ComputeEngagementRate(posts, 700))
}

func TestComputeViewEngagementRate(t *testing.T) {
	posts := []*models.SocialPost{
		{ViewCount: 1000},
		{ViewCount: 3000},
	}

	// mean views 2000 over 50000 followers = 4%
	assert.Equal(t, float64(4), ComputeViewEngagementRate(posts, 50000))
	assert.Equal(t, float64(0), ComputeViewEngagementRate(nil, 50000))
	assert.Equal(t, float64(0), ComputeViewEngagementRate(posts, 0))
}

func TestEstimateInteractionsFromViews(t *testing.T) {
	likes, comments := EstimateInteractionsFromViews(10000)
	assert.Equal(t, int64(400), likes)  // 4% of views
	assert.Equal(t, int64(50), comments) // 0.5% of views

	likes, comments = EstimateInteractionsFromViews(0)
	assert.Equal(t, int64(0), likes)
	assert.Equal(t, int64(0), comments)
}

func TestPostAverages(t *testing.T) {
	posts := []*models.SocialPost{
		{LikeCount: 10, CommentCount: 2, ViewCount: 100},
		{LikeCount: 20, CommentCount: 4, ViewCount: 300},
	}

	avgLikes, avgComments, avgViews := PostAverages(posts)
	assert.Equal(t, float64(15), avgLikes)
	assert.Equal(t, float64(3), avgComments)
	assert.Equal(t, float64(200), avgViews)

	avgLikes, avgComments, avgViews = PostAverages(nil)
	assert.Zero(t, avgLikes)
	assert.Zero(t, avgComments)
	assert.Zero(t, avgViews)
}
