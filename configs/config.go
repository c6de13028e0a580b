package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	ScraperAPIToken     string
	InstagramActorID    string
	TiktokActorID       string
	TwitterActorID      string
	YoutubeActorID      string
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURI   string
	PostgresURI         string
	FrontendURL         string
	R2                  R2
	SecretKey           string
	CookieName          string
	CacheTTLDays        int
	SyncDelayMs         int
	RefreshHorizonDays  int
	UpstreamTimeoutSecs int
	StartupWarmupSecs   int
	ScrapeResultLimit   int
}

func LoadConfig() *Config {
	return &Config{
		ScraperAPIToken:     getEnv("SCRAPER_API_TOKEN", ""),
		InstagramActorID:    getEnv("INSTAGRAM_ACTOR_ID", "apify~instagram-profile-scraper"),
		TiktokActorID:       getEnv("TIKTOK_ACTOR_ID", "clockworks~tiktok-profile-scraper"),
		TwitterActorID:      getEnv("TWITTER_ACTOR_ID", "apidojo~twitter-user-scraper"),
		YoutubeActorID:      getEnv("YOUTUBE_ACTOR_ID", "streamers~youtube-channel-scraper"),
		GoogleClientID:      getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:   getEnv("GOOGLE_REDIRECT_URI", ""),
		PostgresURI:         getEnv("POSTGRES_URI", ""),
		FrontendURL:         getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:           getEnv("SECRET_KEY", ""),
		CookieName:          getEnv("COOKIE_NAME", "creatorpulse_session"),
		CacheTTLDays:        getEnvInt("CACHE_TTL_DAYS", 7),
		SyncDelayMs:         getEnvInt("SYNC_DELAY_MS", 2000),
		RefreshHorizonDays:  getEnvInt("TOKEN_REFRESH_HORIZON_DAYS", 7),
		UpstreamTimeoutSecs: getEnvInt("UPSTREAM_TIMEOUT_SECS", 120),
		StartupWarmupSecs:   getEnvInt("STARTUP_WARMUP_SECS", 30),
		ScrapeResultLimit:   getEnvInt("SCRAPE_RESULT_LIMIT", 30),
	}
}

// Validate reports every missing required secret at once so a bad deploy
// fails on startup, not on the first external call.
func (c *Config) Validate() error {
	var missing []string

	if c.ScraperAPIToken == "" {
		missing = append(missing, "SCRAPER_API_TOKEN")
	}
	if c.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if c.PostgresURI == "" {
		missing = append(missing, "POSTGRES_URI")
	}
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" || c.GoogleRedirectURI == "" {
		missing = append(missing, "GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET/GOOGLE_REDIRECT_URI")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
