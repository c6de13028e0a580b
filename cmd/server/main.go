package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	config "github.com/maheshrc27/creatorpulse/configs"
	"github.com/maheshrc27/creatorpulse/internal/api/handlers"
	"github.com/maheshrc27/creatorpulse/internal/api/middleware"
	"github.com/maheshrc27/creatorpulse/internal/cache"
	job "github.com/maheshrc27/creatorpulse/internal/jobs"
	"github.com/maheshrc27/creatorpulse/internal/repository"
	"github.com/maheshrc27/creatorpulse/internal/scraper"
	"github.com/maheshrc27/creatorpulse/internal/service"
	"github.com/maheshrc27/creatorpulse/internal/vault"
	"github.com/robfig/cron"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOriginsFunc: func(origin string) bool {
			return true
		},
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	userRepo := repository.NewUserRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	socialPostRepo := repository.NewSocialPostRepository(db)

	policy := cache.NewPolicy(cfg.CacheTTLDays)
	credVault := vault.New(*cfg)
	runner := scraper.NewClient(*cfg)
	mediaService := service.NewMediaService(*cfg)

	instagramService := service.NewInstagramService(*cfg, runner, socialAccountRepo, socialPostRepo, userRepo, policy, mediaService)
	tiktokService := service.NewTiktokService(*cfg, runner, socialAccountRepo, socialPostRepo, userRepo, policy, mediaService)
	twitterService := service.NewTwitterService(*cfg, runner, socialAccountRepo, socialPostRepo, userRepo, policy, mediaService)
	youtubeService := service.NewYoutubeService(*cfg, runner, socialAccountRepo, socialPostRepo, userRepo, policy, credVault, mediaService)
	platformService := service.NewPlatformService(*cfg, socialAccountRepo, instagramService, tiktokService, twitterService, youtubeService)

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	platform := handlers.NewPlatformHandler(platformService, youtubeService, *cfg)
	app.Get("/auth/:platform", platform.AddSocialAccount)
	app.Get("/auth/:platform/callback", platform.CallbackHandler)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	// social accounts api routes
	api.Post("/accounts/connect", platform.ConnectAccount)
	api.Get("/accounts", platform.ListSocialAccounts)
	api.Post("/accounts/:id/sync", platform.SyncAccount)
	api.Post("/accounts/remove", platform.DeleteSocialAccount)

	// cron jobs
	notifier := service.LogNotifier{}
	syncJob := job.NewSyncJob(socialAccountRepo, platformService, policy, notifier, cfg.SyncDelayMs)
	refreshTokenJob := job.NewTokenRefreshJob(socialAccountRepo, credVault, notifier, cfg.RefreshHorizonDays)

	c := cron.New()
	c.AddFunc("@daily", func() { syncJob.Run() })
	c.AddFunc("@every 1h00m00s", func() { refreshTokenJob.RefreshTokens() })
	c.Start()
	defer c.Stop()

	// catch-up pass for accounts that went overdue while the process was down
	go syncJob.RunCatchUp(time.Duration(cfg.StartupWarmupSecs) * time.Second)

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
