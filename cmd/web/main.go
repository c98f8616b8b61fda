package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pageza/caltrack/web/config"
	"github.com/pageza/caltrack/web/internal/api"
	"github.com/pageza/caltrack/web/internal/database"
	"github.com/pageza/caltrack/web/internal/identity"
	"github.com/pageza/caltrack/web/internal/media"
	"github.com/pageza/caltrack/web/internal/metrics"
	"github.com/pageza/caltrack/web/internal/middleware"
	"github.com/pageza/caltrack/web/internal/nutrition"
	"github.com/pageza/caltrack/web/internal/profile"
	"github.com/pageza/caltrack/web/internal/realtime"
	"github.com/pageza/caltrack/web/internal/remote"
	"github.com/pageza/caltrack/web/internal/server"
	"github.com/pageza/caltrack/web/internal/storage"
	"github.com/pageza/caltrack/web/internal/tracker"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	metrics.Register()

	// Initialize persistence
	store, err := storage.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open %s store: %v", cfg.StoreDriver, err)
	}

	client, err := remote.NewClient(cfg.APIBaseURL,
		remote.WithTimeout(cfg.APITimeout),
		remote.WithTokenSecret(cfg.APITokenSecret),
	)
	if err != nil {
		log.Fatalf("Failed to create meal API client: %v", err)
	}

	// Initialize services
	hub := realtime.NewHub(cfg.AllowedOrigins)
	profiles := profile.NewStore(store, client)
	profiles.AddListener(hub)

	trackerOpts := []tracker.Option{tracker.WithNotifier(hub)}
	s3cfg, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3: %v", err)
	}
	if s3cfg != nil {
		trackerOpts = append(trackerOpts, tracker.WithImageResolver(media.NewResolver(s3cfg, s3cfg.BucketName, media.DefaultExpiry)))
	}

	var limiter *middleware.RateLimiter
	if cfg.SubmitRateLimit > 0 {
		redisClient, err := database.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		limiter = middleware.NewMealSubmissionRateLimiter(redisClient, cfg.SubmitRateLimit)
	}

	srv := server.New(cfg, api.Dependencies{
		Identity:      identity.NewProvider(identity.WithSecureCookie(cfg.CookieSecure || config.IsProduction())),
		Profiles:      profiles,
		Resolver:      nutrition.NewResolver(profiles),
		Tracker:       tracker.New(client, trackerOpts...),
		Hub:           hub,
		SubmitLimiter: limiter,
	})

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		log.Printf("Starting server in %s mode...", config.GetEnvironment())
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
