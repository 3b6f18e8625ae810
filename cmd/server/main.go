package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/trendscope/skilltrends/internal/api"
	"github.com/trendscope/skilltrends/internal/archive"
	"github.com/trendscope/skilltrends/internal/collection"
	"github.com/trendscope/skilltrends/internal/config"
	"github.com/trendscope/skilltrends/internal/keys"
	"github.com/trendscope/skilltrends/internal/notifications"
	"github.com/trendscope/skilltrends/internal/scheduler"
	"github.com/trendscope/skilltrends/internal/skills"
	"github.com/trendscope/skilltrends/internal/sources"
	"github.com/trendscope/skilltrends/internal/store"
	"github.com/trendscope/skilltrends/internal/trends"
)

func main() {
	// Load environment variables from .env file if it exists
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set up logging
	logrus.SetLevel(logrus.InfoLevel)
	if cfg.Debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	logrus.SetFormatter(&logrus.JSONFormatter{})

	logrus.Info("Starting Skill Trends Service")

	// Persistence backend
	storeClient := store.NewClient(cfg.SupabaseURL, cfg.StoreKey())
	writer := store.NewWriter(storeClient)

	// Credential resolution (store-managed keys with env fallback)
	keyService := keys.NewService(storeClient, cfg.SerpAPIKey, cfg.ApifyAPIToken)

	// Source adapters
	jobSource := sources.NewSerpJobsSource(keyService.SerpKey, cfg.DefaultRegion, cfg.DefaultLanguage)
	redditSource := sources.NewRedditSource()

	var discussionSource sources.DiscussionSource
	switch cfg.DiscussionSource {
	case "apify":
		discussionSource = sources.NewApifySource(keyService.ApifyToken)
	default:
		discussionSource = redditSource
	}
	logrus.Infof("Discussion source: %s", discussionSource.Name())

	// Optional snapshot archive
	var snapshots archive.Archive
	if cfg.StorageAccount != "" {
		azureArchive, err := archive.NewAzureArchive(cfg.StorageAccount, cfg.StorageContainer)
		if err != nil {
			logrus.Fatalf("Failed to initialize snapshot archive: %v", err)
		}
		snapshots = azureArchive
	}

	// Optional summary report
	var notifier notifications.Notifier
	if cfg.ReportWebhookURL != "" || cfg.NotificationEmail != "" {
		notifier = notifications.NewService(cfg)
	}

	// Skill extraction and trend aggregation
	extractor := skills.NewExtractor(skills.DefaultLexicon())
	aggregator := trends.NewAggregator(storeClient, extractor)

	// Collection pipeline
	collectionService := collection.NewService(cfg, jobSource, discussionSource, writer, aggregator, notifier, snapshots)

	// Scheduler
	schedulerService := scheduler.NewService(cfg, collectionService)
	if err := schedulerService.Start(); err != nil {
		logrus.Fatalf("Failed to start scheduler: %v", err)
	}
	defer schedulerService.Stop()

	// HTTP triggering surface
	apiServer := api.NewServer(cfg, collectionService, storeClient, redditSource)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      loggingMiddleware(apiServer.Router()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server in a goroutine
	go func() {
		logrus.Infof("HTTP server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server failed: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func loggingMiddleware(next *mux.Router) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logrus.Debugf("%s %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}
