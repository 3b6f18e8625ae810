package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/trendscope/skilltrends/internal/config"
	"github.com/trendscope/skilltrends/internal/keys"
	"github.com/trendscope/skilltrends/internal/sources"
	"github.com/trendscope/skilltrends/internal/store"
)

func main() {
	fmt.Println("🔍 Skill Trends Service - API Connectivity Test")
	fmt.Println("===============================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	storeClient := store.NewClient(cfg.SupabaseURL, cfg.StoreKey())
	keyService := keys.NewService(storeClient, cfg.SerpAPIKey, cfg.ApifyAPIToken)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	fmt.Println("\n📡 Testing Sources...")
	fmt.Println(strings.Repeat("-", 40))

	testJobSource(ctx, "SerpAPI Google Jobs",
		sources.NewSerpJobsSource(keyService.SerpKey, cfg.DefaultRegion, cfg.DefaultLanguage),
		"golang developer", cfg.DefaultLocation)

	testDiscussionSource(ctx, "Reddit", sources.NewRedditSource(), "golang")
	testDiscussionSource(ctx, "Apify", sources.NewApifySource(keyService.ApifyToken), "golang")

	fmt.Println("\n✅ API connectivity test completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Configure missing API keys in .env file")
	fmt.Println("   • Run the full service with: make run")
}

func testJobSource(ctx context.Context, name string, source sources.JobSource, query, location string) {
	fmt.Printf("🔸 Testing %s... ", name)

	if !source.Enabled() {
		fmt.Printf("⚠️  DISABLED (missing API key)\n")
		return
	}

	jobs, err := source.Fetch(ctx, query, sources.JobOptions{Location: location, NumResults: 5})
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d jobs found)\n", len(jobs))
	if len(jobs) > 0 {
		fmt.Printf("   📝 Sample: \"%s\" at %s\n", jobs[0].Title, jobs[0].CompanyName)
	}
}

func testDiscussionSource(ctx context.Context, name string, source sources.DiscussionSource, query string) {
	fmt.Printf("🔸 Testing %s... ", name)

	if !source.Enabled() {
		fmt.Printf("⚠️  DISABLED (missing API token)\n")
		return
	}

	posts, err := source.Fetch(ctx, query, sources.DiscussionOptions{MaxItems: 5})
	if err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d posts found)\n", len(posts))
	if len(posts) > 0 {
		fmt.Printf("   📝 Sample: \"%s\" in r/%s\n", posts[0].Title, posts[0].Subreddit)
	}
}
