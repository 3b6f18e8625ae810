package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/trendscope/skilltrends/internal/models"
	"github.com/trendscope/skilltrends/internal/skills"
	"github.com/trendscope/skilltrends/internal/sources"
	"github.com/trendscope/skilltrends/internal/store"
)

// memoryStore keeps everything in maps so the pipeline can run without a
// live persistence backend.
type memoryStore struct {
	jobs        map[string]models.JobRecord
	discussions map[string]models.DiscussionRecord
	trendRows   map[string]models.SkillTrend
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		jobs:        make(map[string]models.JobRecord),
		discussions: make(map[string]models.DiscussionRecord),
		trendRows:   make(map[string]models.SkillTrend),
	}
}

func (m *memoryStore) JobExists(ctx context.Context, hash string) (bool, error) {
	_, ok := m.jobs[hash]
	return ok, nil
}

func (m *memoryStore) InsertJob(ctx context.Context, job models.JobRecord) error {
	m.jobs[job.JobHash] = job
	return nil
}

func (m *memoryStore) JobCount(ctx context.Context) (int, error) { return len(m.jobs), nil }

func (m *memoryStore) JobDescriptions(ctx context.Context) ([]string, error) {
	var out []string
	for _, job := range m.jobs {
		out = append(out, job.Description)
	}
	return out, nil
}

func (m *memoryStore) DiscussionExists(ctx context.Context, hash string) (bool, error) {
	_, ok := m.discussions[hash]
	return ok, nil
}

func (m *memoryStore) InsertDiscussion(ctx context.Context, post models.DiscussionRecord) error {
	m.discussions[post.PostHash] = post
	return nil
}

func (m *memoryStore) DiscussionCount(ctx context.Context) (int, error) {
	return len(m.discussions), nil
}

func (m *memoryStore) DiscussionTexts(ctx context.Context) ([]store.DiscussionText, error) {
	var out []store.DiscussionText
	for _, post := range m.discussions {
		out = append(out, store.DiscussionText{Title: post.Title, Body: post.Body})
	}
	return out, nil
}

func (m *memoryStore) FindSkillTrend(ctx context.Context, snapshotDate, skillNormalized string) (string, bool, error) {
	key := snapshotDate + "|" + skillNormalized
	_, ok := m.trendRows[key]
	return key, ok, nil
}

func (m *memoryStore) InsertSkillTrend(ctx context.Context, trend models.SkillTrend) error {
	m.trendRows[trend.SnapshotDate+"|"+trend.SkillNameNormalized] = trend
	return nil
}

func (m *memoryStore) UpdateSkillTrend(ctx context.Context, id string, trend models.SkillTrend) error {
	m.trendRows[id] = trend
	return nil
}

func (m *memoryStore) ActiveAPIKeys(ctx context.Context) ([]store.APIKey, error) {
	return nil, nil
}

func main() {
	fmt.Println("🧪 Skill Trends Service - Local Integration Test")
	fmt.Println("================================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	st := newMemoryStore()
	writer := store.NewWriter(st)
	extractor := skills.NewExtractor(skills.DefaultLexicon())

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	fmt.Println("🔍 Fetching discussions from Reddit (no credentials required)...")
	fmt.Println("⏱️  This hits the real API and may take 30-60 seconds...")

	reddit := sources.NewRedditSource()
	posts, err := reddit.FetchBatch(ctx, []string{"golang", "rust programming"}, sources.DiscussionOptions{
		Subreddits: []string{"programming", "golang"},
		MaxItems:   10,
	})
	if err != nil {
		log.Fatalf("Fetch failed: %v", err)
	}

	fmt.Printf("✅ Fetched %d posts\n", len(posts))

	result := writer.StoreDiscussions(ctx, posts)
	fmt.Printf("💾 Stored: %d inserted, %d skipped, %d errors\n",
		result.Inserted, result.Skipped, result.Errors)

	// Storing the same batch again must skip everything
	rerun := writer.StoreDiscussions(ctx, posts)
	fmt.Printf("🔁 Rerun:  %d inserted, %d skipped (dedup check)\n",
		rerun.Inserted, rerun.Skipped)

	fmt.Println("\n🔎 Extracting skill mentions from fetched posts...")
	counts := make(map[string]int)
	for _, post := range posts {
		for _, mention := range extractor.Extract(post.Title + " " + post.Body) {
			counts[mention.SkillNameNormalized] += mention.MentionCount
		}
	}
	if len(counts) == 0 {
		fmt.Println("ℹ️  No known skills mentioned. This is normal for a quick test.")
	}
	for skill, count := range counts {
		fmt.Printf("   • %s: %d mentions\n", skill, count)
	}

	fmt.Println("\n✅ Local integration test completed!")
	fmt.Println("\n🚀 Ready for a live run:")
	fmt.Println("   • Set SUPABASE_URL and SUPABASE_KEY for real persistence")
	fmt.Println("   • Set SERP_API_KEY for job collection")
	fmt.Println("   • Start the service with: make run")
}
