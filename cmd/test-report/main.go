package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/trendscope/skilltrends/internal/config"
	"github.com/trendscope/skilltrends/internal/models"
	"github.com/trendscope/skilltrends/internal/notifications"
)

func main() {
	fmt.Println("🤖 Skill Trends Service - Test Report Generator")
	fmt.Println("===============================================")

	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using system environment variables")
	}

	report := &models.CollectionReport{
		GeneratedAt:        time.Now().UTC(),
		Period:             "daily",
		JobsFetched:        42,
		DiscussionsFetched: 37,
		Jobs: models.StoreResult{
			Inserted: 31,
			Skipped:  10,
			Errors:   1,
			Total:    42,
			ErrorSamples: []string{
				"insert fetched_jobs: store returned 500: internal error",
			},
		},
		Discussions: models.StoreResult{
			Inserted: 35,
			Skipped:  2,
			Total:    37,
		},
	}

	printReport(report)

	if err := saveReport(report); err != nil {
		fmt.Printf("\n⚠️  Warning: Could not save to file: %v\n", err)
	}

	// Deliver through the real notifier when a channel is configured
	cfg, err := config.Load()
	if err == nil && (cfg.ReportWebhookURL != "" || cfg.NotificationEmail != "") {
		fmt.Println("\n📤 Sending through configured notification channels...")
		if err := notifications.NewService(cfg).SendReport(report); err != nil {
			fmt.Printf("❌ Error sending report: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("✅ Report delivered")
	} else {
		fmt.Println("\nℹ️  No webhook or email configured, terminal output only.")
	}

	fmt.Println("\n✅ Test report generation completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Println("   • Check the 'test_output' directory for the saved JSON report")
	fmt.Println("   • Set REPORT_WEBHOOK_URL or NOTIFICATION_EMAIL to test delivery")
	fmt.Println("   • Run the full service with 'go run cmd/server/main.go'")
}

func printReport(report *models.CollectionReport) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("📊 COLLECTION SUMMARY REPORT")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("📅 Period: %s\n", report.Period)
	fmt.Printf("🕒 Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("💼 Jobs fetched: %d\n", report.JobsFetched)
	fmt.Printf("💬 Discussions fetched: %d\n", report.DiscussionsFetched)

	printStoreResult("Jobs", report.Jobs)
	printStoreResult("Discussions", report.Discussions)

	fmt.Println("\n" + strings.Repeat("=", 70))
}

func printStoreResult(label string, result models.StoreResult) {
	fmt.Printf("\n📍 %s storage:\n", label)
	fmt.Printf("   ✅ Inserted: %d\n", result.Inserted)
	fmt.Printf("   ⏭️  Skipped (duplicates): %d\n", result.Skipped)
	fmt.Printf("   ❌ Errors: %d\n", result.Errors)
	for _, sample := range result.ErrorSamples {
		fmt.Printf("      • %s\n", sample)
	}
}

func saveReport(report *models.CollectionReport) error {
	dir := "test_output"
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	timestamp := report.GeneratedAt.Format("2006-01-02_15-04-05")
	filename := filepath.Join(dir, fmt.Sprintf("collection_report_%s.json", timestamp))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}

	fmt.Printf("\n💾 Report saved to: %s\n", filename)
	return nil
}
