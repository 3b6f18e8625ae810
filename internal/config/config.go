package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for the service.
type Config struct {
	// Server configuration
	Port  string
	Debug bool

	// Schedule configuration
	CollectionSchedule string // "daily" or "weekly"
	TimeZone           string

	// Persistence backend (Supabase-style REST store)
	SupabaseURL            string
	SupabaseKey            string
	SupabaseServiceRoleKey string

	// Third-party source credentials (env fallbacks; the admin key
	// collection in the store takes precedence)
	SerpAPIKey    string
	ApifyAPIToken string

	// Which adapter serves discussion fetches: "reddit" (public JSON
	// API) or "apify" (scraping actors)
	DiscussionSource string

	// Search defaults
	DefaultLocation string
	DefaultRegion   string
	DefaultLanguage string

	// Query sets driven by the scheduled collection cycle
	JobQueries   []string
	SkillQueries []string

	// Snapshot archive (optional)
	StorageAccount   string
	StorageContainer string

	// Summary report (optional)
	ReportWebhookURL  string
	NotificationEmail string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:  getEnv("PORT", "8080"),
		Debug: getBoolEnv("DEBUG", false),

		CollectionSchedule: getEnv("COLLECTION_SCHEDULE", "weekly"),
		TimeZone:           getEnv("TIMEZONE", "UTC"),

		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseKey:            getEnv("SUPABASE_KEY", ""),
		SupabaseServiceRoleKey: getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),

		SerpAPIKey:    getEnv("SERP_API_KEY", ""),
		ApifyAPIToken: getEnv("APIFY_API_TOKEN", ""),

		DiscussionSource: getEnv("DISCUSSION_SOURCE", "reddit"),

		DefaultLocation: getEnv("DEFAULT_LOCATION", "United States"),
		DefaultRegion:   getEnv("DEFAULT_REGION", "us"),
		DefaultLanguage: getEnv("DEFAULT_LANGUAGE", "en"),

		JobQueries: getSliceEnv("JOB_QUERIES", []string{
			"Software Developer",
			"Backend Developer",
			"Frontend Developer",
			"Full Stack Developer",
			"Data Scientist",
			"Machine Learning Engineer",
			"DevOps Engineer",
			"Cloud Engineer",
			"Data Engineer",
			"Mobile Developer",
			"Python Developer",
			"Java Developer",
			"JavaScript Developer",
			"React Developer",
			"Node.js Developer",
		}),
		SkillQueries: getSliceEnv("SKILL_QUERIES", []string{
			"programming skills 2026",
			"software developer skills",
			"backend developer technologies",
			"frontend framework comparison",
			"cloud certification worth it",
			"machine learning career",
			"kubernetes docker devops",
			"react angular vue comparison",
			"python vs javascript",
			"AI developer jobs",
		}),

		StorageAccount:   getEnv("AZURE_STORAGE_ACCOUNT", ""),
		StorageContainer: getEnv("AZURE_STORAGE_CONTAINER", "snapshots"),

		ReportWebhookURL:  getEnv("REPORT_WEBHOOK_URL", ""),
		NotificationEmail: getEnv("NOTIFICATION_EMAIL", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getIntEnv("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// StoreKey prefers the service-role key for store access.
func (c *Config) StoreKey() string {
	if c.SupabaseServiceRoleKey != "" {
		return c.SupabaseServiceRoleKey
	}
	return c.SupabaseKey
}

func (c *Config) validate() error {
	if c.SupabaseURL == "" || c.StoreKey() == "" {
		return fmt.Errorf("SUPABASE_URL and SUPABASE_KEY are required")
	}

	if c.CollectionSchedule != "daily" && c.CollectionSchedule != "weekly" {
		return fmt.Errorf("COLLECTION_SCHEDULE must be 'daily' or 'weekly'")
	}

	if c.DiscussionSource != "reddit" && c.DiscussionSource != "apify" {
		return fmt.Errorf("DISCUSSION_SOURCE must be 'reddit' or 'apify'")
	}

	if c.NotificationEmail != "" {
		if c.SMTPHost == "" || c.SMTPUsername == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP configuration is required when NOTIFICATION_EMAIL is set")
		}
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
