package models

import "time"

// JobRecord is the source-agnostic representation of one job posting.
// Records are immutable once normalized; JobHash is the dedup key.
type JobRecord struct {
	JobHash         string    `json:"job_hash"`
	Title           string    `json:"title"`
	CompanyName     string    `json:"company_name"`
	Location        string    `json:"location"`
	Description     string    `json:"description"`
	PostedDate      string    `json:"posted_date"` // free text from the source, e.g. "3 days ago"
	SalaryText      string    `json:"salary_text"`
	JobURL          string    `json:"job_url"`
	ApplyURL        string    `json:"apply_url"`
	Source          string    `json:"source"` // "serp_google_jobs"
	SourceJobID     string    `json:"source_job_id"`
	WorkType        string    `json:"work_type"`
	ExperienceLevel string    `json:"experience_level"`
	FetchedAt       time.Time `json:"fetched_at"`
}

// DiscussionRecord is the source-agnostic representation of one Reddit post.
type DiscussionRecord struct {
	PostHash      string    `json:"post_hash"`
	PostID        string    `json:"post_id"`
	Title         string    `json:"title"`
	Body          string    `json:"body"` // truncated to MaxBodyLength
	Subreddit     string    `json:"subreddit"`
	Author        string    `json:"author"`
	Upvotes       int       `json:"upvotes"`
	CommentsCount int       `json:"comments_count"`
	PostURL       string    `json:"post_url"`
	CreatedUTC    string    `json:"created_utc,omitempty"` // ISO-8601, empty when the source omits it
	Source        string    `json:"source"`                // "reddit_api" or "apify_reddit"
	SearchQuery   string    `json:"search_query"`
	FetchedAt     time.Time `json:"fetched_at"`
}

// MaxBodyLength bounds stored discussion bodies.
const MaxBodyLength = 5000

// SkillMention is one extracted skill with its occurrence count in a text.
// Ephemeral: computed per extraction call, aggregated into SkillTrend rows.
type SkillMention struct {
	SkillName           string `json:"skill_name"`            // lexicon token as matched
	SkillNameNormalized string `json:"skill_name_normalized"` // alias-resolved form
	MentionCount        int    `json:"mention_count"`
}

// TrendStable is the only trend direction currently emitted. Computing a
// real direction needs the prior snapshot, which is not wired up yet.
const TrendStable = "stable"

// SkillTrend is one (snapshot_date, skill) row in the trend table.
type SkillTrend struct {
	SnapshotDate           string `json:"snapshot_date"`
	SkillName              string `json:"skill_name"`
	SkillNameNormalized    string `json:"skill_name_normalized"`
	JobMentionCount        int    `json:"job_mention_count"`
	DiscussionMentionCount int    `json:"discussion_mention_count"`
	TrendDirection         string `json:"trend_direction"`
}

// StoreResult summarizes one deduplicating store pass over a batch.
type StoreResult struct {
	Inserted     int      `json:"inserted"`
	Skipped      int      `json:"skipped"`
	Errors       int      `json:"errors"`
	Total        int      `json:"total"`
	ErrorSamples []string `json:"error_samples,omitempty"`
}

// TrendUpdateResult summarizes one skill-trend upsert pass.
type TrendUpdateResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Errors   int `json:"errors"`
}

// CollectionReport is the summary sent out after a full collection cycle.
type CollectionReport struct {
	GeneratedAt        time.Time   `json:"generated_at"`
	Period             string      `json:"period"` // "daily" or "weekly"
	JobsFetched        int         `json:"jobs_fetched"`
	DiscussionsFetched int         `json:"discussions_fetched"`
	Jobs               StoreResult `json:"jobs"`
	Discussions        StoreResult `json:"discussions"`
}
