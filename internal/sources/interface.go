package sources

import (
	"context"

	"github.com/trendscope/skilltrends/internal/models"
)

// CredentialResolver supplies one resolved API credential. Adapters receive
// these instead of reading process-wide state, so they stay testable in
// isolation and credential caching lives with the caller.
type CredentialResolver func() (string, error)

// JobOptions controls a job-source fetch.
type JobOptions struct {
	Location   string
	NumResults int
}

// DiscussionOptions controls a discussion-source fetch.
type DiscussionOptions struct {
	Subreddits []string // empty means the default tech subreddit set
	MaxItems   int
	Sort       string // relevance, hot, new, top
}

// JobSource fetches job postings and normalizes them into JobRecords.
// FetchBatch deduplicates by job hash across all queries, preserving
// first-seen order.
type JobSource interface {
	Name() string
	Enabled() bool
	Fetch(ctx context.Context, query string, opts JobOptions) ([]models.JobRecord, error)
	FetchBatch(ctx context.Context, queries []string, opts JobOptions) ([]models.JobRecord, error)
}

// DiscussionSource fetches discussion posts and normalizes them into
// DiscussionRecords. FetchBatch deduplicates by post hash across queries.
type DiscussionSource interface {
	Name() string
	Enabled() bool
	Fetch(ctx context.Context, query string, opts DiscussionOptions) ([]models.DiscussionRecord, error)
	FetchBatch(ctx context.Context, queries []string, opts DiscussionOptions) ([]models.DiscussionRecord, error)
}

// DefaultSubreddits is the subreddit set searched when the caller does not
// supply one.
var DefaultSubreddits = []string{
	"programming",
	"learnprogramming",
	"cscareerquestions",
	"webdev",
	"python",
	"javascript",
	"java",
	"devops",
	"machinelearning",
	"datascience",
}
