package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/trendscope/skilltrends/internal/models"
)

const (
	jobsCollection        = "fetched_jobs"
	discussionsCollection = "fetched_discussions"
	trendsCollection      = "skill_trends"
	apiKeysCollection     = "admin_api_keys"
)

// Point operations (existence checks, inserts, counts, lookups) are bounded
// tighter than the full-table scans the aggregator runs.
const (
	pointTimeout = 10 * time.Second
	scanTimeout  = 30 * time.Second
)

// Client talks to a Supabase-style REST data store.
type Client struct {
	rest *resty.Client
}

var _ Store = (*Client)(nil)

// NewClient creates a store client for the given project URL and API key.
func NewClient(baseURL, apiKey string) *Client {
	rest := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/") + "/rest/v1").
		SetTimeout(scanTimeout).
		SetHeader("apikey", apiKey).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetHeader("Content-Type", "application/json")
	return &Client{rest: rest}
}

// jobRow strips the fetched_at field: the table stamps its own insert time.
type jobRow struct {
	JobHash         string `json:"job_hash"`
	Title           string `json:"title"`
	CompanyName     string `json:"company_name"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	PostedDate      string `json:"posted_date"`
	SalaryText      string `json:"salary_text"`
	JobURL          string `json:"job_url"`
	ApplyURL        string `json:"apply_url"`
	Source          string `json:"source"`
	SourceJobID     string `json:"source_job_id"`
	WorkType        string `json:"work_type"`
	ExperienceLevel string `json:"experience_level"`
}

type discussionRow struct {
	PostHash      string `json:"post_hash"`
	PostID        string `json:"post_id"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	Subreddit     string `json:"subreddit"`
	Author        string `json:"author"`
	Upvotes       int    `json:"upvotes"`
	CommentsCount int    `json:"comments_count"`
	PostURL       string `json:"post_url"`
	CreatedUTC    string `json:"created_utc,omitempty"`
	Source        string `json:"source"`
	SearchQuery   string `json:"search_query"`
}

func (c *Client) JobExists(ctx context.Context, hash string) (bool, error) {
	return c.existsByKey(ctx, jobsCollection, "job_hash", hash)
}

func (c *Client) InsertJob(ctx context.Context, job models.JobRecord) error {
	return c.insert(ctx, jobsCollection, jobRow{
		JobHash:         job.JobHash,
		Title:           job.Title,
		CompanyName:     job.CompanyName,
		Location:        job.Location,
		Description:     job.Description,
		PostedDate:      job.PostedDate,
		SalaryText:      job.SalaryText,
		JobURL:          job.JobURL,
		ApplyURL:        job.ApplyURL,
		Source:          job.Source,
		SourceJobID:     job.SourceJobID,
		WorkType:        job.WorkType,
		ExperienceLevel: job.ExperienceLevel,
	})
}

func (c *Client) JobCount(ctx context.Context) (int, error) {
	return c.count(ctx, jobsCollection)
}

func (c *Client) JobDescriptions(ctx context.Context) ([]string, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("select", "description").
		Get("/" + jobsCollection)
	if err != nil {
		return nil, fmt.Errorf("fetch job descriptions: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, restError("fetch job descriptions", resp)
	}

	var rows []struct {
		Description string `json:"description"`
	}
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("decode job descriptions: %w", err)
	}

	descriptions := make([]string, len(rows))
	for i, row := range rows {
		descriptions[i] = row.Description
	}
	return descriptions, nil
}

func (c *Client) DiscussionExists(ctx context.Context, hash string) (bool, error) {
	return c.existsByKey(ctx, discussionsCollection, "post_hash", hash)
}

func (c *Client) InsertDiscussion(ctx context.Context, post models.DiscussionRecord) error {
	return c.insert(ctx, discussionsCollection, discussionRow{
		PostHash:      post.PostHash,
		PostID:        post.PostID,
		Title:         post.Title,
		Body:          post.Body,
		Subreddit:     post.Subreddit,
		Author:        post.Author,
		Upvotes:       post.Upvotes,
		CommentsCount: post.CommentsCount,
		PostURL:       post.PostURL,
		CreatedUTC:    post.CreatedUTC,
		Source:        post.Source,
		SearchQuery:   post.SearchQuery,
	})
}

func (c *Client) DiscussionCount(ctx context.Context) (int, error) {
	return c.count(ctx, discussionsCollection)
}

func (c *Client) DiscussionTexts(ctx context.Context) ([]DiscussionText, error) {
	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("select", "title,body").
		Get("/" + discussionsCollection)
	if err != nil {
		return nil, fmt.Errorf("fetch discussion texts: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, restError("fetch discussion texts", resp)
	}

	var rows []DiscussionText
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, fmt.Errorf("decode discussion texts: %w", err)
	}
	return rows, nil
}

func (c *Client) FindSkillTrend(ctx context.Context, snapshotDate, skillNormalized string) (string, bool, error) {
	ctx, cancel := pointCtx(ctx)
	defer cancel()

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("snapshot_date", "eq."+snapshotDate).
		SetQueryParam("skill_name_normalized", "eq."+skillNormalized).
		SetQueryParam("select", "id").
		Get("/" + trendsCollection)
	if err != nil {
		return "", false, fmt.Errorf("find skill trend: %w", err)
	}
	if !resp.IsSuccess() {
		return "", false, restError("find skill trend", resp)
	}

	var rows []struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return "", false, fmt.Errorf("decode skill trend lookup: %w", err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].ID.String(), true, nil
}

func (c *Client) InsertSkillTrend(ctx context.Context, trend models.SkillTrend) error {
	return c.insert(ctx, trendsCollection, trend)
}

func (c *Client) UpdateSkillTrend(ctx context.Context, id string, trend models.SkillTrend) error {
	ctx, cancel := pointCtx(ctx)
	defer cancel()

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		SetBody(map[string]any{
			"job_mention_count":        trend.JobMentionCount,
			"discussion_mention_count": trend.DiscussionMentionCount,
			"trend_direction":          trend.TrendDirection,
		}).
		Patch("/" + trendsCollection)
	if err != nil {
		return fmt.Errorf("update skill trend: %w", err)
	}
	if !resp.IsSuccess() {
		return restError("update skill trend", resp)
	}
	return nil
}

func (c *Client) ActiveAPIKeys(ctx context.Context) ([]APIKey, error) {
	ctx, cancel := pointCtx(ctx)
	defer cancel()

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam("select", "service_name,key_name,key_value,is_active").
		SetQueryParam("is_active", "eq.true").
		Get("/" + apiKeysCollection)
	if err != nil {
		return nil, fmt.Errorf("fetch API keys: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, restError("fetch API keys", resp)
	}

	var keys []APIKey
	if err := json.Unmarshal(resp.Body(), &keys); err != nil {
		return nil, fmt.Errorf("decode API keys: %w", err)
	}
	return keys, nil
}

// pointCtx bounds a point operation; the caller's deadline still applies
// when it is tighter.
func pointCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, pointTimeout)
}

func (c *Client) existsByKey(ctx context.Context, collection, column, value string) (bool, error) {
	ctx, cancel := pointCtx(ctx)
	defer cancel()

	resp, err := c.rest.R().
		SetContext(ctx).
		SetQueryParam(column, "eq."+value).
		SetQueryParam("select", "id").
		Get("/" + collection)
	if err != nil {
		return false, fmt.Errorf("existence check on %s: %w", collection, err)
	}
	if !resp.IsSuccess() {
		return false, restError("existence check on "+collection, resp)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return false, fmt.Errorf("decode existence check on %s: %w", collection, err)
	}
	return len(rows) > 0, nil
}

func (c *Client) insert(ctx context.Context, collection string, row any) error {
	ctx, cancel := pointCtx(ctx)
	defer cancel()

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(row).
		Post("/" + collection)
	if err != nil {
		return fmt.Errorf("insert into %s: %w", collection, err)
	}
	if resp.StatusCode() == 409 {
		return ErrDuplicate
	}
	if !resp.IsSuccess() {
		return restError("insert into "+collection, resp)
	}
	return nil
}

// count asks for an exact row count without retrieving records.
func (c *Client) count(ctx context.Context, collection string) (int, error) {
	ctx, cancel := pointCtx(ctx)
	defer cancel()

	resp, err := c.rest.R().
		SetContext(ctx).
		SetHeader("Prefer", "count=exact").
		SetQueryParam("select", "id").
		Get("/" + collection)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	if !resp.IsSuccess() {
		return 0, restError("count "+collection, resp)
	}

	// Content-Range looks like "0-24/3573"; the total sits after the slash.
	contentRange := resp.Header().Get("Content-Range")
	slash := strings.LastIndex(contentRange, "/")
	if slash < 0 {
		return 0, fmt.Errorf("count %s: missing Content-Range header", collection)
	}
	total, err := strconv.Atoi(contentRange[slash+1:])
	if err != nil {
		return 0, fmt.Errorf("count %s: bad Content-Range %q", collection, contentRange)
	}
	return total, nil
}

func restError(op string, resp *resty.Response) error {
	body := string(resp.Body())
	if len(body) > 100 {
		body = body[:100]
	}
	return fmt.Errorf("%s: HTTP %d: %s", op, resp.StatusCode(), body)
}
