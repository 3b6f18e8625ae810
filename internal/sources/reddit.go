package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/trendscope/skilltrends/internal/models"
)

const redditUserAgent = "SkillTrendsService/1.0 (Data Collection Bot)"

// RedditSource fetches discussions through Reddit's public JSON API. No
// authentication is needed for read-only search, which makes this the
// primary discussion adapter.
type RedditSource struct {
	client       *resty.Client
	baseURL      string
	requestDelay time.Duration // between per-subreddit requests in one call
	queryDelay   time.Duration // between distinct queries in FetchBatch
}

var _ DiscussionSource = (*RedditSource)(nil)

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	Score       int     `json:"score"`
	NumComments int     `json:"num_comments"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
}

// NewRedditSource creates a Reddit public-API source.
func NewRedditSource() *RedditSource {
	return &RedditSource{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", redditUserAgent),
		baseURL:      "https://www.reddit.com",
		requestDelay: time.Second, // Reddit allows roughly 60 requests/minute
		queryDelay:   2 * time.Second,
	}
}

func (r *RedditSource) Name() string {
	return "reddit_api"
}

func (r *RedditSource) Enabled() bool {
	return true
}

// Fetch searches each subreddit in turn, then Reddit globally, and returns
// hash-deduplicated records capped at MaxItems. Per-subreddit failures are
// logged and skipped, never fatal.
func (r *RedditSource) Fetch(ctx context.Context, query string, opts DiscussionOptions) ([]models.DiscussionRecord, error) {
	subreddits := opts.Subreddits
	if len(subreddits) == 0 {
		subreddits = DefaultSubreddits
	}
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = 50
	}
	sort := opts.Sort
	if sort == "" {
		sort = "relevance"
	}

	perSubreddit := maxItems / len(subreddits)
	if perSubreddit < 5 {
		perSubreddit = 5
	}

	var all []models.DiscussionRecord

	for i, subreddit := range subreddits {
		if i > 0 {
			sleepCtx(ctx, r.requestDelay)
		}

		posts, err := r.searchSubreddit(ctx, subreddit, query, perSubreddit, sort)
		if err != nil {
			logrus.Errorf("Failed to search r/%s: %v", subreddit, err)
			continue
		}
		all = append(all, posts...)

		if len(all) >= maxItems {
			break
		}
	}

	globalLimit := maxItems
	if globalLimit > 25 {
		globalLimit = 25
	}
	global, err := r.searchGlobal(ctx, query, globalLimit, sort)
	if err != nil {
		logrus.Errorf("Reddit global search failed: %v", err)
	} else {
		all = append(all, global...)
	}

	unique := dedupeByPostHash(all)
	if len(unique) > maxItems {
		unique = unique[:maxItems]
	}

	logrus.Infof("Fetched %d unique Reddit posts for query: %s", len(unique), query)
	return unique, nil
}

// FetchBatch fetches all queries with cross-query dedup and an inter-query
// delay on top of the per-subreddit one.
func (r *RedditSource) FetchBatch(ctx context.Context, queries []string, opts DiscussionOptions) ([]models.DiscussionRecord, error) {
	return fetchBatch(ctx, queries, r.queryDelay,
		func(ctx context.Context, query string) ([]models.DiscussionRecord, error) {
			logrus.Infof("Fetching Reddit discussions for: %s", query)
			return r.Fetch(ctx, query, opts)
		},
		func(rec models.DiscussionRecord) string { return rec.PostHash },
	)
}

// FetchHot returns current hot posts from one subreddit, tagged with a
// synthetic "hot:<subreddit>" query. Useful for trending topics without a
// search term.
func (r *RedditSource) FetchHot(ctx context.Context, subreddit string, limit int) ([]models.DiscussionRecord, error) {
	if limit <= 0 {
		limit = 25
	}

	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParam("limit", strconv.Itoa(limit)).
		Get(fmt.Sprintf("%s/r/%s/hot.json", r.baseURL, subreddit))
	if err != nil {
		logrus.Errorf("Reddit hot fetch failed for r/%s: %v", subreddit, err)
		return nil, nil
	}
	if resp.StatusCode() != 200 {
		logrus.Errorf("Reddit hot fetch for r/%s returned status %d", subreddit, resp.StatusCode())
		return nil, nil
	}

	return r.parseListing(resp.Body(), "hot:"+subreddit)
}

func (r *RedditSource) searchSubreddit(ctx context.Context, subreddit, query string, limit int, sort string) ([]models.DiscussionRecord, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":           query,
			"restrict_sr": "on",
			"sort":        sort,
			"t":           "all",
			"limit":       strconv.Itoa(limit),
		}).
		Get(fmt.Sprintf("%s/r/%s/search.json", r.baseURL, subreddit))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	return r.parseListing(resp.Body(), query)
}

func (r *RedditSource) searchGlobal(ctx context.Context, query string, limit int, sort string) ([]models.DiscussionRecord, error) {
	resp, err := r.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"q":     query,
			"sort":  sort,
			"t":     "all",
			"limit": strconv.Itoa(limit),
			"type":  "link", // posts only, not comments
		}).
		Get(r.baseURL + "/search.json")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("reddit API returned status %d", resp.StatusCode())
	}

	return r.parseListing(resp.Body(), query)
}

func (r *RedditSource) parseListing(body []byte, query string) ([]models.DiscussionRecord, error) {
	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, err
	}

	records := make([]models.DiscussionRecord, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		record, ok := normalizeRedditPost(child.Data, query)
		if !ok {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func normalizeRedditPost(post redditPost, query string) (models.DiscussionRecord, bool) {
	if post.Title == "" {
		return models.DiscussionRecord{}, false
	}

	createdKey := ""
	createdISO := ""
	if post.CreatedUTC > 0 {
		createdKey = strconv.FormatInt(int64(post.CreatedUTC), 10)
		createdISO = time.Unix(int64(post.CreatedUTC), 0).UTC().Format(time.RFC3339)
	}

	upvotes := post.Score
	if upvotes < 0 {
		upvotes = 0
	}
	comments := post.NumComments
	if comments < 0 {
		comments = 0
	}

	return models.DiscussionRecord{
		PostHash:      models.PostHash(post.Title, post.Subreddit, createdKey),
		PostID:        post.ID,
		Title:         post.Title,
		Body:          truncate(post.Selftext, models.MaxBodyLength),
		Subreddit:     post.Subreddit,
		Author:        post.Author,
		Upvotes:       upvotes,
		CommentsCount: comments,
		PostURL:       "https://reddit.com" + post.Permalink,
		CreatedUTC:    createdISO,
		Source:        "reddit_api",
		SearchQuery:   query,
		FetchedAt:     time.Now().UTC(),
	}, true
}

func dedupeByPostHash(records []models.DiscussionRecord) []models.DiscussionRecord {
	seen := make(map[string]bool)
	var unique []models.DiscussionRecord
	for _, record := range records {
		if seen[record.PostHash] {
			continue
		}
		seen[record.PostHash] = true
		unique = append(unique, record)
	}
	return unique
}
