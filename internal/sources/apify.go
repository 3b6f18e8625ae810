package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/trendscope/skilltrends/internal/models"
)

const (
	// Official Apify Reddit Scraper actor.
	apifyRedditActorID  = "oAuCIx3ItNrs2okjQ"
	apifyCheerioActorID = "apify~cheerio-scraper"

	apifyPlaceholderToken = "your_apify_api_token_here"

	// Fallback scrapes old.reddit search result pages.
	cheerioPageFunction = `
async function pageFunction(context) {
    const { $, request } = context;
    const results = [];

    $('div.search-result-link').each((i, el) => {
        const $el = $(el);
        const title = $el.find('a.search-title').text().trim();
        const url = $el.find('a.search-title').attr('href');
        const score = $el.find('.search-score').text().trim();
        const comments = $el.find('.search-comments').text().trim();
        const subreddit = $el.find('.search-subreddit-link').text().trim();
        const time = $el.find('.search-time time').attr('datetime');

        if (title) {
            results.push({
                title,
                url: url ? 'https://reddit.com' + url : '',
                score,
                comments,
                subreddit,
                createdAt: time,
                searchQuery: request.url
            });
        }
    });

    return results;
}
`
)

// ApifySource fetches Reddit discussions through Apify scraping actors.
// The primary strategy runs the official Reddit scraper against a global
// search URL; when it fails or yields nothing, the adapter falls back to a
// plain HTML scrape of subreddit search pages before giving up.
type ApifySource struct {
	token      CredentialResolver
	client     *resty.Client
	baseURL    string
	queryDelay time.Duration
}

var _ DiscussionSource = (*ApifySource)(nil)

// NewApifySource creates an Apify-backed discussion source. The token is
// resolved per call through the injected resolver.
func NewApifySource(token CredentialResolver) *ApifySource {
	return &ApifySource{
		token: token,
		// Actor runs are long-lived scraping jobs.
		client:     resty.New().SetTimeout(300 * time.Second),
		baseURL:    "https://api.apify.com",
		queryDelay: 2 * time.Second,
	}
}

func (a *ApifySource) Name() string {
	return "apify_reddit"
}

func (a *ApifySource) Enabled() bool {
	token, err := a.token()
	return err == nil && token != "" && token != apifyPlaceholderToken
}

// Fetch runs the primary scraper and falls back to subreddit-page scraping
// when the primary yields no usable data. Only a missing token is an error.
func (a *ApifySource) Fetch(ctx context.Context, query string, opts DiscussionOptions) ([]models.DiscussionRecord, error) {
	token, err := a.resolveToken()
	if err != nil {
		return nil, err
	}

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

	logrus.Infof("Calling Apify Reddit Scraper for query: %s", query)

	searchURL := fmt.Sprintf("https://www.reddit.com/search/?q=%s&type=link&sort=%s",
		url.QueryEscape(query), sort)
	input := map[string]any{
		"startUrls":    []map[string]string{{"url": searchURL}},
		"maxItems":     maxItems,
		"maxPostCount": maxItems,
		"maxComments":  0, // comments are not collected
		"proxy":        map[string]any{"useApifyProxy": true},
	}

	items, err := a.runActor(ctx, token, apifyRedditActorID, input)
	if err != nil {
		logrus.Errorf("Apify Reddit Scraper failed: %v", err)
		return a.fetchFromSubreddits(ctx, token, query, subreddits, maxItems)
	}
	if len(items) == 0 {
		logrus.Infof("Apify returned no posts for %q, trying subreddit fallback", query)
		return a.fetchFromSubreddits(ctx, token, query, subreddits, maxItems)
	}

	return normalizeApifyItems(items, query), nil
}

// FetchBatch fetches all queries with cross-query dedup by post hash.
func (a *ApifySource) FetchBatch(ctx context.Context, queries []string, opts DiscussionOptions) ([]models.DiscussionRecord, error) {
	return fetchBatch(ctx, queries, a.queryDelay,
		func(ctx context.Context, query string) ([]models.DiscussionRecord, error) {
			logrus.Infof("Fetching Reddit discussions for: %s", query)
			return a.Fetch(ctx, query, opts)
		},
		func(rec models.DiscussionRecord) string { return rec.PostHash },
	)
}

// fetchFromSubreddits is the secondary strategy: scrape old.reddit search
// pages for a fixed, smaller subreddit set. Failures here end the chain
// with an empty result, never an error.
func (a *ApifySource) fetchFromSubreddits(ctx context.Context, token, query string, subreddits []string, maxItems int) ([]models.DiscussionRecord, error) {
	logrus.Infof("Using fallback subreddit scraping for: %s", query)

	if len(subreddits) > 5 {
		subreddits = subreddits[:5]
	}

	startURLs := make([]map[string]string, 0, len(subreddits))
	for _, subreddit := range subreddits {
		searchURL := fmt.Sprintf("https://old.reddit.com/r/%s/search?q=%s&restrict_sr=on&sort=relevance&t=all",
			subreddit, strings.ReplaceAll(query, " ", "+"))
		startURLs = append(startURLs, map[string]string{"url": searchURL})
	}

	input := map[string]any{
		"startUrls":           startURLs,
		"maxRequestsPerCrawl": maxItems,
		"pageFunction":        cheerioPageFunction,
		"proxy":               map[string]any{"useApifyProxy": true},
	}

	items, err := a.runActor(ctx, token, apifyCheerioActorID, input)
	if err != nil {
		logrus.Errorf("Fallback scraper failed: %v", err)
		return nil, nil
	}

	return normalizeApifyItems(items, query), nil
}

// runActor executes an actor synchronously and returns its dataset items.
func (a *ApifySource) runActor(ctx context.Context, token, actorID string, input map[string]any) ([]map[string]any, error) {
	resp, err := a.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+token).
		SetBody(input).
		Post(fmt.Sprintf("%s/v2/acts/%s/run-sync-get-dataset-items", a.baseURL, actorID))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return nil, fmt.Errorf("actor %s returned status %d: %s",
			actorID, resp.StatusCode(), truncate(string(resp.Body()), 500))
	}

	var items []map[string]any
	if err := json.Unmarshal(resp.Body(), &items); err != nil {
		return nil, fmt.Errorf("malformed dataset payload: %w", err)
	}
	return items, nil
}

func (a *ApifySource) resolveToken() (string, error) {
	token, err := a.token()
	if err != nil {
		logrus.Errorf("Failed to resolve Apify token: %v", err)
		token = ""
	}
	if token == "" || token == apifyPlaceholderToken {
		return "", &ConfigError{
			Service: "APIFY_API_TOKEN",
			Hint:    "add it via the admin portal or get one from https://apify.com/",
		}
	}
	return token, nil
}

// normalizeApifyItems maps the heterogeneous item shapes the two actors
// produce into DiscussionRecords, resolving each field across its known
// aliases. Items without a title are skipped.
func normalizeApifyItems(items []map[string]any, query string) []models.DiscussionRecord {
	records := make([]models.DiscussionRecord, 0, len(items))

	for _, item := range items {
		title := firstString(item, "title")
		if title == "" {
			continue
		}

		subreddit := firstString(item, "communityName", "subreddit")
		if subreddit == "" {
			subreddit = nestedString(item, "community", "name")
		}
		created := firstString(item, "createdAt", "created_utc", "time")

		records = append(records, models.DiscussionRecord{
			PostHash:      models.PostHash(title, subreddit, created),
			PostID:        firstString(item, "id", "postId"),
			Title:         title,
			Body:          truncate(firstString(item, "body", "selftext", "text"), models.MaxBodyLength),
			Subreddit:     subreddit,
			Author:        firstString(item, "username", "author", "authorName"),
			Upvotes:       clampNonNegative(firstInt(item, "upVotes", "score", "ups")),
			CommentsCount: clampNonNegative(firstInt(item, "numberOfComments", "num_comments", "comments")),
			PostURL:       firstString(item, "url", "postUrl"),
			CreatedUTC:    created,
			Source:        "apify_reddit",
			SearchQuery:   query,
			FetchedAt:     time.Now().UTC(),
		})
	}

	return records
}

func clampNonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
