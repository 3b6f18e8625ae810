package sources

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/trendscope/skilltrends/internal/models"
)

const (
	serpBaseURL        = "https://serpapi.com/search.json"
	serpPlaceholderKey = "your_serp_api_key_here"
)

// SerpJobsSource fetches job postings from Google Jobs through SerpAPI.
type SerpJobsSource struct {
	apiKey     CredentialResolver
	client     *resty.Client
	baseURL    string
	region     string
	language   string
	queryDelay time.Duration
}

var _ JobSource = (*SerpJobsSource)(nil)

type serpSearchResponse struct {
	JobsResults []serpJob `json:"jobs_results"`
}

type serpJob struct {
	Title              string            `json:"title"`
	CompanyName        string            `json:"company_name"`
	Location           string            `json:"location"`
	Description        string            `json:"description"`
	JobID              string            `json:"job_id"`
	ShareLink          string            `json:"share_link"`
	DetectedExtensions serpExtensions    `json:"detected_extensions"`
	ApplyOptions       []serpApplyOption `json:"apply_options"`
}

type serpExtensions struct {
	PostedAt     string `json:"posted_at"`
	Salary       string `json:"salary"`
	WorkFromHome bool   `json:"work_from_home"`
}

type serpApplyOption struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// NewSerpJobsSource creates a Google Jobs source. The API key is resolved
// per call through the injected resolver.
func NewSerpJobsSource(apiKey CredentialResolver, region, language string) *SerpJobsSource {
	return &SerpJobsSource{
		apiKey:     apiKey,
		client:     resty.New().SetTimeout(30 * time.Second),
		baseURL:    serpBaseURL,
		region:     region,
		language:   language,
		queryDelay: time.Second,
	}
}

func (s *SerpJobsSource) Name() string {
	return "serp_google_jobs"
}

func (s *SerpJobsSource) Enabled() bool {
	key, err := s.apiKey()
	return err == nil && key != "" && key != serpPlaceholderKey
}

// Fetch returns normalized job postings for one query. Upstream failures
// and non-success responses degrade to an empty result; only a missing
// credential is an error.
func (s *SerpJobsSource) Fetch(ctx context.Context, query string, opts JobOptions) ([]models.JobRecord, error) {
	key, err := s.resolveKey()
	if err != nil {
		return nil, err
	}

	location := opts.Location
	if location == "" {
		location = "United States"
	}
	numResults := opts.NumResults
	if numResults <= 0 {
		numResults = 20
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"engine":   "google_jobs",
			"q":        query,
			"location": location,
			"hl":       s.language,
			"gl":       s.region,
			"api_key":  key,
			"num":      strconv.Itoa(numResults),
		}).
		Get(s.baseURL)

	if err != nil {
		logrus.Errorf("SERP API request failed for %q: %v", query, err)
		return nil, nil
	}
	if !resp.IsSuccess() {
		logrus.Errorf("SERP API returned status %d for %q", resp.StatusCode(), query)
		return nil, nil
	}

	var search serpSearchResponse
	if err := json.Unmarshal(resp.Body(), &search); err != nil {
		logrus.Errorf("SERP API returned malformed payload for %q: %v", query, err)
		return nil, nil
	}

	records := make([]models.JobRecord, 0, len(search.JobsResults))
	for _, job := range search.JobsResults {
		if job.Title == "" {
			// Missing mandatory field: skip the item, keep the batch.
			continue
		}
		records = append(records, normalizeSerpJob(job))
	}

	return records, nil
}

// FetchBatch fetches all queries sequentially with cross-query dedup by job
// hash and a fixed inter-query delay.
func (s *SerpJobsSource) FetchBatch(ctx context.Context, queries []string, opts JobOptions) ([]models.JobRecord, error) {
	return fetchBatch(ctx, queries, s.queryDelay,
		func(ctx context.Context, query string) ([]models.JobRecord, error) {
			logrus.Infof("Fetching jobs for: %s", query)
			return s.Fetch(ctx, query, opts)
		},
		func(r models.JobRecord) string { return r.JobHash },
	)
}

func (s *SerpJobsSource) resolveKey() (string, error) {
	key, err := s.apiKey()
	if err != nil {
		logrus.Errorf("Failed to resolve SERP API key: %v", err)
		key = ""
	}
	if key == "" || key == serpPlaceholderKey {
		return "", &ConfigError{
			Service: "SERP_API_KEY",
			Hint:    "add it via the admin portal or get one from https://serpapi.com/",
		}
	}
	return key, nil
}

func normalizeSerpJob(job serpJob) models.JobRecord {
	workType := "onsite"
	if job.DetectedExtensions.WorkFromHome {
		workType = "remote"
	}

	applyURL := ""
	if len(job.ApplyOptions) > 0 {
		applyURL = job.ApplyOptions[0].Link
	}

	return models.JobRecord{
		JobHash:     models.JobHash(job.Title, job.CompanyName, job.Location),
		Title:       job.Title,
		CompanyName: job.CompanyName,
		Location:    job.Location,
		Description: job.Description,
		PostedDate:  job.DetectedExtensions.PostedAt,
		SalaryText:  job.DetectedExtensions.Salary,
		JobURL:      job.ShareLink,
		ApplyURL:    applyURL,
		Source:      "serp_google_jobs",
		SourceJobID: job.JobID,
		WorkType:    workType,
		// Not reliably present in SERP payloads.
		ExperienceLevel: "",
		FetchedAt:       time.Now().UTC(),
	}
}
