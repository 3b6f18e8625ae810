package collection

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/trendscope/skilltrends/internal/archive"
	"github.com/trendscope/skilltrends/internal/config"
	"github.com/trendscope/skilltrends/internal/models"
	"github.com/trendscope/skilltrends/internal/notifications"
	"github.com/trendscope/skilltrends/internal/sources"
	"github.com/trendscope/skilltrends/internal/store"
	"github.com/trendscope/skilltrends/internal/trends"
)

// Execution is synchronous end-to-end: fetch, dedup-store, archive,
// report. Cancellation and per-call limits come from the sources' and
// store's own timeouts; there is no internal parallelism.

// Service drives the collection pipeline: source adapters feed the
// deduplicating writer, full cron cycles add archiving, aggregation and a
// summary report on top.
type Service struct {
	config      *config.Config
	jobs        sources.JobSource
	discussions sources.DiscussionSource
	writer      *store.Writer
	aggregator  *trends.Aggregator
	notifier    notifications.Notifier // nil disables reporting
	archive     archive.Archive        // nil disables snapshots

	metrics *Metrics
	mu      sync.RWMutex
}

// Metrics holds counters from the most recent runs.
type Metrics struct {
	LastRun            time.Time      `json:"last_run"`
	LastRunDuration    string         `json:"last_run_duration"`
	JobsFetched        int            `json:"jobs_fetched"`
	DiscussionsFetched int            `json:"discussions_fetched"`
	Inserted           int            `json:"inserted"`
	Skipped            int            `json:"skipped"`
	Errors             int            `json:"errors"`
	SourceMetrics      map[string]int `json:"source_metrics"`
}

// JobsRunResult summarizes one scheduled or triggered jobs collection.
type JobsRunResult struct {
	QueriesProcessed int                `json:"queries_processed"`
	JobsFetched      int                `json:"jobs_fetched"`
	StorageResult    models.StoreResult `json:"storage_result"`
}

// DiscussionsRunResult summarizes one discussions collection.
type DiscussionsRunResult struct {
	QueriesProcessed   int                `json:"queries_processed"`
	DiscussionsFetched int                `json:"discussions_fetched"`
	StorageResult      models.StoreResult `json:"storage_result"`
}

// FullRunResult combines both halves of a full cycle.
type FullRunResult struct {
	Jobs        *JobsRunResult        `json:"jobs"`
	Discussions *DiscussionsRunResult `json:"discussions"`
}

// NewService creates a collection service. notifier and snapshots may be
// nil when those channels are not configured.
func NewService(
	cfg *config.Config,
	jobs sources.JobSource,
	discussions sources.DiscussionSource,
	writer *store.Writer,
	aggregator *trends.Aggregator,
	notifier notifications.Notifier,
	snapshots archive.Archive,
) *Service {
	return &Service{
		config:      cfg,
		jobs:        jobs,
		discussions: discussions,
		writer:      writer,
		aggregator:  aggregator,
		notifier:    notifier,
		archive:     snapshots,
		metrics: &Metrics{
			SourceMetrics: make(map[string]int),
		},
	}
}

// Jobs exposes the job source for the trigger endpoints.
func (s *Service) Jobs() sources.JobSource { return s.jobs }

// Discussions exposes the discussion source for the trigger endpoints.
func (s *Service) Discussions() sources.DiscussionSource { return s.discussions }

// Writer exposes the deduplicating writer for the trigger endpoints.
func (s *Service) Writer() *store.Writer { return s.writer }

// RunJobsCollection fetches the configured job queries and stores what is
// new. A configuration error aborts the run; upstream failures degrade to
// empty per-query results inside the adapter.
func (s *Service) RunJobsCollection(ctx context.Context) (*JobsRunResult, error) {
	logrus.Infof("Starting job collection for %d queries", len(s.config.JobQueries))

	jobs, err := s.jobs.FetchBatch(ctx, s.config.JobQueries, sources.JobOptions{
		Location:   s.config.DefaultLocation,
		NumResults: 10,
	})
	if err != nil {
		return nil, err
	}

	result := s.writer.StoreJobs(ctx, jobs)
	s.archiveSnapshot("jobs", jobs)

	logrus.Infof("Job collection done: %d fetched, %d inserted, %d skipped, %d errors",
		len(jobs), result.Inserted, result.Skipped, result.Errors)

	return &JobsRunResult{
		QueriesProcessed: len(s.config.JobQueries),
		JobsFetched:      len(jobs),
		StorageResult:    result,
	}, nil
}

// RunDiscussionsCollection fetches the configured skill queries and stores
// what is new.
func (s *Service) RunDiscussionsCollection(ctx context.Context) (*DiscussionsRunResult, error) {
	logrus.Infof("Starting discussion collection for %d queries", len(s.config.SkillQueries))

	posts, err := s.discussions.FetchBatch(ctx, s.config.SkillQueries, sources.DiscussionOptions{
		MaxItems: 15,
	})
	if err != nil {
		return nil, err
	}

	result := s.writer.StoreDiscussions(ctx, posts)
	s.archiveSnapshot("discussions", posts)

	logrus.Infof("Discussion collection done: %d fetched, %d inserted, %d skipped, %d errors",
		len(posts), result.Inserted, result.Skipped, result.Errors)

	return &DiscussionsRunResult{
		QueriesProcessed:   len(s.config.SkillQueries),
		DiscussionsFetched: len(posts),
		StorageResult:      result,
	}, nil
}

// RunFull runs both collections, updates metrics, and sends the summary
// report. Report delivery failures are logged, never fatal.
func (s *Service) RunFull(ctx context.Context) (*FullRunResult, error) {
	start := time.Now()
	logrus.Info("Starting full collection cycle")

	jobsResult, err := s.RunJobsCollection(ctx)
	if err != nil {
		return nil, err
	}

	discussionsResult, err := s.RunDiscussionsCollection(ctx)
	if err != nil {
		return nil, err
	}

	s.updateMetrics(jobsResult, discussionsResult, time.Since(start))

	report := &models.CollectionReport{
		GeneratedAt:        time.Now().UTC(),
		Period:             s.config.CollectionSchedule,
		JobsFetched:        jobsResult.JobsFetched,
		DiscussionsFetched: discussionsResult.DiscussionsFetched,
		Jobs:               jobsResult.StorageResult,
		Discussions:        discussionsResult.StorageResult,
	}
	if s.notifier != nil {
		if err := s.notifier.SendReport(report); err != nil {
			logrus.Errorf("Failed to send collection report: %v", err)
		}
	}

	logrus.Infof("Full collection cycle completed in %v", time.Since(start))
	return &FullRunResult{Jobs: jobsResult, Discussions: discussionsResult}, nil
}

// AggregateTrends builds the skill snapshot for the given date, defaulting
// to today (UTC).
func (s *Service) AggregateTrends(ctx context.Context, snapshotDate string) (*trends.Summary, error) {
	if snapshotDate == "" {
		snapshotDate = time.Now().UTC().Format("2006-01-02")
	}
	return s.aggregator.Aggregate(ctx, snapshotDate)
}

// GetMetrics returns the latest run metrics as JSON.
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, _ := json.MarshalIndent(s.metrics, "", "  ")
	return string(data)
}

func (s *Service) updateMetrics(jobs *JobsRunResult, discussions *DiscussionsRunResult, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.LastRun = time.Now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.JobsFetched = jobs.JobsFetched
	s.metrics.DiscussionsFetched = discussions.DiscussionsFetched
	s.metrics.Inserted = jobs.StorageResult.Inserted + discussions.StorageResult.Inserted
	s.metrics.Skipped = jobs.StorageResult.Skipped + discussions.StorageResult.Skipped
	s.metrics.Errors = jobs.StorageResult.Errors + discussions.StorageResult.Errors

	s.metrics.SourceMetrics = map[string]int{
		s.jobs.Name():        jobs.JobsFetched,
		s.discussions.Name(): discussions.DiscussionsFetched,
	}
}

// archiveSnapshot writes one timestamped JSON blob per collected batch.
func (s *Service) archiveSnapshot(prefix string, batch any) {
	if s.archive == nil {
		return
	}

	data, err := json.Marshal(batch)
	if err != nil {
		logrus.Errorf("Failed to marshal %s snapshot: %v", prefix, err)
		return
	}

	name := fmt.Sprintf("%s-%s.json", prefix, time.Now().UTC().Format("2006-01-02-15-04-05"))
	if err := s.archive.Store(name, data); err != nil {
		logrus.Errorf("Failed to archive %s snapshot: %v", prefix, err)
	}
}
