package collection

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendscope/skilltrends/internal/archive"
	"github.com/trendscope/skilltrends/internal/config"
	"github.com/trendscope/skilltrends/internal/notifications"
	"github.com/trendscope/skilltrends/internal/models"
	"github.com/trendscope/skilltrends/internal/skills"
	"github.com/trendscope/skilltrends/internal/sources"
	"github.com/trendscope/skilltrends/internal/store"
	"github.com/trendscope/skilltrends/internal/trends"
)

type stubJobSource struct {
	jobs []models.JobRecord
	err  error
}

func (s *stubJobSource) Name() string  { return "stub_jobs" }
func (s *stubJobSource) Enabled() bool { return true }
func (s *stubJobSource) Fetch(ctx context.Context, query string, opts sources.JobOptions) ([]models.JobRecord, error) {
	return s.jobs, s.err
}
func (s *stubJobSource) FetchBatch(ctx context.Context, queries []string, opts sources.JobOptions) ([]models.JobRecord, error) {
	return s.jobs, s.err
}

type stubDiscussionSource struct {
	posts []models.DiscussionRecord
	err   error
}

func (s *stubDiscussionSource) Name() string  { return "stub_discussions" }
func (s *stubDiscussionSource) Enabled() bool { return true }
func (s *stubDiscussionSource) Fetch(ctx context.Context, query string, opts sources.DiscussionOptions) ([]models.DiscussionRecord, error) {
	return s.posts, s.err
}
func (s *stubDiscussionSource) FetchBatch(ctx context.Context, queries []string, opts sources.DiscussionOptions) ([]models.DiscussionRecord, error) {
	return s.posts, s.err
}

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

type recordingNotifier struct {
	reports []*models.CollectionReport
}

func (r *recordingNotifier) SendReport(report *models.CollectionReport) error {
	r.reports = append(r.reports, report)
	return nil
}

type recordingArchive struct {
	stored []string
}

func (r *recordingArchive) Store(filename string, data []byte) error {
	r.stored = append(r.stored, filename)
	return nil
}
func (r *recordingArchive) Retrieve(filename string) ([]byte, error) { return nil, nil }
func (r *recordingArchive) List(prefix string) ([]string, error)     { return nil, nil }

func testConfig() *config.Config {
	return &config.Config{
		CollectionSchedule: "daily",
		JobQueries:         []string{"golang developer", "python developer"},
		SkillQueries:       []string{"golang", "python"},
		DefaultLocation:    "United States",
	}
}

func sampleJobs() []models.JobRecord {
	return []models.JobRecord{
		{JobHash: models.JobHash("Go Dev", "Acme", "Remote"), Title: "Go Dev", Description: "Go and Docker"},
		{JobHash: models.JobHash("Py Dev", "Acme", "Remote"), Title: "Py Dev", Description: "Python"},
	}
}

func samplePosts() []models.DiscussionRecord {
	return []models.DiscussionRecord{
		{PostHash: models.PostHash("Go post", "golang", "1"), Title: "Go post", Body: "about go"},
	}
}

func newTestService(st *memoryStore, jobs *stubJobSource, discussions *stubDiscussionSource, notifier *recordingNotifier, snapshots *recordingArchive) *Service {
	aggregator := trends.NewAggregator(st, skills.NewExtractor(skills.DefaultLexicon()))

	var n notifications.Notifier
	if notifier != nil {
		n = notifier
	}
	var a archive.Archive
	if snapshots != nil {
		a = snapshots
	}
	return NewService(testConfig(), jobs, discussions, store.NewWriter(st), aggregator, n, a)
}

func TestService_RunFull(t *testing.T) {
	st := newMemoryStore()
	notifier := &recordingNotifier{}
	snapshots := &recordingArchive{}

	service := newTestService(st,
		&stubJobSource{jobs: sampleJobs()},
		&stubDiscussionSource{posts: samplePosts()},
		notifier, snapshots)

	result, err := service.RunFull(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Jobs.JobsFetched)
	assert.Equal(t, 2, result.Jobs.StorageResult.Inserted)
	assert.Equal(t, 1, result.Discussions.DiscussionsFetched)
	assert.Equal(t, 1, result.Discussions.StorageResult.Inserted)

	// One report and one snapshot per half of the cycle.
	require.Len(t, notifier.reports, 1)
	assert.Equal(t, "daily", notifier.reports[0].Period)
	assert.Equal(t, 2, notifier.reports[0].Jobs.Inserted)
	require.Len(t, snapshots.stored, 2)
	assert.Contains(t, snapshots.stored[0], "jobs-")
	assert.Contains(t, snapshots.stored[1], "discussions-")
}

func TestService_RunFull_SecondRunSkipsEverything(t *testing.T) {
	st := newMemoryStore()
	service := newTestService(st,
		&stubJobSource{jobs: sampleJobs()},
		&stubDiscussionSource{posts: samplePosts()},
		nil, nil)

	_, err := service.RunFull(context.Background())
	require.NoError(t, err)

	result, err := service.RunFull(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, result.Jobs.StorageResult.Inserted)
	assert.Equal(t, 2, result.Jobs.StorageResult.Skipped)
	assert.Equal(t, 0, result.Discussions.StorageResult.Inserted)
	assert.Equal(t, 1, result.Discussions.StorageResult.Skipped)
}

func TestService_RunJobsCollection_ConfigErrorAborts(t *testing.T) {
	st := newMemoryStore()
	service := newTestService(st,
		&stubJobSource{err: &sources.ConfigError{Service: "SERP_API_KEY"}},
		&stubDiscussionSource{},
		nil, nil)

	_, err := service.RunJobsCollection(context.Background())
	require.Error(t, err)

	var cfgErr *sources.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestService_AggregateTrends_DefaultsToToday(t *testing.T) {
	st := newMemoryStore()
	st.jobs["h1"] = models.JobRecord{JobHash: "h1", Description: "We use terraform daily"}

	service := newTestService(st, &stubJobSource{}, &stubDiscussionSource{}, nil, nil)

	summary, err := service.AggregateTrends(context.Background(), "")
	require.NoError(t, err)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, summary.SnapshotDate)
	assert.Equal(t, 1, summary.UniqueSkills)
}

func TestService_GetMetrics(t *testing.T) {
	st := newMemoryStore()
	service := newTestService(st,
		&stubJobSource{jobs: sampleJobs()},
		&stubDiscussionSource{posts: samplePosts()},
		nil, nil)

	_, err := service.RunFull(context.Background())
	require.NoError(t, err)

	var metrics Metrics
	require.NoError(t, json.Unmarshal([]byte(service.GetMetrics()), &metrics))
	assert.Equal(t, 2, metrics.JobsFetched)
	assert.Equal(t, 1, metrics.DiscussionsFetched)
	assert.Equal(t, 3, metrics.Inserted)
	assert.Equal(t, 2, metrics.SourceMetrics["stub_jobs"])
	assert.False(t, metrics.LastRun.IsZero())
}
