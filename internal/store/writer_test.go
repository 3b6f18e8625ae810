package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendscope/skilltrends/internal/models"
)

// fakeStore is an in-memory Store with injectable failures.
type fakeStore struct {
	jobs        map[string]models.JobRecord
	discussions map[string]models.DiscussionRecord
	trendRows   map[string]models.SkillTrend

	insertJobErr        func(hash string) error
	insertDiscussionErr func(hash string) error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:        make(map[string]models.JobRecord),
		discussions: make(map[string]models.DiscussionRecord),
		trendRows:   make(map[string]models.SkillTrend),
	}
}

func (f *fakeStore) JobExists(ctx context.Context, hash string) (bool, error) {
	_, ok := f.jobs[hash]
	return ok, nil
}

func (f *fakeStore) InsertJob(ctx context.Context, job models.JobRecord) error {
	if f.insertJobErr != nil {
		if err := f.insertJobErr(job.JobHash); err != nil {
			return err
		}
	}
	f.jobs[job.JobHash] = job
	return nil
}

func (f *fakeStore) JobCount(ctx context.Context) (int, error) { return len(f.jobs), nil }

func (f *fakeStore) JobDescriptions(ctx context.Context) ([]string, error) {
	var out []string
	for _, job := range f.jobs {
		out = append(out, job.Description)
	}
	return out, nil
}

func (f *fakeStore) DiscussionExists(ctx context.Context, hash string) (bool, error) {
	_, ok := f.discussions[hash]
	return ok, nil
}

func (f *fakeStore) InsertDiscussion(ctx context.Context, post models.DiscussionRecord) error {
	if f.insertDiscussionErr != nil {
		if err := f.insertDiscussionErr(post.PostHash); err != nil {
			return err
		}
	}
	f.discussions[post.PostHash] = post
	return nil
}

func (f *fakeStore) DiscussionCount(ctx context.Context) (int, error) {
	return len(f.discussions), nil
}

func (f *fakeStore) DiscussionTexts(ctx context.Context) ([]DiscussionText, error) {
	var out []DiscussionText
	for _, post := range f.discussions {
		out = append(out, DiscussionText{Title: post.Title, Body: post.Body})
	}
	return out, nil
}

func (f *fakeStore) FindSkillTrend(ctx context.Context, snapshotDate, skillNormalized string) (string, bool, error) {
	key := snapshotDate + "|" + skillNormalized
	_, ok := f.trendRows[key]
	return key, ok, nil
}

func (f *fakeStore) InsertSkillTrend(ctx context.Context, trend models.SkillTrend) error {
	f.trendRows[trend.SnapshotDate+"|"+trend.SkillNameNormalized] = trend
	return nil
}

func (f *fakeStore) UpdateSkillTrend(ctx context.Context, id string, trend models.SkillTrend) error {
	f.trendRows[id] = trend
	return nil
}

func (f *fakeStore) ActiveAPIKeys(ctx context.Context) ([]APIKey, error) {
	return nil, nil
}

func makeJobs(n int) []models.JobRecord {
	jobs := make([]models.JobRecord, n)
	for i := range jobs {
		title := fmt.Sprintf("Engineer %d", i)
		jobs[i] = models.JobRecord{
			JobHash: models.JobHash(title, "Acme", "Remote"),
			Title:   title,
		}
	}
	return jobs
}

func TestWriter_StoreJobs_DedupIdempotence(t *testing.T) {
	st := newFakeStore()
	writer := NewWriter(st)
	jobs := makeJobs(3)

	first := writer.StoreJobs(context.Background(), jobs)
	assert.Equal(t, 3, first.Inserted)
	assert.Equal(t, 0, first.Skipped)
	assert.Equal(t, 3, first.Total)

	second := writer.StoreJobs(context.Background(), jobs)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 3, second.Skipped)
	assert.Equal(t, 0, second.Errors)

	count, _ := st.JobCount(context.Background())
	assert.Equal(t, 3, count)
}

func TestWriter_StoreJobs_PartialFailure(t *testing.T) {
	st := newFakeStore()
	st.insertJobErr = func(hash string) error {
		if hash == models.JobHash("Engineer 1", "Acme", "Remote") {
			return errors.New("store returned 500")
		}
		return nil
	}
	writer := NewWriter(st)

	result := writer.StoreJobs(context.Background(), makeJobs(3))
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 1, result.Errors)
	require.Len(t, result.ErrorSamples, 1)
	assert.Contains(t, result.ErrorSamples[0], "500")
}

func TestWriter_StoreJobs_ErrorSampleCap(t *testing.T) {
	st := newFakeStore()
	st.insertJobErr = func(hash string) error {
		return errors.New("boom: " + strings.Repeat("x", 200))
	}
	writer := NewWriter(st)

	result := writer.StoreJobs(context.Background(), makeJobs(8))
	assert.Equal(t, 8, result.Errors)
	assert.Len(t, result.ErrorSamples, 5, "samples are capped")
	for _, sample := range result.ErrorSamples {
		assert.LessOrEqual(t, len(sample), 100, "samples are truncated")
	}
}

func TestWriter_StoreDiscussions_DuplicateInsertCountsAsSkip(t *testing.T) {
	st := newFakeStore()
	st.insertDiscussionErr = func(hash string) error {
		// Simulates losing the exists/insert race.
		return ErrDuplicate
	}
	writer := NewWriter(st)

	posts := []models.DiscussionRecord{
		{PostHash: models.PostHash("Some post", "golang", "123"), Title: "Some post"},
	}
	result := writer.StoreDiscussions(context.Background(), posts)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Errors)
}

func TestWriter_UpsertSkillTrends(t *testing.T) {
	st := newFakeStore()
	writer := NewWriter(st)

	trends := []models.SkillTrend{
		{SkillName: "Go", SkillNameNormalized: "go", JobMentionCount: 4, TrendDirection: models.TrendStable},
		{SkillName: "Rust", SkillNameNormalized: "rust", JobMentionCount: 2, TrendDirection: models.TrendStable},
	}

	first := writer.UpsertSkillTrends(context.Background(), "2025-09-01", trends)
	assert.Equal(t, 2, first.Inserted)
	assert.Equal(t, 0, first.Updated)

	// Rerun with fresh counts overwrites, never duplicates.
	trends[0].JobMentionCount = 9
	second := writer.UpsertSkillTrends(context.Background(), "2025-09-01", trends)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Updated)

	row := st.trendRows["2025-09-01|go"]
	assert.Equal(t, 9, row.JobMentionCount)
	assert.Equal(t, "2025-09-01", row.SnapshotDate)
}
