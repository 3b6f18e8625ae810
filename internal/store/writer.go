package store

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/trendscope/skilltrends/internal/models"
)

// maxErrorSamples bounds the error descriptions retained per batch.
const maxErrorSamples = 5

// Writer stores batches of normalized records with per-record
// deduplication. Each record is an independent exists-then-insert pass:
// one record failing never blocks the rest, and there is no rollback for
// already-inserted records (at-least-once, not atomic).
type Writer struct {
	store Store
}

// NewWriter creates a deduplicating writer over the given store.
func NewWriter(store Store) *Writer {
	return &Writer{store: store}
}

// StoreJobs inserts the jobs that are not yet present, keyed by job hash.
// Always returns a summary; never an error.
func (w *Writer) StoreJobs(ctx context.Context, jobs []models.JobRecord) models.StoreResult {
	result := models.StoreResult{Total: len(jobs)}

	for _, job := range jobs {
		exists, err := w.store.JobExists(ctx, job.JobHash)
		if err != nil {
			recordError(&result, err)
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		switch err := w.store.InsertJob(ctx, job); {
		case err == nil:
			result.Inserted++
			logrus.Debugf("Inserted job: %s", truncateSample(job.Title, 50))
		case errors.Is(err, ErrDuplicate):
			// Lost the exists/insert race to a concurrent writer.
			result.Skipped++
		default:
			recordError(&result, err)
		}
	}

	return result
}

// StoreDiscussions inserts the posts that are not yet present, keyed by
// post hash. Always returns a summary; never an error.
func (w *Writer) StoreDiscussions(ctx context.Context, posts []models.DiscussionRecord) models.StoreResult {
	result := models.StoreResult{Total: len(posts)}

	for _, post := range posts {
		exists, err := w.store.DiscussionExists(ctx, post.PostHash)
		if err != nil {
			recordError(&result, err)
			continue
		}
		if exists {
			result.Skipped++
			continue
		}

		switch err := w.store.InsertDiscussion(ctx, post); {
		case err == nil:
			result.Inserted++
			logrus.Debugf("Inserted discussion: %s", truncateSample(post.Title, 50))
		case errors.Is(err, ErrDuplicate):
			result.Skipped++
		default:
			recordError(&result, err)
		}
	}

	return result
}

// UpsertSkillTrends writes one row per (date, skill), overwriting counts on
// rows that already exist so reruns for the same date are idempotent.
func (w *Writer) UpsertSkillTrends(ctx context.Context, snapshotDate string, trends []models.SkillTrend) models.TrendUpdateResult {
	var result models.TrendUpdateResult

	for _, trend := range trends {
		trend.SnapshotDate = snapshotDate

		id, found, err := w.store.FindSkillTrend(ctx, snapshotDate, trend.SkillNameNormalized)
		if err != nil {
			logrus.Errorf("Skill trend lookup failed for %s: %v", trend.SkillNameNormalized, err)
			result.Errors++
			continue
		}

		if found {
			if err := w.store.UpdateSkillTrend(ctx, id, trend); err != nil {
				logrus.Errorf("Skill trend update failed for %s: %v", trend.SkillNameNormalized, err)
				result.Errors++
				continue
			}
			result.Updated++
			continue
		}

		if err := w.store.InsertSkillTrend(ctx, trend); err != nil {
			logrus.Errorf("Skill trend insert failed for %s: %v", trend.SkillNameNormalized, err)
			result.Errors++
			continue
		}
		result.Inserted++
	}

	return result
}

func recordError(result *models.StoreResult, err error) {
	result.Errors++
	if len(result.ErrorSamples) < maxErrorSamples {
		result.ErrorSamples = append(result.ErrorSamples, truncateSample(err.Error(), 100))
	}
	logrus.Errorf("Error storing record: %v", err)
}

func truncateSample(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.ToValidUTF8(s[:n], "")
}
