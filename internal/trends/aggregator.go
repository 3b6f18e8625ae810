package trends

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/trendscope/skilltrends/internal/models"
	"github.com/trendscope/skilltrends/internal/skills"
	"github.com/trendscope/skilltrends/internal/store"
)

// Aggregator builds per-date skill popularity snapshots from everything
// currently stored. Job and discussion mentions are counted separately so
// downstream consumers can compare demand against conversation volume.
type Aggregator struct {
	store     store.Store
	writer    *store.Writer
	extractor *skills.Extractor
}

// Summary reports one aggregation run.
type Summary struct {
	SnapshotDate string                   `json:"snapshot_date"`
	UniqueSkills int                      `json:"unique_skills"`
	UpdateResult models.TrendUpdateResult `json:"update_result"`
}

// NewAggregator creates a trend aggregator over the given store.
func NewAggregator(st store.Store, extractor *skills.Extractor) *Aggregator {
	return &Aggregator{
		store:     st,
		writer:    store.NewWriter(st),
		extractor: extractor,
	}
}

// Aggregate scans all stored job descriptions and discussion texts, counts
// skill mentions per normalized name, and upserts one row per
// (snapshotDate, skill). Existing rows are overwritten with the fresh
// counts, so rerunning for the same date never double-accumulates.
func (a *Aggregator) Aggregate(ctx context.Context, snapshotDate string) (*Summary, error) {
	descriptions, err := a.store.JobDescriptions(ctx)
	if err != nil {
		// Degrade to an empty scan rather than failing the snapshot.
		logrus.Errorf("Failed to read stored jobs: %v", err)
	}
	texts, err := a.store.DiscussionTexts(ctx)
	if err != nil {
		logrus.Errorf("Failed to read stored discussions: %v", err)
	}

	jobCounts := make(map[string]int)
	for _, description := range descriptions {
		for _, mention := range a.extractor.Extract(description) {
			jobCounts[mention.SkillNameNormalized] += mention.MentionCount
		}
	}

	discussionCounts := make(map[string]int)
	for _, text := range texts {
		for _, mention := range a.extractor.Extract(text.Title + " " + text.Body) {
			discussionCounts[mention.SkillNameNormalized] += mention.MentionCount
		}
	}

	allSkills := unionKeys(jobCounts, discussionCounts)

	rows := make([]models.SkillTrend, 0, len(allSkills))
	for _, skill := range allSkills {
		rows = append(rows, models.SkillTrend{
			SnapshotDate:           snapshotDate,
			SkillName:              skill,
			SkillNameNormalized:    strings.TrimSpace(strings.ToLower(skill)),
			JobMentionCount:        jobCounts[skill],
			DiscussionMentionCount: discussionCounts[skill],
			// No historical comparison yet; the field exists so a real
			// direction can be computed later without a schema change.
			TrendDirection: models.TrendStable,
		})
	}

	result := a.writer.UpsertSkillTrends(ctx, snapshotDate, rows)

	logrus.Infof("Aggregated %d skills for %s (%d inserted, %d updated, %d errors)",
		len(allSkills), snapshotDate, result.Inserted, result.Updated, result.Errors)

	return &Summary{
		SnapshotDate: snapshotDate,
		UniqueSkills: len(allSkills),
		UpdateResult: result,
	}, nil
}

func unionKeys(a, b map[string]int) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var keys []string
	for k := range a {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
