package store

import (
	"context"
	"errors"

	"github.com/trendscope/skilltrends/internal/models"
)

// ErrDuplicate reports an insert that hit the store's hash-column
// uniqueness constraint. Callers treat it as a benign skip: the
// exists-then-insert sequence is two round-trips and races under
// concurrent writers for the same hash.
var ErrDuplicate = errors.New("record already exists")

// DiscussionText is the title+body projection used for trend aggregation.
type DiscussionText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// APIKey is one row of the admin-managed credential collection.
type APIKey struct {
	ServiceName string `json:"service_name"`
	KeyName     string `json:"key_name"`
	KeyValue    string `json:"key_value"`
}

// Store is the persistence backend contract: a REST data store over
// hash-keyed collections with exists-by-key, insert and update-by-id
// semantics. The store is the sole authority on whether a hash exists.
type Store interface {
	JobExists(ctx context.Context, hash string) (bool, error)
	InsertJob(ctx context.Context, job models.JobRecord) error
	JobCount(ctx context.Context) (int, error)
	JobDescriptions(ctx context.Context) ([]string, error)

	DiscussionExists(ctx context.Context, hash string) (bool, error)
	InsertDiscussion(ctx context.Context, post models.DiscussionRecord) error
	DiscussionCount(ctx context.Context) (int, error)
	DiscussionTexts(ctx context.Context) ([]DiscussionText, error)

	FindSkillTrend(ctx context.Context, snapshotDate, skillNormalized string) (id string, found bool, err error)
	InsertSkillTrend(ctx context.Context, trend models.SkillTrend) error
	UpdateSkillTrend(ctx context.Context, id string, trend models.SkillTrend) error

	ActiveAPIKeys(ctx context.Context) ([]APIKey, error)
}
