package keys

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendscope/skilltrends/internal/models"
	"github.com/trendscope/skilltrends/internal/store"
)

// keyStore stubs only the key lookup; everything else is unused here.
type keyStore struct {
	keys    []store.APIKey
	err     error
	fetches int
}

func (k *keyStore) ActiveAPIKeys(ctx context.Context) ([]store.APIKey, error) {
	k.fetches++
	return k.keys, k.err
}

func (k *keyStore) JobExists(ctx context.Context, hash string) (bool, error) { return false, nil }
func (k *keyStore) InsertJob(ctx context.Context, job models.JobRecord) error {
	return nil
}
func (k *keyStore) JobCount(ctx context.Context) (int, error)          { return 0, nil }
func (k *keyStore) JobDescriptions(ctx context.Context) ([]string, error) { return nil, nil }
func (k *keyStore) DiscussionExists(ctx context.Context, hash string) (bool, error) {
	return false, nil
}
func (k *keyStore) InsertDiscussion(ctx context.Context, post models.DiscussionRecord) error {
	return nil
}
func (k *keyStore) DiscussionCount(ctx context.Context) (int, error) { return 0, nil }
func (k *keyStore) DiscussionTexts(ctx context.Context) ([]store.DiscussionText, error) {
	return nil, nil
}
func (k *keyStore) FindSkillTrend(ctx context.Context, snapshotDate, skillNormalized string) (string, bool, error) {
	return "", false, nil
}
func (k *keyStore) InsertSkillTrend(ctx context.Context, trend models.SkillTrend) error {
	return nil
}
func (k *keyStore) UpdateSkillTrend(ctx context.Context, id string, trend models.SkillTrend) error {
	return nil
}

func TestService_StoreKeyTakesPrecedence(t *testing.T) {
	st := &keyStore{keys: []store.APIKey{
		{ServiceName: "serp", KeyName: "SERP_API_KEY", KeyValue: "from_store"},
	}}
	service := NewService(st, "from_env", "")

	key, err := service.SerpKey()
	require.NoError(t, err)
	assert.Equal(t, "from_store", key)
}

func TestService_FallsBackToEnv(t *testing.T) {
	service := NewService(&keyStore{}, "env_serp", "env_apify")

	key, err := service.SerpKey()
	require.NoError(t, err)
	assert.Equal(t, "env_serp", key)

	token, err := service.ApifyToken()
	require.NoError(t, err)
	assert.Equal(t, "env_apify", token)
}

func TestService_FetchFailureUsesFallback(t *testing.T) {
	st := &keyStore{err: errors.New("store down")}
	service := NewService(st, "env_serp", "")

	key, err := service.SerpKey()
	require.NoError(t, err, "key resolution never fails hard")
	assert.Equal(t, "env_serp", key)
}

func TestService_CachesWithinTTL(t *testing.T) {
	st := &keyStore{keys: []store.APIKey{
		{ServiceName: "serp", KeyName: "SERP_API_KEY", KeyValue: "v1"},
	}}
	service := NewService(st, "", "")

	current := time.Now()
	service.now = func() time.Time { return current }

	service.SerpKey()
	service.ApifyToken()
	service.SerpKey()
	assert.Equal(t, 1, st.fetches, "resolutions within the TTL share one fetch")

	// Past the TTL the next resolution refetches.
	current = current.Add(cacheTTL + time.Second)
	service.SerpKey()
	assert.Equal(t, 2, st.fetches)
}

func TestService_ClearCacheForcesRefetch(t *testing.T) {
	st := &keyStore{}
	service := NewService(st, "", "")

	service.SerpKey()
	service.ClearCache()
	service.SerpKey()
	assert.Equal(t, 2, st.fetches)
}
