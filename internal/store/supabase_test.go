package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trendscope/skilltrends/internal/models"
)

func TestClient_JobExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/fetched_jobs", r.URL.Path)
		assert.Equal(t, "test_key", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer test_key", r.Header.Get("Authorization"))

		if r.URL.Query().Get("job_hash") == "eq.known" {
			w.Write([]byte(`[{"id": 1}]`))
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key")

	exists, err := client.JobExists(context.Background(), "known")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.JobExists(context.Background(), "unknown")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestClient_InsertDiscussion_ConflictIsErrDuplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code": "23505"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key")

	err := client.InsertDiscussion(context.Background(), models.DiscussionRecord{
		PostHash: "abc",
		Title:    "dup",
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestClient_JobCount_ParsesContentRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))
		w.Header().Set("Content-Range", "0-24/3573")
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key")

	count, err := client.JobCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3573, count)
}

func TestClient_FindSkillTrend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/skill_trends", r.URL.Path)
		assert.Equal(t, "eq.2025-09-01", r.URL.Query().Get("snapshot_date"))
		assert.Equal(t, "eq.go", r.URL.Query().Get("skill_name_normalized"))
		w.Write([]byte(`[{"id": 77}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key")

	id, found, err := client.FindSkillTrend(context.Background(), "2025-09-01", "go")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "77", id)
}

func TestClient_ActiveAPIKeys(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/v1/admin_api_keys", r.URL.Path)
		assert.Equal(t, "eq.true", r.URL.Query().Get("is_active"))
		w.Write([]byte(`[{"service_name": "serp", "key_name": "SERP_API_KEY", "key_value": "abc123"}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key")

	keys, err := client.ActiveAPIKeys(context.Background())
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, "serp", keys[0].ServiceName)
	assert.Equal(t, "abc123", keys[0].KeyValue)
}

func TestPointCtx_BoundsPointOperations(t *testing.T) {
	ctx, cancel := pointCtx(context.Background())
	defer cancel()

	deadline, ok := ctx.Deadline()
	require.True(t, ok, "point operations always carry a deadline")
	assert.WithinDuration(t, time.Now().Add(pointTimeout), deadline, time.Second)
	assert.Less(t, pointTimeout, scanTimeout, "scans get the looser bound")
}

func TestPointCtx_KeepsTighterCallerDeadline(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	ctx, cancelPoint := pointCtx(parent)
	defer cancelPoint()

	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, 500*time.Millisecond)
}

func TestClient_ErrorIncludesStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`backend offline`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test_key")

	_, err := client.JobDescriptions(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "backend offline")
}
