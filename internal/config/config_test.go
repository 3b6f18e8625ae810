package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_KEY", "anon_key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "weekly", cfg.CollectionSchedule)
	assert.Equal(t, "reddit", cfg.DiscussionSource)
	assert.Equal(t, "United States", cfg.DefaultLocation)
	assert.NotEmpty(t, cfg.JobQueries)
	assert.NotEmpty(t, cfg.SkillQueries)
	assert.Equal(t, "snapshots", cfg.StorageContainer)
}

func TestLoad_MissingStoreConfig(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SUPABASE_URL")
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name: "Bad schedule",
			env: map[string]string{
				"COLLECTION_SCHEDULE": "hourly",
			},
			wantErr: "COLLECTION_SCHEDULE",
		},
		{
			name: "Bad discussion source",
			env: map[string]string{
				"DISCUSSION_SOURCE": "twitter",
			},
			wantErr: "DISCUSSION_SOURCE",
		},
		{
			name: "Email without SMTP",
			env: map[string]string{
				"NOTIFICATION_EMAIL": "team@example.com",
			},
			wantErr: "SMTP",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("SUPABASE_URL", "https://project.supabase.co")
			t.Setenv("SUPABASE_KEY", "anon_key")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestStoreKey_PrefersServiceRole(t *testing.T) {
	cfg := &Config{SupabaseKey: "anon", SupabaseServiceRoleKey: "service"}
	assert.Equal(t, "service", cfg.StoreKey())

	cfg.SupabaseServiceRoleKey = ""
	assert.Equal(t, "anon", cfg.StoreKey())
}

func TestGetSliceEnv_TrimsParts(t *testing.T) {
	t.Setenv("TEST_SLICE", "a, b , c")
	assert.Equal(t, []string{"a", "b", "c"}, getSliceEnv("TEST_SLICE", nil))
}
