package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

func newTestSettings(t *testing.T, values map[string]any) (*SettingsService, *memory.ConfigStore) {
	t.Helper()
	store := memory.NewConfigStore()
	for k, v := range values {
		require.NoError(t, store.Set(k, v))
	}
	return NewSettingsService(store, "/var/lib/intake"), store
}

func TestSettingsService_AppConfig_Defaults(t *testing.T) {
	svc, _ := newTestSettings(t, nil)

	cfg, err := svc.AppConfig()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultAppConfig("/var/lib/intake"), cfg)
}

func TestSettingsService_AppConfig_Overrides(t *testing.T) {
	svc, _ := newTestSettings(t, map[string]any{
		"engine.batch_size":                        int64(25),
		"engine.human_review_confidence_threshold": 0.65,
		"engine.image_quality_threshold":           int64(1),
		"engine.batch_delay":                       "2s",
		"engine.workers":                           "8", // environment values arrive as strings
		"storage.driver":                           "postgres",
		"storage.postgres_dsn":                     "postgres://localhost/intake",
		"scheduler.enabled":                        false,
		"scheduler.document_sync_interval":         "10m",
		"scheduler.oauth_refresh_enabled":          "false",
	})

	cfg, err := svc.AppConfig()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Intake.BatchSize)
	assert.Equal(t, 0.65, cfg.Intake.HumanReviewConfidenceThreshold)
	assert.Equal(t, 1.0, cfg.Intake.ImageQualityThreshold)
	assert.Equal(t, 2*time.Second, cfg.Intake.BatchDelay)
	assert.Equal(t, 8, cfg.Intake.Workers)
	assert.Equal(t, domain.StoragePostgres, cfg.Storage.Driver)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.GetTaskConfig(domain.TaskIDDocumentSync).Interval)
	assert.False(t, cfg.Scheduler.GetTaskConfig(domain.TaskIDOAuthRefresh).Enabled)
	assert.True(t, cfg.Scheduler.GetTaskConfig(domain.TaskIDErrorLogPrune).Enabled)
}

func TestSettingsService_AppConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]any
	}{
		{"unparseable int", map[string]any{"engine.batch_size": "lots"}},
		{"fractional int", map[string]any{"engine.batch_size": 2.5}},
		{"bad duration", map[string]any{"engine.batch_delay": "soon"}},
		{"out of range threshold", map[string]any{"engine.text_density_threshold": 3.0}},
		{"postgres without dsn", map[string]any{"storage.driver": "postgres"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestSettings(t, tt.values)
			_, err := svc.AppConfig()
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Set(t *testing.T) {
	svc, store := newTestSettings(t, nil)

	require.NoError(t, svc.Set("engine.batch_size", "10"))
	raw, ok := store.Get("engine.batch_size")
	require.True(t, ok)
	assert.Equal(t, int64(10), raw)

	require.NoError(t, svc.Set("engine.error_retention", "48h"))
	raw, _ = store.Get("engine.error_retention")
	assert.Equal(t, "48h0m0s", raw)

	cfg, err := svc.AppConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Intake.BatchSize)
	assert.Equal(t, 48*time.Hour, cfg.Intake.ErrorRetention)
}

func TestSettingsService_Set_Rejects(t *testing.T) {
	svc, store := newTestSettings(t, nil)

	assert.ErrorIs(t, svc.Set("engine.nope", "1"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Set("engine.workers", "0"), domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Set("staging.driver", "s3"), domain.ErrInvalidInput, "bucket missing")

	_, ok := store.Get("engine.workers")
	assert.False(t, ok, "rejected values are not persisted")

	require.NoError(t, svc.Set("staging.s3_bucket", "intake-staging"))
	assert.NoError(t, svc.Set("staging.driver", "s3"))
}

func TestSettingsService_Values(t *testing.T) {
	svc, _ := newTestSettings(t, map[string]any{
		"engine.batch_size":    int64(5),
		"storage.postgres_dsn": "postgres://user:secret@db/intake",
	})

	values := map[string]string{}
	defaults := map[string]bool{}
	for _, s := range svc.Values() {
		values[s.Key] = s.Value
		defaults[s.Key] = s.Default
	}

	assert.Len(t, values, len(settingDefs))
	assert.Equal(t, "5", values["engine.batch_size"])
	assert.False(t, defaults["engine.batch_size"])
	assert.Equal(t, "********", values["storage.postgres_dsn"])
	assert.Equal(t, "sqlite", values["storage.driver"])
	assert.True(t, defaults["storage.driver"])
	assert.Equal(t, "", values["staging.s3_secret_access_key"], "unset secrets stay empty")
}
