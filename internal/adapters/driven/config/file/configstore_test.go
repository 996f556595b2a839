package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_EmptyDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "config.toml"), store.Path())
	_, ok := store.Get("engine.batch_size")
	assert.False(t, ok)
}

func TestConfigStore_LoadNestedTables(t *testing.T) {
	dir := t.TempDir()
	content := `
[engine]
batch_size = 25
human_review_confidence_threshold = 0.65

[storage]
driver = "postgres"

[ocr]
languages = ["eng", "mal"]

[scheduler]
enabled = true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))

	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	assert.Equal(t, 25, store.GetInt("engine.batch_size"))
	assert.InDelta(t, 0.65, store.GetFloat("engine.human_review_confidence_threshold"), 1e-9)
	assert.Equal(t, "postgres", store.GetString("storage.driver"))
	assert.Equal(t, []string{"eng", "mal"}, store.GetStringSlice("ocr.languages"))
	assert.True(t, store.GetBool("scheduler.enabled"))
}

func TestConfigStore_SetPersistsTables(t *testing.T) {
	dir := t.TempDir()
	store, err := NewConfigStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("staging.driver", "s3"))
	require.NoError(t, store.Set("engine.workers", int64(8)))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[staging]")

	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "s3", reloaded.GetString("staging.driver"))
	assert.Equal(t, 8, reloaded.GetInt("engine.workers"))
}

func TestConfigStore_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[engine]\nbatch_size = 10\n"), 0o600))
	t.Setenv("INTAKE_ENGINE_BATCH_SIZE", "99")
	t.Setenv("INTAKE_SCHEDULER_ENABLED", "false")

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("INTAKE_STORAGE_POSTGRES_DSN=postgres://localhost/intake\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("INTAKE_STORAGE_POSTGRES_DSN") })

	store, err := NewConfigStore(dir)
	require.NoError(t, err)
	store.LoadEnv(envFile, filepath.Join(dir, "missing.env"))

	assert.Equal(t, 99, store.GetInt("engine.batch_size"))
	assert.False(t, store.GetBool("scheduler.enabled"))
	assert.Equal(t, "postgres://localhost/intake", store.GetString("storage.postgres_dsn"))

	require.NoError(t, store.Save())
	reloaded, err := NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.GetInt("engine.batch_size"), "env overrides are not persisted")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "engine.batch_size", envKey("INTAKE_ENGINE_BATCH_SIZE"))
	assert.Equal(t, "staging.s3_bucket", envKey("INTAKE_STAGING_S3_BUCKET"))
	assert.Equal(t, "verbose", envKey("INTAKE_VERBOSE"))
}

func TestConfigStore_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("[engine\nbatch_size = "), 0o600))

	_, err := NewConfigStore(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestConfigStore_CommaSeparatedOverride(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	t.Setenv("INTAKE_OCR_LANGUAGES", "eng, deu,,fra")
	store.LoadEnv()

	assert.Equal(t, []string{"eng", "deu", "fra"}, store.GetStringSlice("ocr.languages"))
}
