package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

func TestSourceStore(t *testing.T) {
	ctx := context.Background()
	store := NewSourceStore()

	require.NoError(t, store.Save(ctx, domain.Source{ID: "b", Type: "gmail"}))
	require.NoError(t, store.Save(ctx, domain.Source{ID: "a", Type: "filesystem"}))

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "filesystem", got.Type)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)

	require.NoError(t, store.Delete(ctx, "a"))
	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResultStore(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore()
	now := time.Now()

	require.NoError(t, store.Save(ctx, "src-1", &domain.ProcessingResult{FileID: "f1", CompletedAt: now.Add(-time.Minute)}))
	require.NoError(t, store.Save(ctx, "src-1", &domain.ProcessingResult{FileID: "f2", CompletedAt: now}))
	require.NoError(t, store.Save(ctx, "src-2", &domain.ProcessingResult{FileID: "f3", CompletedAt: now}))

	list, err := store.List(ctx, "src-1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "f2", list[0].FileID)

	list, err = store.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, store.Save(ctx, "src-1", &domain.ProcessingResult{}), domain.ErrInvalidInput)
}

func TestAuthProviderStore_DeleteInUse(t *testing.T) {
	ctx := context.Background()
	sources := NewSourceStore()
	store := NewAuthProviderStore(sources)

	require.NoError(t, store.Save(ctx, domain.AuthProvider{ID: "p1", Name: "Google", ProviderType: domain.ProviderGoogle}))
	require.NoError(t, sources.Save(ctx, domain.Source{ID: "s1", AuthProviderID: "p1"}))

	assert.ErrorIs(t, store.Delete(ctx, "p1"), domain.ErrAuthProviderInUse)

	require.NoError(t, sources.Delete(ctx, "s1"))
	require.NoError(t, store.Delete(ctx, "p1"))
	_, err := store.Get(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCredentialsStore_GetBySourceID(t *testing.T) {
	ctx := context.Background()
	store := NewCredentialsStore()

	require.NoError(t, store.Save(ctx, domain.Credentials{ID: "c1", SourceID: "s1", PAT: &domain.PATCredentials{Token: "t"}}))

	creds, err := store.GetBySourceID(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, creds)
	assert.Equal(t, "t", creds.Token())

	creds, err = store.GetBySourceID(ctx, "s2")
	require.NoError(t, err)
	assert.Nil(t, creds)
}

func TestConfigStore_GetFloat(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("engine.max_file_size", 10))
	require.NoError(t, store.Set("engine.threshold", 0.25))

	assert.Equal(t, 10.0, store.GetFloat("engine.max_file_size"))
	assert.Equal(t, 0.25, store.GetFloat("engine.threshold"))
	assert.Zero(t, store.GetFloat("missing"))
}

func TestSourceStore_IsolatesConfig(t *testing.T) {
	ctx := context.Background()
	store := NewSourceStore()
	cfg := map[string]string{"path": "/srv/scans"}

	require.NoError(t, store.Save(ctx, domain.Source{ID: "scans", Config: cfg}))
	cfg["path"] = "/tmp"

	got, err := store.Get(ctx, "scans")
	require.NoError(t, err)
	got.Config["path"] = "/elsewhere"

	again, err := store.Get(ctx, "scans")
	require.NoError(t, err)
	assert.Equal(t, "/srv/scans", again.Config["path"])

	assert.ErrorIs(t, store.Save(ctx, domain.Source{}), domain.ErrInvalidInput)
}

func TestAuthProviderStore_ListByProviderSortsByName(t *testing.T) {
	ctx := context.Background()
	store := NewAuthProviderStore(nil)

	require.NoError(t, store.Save(ctx, domain.AuthProvider{ID: "1", Name: "Zeta", ProviderType: domain.ProviderGoogle}))
	require.NoError(t, store.Save(ctx, domain.AuthProvider{ID: "2", Name: "Alpha", ProviderType: domain.ProviderGoogle}))
	require.NoError(t, store.Save(ctx, domain.AuthProvider{ID: "3", Name: "Mid", ProviderType: domain.ProviderGitHub}))

	google, err := store.ListByProvider(ctx, domain.ProviderGoogle)
	require.NoError(t, err)
	require.Len(t, google, 2)
	assert.Equal(t, "Alpha", google[0].Name)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Alpha", "Mid", "Zeta"}, []string{all[0].Name, all[1].Name, all[2].Name})
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("ocr.languages", []any{"eng", 3, "deu"}))
	require.NoError(t, store.Set("http.allowed_origins", []string{"http://a"}))
	require.NoError(t, store.Set("scheduler.enabled", true))
	require.NoError(t, store.Set("engine.batch_size", int64(25)))
	require.NoError(t, store.Set("storage.driver", "memory"))

	assert.Equal(t, []string{"eng", "deu"}, store.GetStringSlice("ocr.languages"))
	assert.Equal(t, []string{"http://a"}, store.GetStringSlice("http.allowed_origins"))
	assert.Nil(t, store.GetStringSlice("storage.driver"))
	assert.True(t, store.GetBool("scheduler.enabled"))
	assert.False(t, store.GetBool("storage.driver"))
	assert.Equal(t, 25, store.GetInt("engine.batch_size"))
	assert.Zero(t, store.GetInt("storage.driver"))
	assert.Equal(t, "memory", store.GetString("storage.driver"))
	assert.Empty(t, store.GetString("engine.batch_size"))
	assert.Equal(t, ":memory:", store.Path())
}
