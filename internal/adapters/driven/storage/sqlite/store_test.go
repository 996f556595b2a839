package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

// fixedDedupStore returns a dedup store whose clock is under test control.
func fixedDedupStore(t *testing.T, policy driven.ErrorLogPolicy, now *time.Time) driven.DedupStore {
	t.Helper()
	ds, ok := newTestStore(t).DedupStore(policy).(*dedupStore)
	require.True(t, ok)
	ds.now = func() time.Time { return *now }
	return ds
}

func TestNewStore_CreatesDatabaseAndIsReopenable(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "intake.db"), store.Path())
	require.NoError(t, store.SourceStore().Save(context.Background(), domain.Source{ID: "s1", Type: "filesystem", Name: "Docs"}))
	require.NoError(t, store.Close())

	_, err = os.Stat(filepath.Join(dir, "intake.db"))
	require.NoError(t, err)

	// Migrations are recorded, so a second open must not re-run them.
	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()
	got, err := reopened.SourceStore().Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Docs", got.Name)
}

func TestPendingMigrations_OrdersAboveApplied(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.up.sql":     {Data: []byte("SELECT 1;")},
		"002_second.up.sql":    {Data: []byte("SELECT 1;")},
		"001_initial.up.sql":   {Data: []byte("SELECT 1;")},
		"001_initial.down.sql": {Data: []byte("SELECT 1;")},
		"README":               {Data: []byte("notes")},
	}

	pending, err := pendingMigrations(fsys, 1)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, 2, pending[0].version)
	assert.Equal(t, "010_later.up.sql", pending[1].name)

	_, err = pendingMigrations(fstest.MapFS{"abc_bad.up.sql": {}}, 0)
	assert.Error(t, err)
}

func TestMigrate_FailedFileLeavesNoTrace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fsys := fstest.MapFS{
		"900_broken.up.sql": {Data: []byte("CREATE TABLE half_done (id TEXT); NOT VALID SQL;")},
	}
	require.Error(t, store.migrate(ctx, fsys))

	var tables int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE name = 'half_done'`).Scan(&tables))
	assert.Zero(t, tables)

	var version int
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schema_migrations`).Scan(&version))
	assert.Equal(t, 1, version)
}

func TestSourceStore_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sources := store.SourceStore()

	src := domain.Source{
		ID:     "inbox",
		Type:   domain.ConnectorGmail,
		Name:   "Inbox attachments",
		Config: map[string]string{"query": "has:attachment"},
	}
	require.NoError(t, sources.Save(ctx, src))
	require.NoError(t, sources.Save(ctx, domain.Source{ID: "archive", Type: domain.ConnectorFilesystem, Name: "Archive"}))

	got, err := sources.Get(ctx, "inbox")
	require.NoError(t, err)
	assert.Equal(t, "has:attachment", got.Config["query"])
	assert.False(t, got.CreatedAt.IsZero())

	list, err := sources.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "archive", list[0].ID)

	require.NoError(t, sources.Delete(ctx, "inbox"))
	_, err = sources.Get(ctx, "inbox")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, sources.Save(ctx, domain.Source{}), domain.ErrInvalidInput)
}

func TestAuthProviderStore_DeleteInUse(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	provider := domain.AuthProvider{
		ID:           "google-main",
		Name:         "Google",
		ProviderType: domain.ProviderGoogle,
		AuthMethod:   domain.AuthMethodOAuth,
		OAuth:        &domain.OAuthProviderConfig{ClientID: "cid", Scopes: []string{"drive.readonly"}},
	}
	require.NoError(t, store.AuthProviderStore().Save(ctx, provider))
	require.NoError(t, store.SourceStore().Save(ctx, domain.Source{
		ID: "drive", Type: domain.ConnectorGoogleDrive, Name: "Drive", AuthProviderID: "google-main",
	}))

	got, err := store.AuthProviderStore().Get(ctx, "google-main")
	require.NoError(t, err)
	require.NotNil(t, got.OAuth)
	assert.Equal(t, []string{"drive.readonly"}, got.OAuth.Scopes)

	byType, err := store.AuthProviderStore().ListByProvider(ctx, domain.ProviderGoogle)
	require.NoError(t, err)
	assert.Len(t, byType, 1)

	err = store.AuthProviderStore().Delete(ctx, "google-main")
	assert.ErrorIs(t, err, domain.ErrAuthProviderInUse)

	require.NoError(t, store.SourceStore().Delete(ctx, "drive"))
	require.NoError(t, store.AuthProviderStore().Delete(ctx, "google-main"))
	_, err = store.AuthProviderStore().Get(ctx, "google-main")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCredentialsStore_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	creds := store.CredentialsStore()

	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, creds.Save(ctx, domain.Credentials{
		ID:       "c1",
		SourceID: "drive",
		OAuth:    &domain.OAuthCredentials{AccessToken: "at", RefreshToken: "rt", TokenType: "Bearer", Expiry: expiry},
	}))

	got, err := creds.GetBySourceID(ctx, "drive")
	require.NoError(t, err)
	require.NotNil(t, got.OAuth)
	assert.Equal(t, "rt", got.OAuth.RefreshToken)
	assert.True(t, expiry.Equal(got.OAuth.Expiry))
	assert.Nil(t, got.PAT)

	none, err := creds.GetBySourceID(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, none)

	require.NoError(t, creds.Delete(ctx, "c1"))
	_, err = creds.Get(ctx, "c1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDedupStore_MarkAndLookup(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	dedup := store.DedupStore(driven.ErrorLogPolicy{Size: 10})

	doc := domain.RawDocument{ID: "d1", SourceID: "a", Checksum: "sum-1"}
	ok, err := dedup.IsProcessed(ctx, "a", "d1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, dedup.MarkProcessed(ctx, doc))
	require.NoError(t, dedup.MarkProcessed(ctx, doc))

	ok, err = dedup.IsProcessed(ctx, "a", "d1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dedup.IsProcessed(ctx, "b", "d1")
	require.NoError(t, err)
	assert.False(t, ok, "processed sets are per source")

	// The first owner of a checksum keeps it.
	require.NoError(t, dedup.MarkProcessed(ctx, domain.RawDocument{ID: "d9", SourceID: "b", Checksum: "sum-1"}))
	match, found, err := dedup.FindByChecksum(ctx, "sum-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, driven.ChecksumMatch{SourceID: "a", DocumentID: "d1"}, match)

	_, found, err = dedup.FindByChecksum(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, found)

	assert.ErrorIs(t, dedup.MarkProcessed(ctx, domain.RawDocument{ID: "x"}), domain.ErrInvalidInput)
}

func TestDedupStore_SyncState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	dedup := store.DedupStore(driven.ErrorLogPolicy{})

	state, err := dedup.GetSyncState(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.NewSyncState("a"), state)

	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, dedup.SaveSyncState(ctx, domain.SyncState{
		SourceID:       "a",
		LastSyncTime:   last,
		LastDocumentID: "d42",
		Cursor:         "eyJwYWdlIjoyfQ==",
		TotalProcessed: 42,
		ErrorCount:     2,
		Status:         domain.SyncStatusPaused,
	}))

	state, err = dedup.GetSyncState(ctx, "a")
	require.NoError(t, err)
	assert.True(t, last.Equal(state.LastSyncTime))
	assert.Equal(t, "d42", state.LastDocumentID)
	assert.Equal(t, "eyJwYWdlIjoyfQ==", state.Cursor)
	assert.Equal(t, int64(42), state.TotalProcessed)
	assert.Equal(t, int64(2), state.ErrorCount)
	assert.Equal(t, domain.SyncStatusPaused, state.Status)
	assert.False(t, state.UpdatedAt.IsZero())
}

func TestDedupStore_ErrorLogBounds(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	dedup := fixedDedupStore(t, driven.ErrorLogPolicy{Size: 3, Retention: 24 * time.Hour}, &now)
	ctx := context.Background()

	require.NoError(t, dedup.RecordError(ctx, domain.SourceError{SourceID: "a", Message: "old", Time: now.Add(-48 * time.Hour)}))
	for i, msg := range []string{"e1", "e2", "e3", "e4"} {
		require.NoError(t, dedup.RecordError(ctx, domain.SourceError{
			SourceID: "a", DocumentID: msg, Message: msg, Time: now.Add(time.Duration(i) * time.Second),
		}))
	}

	errs, err := dedup.RecentErrors(ctx, "a")
	require.NoError(t, err)
	require.Len(t, errs, 3)
	assert.Equal(t, "e4", errs[0].Message)
	assert.Equal(t, "e2", errs[2].Message)

	now = now.Add(25 * time.Hour)
	errs, err = dedup.RecentErrors(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, errs, "entries past retention are hidden before pruning")

	require.NoError(t, dedup.PruneErrors(ctx))
	errs, err = dedup.RecentErrors(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestDedupStore_ResetIsScopedToSource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	dedup := store.DedupStore(driven.ErrorLogPolicy{Size: 5})

	require.NoError(t, dedup.MarkProcessed(ctx, domain.RawDocument{ID: "d1", SourceID: "a", Checksum: "s1"}))
	require.NoError(t, dedup.MarkProcessed(ctx, domain.RawDocument{ID: "d2", SourceID: "b", Checksum: "s2"}))
	require.NoError(t, dedup.SaveSyncState(ctx, domain.SyncState{SourceID: "a", Status: domain.SyncStatusError}))
	require.NoError(t, dedup.RecordError(ctx, domain.SourceError{SourceID: "a", Message: "boom"}))

	require.NoError(t, dedup.Reset(ctx, "a"))

	ok, _ := dedup.IsProcessed(ctx, "a", "d1")
	assert.False(t, ok)
	_, found, _ := dedup.FindByChecksum(ctx, "s1")
	assert.False(t, found)
	state, _ := dedup.GetSyncState(ctx, "a")
	assert.Equal(t, domain.SyncStatusIdle, state.Status)
	errs, _ := dedup.RecentErrors(ctx, "a")
	assert.Empty(t, errs)

	ok, _ = dedup.IsProcessed(ctx, "b", "d2")
	assert.True(t, ok)
}

func TestDedupStore_SaveKeepsPause(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	dedup := store.DedupStore(driven.ErrorLogPolicy{})

	require.NoError(t, dedup.SetStatus(ctx, "a", domain.SyncStatusPaused))
	state, err := dedup.GetSyncState(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusPaused, state.Status)
	assert.Empty(t, state.Cursor)

	require.NoError(t, dedup.SaveSyncState(ctx, domain.SyncState{SourceID: "a", Cursor: "c2", TotalProcessed: 3, Status: domain.SyncStatusIdle}))
	state, err = dedup.GetSyncState(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusPaused, state.Status)
	assert.Equal(t, "c2", state.Cursor)
	assert.Equal(t, int64(3), state.TotalProcessed)

	require.NoError(t, dedup.SetStatus(ctx, "a", domain.SyncStatusIdle))
	state, err = dedup.GetSyncState(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, domain.SyncStatusIdle, state.Status)
	assert.Equal(t, "c2", state.Cursor)
}

func TestResultStore_SaveGetList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	results := store.ResultStore()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	score := 0.91
	for i, id := range []string{"f1", "f2", "f3"} {
		require.NoError(t, results.Save(ctx, "inbox", &domain.ProcessingResult{
			FileID:        id,
			Success:       true,
			Stage:         domain.StageCompleted,
			ExtractedText: "text " + id,
			Quality:       &domain.QualityAssessment{OverallScore: score, Decision: domain.DecisionProcess},
			CompletedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, results.Save(ctx, "other", &domain.ProcessingResult{FileID: "g1", Stage: domain.StageRejected}))

	got, err := results.Get(ctx, "f2")
	require.NoError(t, err)
	assert.Equal(t, "text f2", got.ExtractedText)
	require.NotNil(t, got.Quality)
	assert.InDelta(t, score, got.Quality.OverallScore, 1e-9)

	list, err := results.List(ctx, "inbox", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "f3", list[0].FileID)

	all, err := results.List(ctx, "inbox", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = results.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, results.Save(ctx, "inbox", &domain.ProcessingResult{}), domain.ErrInvalidInput)
}
