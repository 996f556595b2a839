package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [source-id]", syncCmd.Use)
	assert.Equal(t, "Synchronise documents from sources", syncCmd.Short)
	assert.Contains(t, syncCmd.Long, "incrementally")
}

func TestSyncCmd_AllSources(t *testing.T) {
	engine := &mockSyncEngine{reports: []driving.SyncReport{
		{SourceID: "scans", Mode: domain.SyncModeIncremental, Fetched: 3, Dispatched: 2, Skipped: 1},
		{SourceID: "mail", Mode: domain.SyncModeIncremental},
	}}
	withServices(t, Services{Sync: engine})

	out, err := execute(t, "sync")

	require.NoError(t, err)
	assert.Contains(t, out, "Synchronising all sources...")
	assert.Contains(t, out, "scans (incremental): 3 fetched, 2 dispatched, 0 rejected, 1 skipped, 0 failed")
	assert.Contains(t, out, "mail (incremental)")
	assert.Contains(t, out, "All sources synchronised successfully.")
}

func TestSyncCmd_SingleSource(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	engine := &mockSyncEngine{report: &driving.SyncReport{
		SourceID:   "scans",
		Mode:       domain.SyncModeIncremental,
		Fetched:    1,
		Dispatched: 1,
		StartedAt:  start,
		FinishedAt: start.Add(1500 * time.Millisecond),
	}}
	withServices(t, Services{Sync: engine})

	out, err := execute(t, "sync", "scans")

	require.NoError(t, err)
	assert.Equal(t, "scans", engine.syncedID)
	assert.Equal(t, domain.SyncModeIncremental, engine.gotOpts.Mode)
	assert.Contains(t, out, "Synchronising source: scans...")
	assert.Contains(t, out, "in 1.5s")
	assert.Contains(t, out, "Source scans synchronised successfully.")
}

func TestSyncCmd_Historical(t *testing.T) {
	engine := &mockSyncEngine{report: &driving.SyncReport{
		SourceID: "scans", Mode: domain.SyncModeHistorical, Dispatched: 10, Capped: true,
	}}
	withServices(t, Services{Sync: engine})

	out, err := execute(t, "sync", "scans", "--historical", "--since", "2026-01-15", "--max", "10")

	require.NoError(t, err)
	assert.Equal(t, domain.SyncModeHistorical, engine.gotOpts.Mode)
	assert.Equal(t, 10, engine.gotOpts.MaxDocuments)
	assert.Equal(t, time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC), engine.gotOpts.StartDate)
	assert.Contains(t, out, "[capped]")
}

func TestSyncCmd_FlagValidation(t *testing.T) {
	withServices(t, Services{Sync: &mockSyncEngine{}})

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"since without historical", []string{"sync", "scans", "--since", "2026-01-01"}, "require --historical"},
		{"max without historical", []string{"sync", "scans", "--max", "5"}, "require --historical"},
		{"bad date", []string{"sync", "scans", "--historical", "--since", "01/15/2026"}, "expected YYYY-MM-DD"},
		{"historical without source", []string{"sync", "--historical"}, "needs a source ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSyncCmd_ServiceNotConfigured(t *testing.T) {
	withServices(t, Services{})

	_, err := execute(t, "sync")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync service not configured")
}

func TestSyncCmd_FailedRunPrintsReport(t *testing.T) {
	engine := &mockSyncEngine{
		report: &driving.SyncReport{SourceID: "scans", Mode: domain.SyncModeIncremental, Fetched: 2, Err: "connector timeout"},
		err:    domain.ErrTransientConnector,
	}
	withServices(t, Services{Sync: engine})

	out, err := execute(t, "sync", "scans")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "sync failed")
	assert.Contains(t, out, "2 fetched")
	assert.Contains(t, out, "error: connector timeout")
}

func TestSyncCmd_ServiceError_AllSources(t *testing.T) {
	withServices(t, Services{Sync: &mockSyncEngine{err: errBackend}})

	_, err := execute(t, "sync")

	require.Error(t, err)
	assert.ErrorIs(t, err, errBackend)
}

func TestStatusCmd(t *testing.T) {
	synced := time.Date(2026, 4, 2, 10, 30, 0, 0, time.UTC)
	engine := &mockSyncEngine{statuses: []domain.SourceStatus{
		{
			Source: domain.Source{ID: "scans", Type: "filesystem"},
			State:  domain.SyncState{Status: domain.SyncStatusIdle, LastSyncTime: synced, TotalProcessed: 42, ErrorCount: 1},
			RecentErrors: []domain.SourceError{
				{Time: synced, DocumentID: "a.pdf", Message: "extraction failed"},
			},
		},
		{
			Source:  domain.Source{ID: "mail", Type: "gmail"},
			State:   domain.SyncState{Status: domain.SyncStatusSyncing},
			Running: true,
		},
	}}
	withServices(t, Services{Sync: engine})

	t.Run("all sources", func(t *testing.T) {
		out, err := execute(t, "status")
		require.NoError(t, err)
		assert.Contains(t, out, "scans [filesystem] IDLE")
		assert.Contains(t, out, "Last sync:  2026-04-02T10:30:00Z")
		assert.Contains(t, out, "Processed:  42")
		assert.Contains(t, out, "mail [gmail] SYNCING (running)")
		assert.Contains(t, out, "Last sync:  never")
		assert.NotContains(t, out, "Recent errors")
	})

	t.Run("single source shows errors", func(t *testing.T) {
		out, err := execute(t, "status", "scans")
		require.NoError(t, err)
		assert.Contains(t, out, "Recent errors:")
		assert.Contains(t, out, "a.pdf: extraction failed")
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := execute(t, "status", "nope")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestStatusCmd_NoSources(t *testing.T) {
	withServices(t, Services{Sync: &mockSyncEngine{}})

	out, err := execute(t, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "No configured sources.")
}

func TestControlCmds(t *testing.T) {
	engine := &mockSyncEngine{}
	withServices(t, Services{Sync: engine})

	out, err := execute(t, "pause", "scans")
	require.NoError(t, err)
	assert.Contains(t, out, "Paused scans.")

	out, err = execute(t, "resume", "scans")
	require.NoError(t, err)
	assert.Contains(t, out, "Resumed scans.")

	out, err = execute(t, "reset", "scans")
	require.NoError(t, err)
	assert.Contains(t, out, "Reset scans.")

	assert.Equal(t, []string{"scans"}, engine.paused)
	assert.Equal(t, []string{"scans"}, engine.resumed)
	assert.Equal(t, []string{"scans"}, engine.reset)
}

func TestControlCmds_Errors(t *testing.T) {
	withServices(t, Services{Sync: &mockSyncEngine{err: domain.ErrNotFound}})

	for _, name := range []string{"pause", "resume", "reset"} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, name, "nope")
			require.Error(t, err)
			assert.Contains(t, err.Error(), name+" failed")
			assert.ErrorIs(t, err, domain.ErrNotFound)
		})
	}
}

func TestControlCmds_RequireSourceID(t *testing.T) {
	withServices(t, Services{Sync: &mockSyncEngine{}})

	_, err := execute(t, "pause")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestWatchCmd_Unsupported(t *testing.T) {
	withServices(t, Services{Sync: &mockSyncEngine{err: domain.ErrUnsupportedType}})

	_, err := execute(t, "watch", "mail")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "source mail cannot be watched")
}
