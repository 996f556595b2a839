package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

type mockEngine struct {
	statuses []domain.SourceStatus
	report   *driving.SyncReport
	err      error
	calls    []string
	opts     driving.SyncOptions
}

func (m *mockEngine) ShouldSync(context.Context, string, time.Time) (bool, error) { return false, nil }

func (m *mockEngine) Sync(_ context.Context, id string, opts driving.SyncOptions) (*driving.SyncReport, error) {
	m.calls = append(m.calls, "sync:"+id)
	m.opts = opts
	return m.report, m.err
}

func (m *mockEngine) SyncAll(context.Context) ([]driving.SyncReport, error) { return nil, nil }

func (m *mockEngine) Pause(_ context.Context, id string) error {
	m.calls = append(m.calls, "pause:"+id)
	return m.err
}

func (m *mockEngine) Resume(_ context.Context, id string) error {
	m.calls = append(m.calls, "resume:"+id)
	return m.err
}

func (m *mockEngine) Reset(_ context.Context, id string) error {
	m.calls = append(m.calls, "reset:"+id)
	return m.err
}

func (m *mockEngine) Status(_ context.Context, id string) (*domain.SourceStatus, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.SourceStatus{Source: domain.Source{ID: id}}, nil
}

func (m *mockEngine) ListStatus(context.Context) ([]domain.SourceStatus, error) {
	return m.statuses, m.err
}

func (m *mockEngine) IsRunning(string) bool { return false }

func (m *mockEngine) Watch(context.Context, string) error { return nil }

func TestLoadStatuses(t *testing.T) {
	engine := &mockEngine{statuses: []domain.SourceStatus{{Source: domain.Source{ID: "scans"}}}}

	msg := LoadStatuses(context.Background(), engine)()

	loaded, ok := msg.(messages.StatusesLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	assert.Len(t, loaded.Statuses, 1)
}

func TestLoadStatuses_NilEngine(t *testing.T) {
	msg := LoadStatuses(context.Background(), nil)()

	loaded, ok := msg.(messages.StatusesLoaded)
	require.True(t, ok)
	assert.ErrorIs(t, loaded.Err, ErrEngineUnavailable)
}

func TestLoadStatus(t *testing.T) {
	msg := LoadStatus(context.Background(), &mockEngine{}, "scans")()

	loaded, ok := msg.(messages.StatusLoaded)
	require.True(t, ok)
	require.NoError(t, loaded.Err)
	assert.Equal(t, "scans", loaded.Status.Source.ID)

	msg = LoadStatus(context.Background(), &mockEngine{err: domain.ErrNotFound}, "gone")()
	loaded = msg.(messages.StatusLoaded)
	assert.ErrorIs(t, loaded.Err, domain.ErrNotFound)
}

func TestRun(t *testing.T) {
	tests := []struct {
		action messages.Action
		call   string
	}{
		{messages.ActionPause, "pause:scans"},
		{messages.ActionResume, "resume:scans"},
		{messages.ActionReset, "reset:scans"},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			engine := &mockEngine{}

			msg := Run(context.Background(), engine, "scans", tt.action)()

			done, ok := msg.(messages.ActionCompleted)
			require.True(t, ok)
			assert.NoError(t, done.Err)
			assert.Nil(t, done.Report)
			assert.Equal(t, tt.action, done.Action)
			assert.Equal(t, []string{tt.call}, engine.calls)
		})
	}
}

func TestRun_SyncIsIncremental(t *testing.T) {
	engine := &mockEngine{report: &driving.SyncReport{SourceID: "scans", Dispatched: 2}}

	done := Run(context.Background(), engine, "scans", messages.ActionSync)().(messages.ActionCompleted)

	require.NoError(t, done.Err)
	require.NotNil(t, done.Report)
	assert.Equal(t, 2, done.Report.Dispatched)
	assert.Equal(t, domain.SyncModeIncremental, engine.opts.Mode)
}

func TestRun_FailedSyncKeepsReport(t *testing.T) {
	engine := &mockEngine{report: &driving.SyncReport{SourceID: "scans", Fetched: 1}, err: domain.ErrTransientConnector}

	done := Run(context.Background(), engine, "scans", messages.ActionSync)().(messages.ActionCompleted)

	assert.ErrorIs(t, done.Err, domain.ErrTransientConnector)
	require.NotNil(t, done.Report)
}

func TestRun_Errors(t *testing.T) {
	done := Run(context.Background(), nil, "scans", messages.ActionPause)().(messages.ActionCompleted)
	assert.ErrorIs(t, done.Err, ErrEngineUnavailable)

	done = Run(context.Background(), &mockEngine{}, "scans", messages.Action("explode"))().(messages.ActionCompleted)
	assert.ErrorIs(t, done.Err, domain.ErrInvalidInput)
}

func TestToggle(t *testing.T) {
	assert.Equal(t, messages.ActionResume, Toggle(domain.SyncState{Status: domain.SyncStatusPaused}))
	assert.Equal(t, messages.ActionPause, Toggle(domain.SyncState{Status: domain.SyncStatusIdle}))
	assert.Equal(t, messages.ActionPause, Toggle(domain.SyncState{Status: domain.SyncStatusError}))
}

func TestTick(t *testing.T) {
	assert.NotNil(t, Tick())
}

func TestSummary(t *testing.T) {
	tests := []struct {
		name     string
		msg      messages.ActionCompleted
		expected string
	}{
		{
			name: "sync report",
			msg: messages.ActionCompleted{SourceID: "scans", Action: messages.ActionSync, Report: &driving.SyncReport{
				Fetched: 5, Dispatched: 3, Skipped: 1, Rejected: 1, Capped: true,
			}},
			expected: "scans: 5 fetched, 3 dispatched, 1 skipped, 1 rejected, 0 failed (capped)",
		},
		{
			name: "failed sync with report",
			msg: messages.ActionCompleted{
				SourceID: "scans", Action: messages.ActionSync,
				Report: &driving.SyncReport{Fetched: 1}, Err: errors.New("timeout"),
			},
			expected: "scans: 1 fetched, 0 dispatched, 0 skipped, 0 rejected, 0 failed: timeout",
		},
		{
			name:     "rejected action",
			msg:      messages.ActionCompleted{SourceID: "scans", Action: messages.ActionSync, Err: domain.ErrSourcePaused},
			expected: "sync scans: " + domain.ErrSourcePaused.Error(),
		},
		{"pause", messages.ActionCompleted{SourceID: "scans", Action: messages.ActionPause}, "scans paused"},
		{"resume", messages.ActionCompleted{SourceID: "scans", Action: messages.ActionResume}, "scans resumed"},
		{"reset", messages.ActionCompleted{SourceID: "scans", Action: messages.ActionReset}, "scans reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Summary(tt.msg))
		})
	}
}

func TestFormatTime(t *testing.T) {
	assert.Equal(t, "never", FormatTime(time.Time{}))

	ts := time.Date(2026, 3, 9, 14, 30, 0, 0, time.Local)
	assert.Equal(t, "2026-03-09 14:30", FormatTime(ts))
}
