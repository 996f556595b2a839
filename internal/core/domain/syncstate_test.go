package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSyncState(t *testing.T) {
	state := NewSyncState("src-1")

	assert.Equal(t, "src-1", state.SourceID)
	assert.Equal(t, SyncStatusIdle, state.Status)
	assert.True(t, state.LastSyncTime.IsZero())
	assert.Zero(t, state.TotalProcessed)
}

func TestSyncState_DueAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("never synced is due", func(t *testing.T) {
		state := NewSyncState("s")
		assert.True(t, state.DueAt(now, time.Hour))
	})

	t.Run("exactly one interval is due", func(t *testing.T) {
		state := SyncState{LastSyncTime: now.Add(-time.Hour), Status: SyncStatusIdle}
		assert.True(t, state.DueAt(now, time.Hour))
	})

	t.Run("inside interval is not due", func(t *testing.T) {
		state := SyncState{LastSyncTime: now.Add(-59 * time.Minute), Status: SyncStatusIdle}
		assert.False(t, state.DueAt(now, time.Hour))
	})

	t.Run("paused is never due", func(t *testing.T) {
		state := SyncState{Status: SyncStatusPaused}
		assert.False(t, state.DueAt(now, time.Hour))
	})
}

func TestParseSyncStatus(t *testing.T) {
	s, err := ParseSyncStatus("PAUSED")
	require.NoError(t, err)
	assert.Equal(t, SyncStatusPaused, s)

	s, err = ParseSyncStatus("")
	require.NoError(t, err)
	assert.Equal(t, SyncStatusIdle, s)

	_, err = ParseSyncStatus("BOGUS")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
