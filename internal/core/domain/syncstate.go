package domain

import "time"

// SyncStatus is the lifecycle status of a source's sync state machine.
type SyncStatus string

const (
	SyncStatusIdle    SyncStatus = "IDLE"
	SyncStatusSyncing SyncStatus = "SYNCING"
	SyncStatusError   SyncStatus = "ERROR"
	// SyncStatusPaused is set by an operator and only cleared by Resume.
	SyncStatusPaused SyncStatus = "PAUSED"
)

// ParseSyncStatus converts a stored string into a SyncStatus.
func ParseSyncStatus(s string) (SyncStatus, error) {
	switch SyncStatus(s) {
	case SyncStatusIdle, SyncStatusSyncing, SyncStatusError, SyncStatusPaused:
		return SyncStatus(s), nil
	case "":
		return SyncStatusIdle, nil
	}
	return "", ErrInvalidInput
}

// SyncMode selects how a connector is walked.
type SyncMode string

const (
	// SyncModeIncremental resumes from the stored cursor.
	SyncModeIncremental SyncMode = "incremental"
	// SyncModeHistorical backfills from an explicit start date up to a cap.
	SyncModeHistorical SyncMode = "historical"
)

// SyncState tracks the synchronisation progress for a source.
type SyncState struct {
	// SourceID links to the Source being synced.
	SourceID string

	// LastSyncTime is when the last successful sync completed.
	// Zero until the first run finishes.
	LastSyncTime time.Time

	// LastDocumentID is the last document handled by the previous batch.
	LastDocumentID string

	// Cursor is an opaque token for incremental sync.
	Cursor string

	// TotalProcessed counts documents handed to the pipeline across runs.
	TotalProcessed int64

	// ErrorCount counts per-document and fetch failures across runs.
	ErrorCount int64

	// Status is the current lifecycle status.
	Status SyncStatus

	// UpdatedAt is when the state was last persisted.
	UpdatedAt time.Time
}

// NewSyncState returns the initial state for a source that has never synced.
func NewSyncState(sourceID string) SyncState {
	return SyncState{
		SourceID: sourceID,
		Status:   SyncStatusIdle,
	}
}

// IsPaused reports whether an operator paused the source.
func (s *SyncState) IsPaused() bool {
	return s.Status == SyncStatusPaused
}

// DueAt reports whether a scheduled sync is due at now for the given interval.
func (s *SyncState) DueAt(now time.Time, interval time.Duration) bool {
	if s.IsPaused() {
		return false
	}
	return now.Sub(s.LastSyncTime) >= interval
}

// SourceError is one entry in a source's bounded error log.
type SourceError struct {
	SourceID   string    `json:"source_id"`
	DocumentID string    `json:"document_id,omitempty"`
	Message    string    `json:"message"`
	Time       time.Time `json:"time"`
}

// SourceStatus combines the sync state with recent errors for display.
type SourceStatus struct {
	Source       Source
	State        SyncState
	RecentErrors []SourceError
	Running      bool
}
