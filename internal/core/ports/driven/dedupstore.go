package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// DedupStore is the single shared mutable resource of the engine.
// It owns the per-source processed-id sets, the checksum index, the sync
// state and the bounded error logs. All keys are namespaced by source ID.
//
// Implementations must be safe for concurrent use by several workers and
// processes. Each method is a single atomic operation; no multi-call
// transactions are assumed.
type DedupStore interface {
	// IsProcessed reports whether docID is in the source's processed set.
	IsProcessed(ctx context.Context, sourceID, docID string) (bool, error)

	// MarkProcessed adds doc.ID to the processed set of doc.SourceID and
	// records the checksum -> id mapping. Marking twice is a no-op.
	MarkProcessed(ctx context.Context, doc domain.RawDocument) error

	// FindByChecksum looks up any source that already processed content with
	// this checksum. found is false when none did.
	FindByChecksum(ctx context.Context, checksum string) (match ChecksumMatch, found bool, err error)

	// GetSyncState returns the stored state, or NewSyncState when none exists.
	GetSyncState(ctx context.Context, sourceID string) (domain.SyncState, error)

	// SaveSyncState persists the full state in one round trip. A stored
	// PAUSED status is kept; only SetStatus clears a pause.
	SaveSyncState(ctx context.Context, state domain.SyncState) error

	// SetStatus writes only the status, creating the state when none exists.
	SetStatus(ctx context.Context, sourceID string, status domain.SyncStatus) error

	// RecordError appends to the source's error log, evicting the oldest
	// entries beyond the configured size and those past retention.
	RecordError(ctx context.Context, entry domain.SourceError) error

	// RecentErrors returns retained errors for a source, newest first.
	RecentErrors(ctx context.Context, sourceID string) ([]domain.SourceError, error)

	// PruneErrors drops error log entries past retention for every source.
	PruneErrors(ctx context.Context) error

	// Reset clears all dedup state for a source.
	Reset(ctx context.Context, sourceID string) error
}

// ChecksumMatch identifies where a checksum was first processed.
type ChecksumMatch struct {
	SourceID   string
	DocumentID string
}

// ErrorLogPolicy bounds a DedupStore's per-source error log.
type ErrorLogPolicy struct {
	// Size is the maximum number of entries kept per source.
	Size int
	// Retention drops entries older than this. Zero keeps entries forever.
	Retention time.Duration
}
