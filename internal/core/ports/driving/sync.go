package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// SyncEngine drives the per-source sync state machine.
type SyncEngine interface {
	// ShouldSync reports whether a scheduled sync is due for the source.
	// Manual runs do not consult it.
	ShouldSync(ctx context.Context, sourceID string, now time.Time) (bool, error)

	// Sync runs one sync for a source.
	Sync(ctx context.Context, sourceID string, opts SyncOptions) (*SyncReport, error)

	// SyncAll runs an incremental sync for every source that is not paused.
	SyncAll(ctx context.Context) ([]SyncReport, error)

	// Pause stops new runs for a source until Resume.
	Pause(ctx context.Context, sourceID string) error

	// Resume clears a pause.
	Resume(ctx context.Context, sourceID string) error

	// Reset clears all dedup state of a source.
	Reset(ctx context.Context, sourceID string) error

	// Status returns the state and recent errors of a source.
	Status(ctx context.Context, sourceID string) (*domain.SourceStatus, error)

	// ListStatus returns the status of every configured source.
	ListStatus(ctx context.Context) ([]domain.SourceStatus, error)

	// IsRunning reports whether a sync for the source is active in this process.
	IsRunning(sourceID string) bool

	// Watch processes documents pushed by a watching connector until ctx
	// is cancelled. Returns ErrUnsupportedType for connectors that cannot watch.
	Watch(ctx context.Context, sourceID string) error
}

// SyncOptions select the sync mode.
type SyncOptions struct {
	Mode domain.SyncMode

	// StartDate bounds a historical sync. Zero uses the configured days back.
	StartDate time.Time

	// MaxDocuments caps a historical sync. Zero uses the configured cap.
	MaxDocuments int
}

// SyncReport summarises one sync run.
type SyncReport struct {
	SourceID   string          `json:"source_id"`
	Mode       domain.SyncMode `json:"mode"`
	Batches    int             `json:"batches"`
	Fetched    int             `json:"fetched"`
	Dispatched int             `json:"dispatched"`
	Skipped    int             `json:"skipped"`
	Rejected   int             `json:"rejected"`
	Failed     int             `json:"failed"`
	// Capped is set when a historical run stopped at its document cap.
	Capped     bool      `json:"capped"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Err        string    `json:"error,omitempty"`
}
