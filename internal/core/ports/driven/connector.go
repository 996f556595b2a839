package driven

import (
	"context"
	"errors"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// Connector pulls candidate documents from one upstream source.
//
// A fetch walks from the start every call and streams batches. Both
// channels are closed when the walk ends. A clean end is reported as a
// *SyncComplete on the error channel; anything else sent there aborts the
// walk and leaves the stored cursor alone.
type Connector interface {
	Type() string
	SourceID() string

	// Validate makes the cheapest call that proves config and credentials
	// work.
	Validate(ctx context.Context) error

	// FetchIncremental resumes from state.Cursor, or from
	// state.LastSyncTime on a first walk.
	FetchIncremental(ctx context.Context, state domain.SyncState, batchSize int) (<-chan []domain.RawDocument, <-chan error)

	// FetchHistorical walks everything modified at or after startDate. The
	// engine cancels ctx once its result cap is reached.
	FetchHistorical(ctx context.Context, startDate time.Time, batchSize int) (<-chan []domain.RawDocument, <-chan error)

	Close() error
}

// Watcher is an optional Connector extension for push-style change feeds.
type Watcher interface {
	Watch(ctx context.Context) (<-chan domain.RawDocument, error)
}

// SyncComplete ends a successful walk. NewCursor is where the next
// incremental walk starts.
type SyncComplete struct {
	NewCursor string
}

func (*SyncComplete) Error() string { return "sync complete" }

// IsSyncComplete unwraps a completion signal from err.
func IsSyncComplete(err error) (*SyncComplete, bool) {
	var done *SyncComplete
	if errors.As(err, &done) {
		return done, true
	}
	return nil, false
}
