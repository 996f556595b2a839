package driving

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// Scheduler runs the background tasks: due-source sync, token refresh and
// error log pruning.
type Scheduler interface {
	// Start blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	Stop() error

	// Tasks returns the persisted state of all tasks.
	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// Runs returns a task's recent runs, newest first. Unknown task IDs
	// yield domain.ErrNotFound.
	Runs(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error)
}
