package driven

import (
	"context"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// SchedulerStore keeps background task state and a bounded run log so a
// restarted process resumes the same cadence.
type SchedulerStore interface {
	// Task returns nil and no error when the task was never stored.
	Task(ctx context.Context, id string) (*domain.ScheduledTask, error)

	Tasks(ctx context.Context) ([]domain.ScheduledTask, error)

	// PutTask inserts or replaces a task by ID.
	PutTask(ctx context.Context, task *domain.ScheduledTask) error

	// FinishRun stores the task's post-run state and appends run to its log
	// atomically, then trims the log to the newest keep entries.
	FinishRun(ctx context.Context, task *domain.ScheduledTask, run domain.TaskResult, keep int) error

	// Runs lists a task's log, newest first.
	Runs(ctx context.Context, id string, limit int) ([]domain.TaskResult, error)
}
