package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
)

type schedulerStore struct {
	store *Store
}

var _ driven.SchedulerStore = (*schedulerStore)(nil)

const taskColumns = `id, name, interval_ns, enabled, last_run, next_run, last_success, last_error`

func (s *schedulerStore) Task(ctx context.Context, id string) (*domain.ScheduledTask, error) {
	row := s.store.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM scheduled_tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return task, err
}

func (s *schedulerStore) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	tasks, err := queryAll(ctx, s.store.db, scanTask, `SELECT `+taskColumns+` FROM scheduled_tasks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing scheduled tasks: %w", err)
	}
	return tasks, nil
}

func (s *schedulerStore) PutTask(ctx context.Context, task *domain.ScheduledTask) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}
	if err := putTask(ctx, s.store.db, task); err != nil {
		return fmt.Errorf("saving task %s: %w", task.ID, err)
	}
	return nil
}

func (s *schedulerStore) FinishRun(ctx context.Context, task *domain.ScheduledTask, run domain.TaskResult, keep int) error {
	if task == nil || task.ID == "" {
		return domain.ErrInvalidInput
	}
	run.TaskID = task.ID

	return s.store.withTx(ctx, func(tx *sql.Tx) error {
		if err := putTask(ctx, tx, task); err != nil {
			return fmt.Errorf("saving task %s: %w", task.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO task_runs (task_id, started_at, ended_at, error, items, attempts)
			VALUES (?, ?, ?, ?, ?, ?)`,
			run.TaskID, toNanos(run.StartedAt), toNanos(run.EndedAt),
			nullString(run.Error), run.ItemsProcessed, max(run.Attempts, 1)); err != nil {
			return fmt.Errorf("appending run for %s: %w", task.ID, err)
		}
		if keep <= 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM task_runs WHERE task_id = ? AND seq NOT IN (
				SELECT seq FROM task_runs WHERE task_id = ? ORDER BY seq DESC LIMIT ?
			)`, task.ID, task.ID, keep); err != nil {
			return fmt.Errorf("trimming runs for %s: %w", task.ID, err)
		}
		return nil
	})
}

func (s *schedulerStore) Runs(ctx context.Context, id string, limit int) ([]domain.TaskResult, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT task_id, started_at, ended_at, error, items, attempts
		FROM task_runs WHERE task_id = ? ORDER BY seq DESC LIMIT ?`, id, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs for %s: %w", id, err)
	}
	defer rows.Close()

	var runs []domain.TaskResult
	for rows.Next() {
		var (
			r              domain.TaskResult
			started, ended int64
			msg            sql.NullString
		)
		if err := rows.Scan(&r.TaskID, &started, &ended, &msg, &r.ItemsProcessed, &r.Attempts); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.StartedAt = fromNanos(started)
		r.EndedAt = fromNanos(ended)
		r.Error = msg.String
		r.Success = !msg.Valid
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putTask(ctx context.Context, db execer, task *domain.ScheduledTask) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO scheduled_tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			interval_ns = excluded.interval_ns,
			enabled = excluded.enabled,
			last_run = excluded.last_run,
			next_run = excluded.next_run,
			last_success = excluded.last_success,
			last_error = excluded.last_error`,
		task.ID, task.Name, int64(task.Interval), boolToInt(task.Enabled),
		toNanos(task.LastRun), toNanos(task.NextRun), toNanos(task.LastSuccess),
		nullString(task.LastError))
	return err
}

func scanTask(row rowScanner) (*domain.ScheduledTask, error) {
	var (
		t                             domain.ScheduledTask
		interval                      int64
		enabled                       int
		lastRun, nextRun, lastSuccess int64
		lastErr                       sql.NullString
	)
	if err := row.Scan(&t.ID, &t.Name, &interval, &enabled, &lastRun, &nextRun, &lastSuccess, &lastErr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning task: %w", err)
	}
	t.Interval = time.Duration(interval)
	t.Enabled = enabled == 1
	t.LastRun = fromNanos(lastRun)
	t.NextRun = fromNanos(nextRun)
	t.LastSuccess = fromNanos(lastSuccess)
	t.LastError = lastErr.String
	return &t, nil
}

// nullString stores empty strings as NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
