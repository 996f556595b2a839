package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// historyKeep is how many results are kept per task.
const historyKeep = 100

// Scheduler manages background task execution.
type Scheduler struct {
	config  domain.SchedulerConfig
	store   driven.SchedulerStore
	sources driven.SourceStore
	engine  driving.SyncEngine
	retry   domain.RetryPolicy

	credentials driven.CredentialsStore
	refresher   driven.TokenRefresher
	dedup       driven.DedupStore

	tick time.Duration
	now  func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// SchedulerOption configures optional scheduler tasks.
type SchedulerOption func(*Scheduler)

// WithRetryPolicy sets the policy each scheduled sync runs under.
func WithRetryPolicy(p domain.RetryPolicy) SchedulerOption {
	return func(s *Scheduler) { s.retry = p }
}

// WithTokenRefresh enables the oauth-refresh task.
func WithTokenRefresh(credentials driven.CredentialsStore, refresher driven.TokenRefresher) SchedulerOption {
	return func(s *Scheduler) {
		s.credentials = credentials
		s.refresher = refresher
	}
}

// WithErrorLogPrune enables the error-log-prune task.
func WithErrorLogPrune(dedup driven.DedupStore) SchedulerOption {
	return func(s *Scheduler) { s.dedup = dedup }
}

// NewScheduler creates a scheduler with configuration.
func NewScheduler(
	config domain.SchedulerConfig,
	store driven.SchedulerStore,
	sources driven.SourceStore,
	engine driving.SyncEngine,
	opts ...SchedulerOption,
) *Scheduler {
	s := &Scheduler{
		config:  config,
		store:   store,
		sources: sources,
		engine:  engine,
		retry:   domain.DefaultRetryPolicy(),
		tick:    time.Minute,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler loop. This method blocks until Stop is called
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	if !s.config.Enabled {
		logger.Info("Scheduler disabled")
		return nil
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.mu.Unlock()

	if err := s.initialiseTasks(ctx); err != nil {
		logger.Error("scheduler: failed to initialise tasks: %v", err)
	}

	return s.run(ctx, stopCh)
}

// Stop gracefully shuts down the scheduler and waits for running tasks.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Tasks returns the persisted state of all tasks.
func (s *Scheduler) Tasks(ctx context.Context) ([]domain.ScheduledTask, error) {
	return s.store.Tasks(ctx)
}

// Runs returns the most recent runs of a task, newest first.
func (s *Scheduler) Runs(ctx context.Context, taskID string, limit int) ([]domain.TaskResult, error) {
	if _, known := domain.TaskName(taskID); !known {
		return nil, fmt.Errorf("task %q: %w", taskID, domain.ErrNotFound)
	}
	return s.store.Runs(ctx, taskID, limit)
}

// initialiseTasks ensures every configured task with its collaborators
// exists in the store.
func (s *Scheduler) initialiseTasks(ctx context.Context) error {
	for _, id := range domain.TaskIDs() {
		name, _ := domain.TaskName(id)
		cfg := s.config.GetTaskConfig(id)
		if !s.available(id) {
			cfg.Enabled = false
		}
		if !cfg.Enabled {
			if task, err := s.store.Task(ctx, id); err == nil && task != nil && task.Enabled {
				task.Enabled = false
				if err := s.store.PutTask(ctx, task); err != nil {
					return err
				}
			}
			continue
		}
		if err := s.ensureTask(ctx, id, name, cfg); err != nil {
			return err
		}
	}
	return nil
}

// available reports whether the collaborators a task needs are wired.
func (s *Scheduler) available(id string) bool {
	switch id {
	case domain.TaskIDDocumentSync:
		return s.engine != nil && s.sources != nil
	case domain.TaskIDOAuthRefresh:
		return s.refresher != nil && s.credentials != nil && s.sources != nil
	case domain.TaskIDErrorLogPrune:
		return s.dedup != nil
	}
	return false
}

// ensureTask creates or updates a task in the store.
func (s *Scheduler) ensureTask(ctx context.Context, id, name string, cfg domain.TaskConfig) error {
	task, err := s.store.Task(ctx, id)
	if err != nil {
		return err
	}

	if task == nil {
		task = &domain.ScheduledTask{
			ID:       id,
			Name:     name,
			Interval: cfg.Interval,
			Enabled:  cfg.Enabled,
			NextRun:  s.now(),
		}
	} else {
		if task.Interval != cfg.Interval {
			task.Interval = cfg.Interval
			task.NextRun = s.now().Add(cfg.Interval)
		}
		task.Enabled = cfg.Enabled
	}

	return s.store.PutTask(ctx, task)
}

// run is the main scheduler loop.
func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}) error {
	s.checkAndRunDueTasks(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stopCh:
			return nil
		case <-ticker.C:
			s.checkAndRunDueTasks(ctx)
		}
	}
}

// checkAndRunDueTasks finds and executes tasks that are due.
func (s *Scheduler) checkAndRunDueTasks(ctx context.Context) {
	tasks, err := s.store.Tasks(ctx)
	if err != nil {
		logger.Error("scheduler: failed to list tasks: %v", err)
		return
	}

	now := s.now()
	for i := range tasks {
		task := tasks[i]
		if !task.Enabled {
			continue
		}
		if task.NextRun.IsZero() || !task.NextRun.After(now) {
			s.runTask(ctx, &task)
		}
	}
}

// runTask executes a single task in the background.
func (s *Scheduler) runTask(ctx context.Context, task *domain.ScheduledTask) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		result := &domain.TaskResult{
			TaskID:    task.ID,
			StartedAt: s.now(),
			Attempts:  1,
		}

		var err error
		switch task.ID {
		case domain.TaskIDDocumentSync:
			result.ItemsProcessed, result.Attempts, err = s.runDocumentSync(ctx)
		case domain.TaskIDOAuthRefresh:
			result.ItemsProcessed, err = s.runOAuthRefresh(ctx)
		case domain.TaskIDErrorLogPrune:
			err = s.runErrorLogPrune(ctx)
		default:
			logger.Warn("scheduler: unknown task ID: %s", task.ID)
			return
		}

		result.EndedAt = s.now()
		if err != nil {
			result.Error = err.Error()
			task.LastError = err.Error()
			logger.Warn("scheduler: task %s failed: %v", task.ID, err)
		} else {
			result.Success = true
			task.LastError = ""
			task.LastSuccess = result.EndedAt
			logger.Debug("scheduler: task %s done (%d items)", task.ID, result.ItemsProcessed)
		}

		task.LastRun = result.StartedAt
		task.NextRun = result.EndedAt.Add(task.Interval)

		// The run may have been cancelled; bookkeeping still has to land.
		if err := s.store.FinishRun(context.WithoutCancel(ctx), task, *result, historyKeep); err != nil {
			logger.Error("scheduler: failed to record run of %s: %v", task.ID, err)
		}
	}()
}

// runDocumentSync runs an incremental sync for every due source, each under
// the retry policy. Returns documents dispatched and the largest attempt count.
func (s *Scheduler) runDocumentSync(ctx context.Context) (int, int, error) {
	sources, err := s.sources.List(ctx)
	if err != nil {
		return 0, 1, fmt.Errorf("list sources: %w", err)
	}

	var (
		dispatched int
		maxTries   = 1
		errs       []error
	)
	for i := range sources {
		id := sources[i].ID
		due, err := s.engine.ShouldSync(ctx, id, s.now())
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		if !due {
			continue
		}

		tries := 0
		err = s.retry.Do(ctx, func(ctx context.Context) error {
			tries++
			report, err := s.engine.Sync(ctx, id, driving.SyncOptions{Mode: domain.SyncModeIncremental})
			if report != nil {
				dispatched += report.Dispatched
			}
			return err
		})
		maxTries = max(maxTries, tries)

		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSourcePaused), errors.Is(err, domain.ErrSyncInProgress):
			logger.Debug("scheduler: skipped %s: %v", id, err)
		case ctx.Err() != nil:
			return dispatched, maxTries, ctx.Err()
		default:
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	return dispatched, maxTries, errors.Join(errs...)
}

// runOAuthRefresh refreshes OAuth credentials nearing expiry.
func (s *Scheduler) runOAuthRefresh(ctx context.Context) (int, error) {
	sources, err := s.sources.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sources: %w", err)
	}

	var (
		refreshed int
		errs      []error
	)
	for i := range sources {
		src := sources[i]
		if src.CredentialsID == "" {
			continue
		}
		creds, err := s.credentials.Get(ctx, src.CredentialsID)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.ID, err))
			continue
		}
		if !creds.RefreshDue(s.now(), s.config.GetTaskConfig(domain.TaskIDOAuthRefresh).Interval) {
			continue
		}
		if err := s.refresher.Refresh(ctx, src); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", src.ID, err))
			continue
		}
		refreshed++
	}
	return refreshed, errors.Join(errs...)
}

// runErrorLogPrune drops error log entries past retention.
func (s *Scheduler) runErrorLogPrune(ctx context.Context) error {
	return s.dedup.PruneErrors(ctx)
}
