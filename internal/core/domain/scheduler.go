package domain

import "time"

// Built-in background tasks.
const (
	TaskIDDocumentSync  = "document-sync"
	TaskIDOAuthRefresh  = "oauth-refresh"
	TaskIDErrorLogPrune = "error-log-prune"
)

// builtinTasks gives each task its display name and default cadence. The
// document-sync task only looks for due sources; each source still keeps
// its own sync interval.
var builtinTasks = []struct {
	id, name string
	every    time.Duration
}{
	{TaskIDDocumentSync, "Document Sync", 5 * time.Minute},
	{TaskIDOAuthRefresh, "OAuth Refresh", 45 * time.Minute},
	{TaskIDErrorLogPrune, "Error Log Prune", 24 * time.Hour},
}

// TaskIDs lists the built-in task IDs in a fixed order.
func TaskIDs() []string {
	ids := make([]string, len(builtinTasks))
	for i, t := range builtinTasks {
		ids[i] = t.id
	}
	return ids
}

// TaskName returns the display name of a built-in task, and false for any
// other ID.
func TaskName(id string) (string, bool) {
	for _, t := range builtinTasks {
		if t.id == id {
			return t.name, true
		}
	}
	return "", false
}

// ScheduledTask is the persisted state of one background task.
type ScheduledTask struct {
	ID       string
	Name     string
	Interval time.Duration
	Enabled  bool

	LastRun     time.Time
	NextRun     time.Time
	LastSuccess time.Time
	// LastError is empty after a successful run.
	LastError string
}

// TaskResult is one entry in a task's run history.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string
	// ItemsProcessed counts what the run handled: sources dispatched,
	// tokens refreshed or error entries pruned.
	ItemsProcessed int
	// Attempts includes the first try.
	Attempts int
}

// Duration is how long the run took.
func (r TaskResult) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

type SchedulerConfig struct {
	// Enabled switches every task off when false.
	Enabled     bool
	TaskConfigs map[string]TaskConfig
}

type TaskConfig struct {
	Enabled  bool
	Interval time.Duration
}

// GetTaskConfig returns the zero TaskConfig for unconfigured tasks.
func (c *SchedulerConfig) GetTaskConfig(taskID string) TaskConfig {
	return c.TaskConfigs[taskID]
}

// DefaultSchedulerConfig enables every built-in task at its default cadence.
func DefaultSchedulerConfig() SchedulerConfig {
	cfg := SchedulerConfig{Enabled: true, TaskConfigs: make(map[string]TaskConfig, len(builtinTasks))}
	for _, t := range builtinTasks {
		cfg.TaskConfigs[t.id] = TaskConfig{Enabled: true, Interval: t.every}
	}
	return cfg
}
