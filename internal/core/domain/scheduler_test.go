package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskIDsAndNames(t *testing.T) {
	assert.Equal(t, []string{TaskIDDocumentSync, TaskIDOAuthRefresh, TaskIDErrorLogPrune}, TaskIDs())

	name, ok := TaskName(TaskIDErrorLogPrune)
	assert.True(t, ok)
	assert.Equal(t, "Error Log Prune", name)

	_, ok = TaskName("reindex")
	assert.False(t, ok)
}

func TestDefaultSchedulerConfig(t *testing.T) {
	cfg := DefaultSchedulerConfig()

	assert.True(t, cfg.Enabled)
	for _, id := range TaskIDs() {
		assert.True(t, cfg.GetTaskConfig(id).Enabled, id)
		assert.Positive(t, cfg.GetTaskConfig(id).Interval, id)
	}
	assert.Equal(t, 5*time.Minute, cfg.GetTaskConfig(TaskIDDocumentSync).Interval)
	assert.Equal(t, TaskConfig{}, cfg.GetTaskConfig("unknown"))
	assert.Equal(t, TaskConfig{}, (&SchedulerConfig{}).GetTaskConfig(TaskIDDocumentSync))
}

func TestTaskResult_Duration(t *testing.T) {
	start := time.Date(2026, 2, 1, 3, 0, 0, 0, time.UTC)
	r := TaskResult{StartedAt: start, EndedAt: start.Add(1500 * time.Millisecond)}

	assert.Equal(t, 1500*time.Millisecond, r.Duration())
}
