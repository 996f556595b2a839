package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Show background task state",
	Long: `Lists the scheduler's tasks with their interval and last outcome.
Tasks only run while 'intake serve' or 'intake tui' is up.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

var scheduleRunsCmd = &cobra.Command{
	Use:   "runs [task-id]",
	Short: "Show recent runs of a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runScheduleRuns,
}

var scheduleRunsLimit int

func init() {
	scheduleRunsCmd.Flags().IntVarP(&scheduleRunsLimit, "limit", "n", 10, "Number of runs to show")
	scheduleCmd.AddCommand(scheduleRunsCmd)
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	tasks, err := scheduler.Tasks(commandContext(cmd))
	if err != nil {
		return fmt.Errorf("listing tasks: %w", err)
	}

	if !schedulerConfig.Enabled {
		cmd.Println("Scheduler disabled (scheduler.enabled = false).")
	}
	if len(tasks) == 0 {
		cmd.Println("No tasks have been scheduled yet.")
		return nil
	}

	for i := range tasks {
		t := tasks[i]
		state := "enabled"
		if !t.Enabled {
			state = "disabled"
		}
		cmd.Printf("%s (%s) every %s, %s\n", t.ID, t.Name, t.Interval, state)
		cmd.Printf("  Last run:   %s\n", stamp(t.LastRun))
		cmd.Printf("  Next run:   %s\n", stamp(t.NextRun))
		if t.LastError != "" {
			cmd.Printf("  Last error: %s\n", t.LastError)
		}
	}
	return nil
}

func runScheduleRuns(cmd *cobra.Command, args []string) error {
	if scheduler == nil {
		return errors.New("scheduler not configured")
	}
	runs, err := scheduler.Runs(commandContext(cmd), args[0], scheduleRunsLimit)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("unknown task %s (one of %s, %s, %s): %w", args[0],
				domain.TaskIDDocumentSync, domain.TaskIDOAuthRefresh, domain.TaskIDErrorLogPrune, err)
		}
		return fmt.Errorf("listing runs: %w", err)
	}
	if len(runs) == 0 {
		cmd.Printf("%s has not run yet.\n", args[0])
		return nil
	}

	for _, r := range runs {
		outcome := "ok"
		if !r.Success {
			outcome = "failed: " + r.Error
		}
		cmd.Printf("%s  %6s  %d items, %d attempts  %s\n", stamp(r.StartedAt),
			r.Duration().Round(time.Millisecond), r.ItemsProcessed, r.Attempts, outcome)
	}
	return nil
}

func stamp(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(time.RFC3339)
}
