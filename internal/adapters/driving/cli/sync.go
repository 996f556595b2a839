package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

var syncCmd = &cobra.Command{
	Use:   "sync [source-id]",
	Short: "Synchronise documents from sources",
	Long: `Triggers document synchronisation from configured sources.
If a source ID is provided, only that source is synchronised.
Otherwise, all sources that are not paused are synchronised incrementally.

A historical sync walks back from --since (default: the configured number of
days) and stops after --max documents.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSync,
}

var statusCmd = &cobra.Command{
	Use:   "status [source-id]",
	Short: "Show sync status and recent errors",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

var pauseCmd = &cobra.Command{
	Use:   "pause [source-id]",
	Short: "Stop new syncs for a source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncEngine == nil {
			return errors.New("sync service not configured")
		}
		if err := syncEngine.Pause(commandContext(cmd), args[0]); err != nil {
			return fmt.Errorf("pause failed: %w", err)
		}
		cmd.Printf("Paused %s.\n", args[0])
		return nil
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume [source-id]",
	Short: "Allow syncs for a paused source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncEngine == nil {
			return errors.New("sync service not configured")
		}
		if err := syncEngine.Resume(commandContext(cmd), args[0]); err != nil {
			return fmt.Errorf("resume failed: %w", err)
		}
		cmd.Printf("Resumed %s.\n", args[0])
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset [source-id]",
	Short: "Forget processed documents and the cursor of a source",
	Long: `Clears the processed set, checksum index, error log and cursor of a source.
The next sync re-delivers every document. A pause is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncEngine == nil {
			return errors.New("sync service not configured")
		}
		if err := syncEngine.Reset(commandContext(cmd), args[0]); err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		cmd.Printf("Reset %s.\n", args[0])
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch [source-id]",
	Short: "Process documents as a watching source reports them",
	Long: `Runs until interrupted, sending each file the source reports through
the same dedup and intake path as a sync. Only filesystem sources can watch.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncEngine == nil {
			return errors.New("sync service not configured")
		}
		cmd.Printf("Watching %s (Ctrl+C to stop)...\n", args[0])
		err := syncEngine.Watch(commandContext(cmd), args[0])
		if errors.Is(err, domain.ErrUnsupportedType) {
			return fmt.Errorf("source %s cannot be watched", args[0])
		}
		return err
	},
}

// Flags for sync.
var (
	syncHistorical bool
	syncSince      string
	syncMax        int
)

func init() {
	syncCmd.Flags().BoolVar(&syncHistorical, "historical", false, "Run a historical sync instead of an incremental one")
	syncCmd.Flags().StringVar(&syncSince, "since", "", "Historical start date (YYYY-MM-DD)")
	syncCmd.Flags().IntVar(&syncMax, "max", 0, "Maximum documents for a historical sync (0 = configured cap)")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(watchCmd)
}

func syncOptions() (driving.SyncOptions, error) {
	opts := driving.SyncOptions{Mode: domain.SyncModeIncremental}
	if !syncHistorical {
		if syncSince != "" || syncMax != 0 {
			return opts, errors.New("--since and --max require --historical")
		}
		return opts, nil
	}
	opts.Mode = domain.SyncModeHistorical
	opts.MaxDocuments = syncMax
	if syncSince != "" {
		t, err := time.Parse(time.DateOnly, syncSince)
		if err != nil {
			return opts, fmt.Errorf("invalid --since %q: expected YYYY-MM-DD", syncSince)
		}
		opts.StartDate = t
	}
	return opts, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync service not configured")
	}

	ctx := commandContext(cmd)

	if len(args) == 0 {
		if syncHistorical {
			return errors.New("--historical needs a source ID")
		}
		cmd.Println("Synchronising all sources...")
		reports, err := syncEngine.SyncAll(ctx)
		for i := range reports {
			printReport(cmd, &reports[i])
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		cmd.Println("All sources synchronised successfully.")
		return nil
	}

	opts, err := syncOptions()
	if err != nil {
		return err
	}

	sourceID := args[0]
	cmd.Printf("Synchronising source: %s...\n", sourceID)
	report, err := syncEngine.Sync(ctx, sourceID, opts)
	if report != nil {
		printReport(cmd, report)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	cmd.Printf("Source %s synchronised successfully.\n", sourceID)
	return nil
}

func printReport(cmd *cobra.Command, r *driving.SyncReport) {
	cmd.Printf("  %s (%s): %d fetched, %d dispatched, %d rejected, %d skipped, %d failed",
		r.SourceID, r.Mode, r.Fetched, r.Dispatched, r.Rejected, r.Skipped, r.Failed)
	if r.Capped {
		cmd.Print(" [capped]")
	}
	if !r.FinishedAt.IsZero() && !r.StartedAt.IsZero() {
		cmd.Printf(" in %s", r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	cmd.Println()
	if r.Err != "" {
		cmd.Printf("    error: %s\n", r.Err)
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	if syncEngine == nil {
		return errors.New("sync service not configured")
	}
	ctx := commandContext(cmd)

	var statuses []domain.SourceStatus
	if len(args) == 1 {
		st, err := syncEngine.Status(ctx, args[0])
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		statuses = append(statuses, *st)
	} else {
		all, err := syncEngine.ListStatus(ctx)
		if err != nil {
			return fmt.Errorf("status failed: %w", err)
		}
		statuses = all
	}

	if len(statuses) == 0 {
		cmd.Println("No configured sources.")
		return nil
	}

	for i := range statuses {
		printStatus(cmd, &statuses[i], len(args) == 1)
	}
	return nil
}

func printStatus(cmd *cobra.Command, st *domain.SourceStatus, withErrors bool) {
	state := st.State
	status := string(state.Status)
	if st.Running {
		status += " (running)"
	}
	cmd.Printf("%s [%s] %s\n", st.Source.ID, st.Source.Type, status)
	if state.LastSyncTime.IsZero() {
		cmd.Println("  Last sync:  never")
	} else {
		cmd.Printf("  Last sync:  %s\n", state.LastSyncTime.Format(time.RFC3339))
	}
	cmd.Printf("  Processed:  %d\n", state.TotalProcessed)
	cmd.Printf("  Errors:     %d\n", state.ErrorCount)
	if !withErrors || len(st.RecentErrors) == 0 {
		return
	}
	cmd.Println("  Recent errors:")
	for _, e := range st.RecentErrors {
		doc := ""
		if e.DocumentID != "" {
			doc = " " + e.DocumentID
		}
		cmd.Printf("    %s%s: %s\n", e.Time.Format(time.RFC3339), doc, e.Message)
	}
}
