package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive source dashboard",
	Long: `Opens a terminal dashboard that polls every source's sync state.
From it you can sync, pause, resume and reset sources and work through the
human review queue. The scheduler keeps running underneath while it is open.

Controls:
  ↑/k ↓/j   move
  enter     open
  s         sync the selected source
  p         pause / resume
  x         reset sync state
  r         reload
  o         open the file under review
  esc       back
  ?         help
  q         quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	if syncEngine == nil {
		return errors.New("sync service not configured")
	}
	app, err := tui.NewApp(&tui.Ports{Sync: syncEngine, Results: resultService, Settings: settingsService})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	if scheduler != nil && schedulerConfig.Enabled {
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				logger.Warn("scheduler: %v", err)
			}
		}()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop: %v", err)
			}
		}()
	}

	if err := app.WithContext(ctx).Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
