package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change settings",
	Long: `Settings live in ~/.intake/config.toml. Environment variables named
INTAKE_<SECTION>_<KEY> override the file, for example INTAKE_ENGINE_BATCH_SIZE.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List effective settings",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		for _, s := range settingsService.Values() {
			suffix := ""
			if s.Default {
				suffix = "  (default)"
			}
			cmd.Printf("%-40s %s%s\n", s.Key, s.Value, suffix)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		if err := settingsService.Set(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", args[0], err)
		}
		cmd.Printf("%s = %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
