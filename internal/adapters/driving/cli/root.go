// Package cli implements the intake command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// version is set at build time with -ldflags "-X .../cli.version=...".
var version = "dev"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "intake",
	Short: "Document intake and sync engine",
	Long: `intake pulls documents from configured sources, deduplicates them,
gates them on quality and hands them to format-specific extractors.

Sources are synced incrementally from a per-source cursor. Use 'intake serve'
to run the scheduler and the status API in the foreground.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

// Services are the driving ports the commands call.
type Services struct {
	Source       driving.SourceService
	Sync         driving.SyncEngine
	Intake       driving.IntakeService
	Results      driving.ResultService
	Settings     driving.SettingsService
	AuthProvider driving.AuthProviderService
	Credentials  driving.CredentialsService
	OAuthFlow    driving.OAuthFlowService
	Providers    driving.ProviderRegistry
	Scheduler    driving.Scheduler
	SchedulerCfg domain.SchedulerConfig
	HTTP         domain.HTTPConfig
	// WorkDir receives uploads handed to the HTTP API.
	WorkDir string
}

// Service handles used by commands. Nil until SetServices is called.
var (
	sourceService       driving.SourceService
	syncEngine          driving.SyncEngine
	intakeService       driving.IntakeService
	resultService       driving.ResultService
	settingsService     driving.SettingsService
	authProviderService driving.AuthProviderService
	credentialsService  driving.CredentialsService
	oauthFlowService    driving.OAuthFlowService
	providerRegistry    driving.ProviderRegistry
	scheduler           driving.Scheduler
	schedulerConfig     domain.SchedulerConfig
	httpConfig          domain.HTTPConfig
	workDir             string
)

// SetServices injects the wired services.
func SetServices(s Services) {
	sourceService = s.Source
	syncEngine = s.Sync
	intakeService = s.Intake
	resultService = s.Results
	settingsService = s.Settings
	authProviderService = s.AuthProvider
	credentialsService = s.Credentials
	oauthFlowService = s.OAuthFlow
	providerRegistry = s.Providers
	scheduler = s.Scheduler
	schedulerConfig = s.SchedulerCfg
	httpConfig = s.HTTP
	workDir = s.WorkDir
}

// SetVersion sets the version printed by 'intake version'.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// commandContext returns the command's context, falling back to Background
// when the command runs outside Execute (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
