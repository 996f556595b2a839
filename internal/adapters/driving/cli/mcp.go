package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/mcp"
)

var mcpListen string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run intake as an MCP server",
	Long: `Serves the intake MCP tools (intake_status, intake_sync, intake_assess)
and the intake:// result resources.

Without --listen the server talks JSON-RPC on stdin/stdout, which is what
desktop assistants expect:

  {"mcpServers": {"intake": {"command": "intake", "args": ["mcp"]}}}

With --listen it serves the streamable HTTP transport instead, e.g. for the
MCP Inspector. 'intake serve' also mounts it at /mcp.`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpListen, "listen", "", "serve HTTP on this address (e.g. 127.0.0.1:8090) instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	if syncEngine == nil {
		return errors.New("sync service not configured")
	}
	server, err := mcp.NewServer(&mcp.Ports{
		Sync:    syncEngine,
		Intake:  intakeService,
		Results: resultService,
	})
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	if mcpListen == "" {
		return server.Run(ctx)
	}
	cmd.PrintErrf("MCP listening on http://%s\n", mcpListen)
	if err := server.RunHTTP(ctx, mcpListen); err != nil {
		return fmt.Errorf("mcp http: %w", err)
	}
	return nil
}
