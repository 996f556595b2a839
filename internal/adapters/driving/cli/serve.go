package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/mcp"
	"github.com/custodia-labs/sercha-intake/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scheduler and the status API",
	Long: `Runs scheduled syncs, token refresh and error log pruning in the
foreground and serves the status API until interrupted.

Endpoints:
  GET  /healthz
  GET  /sources
  GET  /sources/{id}/status
  POST /sources/{id}/sync      (?wait=true blocks until the sync ends)
  POST /sources/{id}/pause
  POST /sources/{id}/resume
  POST /sources/{id}/reset
  POST /assess                 (multipart field "file")
  *    /mcp                    (MCP streamable HTTP, unless --no-mcp)`,
	RunE: runServe,
}

// Flags for serve.
var (
	serveAddr        string
	serveNoHTTP      bool
	serveNoScheduler bool
	serveNoMCP       bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from http.addr)")
	serveCmd.Flags().BoolVar(&serveNoHTTP, "no-http", false, "Run the scheduler only")
	serveCmd.Flags().BoolVar(&serveNoScheduler, "no-scheduler", false, "Serve the API only")
	serveCmd.Flags().BoolVar(&serveNoMCP, "no-mcp", false, "Do not mount the MCP endpoint at /mcp")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if syncEngine == nil {
		return errors.New("sync service not configured")
	}

	logger.SetTimestamps(true)
	defer logger.SetTimestamps(false)

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	runScheduler := !serveNoScheduler && scheduler != nil && schedulerConfig.Enabled
	if !runScheduler && serveNoHTTP {
		return errors.New("nothing to run: scheduler disabled and --no-http set")
	}

	errCh := make(chan error, 2)
	running := 0

	if runScheduler {
		running++
		go func() {
			errCh <- scheduler.Start(ctx)
		}()
		defer func() {
			if err := scheduler.Stop(); err != nil {
				logger.Warn("scheduler stop: %v", err)
			}
		}()
		cmd.Println("Scheduler started.")
	} else if !serveNoScheduler {
		cmd.Println("Scheduler disabled (scheduler.enabled = false).")
	}

	if !serveNoHTTP {
		addr := serveAddr
		if addr == "" {
			addr = httpConfig.Addr
		}
		opts := httpapi.Options{
			Addr:           addr,
			AllowedOrigins: httpConfig.Origins(),
			WorkDir:        workDir,
		}
		if !serveNoMCP {
			mcpServer, err := mcp.NewServer(&mcp.Ports{Sync: syncEngine, Intake: intakeService, Results: resultService})
			if err != nil {
				return err
			}
			opts.MCP = mcpServer.Handler()
		}
		server := httpapi.NewServer(syncEngine, intakeService, opts)
		running++
		go func() {
			errCh <- server.Start(ctx)
		}()
		cmd.Printf("Status API on http://%s\n", server.Addr())
	}

	// The first component to stop takes the rest down with it.
	var firstErr error
	for i := 0; i < running; i++ {
		err := <-errCh
		if err != nil && !errors.Is(err, context.Canceled) && firstErr == nil {
			firstErr = err
		}
		cancel()
	}
	if firstErr != nil {
		return fmt.Errorf("serve: %w", firstErr)
	}
	return nil
}
