// Package mcp exposes source status, sync control and file assessment to
// MCP clients as tools and intake:// resources.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-intake/internal/logger"
)

// Version is reported to clients during initialisation.
const Version = "0.2.0"

const instructions = `intake pulls documents from configured sources, deduplicates them
and runs each through a quality-gated classification pipeline.
Use intake_status before intake_sync: paused sources refuse to sync.
Processing records are readable under intake://sources/{id}/results
and intake://results/{file_id}.`

// Server holds the MCP server and the ports its handlers call.
type Server struct {
	ports *Ports
	mcp   *mcp.Server
}

// NewServer validates ports and registers every tool and resource they
// support. Tools backed by an optional port are skipped when it is nil.
func NewServer(ports *Ports) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}

	s := &Server{
		ports: ports,
		mcp: mcp.NewServer(
			&mcp.Implementation{Name: "intake", Title: "Document intake", Version: Version},
			&mcp.ServerOptions{Instructions: instructions},
		),
	}
	s.registerTools()
	s.registerResources()
	return s, nil
}

// Run serves a single client over stdin and stdout until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

// Handler serves the streamable HTTP transport, so the status API can
// mount it next to its own routes.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcp }, nil)
}

// RunHTTP serves the streamable transport standalone on addr until ctx ends.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("mcp http shutdown: %v", err)
		return err
	}
	return nil
}
