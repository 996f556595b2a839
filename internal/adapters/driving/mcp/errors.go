// Package mcp serves sync status, sync control and quality assessment to
// AI assistants over the Model Context Protocol.
package mcp

import "errors"

// ErrMissingSyncEngine is returned when the sync engine is not provided.
var ErrMissingSyncEngine = errors.New("mcp: sync engine is required")
