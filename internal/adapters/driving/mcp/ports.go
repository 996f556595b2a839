package mcp

import (
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls.
type Ports struct {
	// Sync reports status and runs syncs.
	Sync driving.SyncEngine

	// Intake assesses files. Optional; intake_assess is not registered without it.
	Intake driving.IntakeService

	// Results serves processing records. Optional.
	Results driving.ResultService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sync == nil {
		return ErrMissingSyncEngine
	}
	return nil
}
