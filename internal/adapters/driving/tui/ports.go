// Package tui is the terminal dashboard: per-source sync state with
// sync, pause, resume and reset, the human review queue and settings.
package tui

import (
	"errors"

	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

var (
	ErrInvalidPorts      = errors.New("tui: no ports")
	ErrMissingSyncEngine = errors.New("tui: sync engine is required")
)

// Ports are the services the dashboard drives. Results and Settings may
// be nil; their screens then stay empty.
type Ports struct {
	Sync     driving.SyncEngine
	Results  driving.ResultService
	Settings driving.SettingsService
}

func (p *Ports) Validate() error {
	switch {
	case p == nil:
		return ErrInvalidPorts
	case p.Sync == nil:
		return ErrMissingSyncEngine
	}
	return nil
}
