// Package messages holds the bubbletea messages passed between the app and
// its views.
package messages

import (
	"time"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

type ViewType int

const (
	ViewMenu ViewType = iota
	ViewSources
	ViewSourceDetail
	ViewReview
	ViewSettings
	ViewHelp
)

var viewNames = [...]string{"menu", "sources", "source_detail", "review", "settings", "help"}

func (v ViewType) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// Action is an operator request against one source.
type Action string

const (
	ActionSync   Action = "sync"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionReset  Action = "reset"
)

// Navigation.
type (
	ViewChanged    struct{ View ViewType }
	SourceSelected struct{ Status domain.SourceStatus }
	Quit           struct{}
)

// Tick drives the status poll.
type Tick struct{ Time time.Time }

type ErrorOccurred struct{ Err error }

type StatusesLoaded struct {
	Statuses []domain.SourceStatus
	Err      error
}

type StatusLoaded struct {
	Status *domain.SourceStatus
	Err    error
}

// ActionCompleted reports an Action's outcome. Sync runs carry their
// report even when they fail.
type ActionCompleted struct {
	SourceID string
	Action   Action
	Report   *driving.SyncReport
	Err      error
}

type ResultsLoaded struct {
	SourceID string
	Results  []domain.ProcessingResult
	Err      error
}

type SettingsLoaded struct {
	Settings []driving.Setting
	Err      error
}

type SettingSaved struct {
	Key string
	Err error
}
