// Package commands builds the tea.Cmds that call the sync engine. Views
// share them so a source action behaves the same from every screen.
package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// ErrEngineUnavailable is reported when a view has no sync engine.
var ErrEngineUnavailable = errors.New("sync engine not available")

// RefreshInterval is how often status views poll the engine.
const RefreshInterval = 2 * time.Second

// LoadStatuses lists the status of every source.
func LoadStatuses(ctx context.Context, engine driving.SyncEngine) tea.Cmd {
	return func() tea.Msg {
		if engine == nil {
			return messages.StatusesLoaded{Err: ErrEngineUnavailable}
		}
		statuses, err := engine.ListStatus(ctx)
		return messages.StatusesLoaded{Statuses: statuses, Err: err}
	}
}

// LoadStatus fetches the status of one source.
func LoadStatus(ctx context.Context, engine driving.SyncEngine, sourceID string) tea.Cmd {
	return func() tea.Msg {
		if engine == nil {
			return messages.StatusLoaded{Err: ErrEngineUnavailable}
		}
		st, err := engine.Status(ctx, sourceID)
		return messages.StatusLoaded{Status: st, Err: err}
	}
}

// Run performs an action on a source. Sync runs incrementally; the report
// of a failed run is still delivered.
func Run(ctx context.Context, engine driving.SyncEngine, sourceID string, action messages.Action) tea.Cmd {
	return func() tea.Msg {
		done := messages.ActionCompleted{SourceID: sourceID, Action: action}
		if engine == nil {
			done.Err = ErrEngineUnavailable
			return done
		}
		switch action {
		case messages.ActionSync:
			done.Report, done.Err = engine.Sync(ctx, sourceID, driving.SyncOptions{Mode: domain.SyncModeIncremental})
		case messages.ActionPause:
			done.Err = engine.Pause(ctx, sourceID)
		case messages.ActionResume:
			done.Err = engine.Resume(ctx, sourceID)
		case messages.ActionReset:
			done.Err = engine.Reset(ctx, sourceID)
		default:
			done.Err = fmt.Errorf("%w: unknown action %q", domain.ErrInvalidInput, action)
		}
		return done
	}
}

// Toggle picks pause or resume for the current state.
func Toggle(state domain.SyncState) messages.Action {
	if state.IsPaused() {
		return messages.ActionResume
	}
	return messages.ActionPause
}

// Tick schedules the next status refresh.
func Tick() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg {
		return messages.Tick{Time: t}
	})
}

// Summary renders the outcome of an action for a status line.
func Summary(msg messages.ActionCompleted) string {
	if msg.Report != nil {
		r := msg.Report
		s := fmt.Sprintf("%s: %d fetched, %d dispatched, %d skipped, %d rejected, %d failed",
			msg.SourceID, r.Fetched, r.Dispatched, r.Skipped, r.Rejected, r.Failed)
		if r.Capped {
			s += " (capped)"
		}
		if msg.Err != nil {
			s += ": " + msg.Err.Error()
		}
		return s
	}
	if msg.Err != nil {
		return fmt.Sprintf("%s %s: %v", msg.Action, msg.SourceID, msg.Err)
	}
	switch msg.Action {
	case messages.ActionPause:
		return msg.SourceID + " paused"
	case messages.ActionResume:
		return msg.SourceID + " resumed"
	case messages.ActionReset:
		return msg.SourceID + " reset"
	}
	return fmt.Sprintf("%s %s done", msg.Action, msg.SourceID)
}

// FormatTime renders a sync time, or "never" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
