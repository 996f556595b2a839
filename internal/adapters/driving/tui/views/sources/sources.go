// Package sources provides the source status dashboard for the TUI.
package sources

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/commands"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// View is the source status dashboard.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	engine driving.SyncEngine
	ctx    context.Context

	statuses []domain.SourceStatus
	// pending holds actions dispatched but not yet completed, by source.
	pending  map[string]messages.Action
	selected int
	width    int
	height   int
	ready    bool
	err      error
	notice   string
	loading  bool
}

// NewView creates a new sources view.
func NewView(s *styles.Styles, engine driving.SyncEngine) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		keymap:  keymap.DefaultKeyMap(),
		engine:  engine,
		ctx:     context.Background(),
		pending: make(map[string]messages.Action),
	}
}

// WithContext sets the context engine calls run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view and loads statuses.
func (v *View) Init() tea.Cmd {
	v.loading = true
	return commands.LoadStatuses(v.ctx, v.engine)
}

// Update handles messages for the sources view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.StatusesLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.statuses = msg.Statuses
		v.err = nil
		if v.selected >= len(v.statuses) {
			v.selected = max(0, len(v.statuses)-1)
		}
		return v, nil

	case messages.ActionCompleted:
		delete(v.pending, msg.SourceID)
		v.notice = commands.Summary(msg)
		if msg.Err != nil && msg.Report == nil {
			v.err = msg.Err
		}
		return v, commands.LoadStatuses(v.ctx, v.engine)

	case messages.Tick:
		if v.loading {
			return v, nil
		}
		return v, commands.LoadStatuses(v.ctx, v.engine)
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()
	switch {
	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.statuses)-1 {
			v.selected++
		}
	case keymap.Matches(key, v.keymap.Select):
		if st := v.current(); st != nil {
			status := *st
			return v, func() tea.Msg {
				return messages.SourceSelected{Status: status}
			}
		}
	case keymap.Matches(key, v.keymap.Sync):
		return v, v.dispatch(messages.ActionSync)
	case keymap.Matches(key, v.keymap.Pause):
		if st := v.current(); st != nil {
			return v, v.dispatch(commands.Toggle(st.State))
		}
	case keymap.Matches(key, v.keymap.Reset):
		return v, v.dispatch(messages.ActionReset)
	case keymap.Matches(key, v.keymap.Refresh):
		v.loading = true
		v.notice = ""
		return v, commands.LoadStatuses(v.ctx, v.engine)
	}

	return v, nil
}

// dispatch starts an action on the selected source unless one is pending.
func (v *View) dispatch(action messages.Action) tea.Cmd {
	st := v.current()
	if st == nil {
		return nil
	}
	id := st.Source.ID
	if _, busy := v.pending[id]; busy {
		return nil
	}
	v.pending[id] = action
	v.err = nil
	return commands.Run(v.ctx, v.engine, id, action)
}

func (v *View) current() *domain.SourceStatus {
	if v.selected < 0 || v.selected >= len(v.statuses) {
		return nil
	}
	return &v.statuses[v.selected]
}

// View renders the sources view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Sources"))
	b.WriteString("\n\n")

	if v.loading && len(v.statuses) == 0 {
		b.WriteString(v.styles.Muted.Render("Loading sources..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if len(v.statuses) == 0 {
		b.WriteString(v.styles.Muted.Render("No sources configured. Add one with `intake source add`."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %-24s %-12s %-9s %9s %7s  %s",
		"NAME", "TYPE", "STATUS", "PROCESSED", "ERRORS", "LAST SYNC")))
	b.WriteString("\n")
	for i := range v.statuses {
		b.WriteString(v.renderStatus(i, &v.statuses[i]))
		b.WriteString("\n")
	}

	if v.notice != "" {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(v.notice))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderStatus renders one dashboard row.
func (v *View) renderStatus(index int, st *domain.SourceStatus) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	name := st.Source.DisplayName("")
	if len(name) > 24 {
		name = name[:21] + "..."
	}

	status := string(v.displayStatus(st))
	row := fmt.Sprintf("%-24s %-12s ", name, st.Source.Type)
	counts := fmt.Sprintf(" %9d %7d  %s", st.State.TotalProcessed, st.State.ErrorCount, commands.FormatTime(st.State.LastSyncTime))

	if index == v.selected {
		return v.styles.Selected.Render(indicator + row + fmt.Sprintf("%-9s", status) + counts)
	}
	return v.styles.Normal.Render(indicator+row) +
		v.styles.StatusStyle(v.displayStatus(st)).Render(fmt.Sprintf("%-9s", status)) +
		v.styles.Normal.Render(counts)
}

// displayStatus shows in-flight work as SYNCING even before the engine
// persists it.
func (v *View) displayStatus(st *domain.SourceStatus) domain.SyncStatus {
	if st.Running || v.pending[st.Source.ID] == messages.ActionSync {
		return domain.SyncStatusSyncing
	}
	return st.State.Status
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[enter] details  [s] sync  [p] pause/resume  [x] reset  [r] reload  [esc] back  [q] quit")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Statuses returns the current source statuses.
func (v *View) Statuses() []domain.SourceStatus {
	return v.statuses
}

// SelectedIndex returns the currently selected source index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// Pending reports whether an action is in flight for the source.
func (v *View) Pending(sourceID string) bool {
	_, ok := v.pending[sourceID]
	return ok
}

// Notice returns the outcome of the last action.
func (v *View) Notice() string {
	return v.notice
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
