// Package menu renders the landing screen: a fleet health line above the
// list of views an operator can jump to.
package menu

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// Entry is one selectable line. An entry without a target view quits.
type Entry struct {
	Label  string
	Hint   string
	Target messages.ViewType
	Exit   bool
}

func defaultEntries() []Entry {
	return []Entry{
		{Label: "Sources", Hint: "sync state, pause, resume and reset", Target: messages.ViewSources},
		{Label: "Review Queue", Hint: "results below the confidence threshold", Target: messages.ViewReview},
		{Label: "Settings", Hint: "quality gates, scheduler and storage", Target: messages.ViewSettings},
		{Label: "Help", Hint: "key bindings", Target: messages.ViewHelp},
		{Label: "Quit", Exit: true},
	}
}

// Health tallies source states for the overview line.
type Health struct {
	Sources int
	Running int
	Paused  int
	Failing int
}

// Tally counts statuses by state. A source that is both running and
// errored counts once, as running.
func Tally(statuses []domain.SourceStatus) Health {
	h := Health{Sources: len(statuses)}
	for i := range statuses {
		st := statuses[i]
		switch {
		case st.Running || st.State.Status == domain.SyncStatusSyncing:
			h.Running++
		case st.State.IsPaused():
			h.Paused++
		case st.State.Status == domain.SyncStatusError:
			h.Failing++
		}
	}
	return h
}

// View is the landing screen.
type View struct {
	styles  *styles.Styles
	entries []Entry
	cursor  int
	health  *Health
	width   int
	height  int
	ready   bool
}

// NewView builds the menu with the default entries.
func NewView(s *styles.Styles) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{styles: s, entries: defaultEntries(), width: 80, height: 24}
}

// Init implements the view contract; the app drives status polling.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetStatuses refreshes the health line.
func (v *View) SetStatuses(statuses []domain.SourceStatus) {
	h := Tally(statuses)
	v.health = &h
}

// Update moves the cursor and emits a view change on selection. Digits
// jump straight to the numbered entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.StatusesLoaded:
		if msg.Err == nil {
			v.SetStatuses(msg.Statuses)
		}
	case tea.KeyMsg:
		return v, v.handleKey(msg.String())
	}
	return v, nil
}

func (v *View) handleKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		v.cursor = max(v.cursor-1, 0)
	case "down", "j":
		v.cursor = min(v.cursor+1, len(v.entries)-1)
	case "home", "g":
		v.cursor = 0
	case "end", "G":
		v.cursor = len(v.entries) - 1
	case "enter":
		return v.choose(v.cursor)
	case "q":
		return tea.Quit
	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(v.entries) {
			v.cursor = n - 1
			return v.choose(v.cursor)
		}
	}
	return nil
}

func (v *View) choose(i int) tea.Cmd {
	e := v.entries[i]
	if e.Exit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: e.Target} }
}

// View renders the screen.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("intake"))
	b.WriteString("  ")
	b.WriteString(v.styles.Muted.Render("document intake & sync"))
	b.WriteString("\n\n")
	b.WriteString(v.renderHealth())
	b.WriteString("\n\n")

	for i, e := range v.entries {
		label := fmt.Sprintf("%d. %s", i+1, e.Label)
		if i == v.cursor {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if e.Hint != "" && v.width >= 60 {
			b.WriteString("  " + v.styles.Muted.Render(e.Hint))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[j/k] Move  [1-5] Jump  [Enter] Open  [q] Quit"))
	return b.String()
}

func (v *View) renderHealth() string {
	if v.health == nil {
		return v.styles.Muted.Render("loading source status...")
	}
	h := *v.health
	if h.Sources == 0 {
		return v.styles.Muted.Render("no sources configured, add one with `intake source add`")
	}

	parts := []string{v.styles.Normal.Render(fmt.Sprintf("%d sources", h.Sources))}
	if h.Running > 0 {
		parts = append(parts, v.styles.StatusStyle(domain.SyncStatusSyncing).Render(fmt.Sprintf("%d syncing", h.Running)))
	}
	if h.Paused > 0 {
		parts = append(parts, v.styles.StatusStyle(domain.SyncStatusPaused).Render(fmt.Sprintf("%d paused", h.Paused)))
	}
	if h.Failing > 0 {
		parts = append(parts, v.styles.StatusStyle(domain.SyncStatusError).Render(fmt.Sprintf("%d failing", h.Failing)))
	}
	return strings.Join(parts, v.styles.Muted.Render(" · "))
}

// SetDimensions records the terminal size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Cursor returns the highlighted entry index.
func (v *View) Cursor() int {
	return v.cursor
}

// Health returns the last tally, or nil before the first status load.
func (v *View) Health() *Health {
	return v.health
}
