// Package sourcedetail provides the source detail view component for the TUI.
package sourcedetail

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/commands"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// MenuOption represents an action in the source detail menu.
type MenuOption int

const (
	OptionSyncNow MenuOption = iota
	OptionPauseResume
	OptionReset
	OptionBack
)

const (
	// recentResults bounds the records listed under the state.
	recentResults = 5
	// maxErrorLines bounds the error log lines rendered.
	maxErrorLines = 5
)

// View is the source detail view.
type View struct {
	styles  *styles.Styles
	engine  driving.SyncEngine
	results driving.ResultService
	ctx     context.Context

	status   *domain.SourceStatus
	recent   []domain.ProcessingResult
	selected MenuOption
	width    int
	height   int
	ready    bool
	err      error
	notice   string
	pending  messages.Action
}

// NewView creates a new source detail view. results may be nil.
func NewView(s *styles.Styles, engine driving.SyncEngine, results driving.ResultService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:   s,
		engine:   engine,
		results:  results,
		ctx:      context.Background(),
		selected: OptionSyncNow,
	}
}

// WithContext sets the context engine calls run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetStatus sets the source to display details for.
func (v *View) SetStatus(status domain.SourceStatus) {
	v.status = &status
	v.recent = nil
	v.err = nil
	v.notice = ""
	v.pending = ""
	v.selected = OptionSyncNow
}

// Init refreshes the status and loads recent results.
func (v *View) Init() tea.Cmd {
	if v.status == nil {
		return nil
	}
	return tea.Batch(v.refresh(), v.loadResults())
}

func (v *View) refresh() tea.Cmd {
	if v.status == nil {
		return nil
	}
	return commands.LoadStatus(v.ctx, v.engine, v.status.Source.ID)
}

func (v *View) loadResults() tea.Cmd {
	if v.results == nil || v.status == nil {
		return nil
	}
	id := v.status.Source.ID
	return func() tea.Msg {
		res, err := v.results.List(v.ctx, id, recentResults)
		return messages.ResultsLoaded{SourceID: id, Results: res, Err: err}
	}
}

// Update handles messages for the source detail view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.StatusLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		if msg.Status != nil && v.status != nil && msg.Status.Source.ID == v.status.Source.ID {
			v.status = msg.Status
		}
		return v, nil

	case messages.ResultsLoaded:
		if v.status == nil || msg.SourceID != v.status.Source.ID {
			return v, nil
		}
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.recent = msg.Results
		return v, nil

	case messages.ActionCompleted:
		if v.status == nil || msg.SourceID != v.status.Source.ID {
			return v, nil
		}
		v.pending = ""
		v.notice = commands.Summary(msg)
		if msg.Err != nil && msg.Report == nil {
			v.err = msg.Err
		}
		return v, tea.Batch(v.refresh(), v.loadResults())

	case messages.Tick:
		return v, v.refresh()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > OptionSyncNow {
			v.selected--
		}
	case "down", "j":
		if v.selected < OptionBack {
			v.selected++
		}
	case "enter":
		return v.handleSelect()
	case "s":
		return v, v.dispatch(messages.ActionSync)
	case "p":
		if v.status != nil {
			return v, v.dispatch(commands.Toggle(v.status.State))
		}
	case "esc":
		return v, back
	}

	return v, nil
}

func back() tea.Msg {
	return messages.ViewChanged{View: messages.ViewSources}
}

// handleSelect handles selection of a menu option.
func (v *View) handleSelect() (*View, tea.Cmd) {
	switch v.selected {
	case OptionSyncNow:
		return v, v.dispatch(messages.ActionSync)
	case OptionPauseResume:
		if v.status != nil {
			return v, v.dispatch(commands.Toggle(v.status.State))
		}
	case OptionReset:
		return v, v.dispatch(messages.ActionReset)
	case OptionBack:
		return v, back
	}
	return v, nil
}

func (v *View) dispatch(action messages.Action) tea.Cmd {
	if v.status == nil {
		return func() tea.Msg {
			return messages.ErrorOccurred{Err: errors.New("no source selected")}
		}
	}
	if v.pending != "" {
		return nil
	}
	v.pending = action
	v.err = nil
	v.notice = ""
	return commands.Run(v.ctx, v.engine, v.status.Source.ID, action)
}

// View renders the source detail view.
func (v *View) View() string {
	if v.status == nil {
		return v.styles.Muted.Render("No source selected")
	}

	var b strings.Builder
	src := &v.status.Source
	state := &v.status.State

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Source: %s", src.DisplayName(""))))
	b.WriteString("\n\n")

	status := state.Status
	if v.status.Running || v.pending == messages.ActionSync {
		status = domain.SyncStatusSyncing
	}

	v.field(&b, "Type", v.styles.Normal.Render(src.Type))
	v.field(&b, "ID", v.styles.Muted.Render(src.ID))
	v.field(&b, "Status", v.styles.StatusStyle(status).Render(string(status)))
	v.field(&b, "Last sync", v.styles.Normal.Render(commands.FormatTime(state.LastSyncTime)))
	v.field(&b, "Processed", v.styles.Normal.Render(fmt.Sprintf("%d", state.TotalProcessed)))
	v.field(&b, "Errors", v.styles.Normal.Render(fmt.Sprintf("%d", state.ErrorCount)))
	if state.LastDocumentID != "" {
		v.field(&b, "Last document", v.styles.Muted.Render(state.LastDocumentID))
	}
	if state.Cursor != "" {
		v.field(&b, "Cursor", v.styles.Muted.Render(truncate(state.Cursor, 40)))
	}
	b.WriteString("\n")

	if len(v.status.RecentErrors) > 0 {
		b.WriteString(v.styles.Subtitle.Render("Recent errors"))
		b.WriteString("\n")
		for i, e := range v.status.RecentErrors {
			if i == maxErrorLines {
				break
			}
			line := e.Message
			if e.DocumentID != "" {
				line = e.DocumentID + ": " + line
			}
			b.WriteString(v.styles.Error.Render("  " + truncate(line, max(20, v.width-4))))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(v.recent) > 0 {
		b.WriteString(v.styles.Subtitle.Render("Recent results"))
		b.WriteString("\n")
		for i := range v.recent {
			b.WriteString(v.renderResult(&v.recent[i]))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}
	if v.pending != "" {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("Running %s...", v.pending)))
		b.WriteString("\n\n")
	} else if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	b.WriteString(strings.Repeat("─", min(40, max(0, v.width-4))))
	b.WriteString("\n\n")

	pauseLabel := "Pause"
	if state.IsPaused() {
		pauseLabel = "Resume"
	}
	options := []struct {
		option MenuOption
		label  string
	}{
		{OptionSyncNow, "Sync Now"},
		{OptionPauseResume, pauseLabel},
		{OptionReset, "Reset Dedup State"},
		{OptionBack, "Back"},
	}

	for _, opt := range options {
		if v.selected == opt.option {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

func (v *View) field(b *strings.Builder, label, value string) {
	b.WriteString(v.styles.Subtitle.Render(label + ": "))
	b.WriteString(value)
	b.WriteString("\n")
}

func (v *View) renderResult(r *domain.ProcessingResult) string {
	name := r.FileID
	if r.OriginalPath != "" {
		name = filepath.Base(r.OriginalPath)
	}
	line := fmt.Sprintf("  %-32s %-10s", truncate(name, 32), r.Stage)
	score := fmt.Sprintf(" %.2f", r.ConfidenceScore)
	review := ""
	if r.HumanReviewRequired {
		review = " review"
	}
	return v.styles.Normal.Render(line) +
		v.styles.ScoreStyle(r.ConfidenceScore).Render(score) +
		v.styles.Warning.Render(review)
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] select  [s] sync  [p] pause/resume  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Status returns the displayed source status.
func (v *View) Status() *domain.SourceStatus {
	return v.status
}

// SelectedOption returns the currently selected menu option.
func (v *View) SelectedOption() MenuOption {
	return v.selected
}

// Notice returns the outcome of the last action.
func (v *View) Notice() string {
	return v.notice
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
