// Package review provides the human review queue view for the TUI.
package review

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

// queueLimit bounds the records fetched for the queue.
const queueLimit = 100

// previewLen bounds the extracted text shown in the detail pane.
const previewLen = 600

var errNoResults = errors.New("result service not available")

// opened reports the outcome of opening a file.
type opened struct {
	FileID string
	Err    error
}

// View lists completed results flagged for human review.
type View struct {
	styles  *styles.Styles
	results driving.ResultService
	ctx     context.Context
	list    *list.ResultList

	showDetail bool
	width      int
	height     int
	ready      bool
	loading    bool
	err        error
	notice     string
}

// NewView creates a new review view. results may be nil.
func NewView(s *styles.Styles, results driving.ResultService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &View{
		styles:  s,
		results: results,
		ctx:     context.Background(),
		list:    list.NewResultList(s),
	}
}

// WithContext sets the context service calls run under.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the review queue.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.showDetail = false
	v.notice = ""
	return v.load()
}

func (v *View) load() tea.Cmd {
	return func() tea.Msg {
		if v.results == nil {
			return messages.ResultsLoaded{Err: errNoResults}
		}
		res, err := v.results.ReviewQueue(v.ctx, "", queueLimit)
		return messages.ResultsLoaded{Results: res, Err: err}
	}
}

func (v *View) open(fileID string) tea.Cmd {
	return func() tea.Msg {
		if v.results == nil {
			return opened{FileID: fileID, Err: errNoResults}
		}
		return opened{FileID: fileID, Err: v.results.Open(v.ctx, fileID)}
	}
}

// Update handles messages for the review view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ResultsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.list.SetResults(msg.Results)
		return v, nil

	case opened:
		if msg.Err != nil {
			v.err = msg.Err
		} else {
			v.notice = "Opened " + msg.FileID
		}
		return v, nil
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if v.showDetail {
			v.showDetail = false
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "enter":
		if v.list.SelectedResult() != nil {
			v.showDetail = !v.showDetail
		}
		return v, nil
	case "o":
		if r := v.list.SelectedResult(); r != nil {
			return v, v.open(r.FileID)
		}
		return v, nil
	case "r":
		return v, v.Init()
	}

	if !v.showDetail {
		v.list, _ = v.list.Update(msg)
	}
	return v, nil
}

// View renders the review queue.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Review Queue"))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading..."))
		b.WriteString("\n\n")
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.showDetail {
		if r := v.list.SelectedResult(); r != nil {
			b.WriteString(v.renderDetail(r))
			b.WriteString("\n")
		}
	} else {
		b.WriteString(v.list.View())
		b.WriteString("\n\n")
	}

	if v.notice != "" {
		b.WriteString(v.styles.Success.Render(v.notice))
		b.WriteString("\n\n")
	}

	b.WriteString(v.renderHelp())
	return b.String()
}

// renderDetail shows why a record needs review.
func (v *View) renderDetail(r *domain.ProcessingResult) string {
	var b strings.Builder

	field := func(label, value string) {
		b.WriteString(v.styles.Subtitle.Render(label + ": "))
		b.WriteString(v.styles.Normal.Render(value))
		b.WriteString("\n")
	}

	field("File", r.FileID)
	if r.OriginalPath != "" {
		field("Path", r.OriginalPath)
	}
	if r.EnhancedPath != "" {
		field("Enhanced", r.EnhancedPath)
	}
	if r.Detection != nil {
		field("Type", fmt.Sprintf("%s (%s, %.2f)", r.Detection.FileType, r.Detection.MIMEType, r.Detection.Confidence))
	}
	field("Stage", string(r.Stage))
	b.WriteString(v.styles.Subtitle.Render("Confidence: "))
	b.WriteString(v.styles.ScoreStyle(r.ConfidenceScore).Render(fmt.Sprintf("%.2f", r.ConfidenceScore)))
	b.WriteString("\n")

	if q := r.Quality; q != nil {
		field("Quality", fmt.Sprintf("%.2f %s", q.OverallScore, q.Decision))
		names := make([]string, 0, len(q.Metrics))
		for name := range q.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  %-20s %.2f", name, q.Metrics[name])))
			b.WriteString("\n")
		}
		for _, issue := range q.Issues {
			b.WriteString(v.styles.Warning.Render("  ! " + issue))
			b.WriteString("\n")
		}
		for _, rec := range q.Recommendations {
			b.WriteString(v.styles.Muted.Render("  - " + rec))
			b.WriteString("\n")
		}
	}
	for _, e := range r.Errors {
		b.WriteString(v.styles.Error.Render("  " + e))
		b.WriteString("\n")
	}

	if text := strings.TrimSpace(r.ExtractedText); text != "" {
		if len(text) > previewLen {
			text = text[:previewLen] + "..."
		}
		b.WriteString("\n")
		b.WriteString(v.styles.Border.Width(max(20, v.width-4)).Render(text))
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderHelp() string {
	if v.showDetail {
		return v.styles.Help.Render("[o] open  [esc] close")
	}
	return v.styles.Help.Render("[j/k] navigate  [enter] details  [o] open  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.list.SetDimensions(width, max(6, height-8))
}

// Results returns the queued records.
func (v *View) Results() []domain.ProcessingResult {
	return v.list.Results()
}

// ShowingDetail reports whether the detail pane is open.
func (v *View) ShowingDetail() bool {
	return v.showDetail
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
