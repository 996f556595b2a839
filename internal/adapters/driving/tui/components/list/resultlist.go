// Package list renders the review queue's record list.
package list

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// rowHeight is the number of lines each record takes.
const rowHeight = 2

// ResultList is a scrolling list of processing records, two lines per
// record: name, type and confidence, then the first error or quality issue.
type ResultList struct {
	styles   *styles.Styles
	results  []domain.ProcessingResult
	selected int
	width    int
	height   int
}

func NewResultList(s *styles.Styles) *ResultList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	return &ResultList{styles: s, width: 80, height: 10}
}

// Update moves the selection on arrow, vim, paging and home/end keys.
func (r *ResultList) Update(msg tea.Msg) (*ResultList, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return r, nil
	}
	switch key.String() {
	case "up", "k":
		r.move(-1)
	case "down", "j":
		r.move(1)
	case "pgup":
		r.move(-r.pageSize())
	case "pgdown":
		r.move(r.pageSize())
	case "home", "g":
		r.selected = 0
	case "end", "G":
		r.selected = max(0, len(r.results)-1)
	}
	return r, nil
}

func (r *ResultList) move(delta int) {
	if len(r.results) == 0 {
		return
	}
	r.selected = min(max(r.selected+delta, 0), len(r.results)-1)
}

// pageSize is how many records fit under the two header lines.
func (r *ResultList) pageSize() int {
	return max(1, (r.height-4)/rowHeight)
}

func (r *ResultList) View() string {
	if len(r.results) == 0 {
		return r.styles.Muted.Render("Nothing to review")
	}

	page := r.pageSize()
	start := max(0, r.selected-page+1)
	end := min(len(r.results), start+page)

	var b strings.Builder
	b.WriteString(r.styles.Subtitle.Render(fmt.Sprintf("Review queue (%d)", len(r.results))))
	b.WriteString("\n")
	for i := start; i < end; i++ {
		b.WriteString("\n")
		b.WriteString(r.row(i))
	}
	return b.String()
}

func (r *ResultList) row(i int) string {
	res := &r.results[i]
	nameWidth := max(10, r.width-30)
	name := ansi.Truncate(displayName(res), nameWidth, "...")
	kind := string(domain.FileTypeUnknown)
	if res.Detection != nil {
		kind = string(res.Detection.FileType)
	}
	score := fmt.Sprintf("%.2f", res.ConfidenceScore)

	var title string
	if i == r.selected {
		title = r.styles.Selected.Render(fmt.Sprintf("> %-*s %-9s %s", nameWidth, name, kind, score))
	} else {
		title = r.styles.Normal.Render(fmt.Sprintf("  %-*s ", nameWidth, name)) +
			r.styles.Subtitle.Render(fmt.Sprintf("%-9s ", kind)) +
			r.styles.ScoreStyle(res.ConfidenceScore).Render(score)
	}

	detail := ansi.Truncate(firstProblem(res), max(20, r.width-6), "...")
	return title + "\n" + r.styles.Muted.Render("    "+detail)
}

func displayName(res *domain.ProcessingResult) string {
	if res.OriginalPath == "" {
		return res.FileID
	}
	return filepath.Base(res.OriginalPath)
}

// firstProblem is what the reviewer should look at first: an error, else a
// quality issue, else just the stage reached.
func firstProblem(res *domain.ProcessingResult) string {
	switch {
	case len(res.Errors) > 0:
		return res.Errors[0]
	case res.Quality != nil && len(res.Quality.Issues) > 0:
		return res.Quality.Issues[0]
	}
	return string(res.Stage)
}

// SetResults replaces the records and resets the selection.
func (r *ResultList) SetResults(results []domain.ProcessingResult) {
	r.results = results
	r.selected = 0
}

func (r *ResultList) Results() []domain.ProcessingResult { return r.results }
func (r *ResultList) Selected() int                      { return r.selected }
func (r *ResultList) Count() int                         { return len(r.results) }
func (r *ResultList) IsEmpty() bool                      { return len(r.results) == 0 }

// SelectedResult returns nil when the list is empty.
func (r *ResultList) SelectedResult() *domain.ProcessingResult {
	if r.selected < 0 || r.selected >= len(r.results) {
		return nil
	}
	return &r.results[r.selected]
}

func (r *ResultList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}
