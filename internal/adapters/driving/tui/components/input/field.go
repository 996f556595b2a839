// Package input is the single-line editor used for setting values.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/styles"
)

const (
	minWidth  = 20
	charLimit = 512
)

// Field edits the value of one configuration key. It starts focused with
// the current value filled in.
type Field struct {
	key    string
	model  textinput.Model
	styles *styles.Styles
}

func NewField(st *styles.Styles, key, value string, width int) *Field {
	if st == nil {
		st = styles.DefaultStyles()
	}
	m := textinput.New()
	m.Placeholder = "(unset)"
	m.CharLimit = charLimit
	m.Width = max(minWidth, width-len(key)-6)
	m.SetValue(value)
	m.Focus()
	return &Field{key: key, model: m, styles: st}
}

func (f *Field) Init() tea.Cmd { return textinput.Blink }

func (f *Field) Update(msg tea.Msg) (*Field, tea.Cmd) {
	var cmd tea.Cmd
	f.model, cmd = f.model.Update(msg)
	return f, cmd
}

func (f *Field) View() string {
	return lipgloss.JoinHorizontal(lipgloss.Center,
		f.styles.Title.Render(f.key+": "),
		f.styles.InputField.Render(f.model.View()))
}

func (f *Field) Key() string { return f.key }

// Value is the edited text with surrounding space trimmed.
func (f *Field) Value() string { return strings.TrimSpace(f.model.Value()) }
