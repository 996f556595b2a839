// Package settings lists effective configuration values and edits them one
// at a time.
package settings

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-intake/internal/core/ports/driving"
)

var errNoSettings = errors.New("settings service not available")

type View struct {
	styles *styles.Styles
	svc    driving.SettingsService

	settings []driving.Setting
	selected int
	// editor is set while a value is being edited.
	editor *input.Field

	err    error
	notice string

	width, height int
}

func NewView(st *styles.Styles, svc driving.SettingsService) *View {
	if st == nil {
		st = styles.DefaultStyles()
	}
	return &View{styles: st, svc: svc}
}

func (v *View) Init() tea.Cmd { return v.load }

func (v *View) load() tea.Msg {
	if v.svc == nil {
		return messages.SettingsLoaded{Err: errNoSettings}
	}
	return messages.SettingsLoaded{Settings: v.svc.Values()}
}

func (v *View) save(key, value string) tea.Cmd {
	return func() tea.Msg {
		if v.svc == nil {
			return messages.SettingSaved{Key: key, Err: errNoSettings}
		}
		return messages.SettingSaved{Key: key, Err: v.svc.Set(key, value)}
	}
}

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			break
		}
		v.settings = msg.Settings
		if v.selected >= len(v.settings) {
			v.selected = 0
		}
	case messages.SettingSaved:
		if msg.Err != nil {
			v.err = msg.Err
			break
		}
		v.err = nil
		v.notice = fmt.Sprintf("Saved %s. Restart running services to apply.", msg.Key)
		return v, v.load
	case tea.KeyMsg:
		if v.editor != nil {
			return v, v.editKey(msg)
		}
		return v, v.browseKey(msg.String())
	default:
		if v.editor != nil {
			_, cmd := v.editor.Update(msg)
			return v, cmd
		}
	}
	return v, nil
}

func (v *View) browseKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		v.selected = max(0, v.selected-1)
	case "down", "j":
		v.selected = min(max(0, len(v.settings)-1), v.selected+1)
	case "enter":
		if v.selected >= len(v.settings) {
			return nil
		}
		s := v.settings[v.selected]
		v.editor = input.NewField(v.styles, s.Key, s.Value, v.width)
		v.err, v.notice = nil, ""
		return v.editor.Init()
	case "esc":
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewMenu} }
	}
	return nil
}

func (v *View) editKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		v.editor = nil
		return nil
	case "enter":
		key, value := v.editor.Key(), v.editor.Value()
		v.editor = nil
		return v.save(key, value)
	}
	_, cmd := v.editor.Update(msg)
	return cmd
}

func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Settings") + "\n\n")
	if v.err != nil {
		b.WriteString(v.styles.Error.Render("Error: "+v.err.Error()) + "\n\n")
	}

	width := 0
	for _, s := range v.settings {
		width = max(width, len(s.Key))
	}
	for i, s := range v.settings {
		value := s.Value
		if value == "" {
			value = "(unset)"
		}
		line := fmt.Sprintf("%-*s  %s", width, s.Key, value)
		style := v.styles.Normal
		switch {
		case i == v.selected:
			style, line = v.styles.Selected, "> "+line
		case s.Default:
			style, line = v.styles.Muted, "  "+line
		default:
			line = "  " + line
		}
		b.WriteString(style.Render(line) + "\n")
	}

	if v.editor != nil {
		b.WriteString("\n" + v.editor.View() + "\n")
	}
	if v.notice != "" {
		b.WriteString("\n" + v.styles.Success.Render(v.notice) + "\n")
	}

	help := "[j/k] navigate  [enter] edit  [esc] back  (muted values are defaults)"
	if v.editor != nil {
		help = "[enter] save  [esc] cancel"
	}
	b.WriteString("\n" + v.styles.Help.Render(help))
	return b.String()
}

func (v *View) SetDimensions(width, height int) {
	v.width, v.height = width, height
}

// Reset drops an unfinished edit and any stale message.
func (v *View) Reset() {
	v.editor = nil
	v.err, v.notice = nil, ""
}

func (v *View) Editing() bool               { return v.editor != nil }
func (v *View) Settings() []driving.Setting { return v.settings }
func (v *View) Err() error                  { return v.err }
