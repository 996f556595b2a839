// Package status renders the one-line bar under the dashboard.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/styles"
)

// State selects how the left half of the bar is drawn.
type State string

const (
	StateReady   State = "ready"
	StateSyncing State = "syncing"
	StateError   State = "error"
	StateHelp    State = "help"
)

const hintSep = " | "

// Bar shows the last sync outcome on the left and key hints on the right.
// Hints are dropped from the end until the line fits the width.
type Bar struct {
	styles      *styles.Styles
	keymap      *keymap.KeyMap
	state       State
	message     string
	sourceCount int
	width       int
}

func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &Bar{styles: s, keymap: km, state: StateReady, width: 80}
}

func (s *Bar) View() string {
	left := s.summary()
	room := s.width - s.styles.StatusBar.GetHorizontalFrameSize() - lipgloss.Width(left) - 1
	right := s.hints(room)
	gap := max(1, s.width-s.styles.StatusBar.GetHorizontalFrameSize()-lipgloss.Width(left)-lipgloss.Width(right))
	return s.styles.StatusBar.Width(s.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *Bar) summary() string {
	st := s.styles
	switch s.state {
	case StateSyncing:
		if s.message == "" {
			return st.Subtitle.Render("Syncing...")
		}
		return st.Subtitle.Render("Syncing " + s.message + "...")
	case StateError:
		if s.message == "" {
			return st.Error.Render("Error")
		}
		return st.Error.Render("Error: " + s.message)
	case StateHelp:
		return st.Normal.Render("Help")
	}
	switch {
	case s.message != "":
		return st.Success.Render(s.message)
	case s.sourceCount == 1:
		return st.Normal.Render("1 source")
	case s.sourceCount > 1:
		return st.Normal.Render(fmt.Sprintf("%d sources", s.sourceCount))
	}
	return st.Muted.Render("Ready")
}

// hints renders as many key hints as fit in room cells.
func (s *Bar) hints(room int) string {
	bindings := s.keymap.ShortHelp()
	if s.sourceCount > 0 && s.state != StateHelp {
		bindings = s.keymap.SourcesHelp()
	}

	var line string
	for _, b := range bindings {
		h := b.Help()
		next := h.Key + ": " + h.Desc
		if line != "" {
			next = line + hintSep + next
		}
		if lipgloss.Width(next) > room && line != "" {
			break
		}
		line = next
	}
	return s.styles.Muted.Render(line)
}

func (s *Bar) SetState(state State) { s.state = state }
func (s *Bar) State() State         { return s.state }

func (s *Bar) SetMessage(message string) { s.message = message }
func (s *Bar) Message() string           { return s.message }

func (s *Bar) SetSourceCount(count int) { s.sourceCount = count }
func (s *Bar) SourceCount() int         { return s.sourceCount }

func (s *Bar) SetWidth(width int) { s.width = width }
func (s *Bar) Width() int         { return s.width }

// Clear returns the bar to its idle state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.sourceCount = 0
}
