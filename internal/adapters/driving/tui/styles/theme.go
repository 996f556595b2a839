// Package styles holds the TUI palette and the lipgloss styles built from it.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

// Palette is the set of colours the views draw with. Each entry carries a
// light and a dark variant; lipgloss picks one from the terminal background.
type Palette struct {
	Accent  lipgloss.AdaptiveColor
	Info    lipgloss.AdaptiveColor
	Text    lipgloss.AdaptiveColor
	Dim     lipgloss.AdaptiveColor
	Good    lipgloss.AdaptiveColor
	Caution lipgloss.AdaptiveColor
	Bad     lipgloss.AdaptiveColor
	Frame   lipgloss.AdaptiveColor
	Bar     lipgloss.AdaptiveColor
}

// DefaultPalette is a Catppuccin-style scheme: Mocha on dark terminals,
// Latte on light ones.
func DefaultPalette() *Palette {
	return &Palette{
		Accent:  lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"},
		Info:    lipgloss.AdaptiveColor{Light: "#04A5E5", Dark: "#89DCEB"},
		Text:    lipgloss.AdaptiveColor{Light: "#4C4F69", Dark: "#CDD6F4"},
		Dim:     lipgloss.AdaptiveColor{Light: "#8C8FA1", Dark: "#6C7086"},
		Good:    lipgloss.AdaptiveColor{Light: "#40A02B", Dark: "#A6E3A1"},
		Caution: lipgloss.AdaptiveColor{Light: "#DF8E1D", Dark: "#F9E2AF"},
		Bad:     lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"},
		Frame:   lipgloss.AdaptiveColor{Light: "#BCC0CC", Dark: "#45475A"},
		Bar:     lipgloss.AdaptiveColor{Light: "#E6E9EF", Dark: "#181825"},
	}
}

// Styles are the rendered styles shared by every view.
type Styles struct {
	palette *Palette

	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	Normal     lipgloss.Style
	Muted      lipgloss.Style
	Selected   lipgloss.Style
	Error      lipgloss.Style
	Success    lipgloss.Style
	Warning    lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Help       lipgloss.Style
	Border     lipgloss.Style
}

// NewStyles builds styles from p, or from DefaultPalette when p is nil.
func NewStyles(p *Palette) *Styles {
	if p == nil {
		p = DefaultPalette()
	}
	fg := func(c lipgloss.AdaptiveColor) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	framed := lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(p.Frame)

	return &Styles{
		palette:    p,
		Title:      fg(p.Accent).Bold(true),
		Subtitle:   fg(p.Info).Bold(true),
		Normal:     fg(p.Text),
		Muted:      fg(p.Dim),
		Selected:   fg(p.Bar).Background(p.Accent).Bold(true),
		Error:      fg(p.Bad),
		Success:    fg(p.Good),
		Warning:    fg(p.Caution),
		InputField: framed.Padding(0, 1),
		StatusBar:  fg(p.Dim).Background(p.Bar).Padding(0, 1),
		Help:       fg(p.Dim).Italic(true),
		Border:     framed,
	}
}

func DefaultStyles() *Styles {
	return NewStyles(nil)
}

func (s *Styles) Palette() *Palette {
	return s.palette
}

// StatusStyle colours a sync status: syncing is informational, paused is a
// caution and error is bad. Idle renders as good.
func (s *Styles) StatusStyle(status domain.SyncStatus) lipgloss.Style {
	switch status {
	case domain.SyncStatusSyncing:
		return s.Subtitle
	case domain.SyncStatusError:
		return s.Error
	case domain.SyncStatusPaused:
		return s.Warning
	default:
		return s.Success
	}
}

// ScoreStyle colours a 0..1 confidence or quality score.
func (s *Styles) ScoreStyle(score float64) lipgloss.Style {
	switch {
	case score >= 0.8:
		return s.Success
	case score >= 0.5:
		return s.Warning
	default:
		return s.Error
	}
}
