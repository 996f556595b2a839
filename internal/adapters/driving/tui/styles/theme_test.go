package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/core/domain"
)

func TestDefaultPalette_HasBothVariants(t *testing.T) {
	p := DefaultPalette()

	for name, c := range map[string]lipgloss.AdaptiveColor{
		"accent": p.Accent, "info": p.Info, "text": p.Text, "dim": p.Dim,
		"good": p.Good, "caution": p.Caution, "bad": p.Bad, "frame": p.Frame, "bar": p.Bar,
	} {
		assert.NotEmpty(t, c.Light, name)
		assert.NotEmpty(t, c.Dark, name)
	}
}

func TestDefaultPalette_SignalColoursDiffer(t *testing.T) {
	p := DefaultPalette()

	seen := map[string]bool{}
	for _, c := range []lipgloss.AdaptiveColor{p.Accent, p.Info, p.Good, p.Caution, p.Bad} {
		assert.False(t, seen[c.Dark], "duplicate dark colour %s", c.Dark)
		seen[c.Dark] = true
	}
}

func TestNewStyles_NilUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s.Palette())
	assert.Equal(t, DefaultPalette(), s.Palette())
}

func TestNewStyles_KeepsPalette(t *testing.T) {
	p := DefaultPalette()
	p.Accent = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

	s := NewStyles(p)
	assert.Same(t, p, s.Palette())
	assert.Equal(t, lipgloss.TerminalColor(p.Accent), s.Title.GetForeground())
	assert.True(t, s.Title.GetBold())
}

func TestStyles_FramedStylesHaveBorders(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, lipgloss.RoundedBorder(), s.Border.GetBorderStyle())
	assert.Equal(t, lipgloss.RoundedBorder(), s.InputField.GetBorderStyle())
	assert.Equal(t, 1, s.InputField.GetPaddingLeft())
}

func TestStyles_Render(t *testing.T) {
	s := DefaultStyles()

	for name, style := range map[string]lipgloss.Style{
		"title": s.Title, "muted": s.Muted, "selected": s.Selected,
		"error": s.Error, "status": s.StatusBar, "help": s.Help,
	} {
		assert.Contains(t, style.Render("inbox"), "inbox", name)
	}
}

func TestStyles_StatusStyle(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, s.Success, s.StatusStyle(domain.SyncStatusIdle))
	assert.Equal(t, s.Subtitle, s.StatusStyle(domain.SyncStatusSyncing))
	assert.Equal(t, s.Error, s.StatusStyle(domain.SyncStatusError))
	assert.Equal(t, s.Warning, s.StatusStyle(domain.SyncStatusPaused))
	assert.Equal(t, s.Success, s.StatusStyle(""))
}

func TestStyles_ScoreStyle(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, s.Success, s.ScoreStyle(0.92))
	assert.Equal(t, s.Warning, s.ScoreStyle(0.5))
	assert.Equal(t, s.Error, s.ScoreStyle(0.1))
}
