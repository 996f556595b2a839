package status

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/styles"
)

func TestNewBar_Defaults(t *testing.T) {
	bar := NewBar(styles.DefaultStyles(), keymap.DefaultKeyMap())

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Zero(t, bar.SourceCount())
	assert.Equal(t, 80, bar.Width())

	bare := NewBar(nil, nil)
	require.NotNil(t, bare.styles)
	require.NotNil(t, bare.keymap)
}

func TestBar_Summary(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		message string
		sources int
		want    string
	}{
		{"idle", StateReady, "", 0, "Ready"},
		{"one source", StateReady, "", 1, "1 source"},
		{"many sources", StateReady, "", 3, "3 sources"},
		{"outcome", StateReady, "scans: 4 dispatched", 3, "scans: 4 dispatched"},
		{"syncing named", StateSyncing, "scans", 0, "Syncing scans..."},
		{"syncing", StateSyncing, "", 0, "Syncing..."},
		{"error", StateError, "", 0, "Error"},
		{"error detail", StateError, "source paused", 0, "Error: source paused"},
		{"help", StateHelp, "", 2, "Help"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := NewBar(nil, nil)
			bar.SetState(tt.state)
			bar.SetMessage(tt.message)
			bar.SetSourceCount(tt.sources)

			assert.Contains(t, bar.View(), tt.want)
		})
	}
}

func TestBar_HintsFollowContext(t *testing.T) {
	bar := NewBar(nil, nil)
	assert.Contains(t, bar.View(), "q: quit")

	bar.SetWidth(140)
	bar.SetSourceCount(3)
	view := bar.View()
	assert.Contains(t, view, "s: sync")
	assert.Contains(t, view, "p: pause/resume")

	bar.SetState(StateHelp)
	assert.NotContains(t, bar.View(), "s: sync")
}

func TestBar_DropsHintsThatDoNotFit(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetSourceCount(3)
	bar.SetWidth(140)
	wide := bar.View()

	bar.SetWidth(30)
	narrow := bar.View()

	assert.Contains(t, narrow, "s: sync")
	assert.NotContains(t, narrow, "|")
	assert.Contains(t, wide, "|")
	assert.LessOrEqual(t, lipgloss.Width(narrow), 30)
}

func TestBar_TinyWidthStillRenders(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetWidth(10)

	assert.NotEmpty(t, bar.View())
}

func TestBar_Clear(t *testing.T) {
	bar := NewBar(nil, nil)
	bar.SetState(StateError)
	bar.SetMessage("boom")
	bar.SetSourceCount(4)

	bar.Clear()

	assert.Equal(t, StateReady, bar.State())
	assert.Empty(t, bar.Message())
	assert.Zero(t, bar.SourceCount())
}
