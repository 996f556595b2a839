// Package keymap holds the key bindings shared by the TUI views.
package keymap

import (
	"slices"

	"github.com/charmbracelet/bubbles/key"
)

// KeyMap lists every binding a view may react to. Views that need extra keys
// (the review queue's approve and open) match them locally.
type KeyMap struct {
	Quit, Help, Back            key.Binding
	Up, Down, Select            key.Binding
	Sync, Pause, Reset, Refresh key.Binding
	Open                        key.Binding
}

func bind(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit:    bind("q", "quit", "q", "ctrl+c"),
		Help:    bind("?", "help", "?"),
		Back:    bind("esc", "back", "esc"),
		Up:      bind("↑/k", "up", "up", "k"),
		Down:    bind("↓/j", "down", "down", "j"),
		Select:  bind("enter", "select", "enter"),
		Sync:    bind("s", "sync", "s"),
		Pause:   bind("p", "pause/resume", "p"),
		Reset:   bind("x", "reset", "x"),
		Refresh: bind("r", "refresh", "r"),
		Open:    bind("o", "open", "o"),
	}
}

// ShortHelp is shown in the status bar outside the dashboard.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// SourcesHelp is shown in the status bar on the dashboard.
func (k *KeyMap) SourcesHelp() []key.Binding {
	return []key.Binding{k.Sync, k.Pause, k.Reset, k.Refresh, k.Back}
}

// FullHelp groups bindings into the help view's columns.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Sync, k.Pause, k.Reset, k.Refresh},
		{k.Open, k.Back},
		{k.Help, k.Quit},
	}
}

// Matches reports whether the pressed key, as tea.KeyMsg.String renders it,
// is one of binding's keys. Disabled bindings never match.
func Matches(pressed string, binding key.Binding) bool {
	return binding.Enabled() && slices.Contains(binding.Keys(), pressed)
}
