package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/commands"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/views/review"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/views/settings"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/views/sourcedetail"
	"github.com/custodia-labs/sercha-intake/internal/adapters/driving/tui/views/sources"
)

// pane is the part of a view the app routes through. Views mutate in place,
// so the model their Update returns is dropped.
type pane struct {
	init   func() tea.Cmd
	update func(tea.Msg) tea.Cmd
	render func() string
	resize func(width, height int)
}

type view[V any] interface {
	Init() tea.Cmd
	Update(tea.Msg) (V, tea.Cmd)
	View() string
	SetDimensions(width, height int)
}

func paneOf[V view[V]](v V) pane {
	return pane{
		init: v.Init,
		update: func(msg tea.Msg) tea.Cmd {
			_, cmd := v.Update(msg)
			return cmd
		},
		render: v.View,
		resize: v.SetDimensions,
	}
}

// App is the root bubbletea model. It owns navigation, the status bar and
// the periodic status poll; everything else belongs to the views.
type App struct {
	ports *Ports
	ctx   context.Context

	keymap    *keymap.KeyMap
	statusBar *status.Bar

	menuView         *menu.View
	sourcesView      *sources.View
	sourceDetailView *sourcedetail.View
	reviewView       *review.View
	settingsView     *settings.View
	panes            map[messages.ViewType]pane

	current messages.ViewType
	// syncing counts dashboard syncs still in flight.
	syncing int
	err     error

	width, height int
	ready         bool
}

var _ tea.Model = (*App)(nil)

func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	st := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	a := &App{
		ports:            ports,
		ctx:              context.Background(),
		keymap:           km,
		statusBar:        status.NewBar(st, km),
		menuView:         menu.NewView(st),
		sourcesView:      sources.NewView(st, ports.Sync),
		sourceDetailView: sourcedetail.NewView(st, ports.Sync, ports.Results),
		reviewView:       review.NewView(st, ports.Results),
		settingsView:     settings.NewView(st, ports.Settings),
		current:          messages.ViewMenu,
	}
	a.panes = map[messages.ViewType]pane{
		messages.ViewMenu:         paneOf(a.menuView),
		messages.ViewSources:      paneOf(a.sourcesView),
		messages.ViewSourceDetail: paneOf(a.sourceDetailView),
		messages.ViewReview:       paneOf(a.reviewView),
		messages.ViewSettings:     paneOf(a.settingsView),
		messages.ViewHelp:         {render: helpText, init: noCmd, update: func(tea.Msg) tea.Cmd { return nil }, resize: func(int, int) {}},
	}
	return a, nil
}

func noCmd() tea.Cmd { return nil }

// WithContext sets the context engine calls run under.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.sourcesView.WithContext(ctx)
	a.sourceDetailView.WithContext(ctx)
	a.reviewView.WithContext(ctx)
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle("intake"),
		commands.LoadStatuses(a.ctx, a.ports.Sync),
		commands.Tick(),
	)
}

func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil
	case tea.KeyMsg:
		return a, a.key(msg)
	case messages.Quit:
		return a, tea.Quit
	case messages.ViewChanged:
		return a, a.show(msg.View)
	case messages.SourceSelected:
		a.sourceDetailView.SetStatus(msg.Status)
		return a, a.show(messages.ViewSourceDetail)
	case messages.Tick:
		return a, tea.Batch(a.poll(msg), commands.Tick())
	case messages.StatusesLoaded:
		if msg.Err == nil {
			a.statusBar.SetSourceCount(len(msg.Statuses))
			a.menuView.SetStatuses(msg.Statuses)
		}
		return a, a.panes[messages.ViewSources].update(msg)
	case messages.StatusLoaded:
		return a, a.panes[messages.ViewSourceDetail].update(msg)
	case messages.ActionCompleted:
		return a, a.completed(msg)
	case messages.ResultsLoaded:
		if a.current == messages.ViewReview {
			return a, a.panes[messages.ViewReview].update(msg)
		}
		return a, a.panes[messages.ViewSourceDetail].update(msg)
	case messages.SettingsLoaded, messages.SettingSaved:
		return a, a.panes[messages.ViewSettings].update(msg)
	case messages.ErrorOccurred:
		a.err = msg.Err
		a.statusBar.SetState(status.StateError)
		a.statusBar.SetMessage(msg.Err.Error())
		if a.current == messages.ViewSourceDetail {
			return a, a.panes[messages.ViewSourceDetail].update(msg)
		}
		return a, nil
	}
	// Cursor blinks and the like go to whatever is on screen.
	return a, a.panes[a.current].update(msg)
}

func (a *App) key(msg tea.KeyMsg) tea.Cmd {
	pressed := msg.String()
	if pressed == "ctrl+c" {
		return tea.Quit
	}

	// The menu has its own q and ?, and a settings field being edited takes
	// every key as text.
	global := a.current != messages.ViewMenu &&
		!(a.current == messages.ViewSettings && a.settingsView.Editing())
	if global {
		switch {
		case keymap.Matches(pressed, a.keymap.Quit):
			return tea.Quit
		case keymap.Matches(pressed, a.keymap.Help) && a.current != messages.ViewHelp:
			return a.show(messages.ViewHelp)
		}
	}

	switch a.current {
	case messages.ViewSources, messages.ViewHelp:
		if msg.Type == tea.KeyEsc {
			return a.show(messages.ViewMenu)
		}
	}
	if a.current == messages.ViewSources && keymap.Matches(pressed, a.keymap.Sync) {
		a.syncStarted()
	}
	return a.panes[a.current].update(msg)
}

// poll refreshes whichever screen shows live status.
func (a *App) poll(tick messages.Tick) tea.Cmd {
	switch a.current {
	case messages.ViewSources, messages.ViewSourceDetail:
		return a.panes[a.current].update(tick)
	case messages.ViewMenu:
		return commands.LoadStatuses(a.ctx, a.ports.Sync)
	}
	return nil
}

func (a *App) show(v messages.ViewType) tea.Cmd {
	a.current = v
	a.err = nil
	if v == messages.ViewSettings {
		a.settingsView.Reset()
	}
	return a.panes[v].init()
}

// syncStarted counts a dashboard sync for the status bar. Presses on a
// source that is already busy are dropped by the view, and here too.
func (a *App) syncStarted() {
	list := a.sourcesView.Statuses()
	i := a.sourcesView.SelectedIndex()
	if i >= len(list) || a.sourcesView.Pending(list[i].Source.ID) {
		return
	}
	a.syncing++
	a.statusBar.SetState(status.StateSyncing)
	a.statusBar.SetMessage(list[i].Source.DisplayName(""))
}

// completed lets both status views settle their pending action, then
// returns the command of the one on screen.
func (a *App) completed(msg messages.ActionCompleted) tea.Cmd {
	if msg.Action == messages.ActionSync && a.syncing > 0 {
		a.syncing--
	}
	if a.syncing == 0 {
		state := status.StateReady
		if msg.Err != nil {
			state = status.StateError
		}
		a.statusBar.SetState(state)
		a.statusBar.SetMessage(commands.Summary(msg))
	}

	listCmd := a.panes[messages.ViewSources].update(msg)
	detailCmd := a.panes[messages.ViewSourceDetail].update(msg)
	if a.current == messages.ViewSourceDetail {
		return detailCmd
	}
	return listCmd
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	out := a.panes[a.current].render()
	if a.current == messages.ViewSources {
		out += "\n\n" + a.statusBar.View()
	}
	return out
}

func (a *App) SetDimensions(width, height int) {
	a.width, a.height = width, height
	a.ready = true
	for _, p := range a.panes {
		p.resize(width, height)
	}
	a.statusBar.SetWidth(width)
}

func (a *App) CurrentView() messages.ViewType { return a.current }
func (a *App) Err() error                      { return a.err }
func (a *App) Ready() bool                     { return a.ready }

func helpText() string {
	return `Help

Anywhere
  esc         back
  ?           this help
  q, ctrl+c   quit

Sources
  j/k, ↑/↓    select source
  enter       source details
  s           incremental sync
  p           pause or resume
  x           reset dedup state
  r           reload

Review queue
  enter       quality details
  o           open file

Settings
  enter       edit, enter again to save
  esc         cancel edit

[esc] back to menu`
}
