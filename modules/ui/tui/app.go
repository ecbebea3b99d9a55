package tui

import (
	"fmt"

	"econdash/modules/platform/eventbus"
	"econdash/modules/ui/core"

	tea "github.com/charmbracelet/bubbletea"
)

// App runs one dashboard as a full-screen terminal program
type App struct {
	presenter *core.Presenter
	program   *tea.Program
}

// NewApp creates the application for the given dashboard mode
func NewApp(presenter *core.Presenter, mode ViewMode) *App {
	model := NewModel(presenter, mode)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if mode == ViewWorld {
		opts = append(opts, tea.WithMouseAllMotion())
	}
	program := tea.NewProgram(model, opts...)

	return &App{
		presenter: presenter,
		program:   program,
	}
}

// Run starts the pipeline and blocks until the UI exits
func (a *App) Run() error {
	// Bridge store notifications into the update loop. Handlers run on
	// the publisher's goroutine; Send is safe to call from any of them.
	subscriptions := []eventbus.EventType{
		eventbus.EventConnectionUpdated,
		eventbus.EventStatusUpdated,
		eventbus.EventMetricsUpdated,
		eventbus.EventWorldUpdated,
		eventbus.EventLogUpdated,
		eventbus.EventSelectionUpdated,
		eventbus.EventStoreReset,
		eventbus.EventCommandStarted,
		eventbus.EventCommandFinished,
		eventbus.EventCommandFailed,
	}
	a.presenter.Bus().Subscribe(subscriptions, func(*eventbus.Event) {
		a.program.Send(storeUpdatedMsg{})
	})

	a.presenter.Start()
	defer a.presenter.Stop()

	if _, err := a.program.Run(); err != nil {
		return fmt.Errorf("terminal ui failed: %w", err)
	}
	return nil
}
