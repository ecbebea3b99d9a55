package tui

import (
	"fmt"

	"econdash/modules/core/sim"
	"econdash/modules/ui/core"
	"econdash/modules/ui/viewport"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	bviewport "github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ViewMode selects which dashboard the model renders
type ViewMode string

const (
	ViewDash  ViewMode = "dash"
	ViewWorld ViewMode = "world"
)

// storeUpdatedMsg signals that the state store changed
type storeUpdatedMsg struct{}

// seekStride is the logical-time distance of the jump/rewind keys
const seekStride = 100

// Model is the main Bubble Tea model for both dashboards
type Model struct {
	presenter *core.Presenter
	store     *core.DashState
	keys      KeyMap
	mode      ViewMode

	width  int
	height int
	ready  bool

	showHelp   bool
	focusTable bool

	spin        spinner.Model
	entityTable table.Model
	eventView   bviewport.Model
	camera      *viewport.Camera
}

// NewModel creates the model for the given dashboard mode
func NewModel(presenter *core.Presenter, mode ViewMode) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorAccent)

	cols := []table.Column{
		{Title: "ID", Width: 6},
		{Title: "Type", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "X", Width: 7},
		{Title: "Y", Width: 7},
	}
	entityTable := table.New(
		table.WithColumns(cols),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	return &Model{
		presenter:   presenter,
		store:       presenter.Store(),
		keys:        DefaultKeyMap(),
		mode:        mode,
		spin:        sp,
		entityTable: entityTable,
		eventView:   bviewport.New(40, 10),
		camera:      viewport.NewCamera(),
	}
}

// Init starts the spinner tick
func (m *Model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update handles all incoming messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		m.syncFromStore()
		return m, nil

	case storeUpdatedMsg:
		m.syncFromStore()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		if m.mode == ViewWorld {
			m.handleMouse(msg)
		}
		return m, nil
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp

	case key.Matches(msg, m.keys.PlayPause):
		if status := m.store.Status(); status != nil && status.Mode == sim.ModeRunning {
			m.presenter.HandleEvent(core.NewEvent(core.EventPause))
		} else {
			speed := 1.0
			if status := m.store.Status(); status != nil && status.Speed > 0 {
				speed = status.Speed
			}
			m.presenter.HandleEvent(core.NewEvent(core.EventPlay).WithSpeed(speed))
		}

	case key.Matches(msg, m.keys.Step):
		m.presenter.HandleEvent(core.NewEvent(core.EventStep).WithSteps(1))

	case key.Matches(msg, m.keys.SpeedUp):
		m.presenter.HandleEvent(core.NewEvent(core.EventSetSpeed).WithSpeed(m.currentSpeed() * 2))

	case key.Matches(msg, m.keys.SpeedDown):
		speed := m.currentSpeed() / 2
		if speed < 0.25 {
			speed = 0.25
		}
		m.presenter.HandleEvent(core.NewEvent(core.EventSetSpeed).WithSpeed(speed))

	case key.Matches(msg, m.keys.JumpAhead):
		m.presenter.HandleEvent(core.NewEvent(core.EventSeek).WithTarget(m.store.CurrentTime() + seekStride))

	case key.Matches(msg, m.keys.RewindBack):
		target := m.store.CurrentTime() - seekStride
		if target < 0 {
			target = 0
		}
		m.presenter.HandleEvent(core.NewEvent(core.EventSeek).WithTarget(target))

	case key.Matches(msg, m.keys.ResetSim):
		m.presenter.HandleEvent(core.NewEvent(core.EventResetSim))
		m.camera.Reset()

	case key.Matches(msg, m.keys.Snapshot):
		m.presenter.HandleEvent(core.NewEvent(core.EventCreateSnapshot))

	case key.Matches(msg, m.keys.ClearError):
		m.presenter.HandleEvent(core.NewEvent(core.EventClearError))

	case key.Matches(msg, m.keys.Refresh):
		m.presenter.HandleEvent(core.NewEvent(core.EventRefresh))

	case key.Matches(msg, m.keys.Tab):
		if m.mode == ViewWorld {
			m.focusTable = !m.focusTable
			if m.focusTable {
				m.entityTable.Focus()
			} else {
				m.entityTable.Blur()
			}
		}

	case key.Matches(msg, m.keys.Select):
		if m.mode == ViewWorld && m.focusTable {
			m.selectHighlighted()
		}

	default:
		if m.mode == ViewWorld && m.focusTable {
			var cmd tea.Cmd
			m.entityTable, cmd = m.entityTable.Update(msg)
			return m, cmd
		}
		if m.mode == ViewDash {
			var cmd tea.Cmd
			m.eventView, cmd = m.eventView.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

// handleMouse feeds pointer and wheel input into the camera
func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.camera.ZoomIn()
		return
	case tea.MouseButtonWheelDown:
		m.camera.ZoomOut()
		return
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft {
			m.camera.PointerDown(float64(msg.X), float64(msg.Y))
		}
	case tea.MouseActionMotion:
		m.camera.PointerMove(float64(msg.X), float64(msg.Y))
	case tea.MouseActionRelease:
		m.camera.PointerUp()
	}
}

func (m *Model) currentSpeed() float64 {
	if status := m.store.Status(); status != nil && status.Speed > 0 {
		return status.Speed
	}
	return 1.0
}

// selectHighlighted marks the table cursor's entity as selected
func (m *Model) selectHighlighted() {
	entities := m.store.Entities()
	idx := m.entityTable.Cursor()
	if idx < 0 || idx >= len(entities) {
		return
	}
	id := entities[idx].ID
	m.presenter.HandleEvent(core.NewEvent(core.EventSelectEntity).WithEntity(id))
}

// resize distributes the window across the panes
func (m *Model) resize() {
	if !m.ready {
		return
	}
	logHeight := m.height - 10
	if logHeight < 4 {
		logHeight = 4
	}
	m.eventView.Width = m.width - 4
	m.eventView.Height = logHeight

	tableHeight := m.height - 14
	if tableHeight < 4 {
		tableHeight = 4
	}
	m.entityTable.SetHeight(tableHeight)
}

// syncFromStore rebuilds the widgets from the current snapshot
func (m *Model) syncFromStore() {
	if m.mode == ViewWorld {
		entities := m.store.Entities()
		rows := make([]table.Row, 0, len(entities))
		for _, e := range entities {
			rows = append(rows, table.Row{
				fmt.Sprintf("%d", e.ID),
				e.Type,
				e.Status,
				fmt.Sprintf("%.1f", e.X),
				fmt.Sprintf("%.1f", e.Y),
			})
		}
		m.entityTable.SetRows(rows)
	}

	if m.mode == ViewDash {
		atBottom := m.eventView.AtBottom()
		m.eventView.SetContent(m.renderEventLog(m.eventView.Width))
		if atBottom {
			m.eventView.GotoBottom()
		}
	}
}
