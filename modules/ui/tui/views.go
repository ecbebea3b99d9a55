package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"econdash/modules/core/sim"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// sparkRunes are the eight levels used for inline history charts
var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// maxKPIRows caps how many indicators the metrics panel lists
const maxKPIRows = 8

// View renders the active dashboard
func (m *Model) View() string {
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.mode == ViewWorld {
		b.WriteString(m.renderWorld())
	} else {
		b.WriteString(m.renderDash())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader shows the title, connection state and the run status bar
func (m *Model) renderHeader() string {
	title := "Economy Dashboard"
	if m.mode == ViewWorld {
		title = "World View"
	}

	state, attempts, connErr, terminal := m.store.Connection()
	label := string(state)
	if state == "connecting" && attempts > 0 {
		label = fmt.Sprintf("connecting (attempt %d)", attempts)
	}
	if terminal {
		label = "unreachable"
	}
	conn := statusStyle(string(state)).Render("● " + label)

	left := TitleStyle.Render(title)
	line := lipgloss.JoinHorizontal(lipgloss.Center, left, "  ", conn)

	statusBar := m.renderStatusBar()

	parts := []string{line, statusBar}
	if msg := m.errorLine(connErr, terminal); msg != "" {
		parts = append(parts, ErrorStyle.Render(msg))
	}
	return strings.Join(parts, "\n")
}

// renderStatusBar shows mode, logical time, speed and entity counters
func (m *Model) renderStatusBar() string {
	status := m.store.Status()
	if status == nil {
		return SubtitleStyle.Render("waiting for status...")
	}

	mode := string(status.Mode)
	if status.Mode == sim.ModeRunning {
		mode = m.spin.View() + mode
	}

	fields := []string{
		fmt.Sprintf("mode: %s", mode),
		fmt.Sprintf("t=%d", status.CurrentTime),
		fmt.Sprintf("speed: %.2gx", status.Speed),
		fmt.Sprintf("entities: %d", status.EntityCount),
	}
	if status.StepsPerSecond > 0 {
		fields = append(fields, fmt.Sprintf("%.1f steps/s", status.StepsPerSecond))
	}
	if m.presenter.IsLoading() {
		fields = append(fields, m.spin.View()+"working")
	}
	return SubtitleStyle.Render(strings.Join(fields, "  │  "))
}

// errorLine merges connection and command failure text into one line
func (m *Model) errorLine(connErr string, terminal bool) string {
	if terminal {
		if connErr == "" {
			connErr = "gave up reconnecting"
		}
		return "connection lost: " + connErr + " (restart to retry)"
	}
	if cmdErr := m.store.CommandError(); cmdErr != "" {
		return cmdErr + "  (e to dismiss)"
	}
	return ""
}

// renderDash renders the metrics dashboard body
func (m *Model) renderDash() string {
	kpiPanel := PanelStyle.Width(m.width - 2).Render(m.renderKPIs())
	logPanel := PanelStyle.Width(m.width - 2).Render(
		TitleStyle.Render("Events") + "\n" + m.eventView.View())
	return kpiPanel + "\n" + logPanel
}

// renderKPIs lists the latest indicator values with history sparklines
func (m *Model) renderKPIs() string {
	latest := m.store.LatestMetrics()
	if latest == nil || len(latest.KPIs) == 0 {
		return SubtitleStyle.Render("no metrics yet")
	}

	names := make([]string, 0, len(latest.KPIs))
	for name := range latest.KPIs {
		names = append(names, name)
	}
	sort.Strings(names)
	if len(names) > maxKPIRows {
		names = names[:maxKPIRows]
	}

	history := m.store.MetricHistory()
	sparkWidth := m.width - 40
	if sparkWidth < 10 {
		sparkWidth = 10
	}

	var rows []string
	rows = append(rows, TitleStyle.Render("Indicators"))
	for _, name := range names {
		series := kpiSeries(history, name, sparkWidth)
		row := fmt.Sprintf("%-20s %s %s",
			name,
			KPIValueStyle.Render(fmt.Sprintf("%12.3f", latest.KPIs[name])),
			SparklineStyle.Render(sparkline(series)))
		rows = append(rows, row)
	}
	return strings.Join(rows, "\n")
}

// kpiSeries extracts the trailing values of one indicator from history
func kpiSeries(history []sim.MetricSample, name string, width int) []float64 {
	if len(history) > width {
		history = history[len(history)-width:]
	}
	out := make([]float64, 0, len(history))
	for _, sample := range history {
		if v, ok := sample.KPIs[name]; ok {
			out = append(out, v)
		}
	}
	return out
}

// sparkline renders a series as a row of block runes scaled to its range
func sparkline(series []float64) string {
	if len(series) == 0 {
		return ""
	}
	min, max := series[0], series[0]
	for _, v := range series {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	span := max - min
	var b strings.Builder
	for _, v := range series {
		idx := 0
		if span > 0 {
			idx = int((v - min) / span * float64(len(sparkRunes)-1))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// renderEventLog formats the bounded log for the scrollback viewport
func (m *Model) renderEventLog(width int) string {
	events := m.store.EventLog()
	if len(events) == 0 {
		return SubtitleStyle.Render("no events yet")
	}
	if width < 20 {
		width = 20
	}

	var lines []string
	for _, e := range events {
		ts := time.Unix(int64(e.Timestamp), 0).Format("15:04:05")
		actor := ""
		if e.ActorID != nil {
			actor = fmt.Sprintf(" actor=%d", *e.ActorID)
		}
		line := fmt.Sprintf("%s %s%s", EventTimeStyle.Render(ts), e.Type, actor)
		lines = append(lines, wordwrap.String(line, width))
	}
	return strings.Join(lines, "\n")
}

// renderWorld renders the spatial dashboard body: the canvas on the left,
// the registry and selection detail on the right
func (m *Model) renderWorld() string {
	sideWidth := 48
	canvasWidth := m.width - sideWidth - 6
	if canvasWidth < 20 {
		canvasWidth = 20
	}
	canvasHeight := m.height - 8
	if canvasHeight < 8 {
		canvasHeight = 8
	}

	canvas := PanelStyle.Render(m.renderCanvas(canvasWidth, canvasHeight))

	side := TitleStyle.Render("Entities") + "\n" + m.entityTable.View()
	if detail := m.renderSelection(); detail != "" {
		side += "\n\n" + detail
	}
	sidePanel := PanelStyle.Width(sideWidth).Render(side)

	return lipgloss.JoinHorizontal(lipgloss.Top, canvas, sidePanel)
}

// entityGlyph maps an entity type to its canvas marker
func entityGlyph(entityType string) rune {
	switch entityType {
	case "person":
		return '•'
	case "household":
		return '⌂'
	case "firm":
		return '▲'
	case "bank":
		return '$'
	case "central_bank":
		return 'C'
	default:
		return '·'
	}
}

// renderCanvas plots every entity onto a rune grid through the camera
// transform. World units map to terminal cells with the vertical axis
// halved to compensate for cell aspect ratio.
func (m *Model) renderCanvas(width, height int) string {
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = make([]rune, width)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}

	ox, oy, zoom := m.camera.Transform()
	selected := m.store.SelectedEntity()

	for _, e := range m.store.Entities() {
		x := int(e.X*zoom + ox)
		y := int(e.Y*zoom/2 + oy)
		if x < 0 || x >= width || y < 0 || y >= height {
			continue
		}
		if selected != nil && e.ID == selected.ID {
			grid[y][x] = '◉'
			continue
		}
		grid[y][x] = entityGlyph(e.Type)
	}

	var b strings.Builder
	for y, row := range grid {
		b.WriteString(string(row))
		if y < height-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// renderSelection shows the detail card for the selected entity
func (m *Model) renderSelection() string {
	e := m.store.SelectedEntity()
	if e == nil {
		return ""
	}
	lines := []string{
		SelectedStyle.Render(fmt.Sprintf("Selected #%d", e.ID)),
		fmt.Sprintf("type:   %s", e.Type),
		fmt.Sprintf("status: %s", e.Status),
		fmt.Sprintf("pos:    (%.1f, %.1f)", e.X, e.Y),
	}
	if len(e.Attrs) > 0 {
		keys := make([]string, 0, len(e.Attrs))
		for k := range e.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("%s: %s", k, string(e.Attrs[k])))
		}
	}
	return strings.Join(lines, "\n")
}

// renderFooter shows either the short hint line or the full key help
func (m *Model) renderFooter() string {
	if !m.showHelp {
		return HelpStyle.Render("space play/pause · s step · +/- speed · f/b seek · ? help · q quit")
	}

	rows := []string{
		"space  play/pause      s  step          +/-  speed",
		"f      jump +100       b  rewind -100   x    reset",
		"n      snapshot        r  refresh       e    clear error",
	}
	if m.mode == ViewWorld {
		rows = append(rows,
			"tab    focus table     enter  select   drag/wheel  pan/zoom")
	}
	rows = append(rows, "?      close help      q  quit")
	return HelpStyle.Render(strings.Join(rows, "\n"))
}
