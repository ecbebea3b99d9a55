package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette
var (
	ColorPrimary = lipgloss.Color("#7C3AED") // Purple
	ColorAccent  = lipgloss.Color("#06B6D4") // Cyan
	ColorSuccess = lipgloss.Color("#10B981") // Green
	ColorWarning = lipgloss.Color("#F59E0B") // Orange
	ColorError   = lipgloss.Color("#EF4444") // Red
	ColorMuted   = lipgloss.Color("#6B7280") // Gray
	ColorText    = lipgloss.Color("#F9FAFB") // Light
	ColorBorder  = lipgloss.Color("#374151") // Gray border
)

// Base styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	PanelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	StatusConnected = lipgloss.NewStyle().
			Foreground(ColorSuccess).
			Bold(true)

	StatusConnecting = lipgloss.NewStyle().
				Foreground(ColorWarning)

	StatusDisconnected = lipgloss.NewStyle().
				Foreground(ColorError).
				Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	KPIValueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	SparklineStyle = lipgloss.NewStyle().
			Foreground(ColorAccent)

	EventTimeStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)

// statusStyle maps a connection label to its style
func statusStyle(label string) lipgloss.Style {
	switch label {
	case "connected":
		return StatusConnected
	case "connecting":
		return StatusConnecting
	default:
		return StatusDisconnected
	}
}
