package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorInfo   = lipgloss.AdaptiveColor{Light: "#0087D7", Dark: "#5FAFFF"}
	colorError  = lipgloss.AdaptiveColor{Light: "#D70000", Dark: "#FF5F87"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
)

var (
	headingStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	valueStyle = lipgloss.NewStyle().
			Foreground(colorInfo).
			Bold(true).
			Padding(1, 0)

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 4)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(colorError).
			Foreground(colorError).
			Bold(true).
			Padding(0, 2)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Faint(true)
)
