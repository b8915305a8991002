package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary     = lipgloss.Color("#7C3AED")
	colorSuccess     = lipgloss.Color("#10B981")
	colorDestructive = lipgloss.Color("#EF4444")
	colorMuted       = lipgloss.Color("#9CA3AF")

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 2).
			Width(64)

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)

	authenticStyle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(colorSuccess).
			Foreground(colorSuccess).
			Bold(true).
			PaddingLeft(1)

	syntheticStyle = authenticStyle.
			BorderForeground(colorDestructive).
			Foreground(colorDestructive)

	errorStyle = lipgloss.NewStyle().Foreground(colorDestructive)
)
