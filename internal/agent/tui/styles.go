package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	colorPrimary = lipgloss.Color("#00D4FF") // Cyan
	colorSuccess = lipgloss.Color("#10B981") // Green
	colorWarning = lipgloss.Color("#F59E0B") // Yellow/Orange
	colorError   = lipgloss.Color("#EF4444") // Red
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorText    = lipgloss.Color("#E5E7EB") // Light gray
)

// Header styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	topicStyle = lipgloss.NewStyle().
			Foreground(colorText)
)

// Stage row styles
var (
	stageNameStyle = lipgloss.NewStyle().
			Width(10).
			Foreground(colorText)

	stageDoneStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	stageErrorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	stageMetaStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	issuesStyle = lipgloss.NewStyle().
			Foreground(colorWarning)
)

// Footer styles
var (
	summaryOKStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			MarginTop(1)

	summaryFailStyle = lipgloss.NewStyle().
				Foreground(colorError).
				MarginTop(1)
)
