// Package render formats interview output for the terminal.
package render

import "github.com/charmbracelet/lipgloss"

const (
	primaryColor   = "#7C3AED"
	secondaryColor = "#10B981"
	warningColor   = "#F59E0B"
	errorColor     = "#EF4444"
	dimColor       = "#6B7280"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	interviewerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(primaryColor)).
				Bold(true)

	candidateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor)).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(warningColor))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(errorColor))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(0, 1)
)
