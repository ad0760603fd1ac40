package cli

import "github.com/charmbracelet/lipgloss"

// Output styling. Lipgloss degrades to plain text when stdout is not
// a terminal, so piped output stays clean.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED"))

	scoreStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A6E3A1"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C7086"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F9E2AF"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F38BA8"))
)
