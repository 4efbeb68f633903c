package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	colorAccent  = lipgloss.Color("#0EA5E9")
	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#EAB308")
	colorDanger  = lipgloss.Color("#DC2626")
	colorMuted   = lipgloss.Color("#71717A")
	colorText    = lipgloss.Color("#FAFAFA")
	colorBorder  = lipgloss.Color("#3F3F46")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent).
			MarginBottom(1)

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	dangerStyle  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)

	cursorStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(1, 2)

	activeButtonStyle = lipgloss.NewStyle().
				Foreground(colorText).
				Background(colorAccent).
				Padding(0, 3).
				Bold(true)

	inactiveButtonStyle = lipgloss.NewStyle().
				Foreground(colorMuted).
				Background(lipgloss.Color("#27272A")).
				Padding(0, 3)

	helpStyle    = lipgloss.NewStyle().Foreground(colorMuted).MarginTop(1)
	helpKeyStyle = lipgloss.NewStyle().Foreground(colorAccent)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorDanger).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDanger).
			Padding(0, 1)
)

// checkbox renders the selection marker of a list row.
func checkbox(selected bool) string {
	if selected {
		return successStyle.Render("[x]")
	}
	return mutedStyle.Render("[ ]")
}

func formatKey(key, description string) string {
	return helpKeyStyle.Render(key) + " " + mutedStyle.Render(description)
}

func formatCount(done, total int) string {
	return mutedStyle.Render(fmt.Sprintf("%d/%d", done, total))
}
