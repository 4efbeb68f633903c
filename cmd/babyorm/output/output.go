// Package output renders styled CLI messages.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
)

// Writer receives every message. Tests swap it for a buffer.
var Writer io.Writer = os.Stdout

var (
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorInfo    = lipgloss.Color("#3B82F6")
	colorMuted   = lipgloss.Color("#6B7280")
	colorPrimary = lipgloss.Color("#7C3AED")

	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorInfo)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	headerStyle  = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	ruleStyle    = lipgloss.NewStyle().Foreground(colorMuted)
)

func line(icon, format string, args ...any) {
	fmt.Fprintln(Writer, icon+" "+fmt.Sprintf(format, args...))
}

// Success prints a success message.
func Success(format string, args ...any) { line(successStyle.Render("✓"), format, args...) }

// Warning prints a warning.
func Warning(format string, args ...any) { line(warningStyle.Render("⚠"), format, args...) }

// Error prints an error message.
func Error(format string, args ...any) { line(errorStyle.Render("✗"), format, args...) }

// Info prints an informational message.
func Info(format string, args ...any) { line(infoStyle.Render("ℹ"), format, args...) }

// Muted prints a dimmed line.
func Muted(format string, args ...any) {
	fmt.Fprintln(Writer, mutedStyle.Render(fmt.Sprintf(format, args...)))
}

// Section prints a header underlined to its width.
func Section(title string) {
	fmt.Fprintln(Writer)
	fmt.Fprintln(Writer, headerStyle.Render(title))
	fmt.Fprintln(Writer, ruleStyle.Render(strings.Repeat("═", lipgloss.Width(title))))
}

// StatusIcon returns a colored icon for a migration status.
func StatusIcon(status string) string {
	switch status {
	case "applied":
		return successStyle.Render("✓")
	case "pending":
		return warningStyle.Render("○")
	case "failed":
		return errorStyle.Render("✗")
	default:
		return mutedStyle.Render("•")
	}
}

// Table prints rows aligned under headers.
func Table(headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(Writer, 0, 0, 2, ' ', 0)
	writeRow(w, headers)
	rules := make([]string, len(headers))
	for i, h := range headers {
		rules[i] = strings.Repeat("-", len(h))
	}
	writeRow(w, rules)
	for _, r := range rows {
		writeRow(w, r)
	}
	return w.Flush()
}

// JSON prints v indented.
func JSON(v any) error {
	enc := json.NewEncoder(Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRow(w io.Writer, cells []string) {
	for i, c := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, c)
	}
	fmt.Fprintln(w)
}
