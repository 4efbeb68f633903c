package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/marshallshelly/babyorm/pkg/migration"
)

// confirmDialog is a yes/no prompt. No is selected by default.
type confirmDialog struct {
	title   string
	message string
	yes     bool
}

type confirmedMsg struct{ ok bool }

func newConfirmDialog(title, message string) confirmDialog {
	return confirmDialog{title: title, message: message}
}

func (d *confirmDialog) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "left", "h", "y":
		d.yes = true
	case "right", "l", "n":
		d.yes = false
	case "enter":
		ok := d.yes
		return func() tea.Msg { return confirmedMsg{ok: ok} }
	case "esc", "q":
		return func() tea.Msg { return confirmedMsg{ok: false} }
	}
	return nil
}

func (d confirmDialog) view() string {
	yes, no := inactiveButtonStyle.Render("Yes"), activeButtonStyle.Render("No")
	if d.yes {
		yes, no = activeButtonStyle.Render("Yes"), inactiveButtonStyle.Render("No")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(d.title))
	b.WriteString("\n")
	b.WriteString(d.message)
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Left, yes, "  ", no))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(formatKey("←/→", "choose") + " • " + formatKey("enter", "confirm") + " • " + formatKey("esc", "back")))
	return boxStyle.Render(b.String())
}

// pendingItem is one row of the selection list.
type pendingItem struct {
	migration migration.Migration
	selected  bool
}

func (i pendingItem) label() string {
	return fmt.Sprintf("%s %s", i.migration.Version, i.migration.Name)
}

// logView keeps the last max entries.
type logView struct {
	entries []string
	max     int
}

func (l *logView) add(entry string) {
	l.entries = append(l.entries, entry)
	if len(l.entries) > l.max {
		l.entries = l.entries[len(l.entries)-l.max:]
	}
}

func (l logView) view() string {
	if len(l.entries) == 0 {
		return ""
	}
	return strings.Join(l.entries, "\n")
}
