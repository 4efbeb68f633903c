// Package tui implements the interactive migration picker of babyorm.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marshallshelly/babyorm/pkg/migration"
)

// Applier runs migrations under the advisory lock.
// *migration.Executor satisfies it.
type Applier interface {
	Lock(ctx context.Context) error
	Unlock(ctx context.Context) error
	Apply(ctx context.Context, m migration.Migration, dryRun bool) error
}

type mode int

const (
	modeSelect mode = iota
	modeConfirm
	modeRunning
	modeDone
	modeFailed
)

// ErrAborted is returned by RunMigrateUI when the user quits before applying.
var ErrAborted = errors.New("migration aborted")

// Model is the bubbletea model of the picker. Pending migrations are listed
// in version order and applied one at a time once confirmed.
type Model struct {
	ctx     context.Context
	applier Applier

	mode    mode
	items   []pendingItem
	cursor  int
	confirm confirmDialog
	spinner spinner.Model
	logs    logView

	queue   []migration.Migration
	done    int
	locked  bool
	err     error
	aborted bool
}

type lockedMsg struct{ err error }

type appliedMsg struct {
	version string
	err     error
}

// NewModel builds a picker over the pending migrations. Every item starts
// selected.
func NewModel(ctx context.Context, applier Applier, pending []migration.Migration) Model {
	items := make([]pendingItem, len(pending))
	for i, m := range pending {
		items[i] = pendingItem{migration: m, selected: true}
	}
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = cursorStyle

	return Model{
		ctx:     ctx,
		applier: applier,
		items:   items,
		spinner: s,
		logs:    logView{max: 8},
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) selected() []migration.Migration {
	var out []migration.Migration
	for _, it := range m.items {
		if it.selected {
			out = append(out, it.migration)
		}
	}
	return out
}

func (m Model) lockCmd() tea.Cmd {
	return func() tea.Msg {
		return lockedMsg{err: m.applier.Lock(m.ctx)}
	}
}

func (m Model) applyCmd(mig migration.Migration) tea.Cmd {
	return func() tea.Msg {
		return appliedMsg{version: mig.Version, err: m.applier.Apply(m.ctx, mig, false)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" && m.mode != modeRunning {
			m.aborted = m.mode == modeSelect || m.mode == modeConfirm
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case confirmedMsg:
		if !msg.ok {
			m.mode = modeSelect
			return m, nil
		}
		m.queue = m.selected()
		m.mode = modeRunning
		return m, tea.Batch(m.spinner.Tick, m.lockCmd())

	case lockedMsg:
		if msg.err != nil {
			m.mode = modeFailed
			m.err = fmt.Errorf("failed to acquire lock: %w", msg.err)
			return m, nil
		}
		m.locked = true
		return m, m.applyCmd(m.queue[0])

	case appliedMsg:
		if msg.err != nil {
			m.logs.add(dangerStyle.Render("✗ " + msg.version))
			m.err = msg.err
			m.mode = modeFailed
			return m, m.unlock()
		}
		m.done++
		m.logs.add(successStyle.Render("✓ ") + m.queue[m.done-1].Version + " " + m.queue[m.done-1].Name)
		if m.done == len(m.queue) {
			m.mode = modeDone
			return m, m.unlock()
		}
		return m, m.applyCmd(m.queue[m.done])

	case spinner.TickMsg:
		if m.mode != modeRunning {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) unlock() tea.Cmd {
	if !m.locked {
		return nil
	}
	m.locked = false
	applier, ctx := m.applier, context.WithoutCancel(m.ctx)
	return func() tea.Msg {
		_ = applier.Unlock(ctx)
		return nil
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.mode {
	case modeSelect:
		switch msg.String() {
		case "q", "esc":
			m.aborted = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case " ", "x":
			if len(m.items) > 0 {
				m.items[m.cursor].selected = !m.items[m.cursor].selected
			}
		case "a":
			all := len(m.selected()) != len(m.items)
			for i := range m.items {
				m.items[i].selected = all
			}
		case "enter":
			n := len(m.selected())
			if n == 0 {
				return m, nil
			}
			m.confirm = newConfirmDialog("Apply migrations", fmt.Sprintf("Apply %d migration(s)?", n))
			m.mode = modeConfirm
		}
		return m, nil

	case modeConfirm:
		return m, m.confirm.update(msg)

	case modeDone, modeFailed:
		switch msg.String() {
		case "q", "esc", "enter":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	switch m.mode {
	case modeSelect:
		b.WriteString(titleStyle.Render("Pending migrations"))
		b.WriteString("\n")
		if len(m.items) == 0 {
			b.WriteString(mutedStyle.Render("Nothing to apply"))
		}
		for i, it := range m.items {
			cursor := "  "
			if i == m.cursor {
				cursor = cursorStyle.Render("▸ ")
			}
			fmt.Fprintf(&b, "%s%s %s\n", cursor, checkbox(it.selected), it.label())
		}
		b.WriteString(helpStyle.Render(formatKey("↑/↓", "move") + " • " + formatKey("space", "toggle") + " • " +
			formatKey("a", "all") + " • " + formatKey("enter", "apply") + " • " + formatKey("q", "quit")))

	case modeConfirm:
		b.WriteString(m.confirm.view())

	case modeRunning:
		next := ""
		if m.done < len(m.queue) {
			next = m.queue[m.done].Version + " " + m.queue[m.done].Name
		}
		fmt.Fprintf(&b, "%s Applying %s %s\n\n", m.spinner.View(), next, formatCount(m.done, len(m.queue)))
		b.WriteString(m.logs.view())

	case modeDone:
		b.WriteString(successStyle.Render(fmt.Sprintf("Applied %d migration(s)", m.done)))
		b.WriteString("\n\n")
		b.WriteString(m.logs.view())
		b.WriteString(helpStyle.Render(formatKey("enter/q", "exit")))

	case modeFailed:
		b.WriteString(dangerStyle.Render("Migration failed"))
		b.WriteString("\n\n")
		if s := m.logs.view(); s != "" {
			b.WriteString(s)
			b.WriteString("\n")
		}
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString(helpStyle.Render(formatKey("enter/q", "exit")))
	}

	return boxStyle.Render(b.String()) + "\n"
}

// Err returns the failure that ended the run, if any.
func (m Model) Err() error {
	if m.aborted {
		return ErrAborted
	}
	return m.err
}

// RunMigrateUI lists the pending migrations of status and applies the ones
// the user confirms.
func RunMigrateUI(ctx context.Context, applier Applier, migrations []migration.Migration, status []migration.MigrationRecord) error {
	applied := make(map[string]bool, len(status))
	for _, r := range status {
		if r.Status == migration.StatusApplied {
			applied[r.Version] = true
		}
	}

	final, err := tea.NewProgram(NewModel(ctx, applier, migration.Pending(migrations, applied)), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if err := final.(Model).Err(); err != nil && !errors.Is(err, ErrAborted) {
		return err
	}
	return nil
}
