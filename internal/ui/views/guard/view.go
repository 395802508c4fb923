package guard

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	authdto "todoterm/internal/modules/auth/dto"
	"todoterm/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type GuardPort interface {
	Guard(ctx context.Context) (authdto.GuardOutput, error)
}

// ─── messages ────────────────────────────────────────────────────────────────

// checkedMsg carries a validation result back to the mount that started it.
type checkedMsg struct {
	mountID  string
	decision string
	err      error
}

// DecidedMsg is emitted once per mount when the guard reaches a decision the
// app has to act on. Discarded checks never produce one.
type DecidedMsg struct {
	Decision string
	Err      error
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model gates a protected view. Protected content is rendered only after the
// server has confirmed the credential for the current mount.
type Model struct {
	port     GuardPort
	spinner  spinner.Model
	mountID  string
	cancel   context.CancelFunc
	decision string
	err      error
	width    int
	height   int
}

func New(port GuardPort) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)
	return Model{port: port, spinner: sp}
}

// Mount starts a fresh validation and supersedes any earlier one.
func (m *Model) Mount() tea.Cmd {
	m.Unmount()
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	m.mountID = id
	m.cancel = cancel
	m.decision = ""
	m.err = nil
	port := m.port
	check := func() tea.Msg {
		out, err := port.Guard(ctx)
		return checkedMsg{mountID: id, decision: out.Decision, err: err}
	}
	return tea.Batch(check, m.spinner.Tick)
}

// Unmount cancels the in-flight validation; its result will be dropped.
func (m *Model) Unmount() {
	if m.cancel != nil {
		m.cancel()
	}
	m.cancel = nil
	m.mountID = ""
	m.decision = ""
}

func (m Model) Mounted() bool { return m.mountID != "" }

// Pending reports whether a mounted guard is still waiting for the server.
func (m Model) Pending() bool { return m.Mounted() && m.decision == "" }

func (m Model) Granted() bool { return m.Mounted() && m.decision == authdto.DecisionGranted }

func (m Model) Err() error { return m.err }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case checkedMsg:
		if msg.mountID == "" || msg.mountID != m.mountID || msg.decision == authdto.DecisionDiscarded {
			return m, nil
		}
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.decision = msg.decision
		m.err = msg.err
		decided := DecidedMsg{Decision: msg.decision, Err: msg.err}
		return m, func() tea.Msg { return decided }

	case spinner.TickMsg:
		if !m.Pending() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders protected only once access is granted.
func (m Model) View(protected func() string) string {
	switch {
	case m.Granted():
		return protected()
	case m.decision == authdto.DecisionRetry:
		text := theme.Hot.Render("server unreachable") + "\n\n" +
			theme.Muted.Render("r: retry  ctrl+l: log out")
		if m.err != nil {
			text = theme.Hot.Render("server unreachable") + "\n" + theme.Muted.Render(m.err.Error()) + "\n\n" +
				theme.Muted.Render("r: retry  ctrl+l: log out")
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, text)
	case m.Pending():
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Checking session…")
	default:
		return ""
	}
}
