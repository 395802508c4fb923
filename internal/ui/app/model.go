package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	authdto "todoterm/internal/modules/auth/dto"
	tododto "todoterm/internal/modules/todo/dto"
	"todoterm/internal/ui/components"
	"todoterm/internal/ui/theme"
	guardview "todoterm/internal/ui/views/guard"
	loginview "todoterm/internal/ui/views/login"
	todosview "todoterm/internal/ui/views/todos"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type authPort interface {
	Login(ctx context.Context, username, password string) (authdto.SessionOutput, error)
	Register(ctx context.Context, username, email, password string) error
	Logout(ctx context.Context) error
	Status(ctx context.Context, check bool) (authdto.StatusOutput, error)
	Guard(ctx context.Context) (authdto.GuardOutput, error)
}

type todoPort interface {
	List(ctx context.Context) ([]tododto.TodoOutput, error)
	Add(ctx context.Context, title, description string) (tododto.TodoOutput, error)
	Edit(ctx context.Context, id, title, description string) (tododto.TodoOutput, error)
	Toggle(ctx context.Context, id string) (tododto.TodoOutput, error)
	Remove(ctx context.Context, id string) error
}

// ─── screens ─────────────────────────────────────────────────────────────────

type screen int

const (
	screenEntry screen = iota
	screenTodos
)

// ─── async messages ──────────────────────────────────────────────────────────

// navigateMsg is a request from the session to show the entry view.
type navigateMsg struct{ reason string }

// startMsg mounts the guard once the program runs; Init cannot keep state.
type startMsg struct{}

type statusMsg struct {
	out authdto.StatusOutput
	err error
}

type logoutDoneMsg struct{ err error }

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Add     key.Binding
	Edit    key.Binding
	Toggle  key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Logout  key.Binding
	Help    key.Binding
	Palette key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Add:     key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		Edit:    key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		Toggle:  key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Logout:  key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "log out")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette: key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Palette, k.Logout, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Add, k.Edit, k.Toggle, k.Delete, k.Refresh},
		{k.Logout, k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the root Bubble Tea model. It routes between the entry view and
// the guarded todo list and follows navigation requests from the session.
type Model struct {
	origin     string
	auth       authPort
	navigation <-chan string

	login    loginview.Model
	guard    guardview.Model
	todos    todosview.Model
	screen   screen
	keys     keyMap
	help     help.Model
	showHelp bool
	palette  components.Palette
	status   string
	user     string
	width    int
	height   int
}

func NewModel(origin string, auth authPort, todos todoPort, navigation <-chan string) Model {
	h := help.New()
	h.ShowAll = true
	return Model{
		origin:     origin,
		auth:       auth,
		navigation: navigation,
		login:      loginview.New(auth),
		guard:      guardview.New(auth),
		todos:      todosview.New(todos),
		screen:     screenTodos,
		keys:       defaultKeys(),
		help:       h,
		palette:    components.NewPalette(components.Hints),
		status:     "checking session",
	}
}

// Init opens the protected view first; the guard redirects when needed.
func (m Model) Init() tea.Cmd {
	return tea.Batch(func() tea.Msg { return startMsg{} }, m.waitForNavigation())
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, isKey := msg.(tea.KeyMsg); isKey && m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case startMsg:
		cmd := m.guard.Mount()
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.palette.SetWidth(min(m.width-4, 80))
		sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 4}
		m.login, _ = m.login.Update(sz)
		m.guard, _ = m.guard.Update(sz)
		m.todos, _ = m.todos.Update(sz)
		return m, nil

	case navigateMsg:
		cmd := m.toEntry(entryNotice(msg.reason))
		return m, tea.Batch(cmd, m.waitForNavigation())

	case guardview.DecidedMsg:
		switch msg.Decision {
		case authdto.DecisionGranted:
			m.status = "signed in"
			load := m.todos.Load()
			return m, tea.Batch(load, m.statusCmd(false))
		case authdto.DecisionRetry:
			m.status = "server unreachable"
			return m, nil
		default:
			// the session navigates on its own after a revoke; a missing
			// credential is handled here
			if m.screen != screenEntry {
				cmd := m.toEntry("")
				return m, cmd
			}
			return m, nil
		}

	case loginview.LoggedInMsg:
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		if msg.Err != nil {
			return m, cmd
		}
		m.screen = screenTodos
		m.status = "checking session"
		mount := m.guard.Mount()
		return m, tea.Batch(cmd, mount)

	case statusMsg:
		if msg.err != nil {
			m.status = "status: " + msg.err.Error()
			return m, nil
		}
		m.user = msg.out.Subject
		m.status = describeStatus(msg.out, time.Now())
		return m, nil

	case logoutDoneMsg:
		if msg.err != nil {
			m.status = "logout: " + msg.err.Error()
		}
		return m, nil

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Input)

	case components.PaletteCancelMsg:
		return m, nil

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.screen == screenTodos {
			if handled, next, cmd := m.handleProtectedKey(msg); handled {
				return next, cmd
			}
		}
	}

	var cmd tea.Cmd
	switch m.screen {
	case screenEntry:
		m.login, cmd = m.login.Update(msg)
	case screenTodos:
		var gCmd, tCmd tea.Cmd
		m.guard, gCmd = m.guard.Update(msg)
		if m.guard.Granted() {
			m.todos, tCmd = m.todos.Update(msg)
		}
		cmd = tea.Batch(gCmd, tCmd)
	}
	return m, cmd
}

func (m Model) handleProtectedKey(msg tea.KeyMsg) (bool, Model, tea.Cmd) {
	if m.guard.Granted() && m.todos.Filtering() {
		return false, m, nil
	}
	switch msg.String() {
	case "q":
		return true, m, tea.Quit
	case "ctrl+l":
		return true, m, m.logoutCmd()
	case "?":
		m.showHelp = true
		return true, m, nil
	case ":":
		if !m.guard.Granted() {
			return true, m, nil
		}
		cmd := m.palette.Open()
		return true, m, cmd
	case "r":
		if !m.guard.Granted() && !m.guard.Pending() {
			m.status = "checking session"
			cmd := m.guard.Mount()
			return true, m, cmd
		}
	}
	return false, m, nil
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	header := m.renderHeader()
	footer := m.renderFooter()
	contentH := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.screen == screenEntry:
		content = m.login.View()
	default:
		content = m.guard.View(m.todos.View)
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (m Model) renderHeader() string {
	left := theme.Title.Render("todoterm") + "  " + theme.Muted.Render(m.origin)
	right := ""
	if m.screen == screenTodos && m.guard.Granted() && m.user != "" {
		right = theme.Hot.Render("● " + m.user)
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right) + "\n"
}

func (m Model) renderFooter() string {
	left := m.status
	if m.screen == screenTodos && m.guard.Granted() && m.todos.Status() != "" {
		left = m.todos.Status()
	}
	right := theme.Muted.Render("?:help  :::palette  ctrl+l:logout  q:quit")
	if m.screen == screenEntry {
		right = theme.Muted.Render("ctrl+c:quit")
	}
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + lipgloss.NewStyle().Background(theme.Mantle).Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}
	rest := strings.TrimSpace(strings.TrimPrefix(input, parts[0]))

	switch parts[0] {
	case "todo:add":
		title, description, _ := strings.Cut(rest, "|")
		title = strings.TrimSpace(title)
		if title == "" {
			cmd := m.todos.OpenForm(nil)
			return m, cmd
		}
		return m, m.todos.Add(title, strings.TrimSpace(description))
	case "todo:edit":
		t, ok := m.todos.Selected()
		if !ok {
			m.status = "no todo selected"
			return m, nil
		}
		cmd := m.todos.OpenForm(&t)
		return m, cmd
	case "todo:toggle":
		return m, m.todos.ToggleSelected()
	case "todo:refresh":
		cmd := m.todos.Load()
		return m, cmd
	case "session:check":
		m.status = "checking session"
		cmd := m.guard.Mount()
		return m, cmd
	case "session:status":
		return m, m.statusCmd(false)
	case "session:logout":
		return m, m.logoutCmd()
	default:
		m.status = "unknown command: " + parts[0]
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m *Model) toEntry(notice string) tea.Cmd {
	m.guard.Unmount()
	m.screen = screenEntry
	m.user = ""
	m.showHelp = false
	if m.palette.Visible() {
		m.palette, _ = m.palette.Update(tea.KeyMsg{Type: tea.KeyEsc})
	}
	m.status = "signed out"
	return m.login.Reset(notice)
}

func entryNotice(reason string) string {
	switch reason {
	case "logout":
		return "logged out"
	case "":
		return ""
	default:
		return "session ended (" + reason + "), please log in again"
	}
}

func describeStatus(out authdto.StatusOutput, now time.Time) string {
	if !out.Authenticated {
		return "signed out"
	}
	if out.Subject == "" {
		return "signed in"
	}
	if out.ExpiresAt.IsZero() {
		return "signed in as " + out.Subject
	}
	if out.ExpiredLocal {
		return fmt.Sprintf("signed in as %s, token expired %s", out.Subject, out.ExpiresAt.Local().Format(time.Kitchen))
	}
	return fmt.Sprintf("signed in as %s, token valid for %s", out.Subject, out.ExpiresAt.Sub(now).Round(time.Minute))
}

// ─── async commands ──────────────────────────────────────────────────────────

func (m Model) waitForNavigation() tea.Cmd {
	if m.navigation == nil {
		return nil
	}
	ch := m.navigation
	return func() tea.Msg {
		reason, ok := <-ch
		if !ok {
			return nil
		}
		return navigateMsg{reason: reason}
	}
}

func (m Model) statusCmd(check bool) tea.Cmd {
	auth := m.auth
	return func() tea.Msg {
		out, err := auth.Status(context.Background(), check)
		return statusMsg{out: out, err: err}
	}
}

func (m Model) logoutCmd() tea.Cmd {
	auth := m.auth
	return func() tea.Msg {
		return logoutDoneMsg{err: auth.Logout(context.Background())}
	}
}
