package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	authdto "todoterm/internal/modules/auth/dto"
	apperrors "todoterm/internal/platform/errors"
	"todoterm/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type AuthPort interface {
	Login(ctx context.Context, username, password string) (authdto.SessionOutput, error)
	Register(ctx context.Context, username, email, password string) error
}

// ─── messages ────────────────────────────────────────────────────────────────

// LoggedInMsg reports a finished login attempt.
type LoggedInMsg struct {
	Session authdto.SessionOutput
	Err     error
}

// RegisteredMsg reports a finished registration attempt.
type RegisteredMsg struct {
	Username string
	Err      error
}

// ─── model ───────────────────────────────────────────────────────────────────

type mode int

const (
	modeLogin mode = iota
	modeRegister
)

const (
	fieldUsername = iota
	fieldEmail
	fieldPassword
	fieldCount
)

// Model is the entry view: a login form that can switch to registration.
type Model struct {
	port    AuthPort
	mode    mode
	inputs  [fieldCount]textinput.Model
	focus   int
	spinner spinner.Model
	busy    bool
	notice  string
	err     string
	width   int
	height  int
}

func New(port AuthPort) Model {
	var inputs [fieldCount]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 128
		ti.Width = 32
		ti.PromptStyle = lipgloss.NewStyle().Foreground(theme.Lavender)
		inputs[i] = ti
	}
	inputs[fieldUsername].Placeholder = "username"
	inputs[fieldEmail].Placeholder = "email"
	inputs[fieldPassword].Placeholder = "password"
	inputs[fieldPassword].EchoMode = textinput.EchoPassword
	inputs[fieldPassword].EchoCharacter = '•'

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	m := Model{port: port, inputs: inputs, spinner: sp}
	m.inputs[fieldUsername].Focus()
	return m
}

// Reset clears the form, keeps the username and shows notice above it.
func (m *Model) Reset(notice string) tea.Cmd {
	m.mode = modeLogin
	m.busy = false
	m.err = ""
	m.notice = notice
	m.inputs[fieldEmail].SetValue("")
	m.inputs[fieldPassword].SetValue("")
	return m.setFocus(fieldUsername)
}

func (m Model) Busy() bool { return m.busy }

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case LoggedInMsg:
		m.busy = false
		if msg.Err != nil {
			m.err = describe(msg.Err, false)
			m.inputs[fieldPassword].SetValue("")
			cmd := m.setFocus(fieldPassword)
			return m, cmd
		}
		m.err = ""
		m.inputs[fieldPassword].SetValue("")
		return m, nil

	case RegisteredMsg:
		m.busy = false
		if msg.Err != nil {
			m.err = describe(msg.Err, true)
			return m, nil
		}
		cmd := m.Reset("account created for " + msg.Username + ", log in to continue")
		m.inputs[fieldUsername].SetValue(msg.Username)
		focus := m.setFocus(fieldPassword)
		return m, tea.Batch(cmd, focus)

	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			cmd := m.setFocus(m.next(1))
			return m, cmd
		case "shift+tab", "up":
			cmd := m.setFocus(m.next(-1))
			return m, cmd
		case "ctrl+r":
			if m.mode == modeLogin {
				m.mode = modeRegister
			} else {
				m.mode = modeLogin
			}
			m.err = ""
			m.notice = ""
			cmd := m.setFocus(fieldUsername)
			return m, cmd
		case "enter":
			if m.focus != fieldPassword {
				cmd := m.setFocus(m.next(1))
				return m, cmd
			}
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) View() string {
	title := "Log in"
	switchHint := "ctrl+r: create an account"
	if m.mode == modeRegister {
		title = "Create account"
		switchHint = "ctrl+r: back to log in"
	}

	var sb strings.Builder
	sb.WriteString(theme.Title.Render(title) + "\n\n")
	if m.notice != "" {
		sb.WriteString(theme.Success.Render(m.notice) + "\n\n")
	}
	for _, field := range m.fields() {
		sb.WriteString(m.inputs[field].View() + "\n")
	}
	sb.WriteString("\n")
	switch {
	case m.busy:
		sb.WriteString(m.spinner.View() + " contacting server…\n")
	case m.err != "":
		sb.WriteString(theme.Error.Render(m.err) + "\n")
	default:
		sb.WriteString("\n")
	}
	sb.WriteString("\n" + theme.Muted.Render("enter: submit  tab: next field  "+switchHint))

	form := theme.PaneActive.Width(48).Render(sb.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, form)
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) fields() []int {
	if m.mode == modeRegister {
		return []int{fieldUsername, fieldEmail, fieldPassword}
	}
	return []int{fieldUsername, fieldPassword}
}

func (m Model) next(step int) int {
	fields := m.fields()
	pos := 0
	for i, f := range fields {
		if f == m.focus {
			pos = i
		}
	}
	return fields[(pos+step+len(fields))%len(fields)]
}

func (m *Model) setFocus(field int) tea.Cmd {
	m.focus = field
	var cmd tea.Cmd
	for i := range m.inputs {
		if i == field {
			cmd = m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	return cmd
}

func (m Model) submit() (Model, tea.Cmd) {
	username := strings.TrimSpace(m.inputs[fieldUsername].Value())
	email := strings.TrimSpace(m.inputs[fieldEmail].Value())
	password := m.inputs[fieldPassword].Value()
	if username == "" || password == "" || (m.mode == modeRegister && email == "") {
		m.err = "all fields are required"
		return m, nil
	}

	m.busy = true
	m.err = ""
	m.notice = ""
	port := m.port
	if m.mode == modeRegister {
		return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
			err := port.Register(context.Background(), username, email, password)
			return RegisteredMsg{Username: username, Err: err}
		})
	}
	return m, tea.Batch(m.spinner.Tick, func() tea.Msg {
		session, err := port.Login(context.Background(), username, password)
		return LoggedInMsg{Session: session, Err: err}
	})
}

func describe(err error, registering bool) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return err.Error()
	case errors.Is(err, apperrors.ErrRejected) && registering:
		if apperrors.Status(err) == http.StatusConflict {
			return "that account already exists"
		}
		return "registration rejected"
	case errors.Is(err, apperrors.ErrRejected):
		return "invalid username or password"
	case errors.Is(err, apperrors.ErrNetwork):
		return "server unreachable, try again"
	default:
		return err.Error()
	}
}
