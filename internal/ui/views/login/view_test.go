package login

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	authdto "todoterm/internal/modules/auth/dto"
	apperrors "todoterm/internal/platform/errors"
)

type recordingAuth struct {
	logins    []string
	registers []string
	err       error
}

func (r *recordingAuth) Login(_ context.Context, username, _ string) (authdto.SessionOutput, error) {
	r.logins = append(r.logins, username)
	if r.err != nil {
		return authdto.SessionOutput{}, r.err
	}
	return authdto.SessionOutput{Authenticated: true}, nil
}

func (r *recordingAuth) Register(_ context.Context, username, _, _ string) error {
	r.registers = append(r.registers, username)
	return r.err
}

// submitted runs the non-spinner half of a submit command.
func submitted(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected a batch")
	}
	for _, c := range batch {
		if c == nil {
			continue
		}
		switch msg := c().(type) {
		case LoggedInMsg, RegisteredMsg:
			return msg
		}
	}
	t.Fatalf("no result message in batch")
	return nil
}

func enter() tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyEnter} }

func TestEmptyFormIsRejectedLocally(t *testing.T) {
	t.Parallel()
	auth := &recordingAuth{}
	m := New(auth)
	m.setFocus(fieldPassword)
	m, cmd := m.Update(enter())
	if cmd != nil || m.err != "all fields are required" {
		t.Fatalf("expected local validation, got err=%q", m.err)
	}
	if len(auth.logins) != 0 {
		t.Fatalf("port should not be called")
	}
}

func TestLoginSubmitsAndClearsPassword(t *testing.T) {
	t.Parallel()
	auth := &recordingAuth{}
	m := New(auth)
	m.inputs[fieldUsername].SetValue(" alice ")
	m.inputs[fieldPassword].SetValue("pw1")
	m.setFocus(fieldPassword)

	m, cmd := m.Update(enter())
	if !m.Busy() {
		t.Fatalf("expected busy while submitting")
	}
	msg := submitted(t, cmd)
	if len(auth.logins) != 1 || auth.logins[0] != "alice" {
		t.Fatalf("logins: %v", auth.logins)
	}
	m, _ = m.Update(msg)
	if m.Busy() || m.inputs[fieldPassword].Value() != "" {
		t.Fatalf("password should be cleared after login")
	}
}

func TestRejectedLoginShowsMessage(t *testing.T) {
	t.Parallel()
	m := New(&recordingAuth{})
	m, _ = m.Update(LoggedInMsg{Err: &apperrors.StatusError{Status: http.StatusUnauthorized, Err: apperrors.ErrRejected}})
	if m.err != "invalid username or password" {
		t.Fatalf("err: %q", m.err)
	}
}

func TestRegisterSwitchesBackToLogin(t *testing.T) {
	t.Parallel()
	auth := &recordingAuth{}
	m := New(auth)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	if m.mode != modeRegister {
		t.Fatalf("ctrl+r should switch to registration")
	}
	m.inputs[fieldUsername].SetValue("bob")
	m.inputs[fieldEmail].SetValue("bob@example.com")
	m.inputs[fieldPassword].SetValue("pw")
	m.setFocus(fieldPassword)

	m, cmd := m.Update(enter())
	msg := submitted(t, cmd)
	m, _ = m.Update(msg)
	if m.mode != modeLogin {
		t.Fatalf("expected login mode after registering")
	}
	if m.inputs[fieldUsername].Value() != "bob" || m.focus != fieldPassword {
		t.Fatalf("username should be kept and password focused")
	}
	if m.notice == "" {
		t.Fatalf("expected a notice")
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	conflict := &apperrors.StatusError{Status: http.StatusConflict, Err: apperrors.ErrRejected}
	cases := []struct {
		err         error
		registering bool
		want        string
	}{
		{conflict, true, "that account already exists"},
		{conflict, false, "invalid username or password"},
		{fmt.Errorf("login: %w", apperrors.ErrNetwork), false, "server unreachable, try again"},
	}
	for _, c := range cases {
		if got := describe(c.err, c.registering); got != c.want {
			t.Fatalf("describe(%v, %v) = %q, want %q", c.err, c.registering, got, c.want)
		}
	}
}
