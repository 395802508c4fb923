package todos

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	tododto "todoterm/internal/modules/todo/dto"
	apperrors "todoterm/internal/platform/errors"
	"todoterm/internal/ui/theme"
)

// ─── port ────────────────────────────────────────────────────────────────────

type TodoPort interface {
	List(ctx context.Context) ([]tododto.TodoOutput, error)
	Add(ctx context.Context, title, description string) (tododto.TodoOutput, error)
	Edit(ctx context.Context, id, title, description string) (tododto.TodoOutput, error)
	Toggle(ctx context.Context, id string) (tododto.TodoOutput, error)
	Remove(ctx context.Context, id string) error
}

// ─── messages ────────────────────────────────────────────────────────────────

type LoadedMsg struct {
	Todos []tododto.TodoOutput
	Err   error
}

// ChangedMsg reports a create, edit or toggle; the server's copy replaces
// the local one.
type ChangedMsg struct {
	Todo    tododto.TodoOutput
	Created bool
	Err     error
}

type RemovedMsg struct {
	ID  string
	Err error
}

// ─── list item ───────────────────────────────────────────────────────────────

type todoItem struct {
	todo tododto.TodoOutput
}

func (i todoItem) Title() string {
	if i.todo.Completed {
		return "[x] " + theme.Done.Render(i.todo.Title)
	}
	return "[ ] " + i.todo.Title
}

func (i todoItem) Description() string {
	if i.todo.Description == "" {
		return theme.Muted.Render("no description")
	}
	return i.todo.Description
}

func (i todoItem) FilterValue() string { return i.todo.Title }

// ─── model ───────────────────────────────────────────────────────────────────

const (
	fieldTitle = iota
	fieldDescription
)

type Model struct {
	port    TodoPort
	list    list.Model
	spinner spinner.Model
	loading bool
	status  string

	// editor state; editing == "" with formOpen means a new todo
	formOpen bool
	editing  string
	inputs   [2]textinput.Model
	focus    int

	confirmDelete string

	width  int
	height int
}

func New(port TodoPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Todos"
	l.Styles.Title = theme.Title
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	var inputs [2]textinput.Model
	for i := range inputs {
		ti := textinput.New()
		ti.CharLimit = 200
		ti.Width = 48
		inputs[i] = ti
	}
	inputs[fieldTitle].Placeholder = "title"
	inputs[fieldDescription].Placeholder = "description (optional)"

	return Model{port: port, list: l, spinner: sp, inputs: inputs, loading: true}
}

// Load fetches the list; the app calls it once the guard has granted access.
func (m *Model) Load() tea.Cmd {
	m.loading = true
	return tea.Batch(m.loadCmd(), m.spinner.Tick)
}

// Filtering reports whether typing belongs to the view rather than global keys.
func (m Model) Filtering() bool {
	return m.formOpen || m.list.FilterState() == list.Filtering
}

func (m Model) Status() string { return m.status }

func (m Model) Selected() (tododto.TodoOutput, bool) {
	item, ok := m.list.SelectedItem().(todoItem)
	return item.todo, ok
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case LoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.status = describe("load", msg.Err)
			return m, nil
		}
		items := make([]list.Item, len(msg.Todos))
		for i, t := range msg.Todos {
			items[i] = todoItem{todo: t}
		}
		m.status = fmt.Sprintf("%d todos", len(msg.Todos))
		cmd := m.list.SetItems(items)
		return m, cmd

	case ChangedMsg:
		if msg.Err != nil {
			m.status = describe("save", msg.Err)
			return m, nil
		}
		if msg.Created {
			m.status = "added " + msg.Todo.Title
			cmd := m.list.InsertItem(len(m.list.Items()), todoItem{todo: msg.Todo})
			return m, cmd
		}
		for i, it := range m.list.Items() {
			if it.(todoItem).todo.ID == msg.Todo.ID {
				m.status = msg.Todo.Title + ": " + msg.Todo.Status
				cmd := m.list.SetItem(i, todoItem{todo: msg.Todo})
				return m, cmd
			}
		}
		return m, nil

	case RemovedMsg:
		if msg.Err != nil {
			m.status = describe("delete", msg.Err)
			return m, nil
		}
		for i, it := range m.list.Items() {
			if it.(todoItem).todo.ID == msg.ID {
				m.list.RemoveItem(i)
				break
			}
		}
		m.status = "deleted"
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.formOpen {
			return m.updateForm(msg)
		}
		if m.confirmDelete != "" {
			id := m.confirmDelete
			m.confirmDelete = ""
			if msg.String() == "y" {
				return m, m.removeCmd(id)
			}
			m.status = "delete cancelled"
			return m, nil
		}
		if m.list.FilterState() != list.Filtering && !m.loading {
			switch msg.String() {
			case "a":
				cmd := m.OpenForm(nil)
				return m, cmd
			case "e":
				if t, ok := m.Selected(); ok {
					cmd := m.OpenForm(&t)
					return m, cmd
				}
				return m, nil
			case " ", "x":
				return m, m.ToggleSelected()
			case "d":
				if t, ok := m.Selected(); ok {
					m.confirmDelete = t.ID
					m.status = fmt.Sprintf("delete %q? y to confirm", t.Title)
				}
				return m, nil
			case "r":
				cmd := m.Load()
				return m, cmd
			}
		}
	}

	if !m.loading {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if m.loading {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading todos…")
	}
	if m.formOpen {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderForm())
	}
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(m.list.View())
}

// OpenForm shows the editor, prefilled from existing when editing.
func (m *Model) OpenForm(existing *tododto.TodoOutput) tea.Cmd {
	m.formOpen = true
	m.editing = ""
	m.inputs[fieldTitle].SetValue("")
	m.inputs[fieldDescription].SetValue("")
	if existing != nil {
		m.editing = existing.ID
		m.inputs[fieldTitle].SetValue(existing.Title)
		m.inputs[fieldDescription].SetValue(existing.Description)
	}
	m.focus = fieldTitle
	m.inputs[fieldDescription].Blur()
	return m.inputs[fieldTitle].Focus()
}

// Add creates a todo directly, as the palette does.
func (m Model) Add(title, description string) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		todo, err := port.Add(context.Background(), title, description)
		return ChangedMsg{Todo: todo, Created: true, Err: err}
	}
}

func (m Model) ToggleSelected() tea.Cmd {
	t, ok := m.Selected()
	if !ok {
		return nil
	}
	port := m.port
	return func() tea.Msg {
		todo, err := port.Toggle(context.Background(), t.ID)
		return ChangedMsg{Todo: todo, Err: err}
	}
}

// ─── private ─────────────────────────────────────────────────────────────────

func (m Model) updateForm(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.formOpen = false
		m.status = "cancelled"
		return m, nil
	case "tab", "shift+tab":
		m.inputs[m.focus].Blur()
		m.focus = 1 - m.focus
		cmd := m.inputs[m.focus].Focus()
		return m, cmd
	case "enter":
		title := strings.TrimSpace(m.inputs[fieldTitle].Value())
		if title == "" {
			m.status = "title is required"
			return m, nil
		}
		description := m.inputs[fieldDescription].Value()
		m.formOpen = false
		if m.editing == "" {
			return m, m.Add(title, description)
		}
		id := m.editing
		port := m.port
		return m, func() tea.Msg {
			todo, err := port.Edit(context.Background(), id, title, description)
			return ChangedMsg{Todo: todo, Err: err}
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) renderForm() string {
	title := "New todo"
	if m.editing != "" {
		title = "Edit todo"
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render(title) + "\n\n")
	sb.WriteString(m.inputs[fieldTitle].View() + "\n")
	sb.WriteString(m.inputs[fieldDescription].View() + "\n\n")
	sb.WriteString(theme.Muted.Render("enter: save  tab: next field  esc: cancel"))
	return theme.PaneActive.Width(60).Render(sb.String())
}

func (m Model) loadCmd() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		todos, err := port.List(context.Background())
		return LoadedMsg{Todos: todos, Err: err}
	}
}

func (m Model) removeCmd(id string) tea.Cmd {
	port := m.port
	return func() tea.Msg {
		return RemovedMsg{ID: id, Err: port.Remove(context.Background(), id)}
	}
}

func describe(action string, err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "session ended"
	case errors.Is(err, apperrors.ErrNotFound):
		return action + ": todo no longer exists"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return action + ": " + err.Error()
	case errors.Is(err, apperrors.ErrNetwork):
		return action + ": server unreachable"
	default:
		return action + ": " + err.Error()
	}
}
