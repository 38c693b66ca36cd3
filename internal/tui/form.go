package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/roitrack/internal/task"
)

type formMode int

const (
	formAdd formMode = iota
	formEdit
)

type formField int

const (
	fieldTitle formField = iota
	fieldRevenue
	fieldTime
	fieldPriority
	fieldStatus
	fieldNotes
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldTitle:    "Title *",
	fieldRevenue:  "Revenue ($) *",
	fieldTime:     "Time Taken (h) *",
	fieldPriority: "Priority",
	fieldStatus:   "Status",
	fieldNotes:    "Notes",
}

// taskForm backs both the add and the edit dialog.
type taskForm struct {
	mode      formMode
	taskID    string
	focus     formField
	title     textinput.Model
	revenue   textinput.Model
	timeSpent textinput.Model
	priority  task.Priority
	status    task.Status
	notes     textarea.Model
}

func newTaskForm(mode formMode, existing *task.Task) *taskForm {
	f := &taskForm{
		mode:     mode,
		priority: task.DefaultPriority,
		status:   task.DefaultStatus,
	}
	f.title = newFormInput("What did you work on?", 120)
	f.revenue = newFormInput("0.00", 24)
	f.timeSpent = newFormInput("hours", 24)

	f.notes = textarea.New()
	f.notes.Placeholder = "Optional notes"
	f.notes.ShowLineNumbers = false
	f.notes.CharLimit = 2000
	f.notes.SetHeight(3)
	f.notes.SetWidth(48)

	if existing != nil {
		in := task.InputOf(*existing)
		f.taskID = existing.ID
		f.title.SetValue(in.Title)
		f.revenue.SetValue(in.Revenue)
		f.timeSpent.SetValue(in.TimeTaken)
		f.notes.SetValue(in.Notes)
		f.priority = existing.Priority
		f.status = existing.Status
	}
	f.setFocus(fieldTitle)
	return f
}

func newFormInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = ""
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 40
	return in
}

// Input returns the raw form values.
func (f *taskForm) Input() task.Input {
	return task.Input{
		Title:     f.title.Value(),
		Revenue:   f.revenue.Value(),
		TimeTaken: f.timeSpent.Value(),
		Priority:  string(f.priority),
		Status:    string(f.status),
		Notes:     f.notes.Value(),
	}
}

func (f *taskForm) setFocus(field formField) tea.Cmd {
	f.focus = (field + fieldCount) % fieldCount
	f.title.Blur()
	f.revenue.Blur()
	f.timeSpent.Blur()
	f.notes.Blur()
	switch f.focus {
	case fieldTitle:
		return f.title.Focus()
	case fieldRevenue:
		return f.revenue.Focus()
	case fieldTime:
		return f.timeSpent.Focus()
	case fieldNotes:
		return f.notes.Focus()
	}
	return nil
}

// Update handles focus movement and choice cycling itself and forwards
// everything else to the focused widget.
func (f *taskForm) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "tab", "down":
			if key.String() == "down" && f.focus == fieldNotes {
				break
			}
			return f.setFocus(f.focus + 1)
		case "shift+tab", "up":
			if key.String() == "up" && f.focus == fieldNotes {
				break
			}
			return f.setFocus(f.focus - 1)
		case "left", "right", " ":
			if f.cycleChoice(key.String() == "left") {
				return nil
			}
		}
	}
	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldRevenue:
		f.revenue, cmd = f.revenue.Update(msg)
	case fieldTime:
		f.timeSpent, cmd = f.timeSpent.Update(msg)
	case fieldNotes:
		f.notes, cmd = f.notes.Update(msg)
	}
	return cmd
}

func (f *taskForm) cycleChoice(backwards bool) bool {
	step := 1
	if backwards {
		step = -1
	}
	switch f.focus {
	case fieldPriority:
		f.priority = task.Priorities[cycleIndex(indexOfPriority(f.priority), step, len(task.Priorities))]
		return true
	case fieldStatus:
		f.status = task.Statuses[cycleIndex(indexOfStatus(f.status), step, len(task.Statuses))]
		return true
	}
	return false
}

func indexOfPriority(p task.Priority) int {
	for i, candidate := range task.Priorities {
		if candidate == p {
			return i
		}
	}
	return 0
}

func indexOfStatus(s task.Status) int {
	for i, candidate := range task.Statuses {
		if candidate == s {
			return i
		}
	}
	return 0
}

func cycleIndex(idx, step, n int) int {
	if n == 0 {
		return 0
	}
	return ((idx+step)%n + n) % n
}

func (f *taskForm) Title() string {
	if f.mode == formEdit {
		return "Edit Task"
	}
	return "Add New Task"
}

// View renders the dialog body.
func (f *taskForm) View(width int) string {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	focusStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	lines := []string{titleStyle.Render(f.Title()), ""}
	for field := formField(0); field < fieldCount; field++ {
		label := labelStyle.Render(fieldLabels[field])
		if field == f.focus {
			label = focusStyle.Render("› " + fieldLabels[field])
		}
		lines = append(lines, label, f.fieldView(field), "")
	}
	lines = append(lines, hintStyle.Render("ctrl+s save · esc cancel · tab/shift+tab move · ←/→ change choice"))
	return dialogStyle.Width(max(40, width)).Render(strings.Join(lines, "\n"))
}

func (f *taskForm) fieldView(field formField) string {
	switch field {
	case fieldTitle:
		return f.title.View()
	case fieldRevenue:
		return f.revenue.View()
	case fieldTime:
		return f.timeSpent.View()
	case fieldPriority:
		return choiceRow(string(f.priority), priorityLabels(), f.focus == fieldPriority)
	case fieldStatus:
		return choiceRow(string(f.status), statusLabels(), f.focus == fieldStatus)
	case fieldNotes:
		return f.notes.View()
	}
	return ""
}

func choiceRow(current string, options []string, focused bool) string {
	parts := make([]string, 0, len(options))
	for _, option := range options {
		if option == current {
			parts = append(parts, badge(option).Render(option))
			continue
		}
		parts = append(parts, lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Render(option))
	}
	row := strings.Join(parts, " ")
	if focused {
		row = fmt.Sprintf("← %s →", row)
	}
	return row
}

func priorityLabels() []string {
	out := make([]string, len(task.Priorities))
	for i, p := range task.Priorities {
		out[i] = string(p)
	}
	return out
}

func statusLabels() []string {
	out := make([]string, len(task.Statuses))
	for i, s := range task.Statuses {
		out[i] = string(s)
	}
	return out
}
