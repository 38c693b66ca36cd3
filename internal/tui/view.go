package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/roitrack/internal/logbook"
	"github.com/kingrea/roitrack/internal/task"
)

const emptyTableMessage = "No tasks found. Add your first task to get started!"

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(1, 2)
	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(1, 2)
)

var badgeColors = map[string]string{
	string(task.PriorityHigh):     "#FF6B6B",
	string(task.PriorityMedium):   "#F5C26B",
	string(task.PriorityLow):      "#7BC67B",
	string(task.StatusPending):    "#AAAAAA",
	string(task.StatusInProgress): "#5B8DEF",
	string(task.StatusCompleted):  "#7BC67B",
}

func badge(value string) lipgloss.Style {
	color, ok := badgeColors[value]
	if !ok {
		color = "#888888"
	}
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#1A1A1A")).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

func tableColumns(width int) []table.Column {
	fixed := 12 + 8 + 8 + 8 + 13
	titleWidth := max(16, width-fixed-16)
	return []table.Column{
		{Title: "Title", Width: titleWidth},
		{Title: "Revenue", Width: 12},
		{Title: "Time", Width: 8},
		{Title: "ROI", Width: 8},
		{Title: "Priority", Width: 8},
		{Title: "Status", Width: 13},
	}
}

func tableRows(tasks []task.Task) []table.Row {
	rows := make([]table.Row, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, table.Row{
			t.Title,
			fmt.Sprintf("$%.2f", t.Revenue),
			task.FormatNumber(t.TimeTaken) + "h",
			fmt.Sprintf("%.2f", t.ROI),
			string(t.Priority),
			string(t.Status),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#5B8DEF")).
		Bold(false)
	return styles
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		Render("◆ ROITRACK · task ROI tracker")

	var body string
	switch a.state {
	case stateForm:
		body = a.form.View(min(72, width-4))
	case stateView:
		body = a.renderTaskDetails(min(72, width-4))
	case stateConfirmDelete:
		body = a.renderConfirmDelete()
	case stateAlert:
		body = a.renderAlert()
	default:
		body = a.renderBrowser(width)
	}

	sections := []string{header, a.renderSummaryCards(width), body}
	if a.state == stateImportPrompt {
		sections = append(sections, a.renderImportPrompt())
	}
	if snack := a.renderSnackbar(); snack != "" {
		sections = append(sections, snack)
	}
	if logPanel := a.renderLogPanel(width); logPanel != "" {
		sections = append(sections, logPanel)
	}
	footer := hintStyle.Render(a.statusMsg)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

func (a *App) renderSummaryCards(width int) string {
	s := task.Summarize(a.store.All())
	cards := []struct {
		label string
		value string
		color string
	}{
		{"Total Revenue", s.TotalRevenueText(), "#7BC67B"},
		{"Efficiency", s.EfficiencyText(), "#5B8DEF"},
		{"Avg ROI", s.AvgROIText(), "#B48EF0"},
		{"Score", "Grade " + string(s.Grade), "#F5A05B"},
	}
	cardWidth := max(16, (width-8)/4-2)
	rendered := make([]string, 0, len(cards))
	for _, card := range cards {
		label := hintStyle.Render(card.label)
		value := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(card.color)).Render(card.value)
		rendered = append(rendered, panelStyle.Width(cardWidth).Render(label+"\n"+value))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (a *App) renderBrowser(width int) string {
	controls := a.renderControls()
	var list string
	if len(a.visible) == 0 {
		list = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(1, 2).
			Render(emptyTableMessage)
	} else {
		list = a.table.View()
	}
	hint := hintStyle.Render("a add · e edit · d delete · enter view · / search · s status · p priority · x export · i import · q quit")
	return panelStyle.Width(max(40, width-2)).Render(lipgloss.JoinVertical(lipgloss.Left, controls, "", list, "", hint))
}

func (a *App) renderControls() string {
	search := a.search.View()
	if a.state != stateSearch && strings.TrimSpace(a.filter.Search) == "" {
		search = hintStyle.Render("/ search tasks...")
	}
	status := fmt.Sprintf("status: %s", filterLabel(a.filter.Status))
	priority := fmt.Sprintf("priority: %s", filterLabel(a.filter.Priority))
	count := fmt.Sprintf("%d of %d task(s)", len(a.visible), a.store.Len())
	return strings.Join([]string{search, status, priority, hintStyle.Render(count)}, "   ")
}

func filterLabel(value string) string {
	if value == "" || value == task.All {
		return "All"
	}
	return badge(value).Render(value)
}

func (a *App) renderTaskDetails(width int) string {
	t := a.selected
	created := "unknown"
	if !t.CreatedAt.IsZero() {
		created = t.CreatedAt.Local().Format("2006-01-02 15:04")
	}
	notes := strings.TrimSpace(t.Notes)
	if notes == "" {
		notes = hintStyle.Render("(no notes)")
	}
	rows := [][2]string{
		{"Revenue", fmt.Sprintf("$%.2f", t.Revenue)},
		{"Time Taken", task.FormatNumber(t.TimeTaken) + " hours"},
		{"ROI", fmt.Sprintf("%.2f", t.ROI)},
		{"Priority", badge(string(t.Priority)).Render(string(t.Priority))},
		{"Status", badge(string(t.Status)).Render(string(t.Status))},
		{"Created", created},
		{"Notes", notes},
	}
	lines := []string{titleStyle.Render(t.Title), ""}
	for _, row := range rows {
		lines = append(lines, fmt.Sprintf("%-11s %s", row[0], row[1]))
	}
	lines = append(lines, "", hintStyle.Render("e edit · d delete · esc close"))
	return dialogStyle.Width(max(40, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderConfirmDelete() string {
	lines := []string{
		titleStyle.Render("Delete Task"),
		"",
		fmt.Sprintf("Delete %q? You can undo for %s.", a.selected.Title, a.store.UndoWindow()),
		"",
		hintStyle.Render("y/enter delete · n/esc cancel"),
	}
	return dialogStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderAlert() string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).Render(a.alert),
		"",
		hintStyle.Render("press any key"),
	}
	return alertStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderImportPrompt() string {
	lines := []string{
		titleStyle.Render("Import CSV"),
		a.importPath.View(),
		hintStyle.Render("comma-separate several files · enter import · esc cancel"),
	}
	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderSnackbar() string {
	if a.snackbar == nil {
		return ""
	}
	text := fmt.Sprintf("Task deleted: %q   u undo · z dismiss", a.snackbar.Task.Title)
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#333333")).
		Padding(0, 1).
		Render(text)
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	entries, total := a.logbook.Tail(logPanelLines)
	if len(entries) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s (%d)", fileName, total))
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = logLine(e)
	}
	body := strings.Join(lines, "\n")
	return panelStyle.Width(max(40, width-2)).Render(fmt.Sprintf("%s\n%s", head, body))
}

func logLine(e logbook.Entry) string {
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	level := muted
	switch e.Level {
	case logbook.LevelWarn:
		level = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	case logbook.LevelError:
		level = lipgloss.NewStyle().Foreground(lipgloss.Color("#E06C75"))
	}
	stamp := "--:--:--"
	if !e.Time.IsZero() {
		stamp = e.Time.Local().Format("15:04:05")
	}
	return muted.Render(stamp) + " " + level.Render(fmt.Sprintf("%-5s", e.Level)) + " " + muted.Render(e.Message)
}
