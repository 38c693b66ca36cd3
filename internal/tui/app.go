// internal/tui/app.go
//
// This is the main TUI for roitrack. It uses bubbletea, which follows The Elm
// Architecture:
//
// 1. Model: the App struct below
// 2. Update: reacts to key presses, window sizes, timers and file reads
// 3. View: renders the summary cards, task table and dialogs (view.go)
//
// All store mutations happen inside Update, so there is exactly one writer.

package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"

	"github.com/kingrea/roitrack/internal/config"
	"github.com/kingrea/roitrack/internal/csvio"
	"github.com/kingrea/roitrack/internal/logbook"
	"github.com/kingrea/roitrack/internal/session"
	"github.com/kingrea/roitrack/internal/store"
	"github.com/kingrea/roitrack/internal/task"
)

// appState represents which "screen" we're on
type appState int

const (
	stateBrowse        appState = iota // task table with controls
	stateSearch                        // typing into the search box
	stateImportPrompt                  // asking for CSV path(s)
	stateForm                          // add/edit dialog
	stateView                          // read-only task details
	stateConfirmDelete                 // delete confirmation
	stateAlert                         // blocking validation alert
)

const logPanelLines = 6

// undoExpiredMsg is delivered when a delete's undo window elapses.
type undoExpiredMsg struct {
	seq uint64
}

// importLoadedMsg carries decoded CSV records back into Update.
type importLoadedMsg struct {
	source string
	tasks  []task.Task
	err    error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithContext sets the context used for store and file operations.
func WithContext(ctx context.Context) AppOption {
	return func(a *App) {
		if ctx != nil {
			a.ctx = ctx
		}
	}
}

// App is the main application model.
type App struct {
	state       appState
	alertReturn appState
	ctx         context.Context

	config  *config.Config
	store   *store.Store
	logbook *logbook.Logbook
	locale  language.Tag

	filter     task.Filter
	visible    []task.Task
	table      table.Model
	search     textinput.Model
	importPath textinput.Model
	form       *taskForm
	selected   task.Task
	snackbar   *store.UndoTicket
	alert      string
	statusMsg  string

	width  int
	height int
}

// NewApp builds the TUI over an opened session.
func NewApp(sess *session.Session, opts ...AppOption) *App {
	search := textinput.New()
	search.Prompt = "/ "
	search.Placeholder = "search tasks..."
	search.CharLimit = 120
	search.Width = 30

	importPath := textinput.New()
	importPath.Prompt = "path: "
	importPath.Placeholder = "tasks.csv"
	importPath.Width = 60

	tbl := table.New(
		table.WithColumns(tableColumns(100)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	tbl.SetStyles(tableStyles())

	app := &App{
		state:      stateBrowse,
		ctx:        context.Background(),
		config:     sess.Config,
		store:      sess.Store,
		logbook:    sess.Logbook,
		locale:     task.ParseLocale(sess.Config.Locale()),
		filter:     task.Filter{Status: sess.Config.DefaultStatusFilter(), Priority: sess.Config.DefaultPriorityFilter()},
		table:      tbl,
		search:     search,
		importPath: importPath,
		statusMsg:  "Press 'a' to add a task.",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.refresh()
	app.logInfo("Session opened · %d task(s)", app.store.Len())
	return app
}

func (a *App) logInfo(format string, args ...any) {
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.table.SetColumns(tableColumns(msg.Width))
		a.table.SetHeight(max(5, msg.Height-22))
		return a, nil

	case undoExpiredMsg:
		a.store.ExpireUndo(msg.seq)
		if a.snackbar != nil && a.snackbar.Seq == msg.seq {
			a.snackbar = nil
		}
		return a, nil

	case importLoadedMsg:
		a.applyImport(msg)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		switch a.state {
		case stateSearch:
			return a.updateSearch(msg)
		case stateImportPrompt:
			return a.updateImportPrompt(msg)
		case stateForm:
			return a.updateForm(msg)
		case stateView:
			return a.updateView(msg)
		case stateConfirmDelete:
			return a.updateConfirmDelete(msg)
		case stateAlert:
			a.state = a.alertReturn
			a.alert = ""
			return a, nil
		default:
			return a.updateBrowse(msg)
		}
	}

	var cmd tea.Cmd
	switch a.state {
	case stateForm:
		if a.form != nil {
			cmd = a.form.Update(msg)
		}
	case stateSearch:
		a.search, cmd = a.search.Update(msg)
	case stateImportPrompt:
		a.importPath, cmd = a.importPath.Update(msg)
	}
	return a, cmd
}

func (a *App) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return a, tea.Quit
	case "/":
		a.state = stateSearch
		return a, a.search.Focus()
	case "s":
		a.filter.Status = nextFilter(a.filter.Status, statusLabels())
		a.refresh()
	case "p":
		a.filter.Priority = nextFilter(a.filter.Priority, priorityLabels())
		a.refresh()
	case "a":
		return a.openForm(formAdd, nil)
	case "e":
		if t, ok := a.selectedTask(); ok {
			return a.openForm(formEdit, &t)
		}
	case "d":
		if t, ok := a.selectedTask(); ok {
			a.selected = t
			a.state = stateConfirmDelete
		}
	case "enter":
		if t, ok := a.selectedTask(); ok {
			a.selected = t
			a.state = stateView
		}
	case "x":
		a.exportTasks()
	case "i":
		a.state = stateImportPrompt
		a.importPath.SetValue("")
		return a, a.importPath.Focus()
	case "u":
		a.undoDelete()
	case "esc", "z":
		a.dismissSnackbar()
	default:
		var cmd tea.Cmd
		a.table, cmd = a.table.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.search.Blur()
		a.state = stateBrowse
		return a, nil
	case "esc":
		a.search.SetValue("")
		a.search.Blur()
		a.state = stateBrowse
		a.filter.Search = ""
		a.refresh()
		return a, nil
	}
	var cmd tea.Cmd
	a.search, cmd = a.search.Update(msg)
	a.filter.Search = a.search.Value()
	a.refresh()
	return a, cmd
}

func (a *App) updateImportPrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.importPath.Blur()
		a.state = stateBrowse
		return a, nil
	case "enter":
		a.importPath.Blur()
		a.state = stateBrowse
		paths := a.resolvePaths(a.importPath.Value())
		if len(paths) == 0 {
			a.statusMsg = "No file selected"
			return a, nil
		}
		a.statusMsg = "Importing..."
		return a, a.loadImport(paths)
	}
	var cmd tea.Cmd
	a.importPath, cmd = a.importPath.Update(msg)
	return a, cmd
}

func (a *App) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.form = nil
		a.state = stateBrowse
		a.statusMsg = "Cancelled"
		return a, nil
	case "ctrl+s":
		a.submitForm()
		return a, nil
	}
	return a, a.form.Update(msg)
}

func (a *App) updateView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "enter", "q":
		a.state = stateBrowse
	case "e":
		t := a.selected
		return a.openForm(formEdit, &t)
	case "d":
		a.state = stateConfirmDelete
	}
	return a, nil
}

func (a *App) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		return a, a.deleteSelected()
	case "n", "N", "esc":
		a.state = stateBrowse
		a.statusMsg = "Delete cancelled"
	}
	return a, nil
}

func (a *App) openForm(mode formMode, existing *task.Task) (tea.Model, tea.Cmd) {
	a.form = newTaskForm(mode, existing)
	a.state = stateForm
	return a, a.form.setFocus(fieldTitle)
}

func (a *App) submitForm() {
	draft, err := a.form.Input().Draft()
	if err != nil {
		a.showAlert(alertText(err), stateForm)
		return
	}
	var saved task.Task
	if a.form.mode == formEdit {
		saved, err = a.store.Update(a.ctx, a.form.taskID, draft)
		if errors.Is(err, store.ErrNotFound) {
			a.form = nil
			a.state = stateBrowse
			a.statusMsg = "Task no longer exists"
			a.refresh()
			return
		}
	} else {
		saved, err = a.store.Add(a.ctx, draft)
	}
	if err != nil && saved.ID == "" {
		a.showAlert(alertText(err), stateForm)
		return
	}
	verb := "Added"
	if a.form.mode == formEdit {
		verb = "Updated"
	}
	a.form = nil
	a.state = stateBrowse
	a.statusMsg = fmt.Sprintf("%s %q · ROI %.2f", verb, saved.Title, saved.ROI)
	if err != nil {
		a.statusMsg = fmt.Sprintf("%s %q but saving failed: %v", verb, saved.Title, err)
	}
	a.refresh()
}

func (a *App) deleteSelected() tea.Cmd {
	a.state = stateBrowse
	removed, err := a.store.Remove(a.ctx, a.selected.ID)
	if errors.Is(err, store.ErrNotFound) {
		a.statusMsg = "Task no longer exists"
		a.refresh()
		return nil
	}
	a.selected = task.Task{}
	a.refresh()
	a.statusMsg = fmt.Sprintf("Task deleted: %q", removed.Title)
	if err != nil {
		a.statusMsg = fmt.Sprintf("Deleted %q but saving failed: %v", removed.Title, err)
	}
	ticket, ok := a.store.PendingUndo()
	if !ok {
		a.snackbar = nil
		return nil
	}
	a.snackbar = &ticket
	return a.scheduleUndoExpiry(ticket)
}

func (a *App) scheduleUndoExpiry(ticket store.UndoTicket) tea.Cmd {
	seq := ticket.Seq
	return tea.Tick(a.store.UndoWindow(), func(time.Time) tea.Msg {
		return undoExpiredMsg{seq: seq}
	})
}

func (a *App) undoDelete() {
	a.snackbar = nil
	restored, ok, err := a.store.Undo(a.ctx)
	switch {
	case err != nil && restored.ID == "":
		a.statusMsg = fmt.Sprintf("Undo failed: %v", err)
	case !ok:
		a.statusMsg = "Nothing to undo"
	case err != nil:
		a.statusMsg = fmt.Sprintf("Restored %q but saving failed: %v", restored.Title, err)
	default:
		a.statusMsg = fmt.Sprintf("Restored %q", restored.Title)
	}
	a.refresh()
}

func (a *App) dismissSnackbar() {
	a.store.DismissUndo()
	a.snackbar = nil
}

func (a *App) exportTasks() {
	path := a.config.ExportPath()
	tasks := a.store.All()
	if err := csvio.WriteFile(path, tasks); err != nil {
		a.logError("Export to %s failed: %v", path, err)
		a.statusMsg = fmt.Sprintf("Export failed: %v", err)
		return
	}
	a.logInfo("Exported %d task(s) to %s", len(tasks), path)
	a.statusMsg = fmt.Sprintf("Exported %d task(s) to %s", len(tasks), path)
}

// loadImport reads the files off the Update loop; the result comes back as
// an importLoadedMsg.
func (a *App) loadImport(paths []string) tea.Cmd {
	ctx := a.ctx
	names := make([]string, len(paths))
	for i, path := range paths {
		names[i] = filepath.Base(path)
	}
	source := strings.Join(names, ", ")
	return func() tea.Msg {
		tasks, err := csvio.DecodeFiles(ctx, paths...)
		return importLoadedMsg{source: source, tasks: tasks, err: err}
	}
}

func (a *App) applyImport(msg importLoadedMsg) {
	if msg.err != nil {
		a.logError("Import from %s failed: %v", msg.source, msg.err)
		a.statusMsg = fmt.Sprintf("Import failed: %v", msg.err)
		return
	}
	if len(msg.tasks) == 0 {
		a.statusMsg = fmt.Sprintf("No tasks found in %s", msg.source)
		return
	}
	imported, err := a.store.Import(a.ctx, msg.tasks)
	a.refresh()
	if err != nil && len(imported) == 0 {
		a.statusMsg = fmt.Sprintf("Import failed: %v", err)
		return
	}
	a.statusMsg = fmt.Sprintf("Imported %d task(s) from %s", len(imported), msg.source)
	if err != nil {
		a.statusMsg = fmt.Sprintf("Imported %d task(s) but saving failed: %v", len(imported), err)
	}
}

func (a *App) showAlert(text string, returnTo appState) {
	a.alert = text
	a.alertReturn = returnTo
	a.state = stateAlert
}

// refresh recomputes the visible rows from the store.
func (a *App) refresh() {
	a.visible = task.QueryLocale(a.store.All(), a.filter, a.locale)
	a.table.SetRows(tableRows(a.visible))
	if n := len(a.visible); a.table.Cursor() >= n {
		a.table.SetCursor(max(0, n-1))
	}
}

func (a *App) selectedTask() (task.Task, bool) {
	idx := a.table.Cursor()
	if idx < 0 || idx >= len(a.visible) {
		return task.Task{}, false
	}
	return a.visible[idx], true
}

func (a *App) resolvePaths(value string) []string {
	var paths []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !filepath.IsAbs(part) {
			part = filepath.Join(a.config.ProjectDir, part)
		}
		paths = append(paths, filepath.Clean(part))
	}
	return paths
}

func nextFilter(current string, values []string) string {
	cycle := append([]string{task.All}, values...)
	for i, value := range cycle {
		if value == current {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return task.All
}

func alertText(err error) string {
	if errors.Is(err, task.ErrRequired) {
		return "Please fill in all required fields"
	}
	var verr *task.ValidationError
	if errors.As(err, &verr) {
		return "Invalid " + verr.Error()
	}
	return err.Error()
}
