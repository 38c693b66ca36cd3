package tui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/roitrack/internal/session"
	"github.com/kingrea/roitrack/internal/storage"
	"github.com/kingrea/roitrack/internal/task"
)

func TestAddTaskThroughForm(t *testing.T) {
	app := newTestApp(t)
	app = press(t, app, keyRune('a'))
	if app.state != stateForm {
		t.Fatalf("expected form state, got %d", app.state)
	}
	app = press(t, app, typed("Write docs"), key(tea.KeyTab), typed("150"), key(tea.KeyTab), typed("3"), key(tea.KeyCtrlS))
	if app.state != stateBrowse {
		t.Fatalf("expected browse state after submit, got %d", app.state)
	}
	tasks := app.store.All()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Title != "Write docs" || got.ROI != 50 {
		t.Fatalf("unexpected task %+v", got)
	}
	if got.Priority != task.PriorityMedium || got.Status != task.StatusPending {
		t.Fatalf("expected default enums, got %s/%s", got.Priority, got.Status)
	}
	if !strings.Contains(app.statusMsg, "Added") {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestMissingFieldsRaiseAlert(t *testing.T) {
	app := newTestApp(t)
	app = press(t, app, keyRune('a'), typed("Only a title"), key(tea.KeyCtrlS))
	if app.state != stateAlert {
		t.Fatalf("expected alert state, got %d", app.state)
	}
	if app.alert != "Please fill in all required fields" {
		t.Fatalf("alert = %q", app.alert)
	}
	if app.store.Len() != 0 {
		t.Fatalf("failed validation must not add a task")
	}
	app = press(t, app, keyRune('x'))
	if app.state != stateForm || app.form == nil {
		t.Fatalf("dismissing the alert should return to the form")
	}
}

func TestEditCyclesPriorityAndKeepsIdentity(t *testing.T) {
	app := newTestApp(t)
	seeded := seed(t, app, "Refactor", 100, 4)
	app = press(t, app, keyRune('e'))
	if app.form == nil || app.form.mode != formEdit {
		t.Fatalf("expected edit form")
	}
	app = press(t, app, key(tea.KeyTab), key(tea.KeyTab), key(tea.KeyTab), key(tea.KeyRight), key(tea.KeyCtrlS))
	got, ok := app.store.Get(seeded.ID)
	if !ok {
		t.Fatalf("edited task missing")
	}
	if got.Priority != task.PriorityHigh {
		t.Fatalf("priority = %s, want high", got.Priority)
	}
	if got.Title != "Refactor" || got.ROI != 25 || !got.CreatedAt.Equal(seeded.CreatedAt) {
		t.Fatalf("unexpected edit result %+v", got)
	}
}

func TestDeleteAndUndo(t *testing.T) {
	app := newTestApp(t)
	seeded := seed(t, app, "Disposable", 10, 1)
	app = press(t, app, keyRune('d'))
	if app.state != stateConfirmDelete {
		t.Fatalf("expected confirm dialog, got %d", app.state)
	}
	model, cmd := app.Update(keyRune('y'))
	app = model.(*App)
	if cmd == nil {
		t.Fatalf("delete should schedule the undo expiry")
	}
	if app.store.Len() != 0 || app.snackbar == nil {
		t.Fatalf("expected task removed and snackbar shown")
	}
	if !strings.Contains(app.View(), "Task deleted") {
		t.Fatalf("snackbar not rendered")
	}
	app = press(t, app, keyRune('u'))
	if _, ok := app.store.Get(seeded.ID); !ok {
		t.Fatalf("undo did not restore the task")
	}
	if app.snackbar != nil {
		t.Fatalf("snackbar should close after undo")
	}
	app = press(t, app, keyRune('u'))
	if app.store.Len() != 1 || app.statusMsg != "Nothing to undo" {
		t.Fatalf("second undo should be a no-op, status %q", app.statusMsg)
	}
}

func TestStaleUndoExpiryKeepsNewerSnackbar(t *testing.T) {
	app := newTestApp(t)
	seed(t, app, "First", 10, 1)
	seed(t, app, "Second", 20, 1)
	app = press(t, app, keyRune('d'), keyRune('y'))
	first := app.snackbar.Seq
	app = press(t, app, keyRune('d'), keyRune('y'))
	second := app.snackbar.Seq

	model, _ := app.Update(undoExpiredMsg{seq: first})
	app = model.(*App)
	if app.snackbar == nil || app.snackbar.Seq != second {
		t.Fatalf("stale expiry cleared the newer snackbar")
	}
	model, _ = app.Update(undoExpiredMsg{seq: second})
	app = model.(*App)
	if app.snackbar != nil {
		t.Fatalf("matching expiry should close the snackbar")
	}
	if _, ok := app.store.PendingUndo(); ok {
		t.Fatalf("undo slot should be empty after expiry")
	}
}

func TestDismissSnackbar(t *testing.T) {
	app := newTestApp(t)
	seed(t, app, "Gone", 1, 1)
	app = press(t, app, keyRune('d'), keyRune('y'), keyRune('z'))
	if app.snackbar != nil {
		t.Fatalf("dismiss should close the snackbar")
	}
	app = press(t, app, keyRune('u'))
	if app.store.Len() != 0 {
		t.Fatalf("undo after dismiss should not restore")
	}
}

func TestSearchAndFilters(t *testing.T) {
	app := newTestApp(t)
	seed(t, app, "Project plan", 10, 1)
	seed(t, app, "Invoice", 50, 1)
	app = press(t, app, keyRune('/'), typed("PROJ"), key(tea.KeyEnter))
	if len(app.visible) != 1 || app.visible[0].Title != "Project plan" {
		t.Fatalf("search result = %+v", app.visible)
	}
	app = press(t, app, keyRune('/'), key(tea.KeyEsc))
	if len(app.visible) != 2 {
		t.Fatalf("clearing search should show every task")
	}
	if app.visible[0].Title != "Invoice" {
		t.Fatalf("expected highest ROI first, got %s", app.visible[0].Title)
	}
	app = press(t, app, keyRune('s'))
	if app.filter.Status != string(task.StatusPending) || len(app.visible) != 2 {
		t.Fatalf("status filter = %s, visible %d", app.filter.Status, len(app.visible))
	}
	app = press(t, app, keyRune('s'))
	if len(app.visible) != 0 {
		t.Fatalf("no task is in progress")
	}
	if !strings.Contains(app.View(), emptyTableMessage) {
		t.Fatalf("empty table message missing")
	}
}

func TestExportWritesCSV(t *testing.T) {
	app := newTestApp(t)
	seed(t, app, "Fix bug", 100, 2)
	app = press(t, app, keyRune('x'))
	data, err := os.ReadFile(app.config.ExportPath())
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "Title,Revenue,Time Taken,ROI,Priority,Status,Notes\nFix bug,100,2,50,medium,pending,"
	if string(data) != want {
		t.Fatalf("export = %q, want %q", data, want)
	}
}

func TestImportAppendsRecords(t *testing.T) {
	app := newTestApp(t)
	seed(t, app, "Existing", 1, 1)
	csv := "Title,Revenue,Time Taken,ROI,Priority,Status,Notes\nA,100,4,,high,completed,\nB,oops,,,,,\n"
	if err := os.WriteFile(filepath.Join(app.config.ProjectDir, "in.csv"), []byte(csv), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	app = press(t, app, keyRune('i'), typed("in.csv"))
	model, cmd := app.Update(key(tea.KeyEnter))
	app = model.(*App)
	if cmd == nil {
		t.Fatalf("expected an import command")
	}
	app = runCommands(t, app, cmd)
	if app.store.Len() != 3 {
		t.Fatalf("expected 3 tasks after import, got %d", app.store.Len())
	}
	if !strings.Contains(app.statusMsg, "Imported 2 task(s)") {
		t.Fatalf("status = %q", app.statusMsg)
	}
}

func TestImportMissingFileReportsError(t *testing.T) {
	app := newTestApp(t)
	app = press(t, app, keyRune('i'), typed("nope.csv"))
	model, cmd := app.Update(key(tea.KeyEnter))
	app = runCommands(t, model.(*App), cmd)
	if !strings.HasPrefix(app.statusMsg, "Import failed") {
		t.Fatalf("status = %q", app.statusMsg)
	}
	if app.store.Len() != 0 {
		t.Fatalf("failed import must not change the collection")
	}
}

func TestViewDialogShowsDetails(t *testing.T) {
	app := newTestApp(t)
	seed(t, app, "Audit", 30, 2)
	app = press(t, app, key(tea.KeyEnter))
	if app.state != stateView {
		t.Fatalf("expected view state, got %d", app.state)
	}
	out := app.View()
	for _, want := range []string{"Audit", "$30.00", "15.00", "Created"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q", want)
		}
	}
	app = press(t, app, key(tea.KeyEsc))
	if app.state != stateBrowse {
		t.Fatalf("esc should close the dialog")
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	sess, err := session.Open(context.Background(), t.TempDir(), session.WithBackend(storage.NewMemoryBackend()))
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	t.Cleanup(func() { _ = sess.Close() })
	return NewApp(sess)
}

func seed(t *testing.T, app *App, title string, revenue, hours float64) task.Task {
	t.Helper()
	created, err := app.store.Add(context.Background(), task.Draft{
		Title:     title,
		Revenue:   revenue,
		TimeTaken: hours,
		Priority:  task.DefaultPriority,
		Status:    task.DefaultStatus,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", title, err)
	}
	app.refresh()
	return created
}

func key(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func typed(text string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)}
}

// press feeds key messages through Update, discarding the commands.
func press(t *testing.T, app *App, msgs ...tea.Msg) *App {
	t.Helper()
	for _, msg := range msgs {
		model, _ := app.Update(msg)
		next, ok := model.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", model)
		}
		app = next
	}
	return app
}

func runCommands(t *testing.T, app *App, cmd tea.Cmd) *App {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		var ok bool
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}
