package csvio

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/roitrack/internal/task"
)

func TestEncodeMatchesExportLayout(t *testing.T) {
	tasks := []task.Task{
		{Title: "Fix bug", Revenue: 100, TimeTaken: 2, ROI: 50, Priority: task.PriorityHigh, Status: task.StatusPending},
		{Title: "Write docs", Revenue: 12.5, TimeTaken: 0.5, ROI: 25, Priority: task.PriorityLow, Status: task.StatusCompleted, Notes: "draft"},
	}
	got, err := EncodeString(tasks)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := strings.Join([]string{
		"Title,Revenue,Time Taken,ROI,Priority,Status,Notes",
		"Fix bug,100,2,50,high,pending,",
		"Write docs,12.5,0.5,25,low,completed,draft",
	}, "\n")
	if got != want {
		t.Fatalf("encode mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestEncodeQuotesSpecialCharacters(t *testing.T) {
	tasks := []task.Task{{Title: `Plan, "big"`, Revenue: 1, TimeTaken: 1, ROI: 1, Priority: task.PriorityMedium, Status: task.StatusPending, Notes: "line1\nline2"}}
	text, err := EncodeString(tasks)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(text, `"Plan, ""big"""`) {
		t.Fatalf("title not quoted: %q", text)
	}
	decoded, err := DecodeString(text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 task, got %d", len(decoded))
	}
	if decoded[0].Title != `Plan, "big"` || decoded[0].Notes != "line1\nline2" {
		t.Fatalf("round trip lost data: %+v", decoded[0])
	}
}

func TestRoundTripRecomputesROI(t *testing.T) {
	original := task.Task{Title: "Fix bug", Revenue: 100, TimeTaken: 2, ROI: 50, Priority: task.PriorityHigh, Status: task.StatusPending}
	text, err := EncodeString([]task.Task{original})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	tampered := strings.Replace(text, ",50,", ",9999,", 1)
	decoded, err := DecodeString(tampered)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != 1 {
		t.Fatalf("expected 1 task, got %d", len(decoded))
	}
	got := decoded[0]
	if got.Title != "Fix bug" || got.Priority != task.PriorityHigh || got.Status != task.StatusPending {
		t.Fatalf("unexpected decoded task %+v", got)
	}
	if got.ROI != 50 {
		t.Fatalf("roi = %v, want 50 recomputed", got.ROI)
	}
	if got.ID != "" || !got.CreatedAt.IsZero() {
		t.Fatalf("decoded task should not carry identity: %+v", got)
	}
}

func TestDecodeDefaults(t *testing.T) {
	text := "Title,Revenue,Time Taken,ROI,Priority,Status,Notes\n" +
		"\n" +
		"  ,abc,xyz,7,,,\n" +
		"Short,40\n" +
		"Negative,-5,-2,0,HIGH,urgent, keep \n" +
		"   \n"
	tasks, err := DecodeString(text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 3 {
		t.Fatalf("expected 3 tasks, got %d: %+v", len(tasks), tasks)
	}

	first := tasks[0]
	if first.Title != UntitledTitle || first.Revenue != 0 || first.TimeTaken != 1 || first.ROI != 0 {
		t.Fatalf("unexpected defaults: %+v", first)
	}
	if first.Priority != task.PriorityMedium || first.Status != task.StatusPending || first.Notes != "" {
		t.Fatalf("unexpected enum defaults: %+v", first)
	}

	short := tasks[1]
	if short.Revenue != 40 || short.TimeTaken != 1 {
		t.Fatalf("unexpected short row: %+v", short)
	}
	if short.ROI != 0 {
		t.Fatalf("roi for missing time = %v, want 0", short.ROI)
	}

	negative := tasks[2]
	if negative.Revenue != 0 || negative.TimeTaken != 1 || negative.ROI != 0 {
		t.Fatalf("negative values not defaulted: %+v", negative)
	}
	if negative.Priority != task.PriorityHigh || negative.Status != task.StatusPending || negative.Notes != "keep" {
		t.Fatalf("unexpected negative row enums: %+v", negative)
	}
}

func TestDecodeConfinesBadQuotingToItsRow(t *testing.T) {
	text := "Title,Revenue,Time Taken,ROI,Priority,Status,Notes\n" +
		"\"Big\" launch,100,2,50,high,pending,\n" +
		"Second,200,2,100,low,pending,\n" +
		"\"Unclosed,40,4,10,low,pending,\n" +
		"Third,300,3,100,low,completed,done\n"
	tasks, err := DecodeString(text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 4 {
		t.Fatalf("expected 4 tasks, got %d: %+v", len(tasks), tasks)
	}
	big := tasks[0]
	if big.Title != `"Big" launch` || big.Revenue != 100 || big.TimeTaken != 2 || big.ROI != 50 || big.Priority != task.PriorityHigh {
		t.Fatalf("unexpected badly quoted row: %+v", big)
	}
	if tasks[1].Title != "Second" || tasks[1].ROI != 100 {
		t.Fatalf("row after bad quoting lost: %+v", tasks[1])
	}
	if tasks[2].Title != `"Unclosed` || tasks[2].Revenue != 40 {
		t.Fatalf("unexpected unclosed row: %+v", tasks[2])
	}
	third := tasks[3]
	if third.Title != "Third" || third.Status != task.StatusCompleted || third.Notes != "done" {
		t.Fatalf("unexpected last row: %+v", third)
	}
}

func TestDecodeQuotedFieldAcrossLines(t *testing.T) {
	text := "Title,Revenue,Time Taken,ROI,Priority,Status,Notes\r\n" +
		"Plan,10,2,5,low,pending,\"first\r\nsecond\"\r\n" +
		"Next,4,2,2,low,pending,\r\n"
	tasks, err := DecodeString(text)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d: %+v", len(tasks), tasks)
	}
	if tasks[0].Notes != "first\nsecond" {
		t.Fatalf("notes = %q", tasks[0].Notes)
	}
	if tasks[1].Title != "Next" {
		t.Fatalf("unexpected second row: %+v", tasks[1])
	}
}

func TestDecodeHeaderOnly(t *testing.T) {
	tasks, err := DecodeString("Title,Revenue,Time Taken,ROI,Priority,Status,Notes")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(tasks))
	}
}

func TestDecodeFilesKeepsArgumentOrder(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	if err := WriteFile(first, []task.Task{{Title: "one", Revenue: 1, TimeTaken: 1, ROI: 1, Priority: task.PriorityLow, Status: task.StatusPending}}); err != nil {
		t.Fatalf("write first: %v", err)
	}
	body := "Title,Revenue,Time Taken,ROI,Priority,Status,Notes\ntwo,4,2,2,high,completed,\nthree,9,3,3,low,pending,"
	if err := os.WriteFile(second, []byte(body), 0o644); err != nil {
		t.Fatalf("write second: %v", err)
	}
	tasks, err := DecodeFiles(context.Background(), first, second)
	if err != nil {
		t.Fatalf("decode files: %v", err)
	}
	var titles []string
	for _, tk := range tasks {
		titles = append(titles, tk.Title)
	}
	if strings.Join(titles, ",") != "one,two,three" {
		t.Fatalf("unexpected order %v", titles)
	}
}

func TestDecodeFilesReportsMissingFile(t *testing.T) {
	_, err := DecodeFiles(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}
