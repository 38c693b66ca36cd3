package logbook

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestTailReturnsRecentEntriesAndTotal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "session.log")
	book, err := New(path)
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	for i := 0; i < 5; i++ {
		book.Info("entry-%d", i)
	}
	entries, total := book.Tail(3)
	if total != 5 {
		t.Fatalf("total entries = %d, want 5", total)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	for idx, want := range []string{"entry-2", "entry-3", "entry-4"} {
		if entries[idx].Message != want {
			t.Fatalf("entry %d = %q, want %s", idx, entries[idx].Message, want)
		}
	}
}

func TestEntriesAreWrittenOneLineEach(t *testing.T) {
	fixed := time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "session.log")
	book, err := New(path, WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Warn("storage %s slow", "file")
	book.Error("  import failed:\nline 2\r\n  bad  ")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	want := "2026-10-16T09:30:00Z WARN  storage file slow\n" +
		"2026-10-16T09:30:00Z ERROR import failed: line 2 bad\n"
	if string(data) != want {
		t.Fatalf("log file = %q, want %q", data, want)
	}
}

func TestNewReadsPreviousSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.log")
	body := "2026-10-16T09:30:00Z INFO  Loaded 2 task(s) from tasks.json\n" +
		"not a logbook line\n" +
		"2026-10-16T09:31:00Z WARN  Dropped 1 unreadable record(s)\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("seed log: %v", err)
	}
	book, err := New(path, WithMemory(2))
	if err != nil {
		t.Fatalf("new logbook: %v", err)
	}
	book.Error("Export failed")
	entries, total := book.Tail(10)
	if total != 4 {
		t.Fatalf("total = %d, want 4", total)
	}
	if len(entries) != 2 {
		t.Fatalf("memory not bounded: %+v", entries)
	}
	warn := entries[0]
	if warn.Level != LevelWarn || warn.Message != "Dropped 1 unreadable record(s)" {
		t.Fatalf("unexpected parsed entry %+v", warn)
	}
	if !warn.Time.Equal(time.Date(2026, 10, 16, 9, 31, 0, 0, time.UTC)) {
		t.Fatalf("time = %v", warn.Time)
	}
	if entries[1].Level != LevelError || entries[1].Message != "Export failed" {
		t.Fatalf("unexpected new entry %+v", entries[1])
	}
}

func TestParseEntryKeepsForeignLines(t *testing.T) {
	e := parseEntry("random text")
	if e.Level != LevelInfo || e.Message != "random text" || !e.Time.IsZero() {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func TestNilLogbookIsSafe(t *testing.T) {
	var book *Logbook
	book.Info("ignored")
	if entries, total := book.Tail(5); entries != nil || total != 0 {
		t.Fatalf("expected empty tail from nil logbook")
	}
	if book.Path() != "" {
		t.Fatalf("expected empty path")
	}
}
