// Package logbook records tracker activity (loads, edits, deletes, imports,
// exports and failures) as one line per entry in a plain text file.
//
// A line looks like:
//
//	2026-10-16T09:30:00Z WARN  Tasks payload unreadable, backed up to tasks.corrupt
//
// The most recent entries are also kept in memory so the TUI log panel can
// render them on every frame without touching the file.
package logbook

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Level represents the severity of a log entry.
type Level string

const (
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

// DefaultMemory is how many recent entries a Logbook keeps in memory.
const DefaultMemory = 64

// Entry is a single logbook line.
type Entry struct {
	Time    time.Time
	Level   Level
	Message string
}

// String formats the entry the way it is written to the file.
func (e Entry) String() string {
	return fmt.Sprintf("%s %-5s %s", e.Time.UTC().Format(time.RFC3339), string(e.Level), e.Message)
}

// parseEntry reverses String. Lines written by something else are kept as an
// INFO entry with the whole line as the message and a zero time.
func parseEntry(line string) Entry {
	stamp, rest, ok := strings.Cut(line, " ")
	if ok {
		if ts, err := time.Parse(time.RFC3339, stamp); err == nil {
			level, message, _ := strings.Cut(strings.TrimLeft(rest, " "), " ")
			switch Level(level) {
			case LevelInfo, LevelWarn, LevelError:
				return Entry{Time: ts, Level: Level(level), Message: strings.TrimLeft(message, " ")}
			}
		}
	}
	return Entry{Level: LevelInfo, Message: line}
}

// Logbook appends entries to a file and remembers the latest few.
// All methods are safe on a nil *Logbook.
type Logbook struct {
	path   string
	now    func() time.Time
	memory int

	mu     sync.Mutex
	recent []Entry
	total  int
}

// Option customizes a Logbook.
type Option func(*Logbook)

// WithClock overrides the timestamp source.
func WithClock(clock func() time.Time) Option {
	return func(l *Logbook) {
		if clock != nil {
			l.now = clock
		}
	}
}

// WithMemory sets how many recent entries Tail can return.
func WithMemory(n int) Option {
	return func(l *Logbook) {
		if n > 0 {
			l.memory = n
		}
	}
}

// New opens the logbook at path, reading any entries a previous session
// left behind.
func New(path string, opts ...Option) (*Logbook, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	l := &Logbook{path: path, now: time.Now, memory: DefaultMemory}
	for _, opt := range opts {
		opt(l)
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Logbook) load() error {
	file, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			l.remember(parseEntry(line))
		}
	}
	return scanner.Err()
}

func (l *Logbook) remember(e Entry) {
	l.total++
	l.recent = append(l.recent, e)
	if over := len(l.recent) - l.memory; over > 0 {
		l.recent = append(l.recent[:0], l.recent[over:]...)
	}
}

// Path returns the file backing this logbook.
func (l *Logbook) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Append records a single entry. Line breaks in message are folded into
// spaces so each entry stays on one line.
func (l *Logbook) Append(level Level, message string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	entry := Entry{
		Time:    l.now().UTC().Truncate(time.Second),
		Level:   level,
		Message: strings.Join(strings.Fields(message), " "),
	}
	l.remember(entry)
	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer file.Close()
	_, _ = file.WriteString(entry.String() + "\n")
}

// Tail returns up to n of the most recent entries, oldest first, and the
// number of entries the logbook holds in total.
func (l *Logbook) Tail(n int) ([]Entry, int) {
	if l == nil || n <= 0 {
		return nil, 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.recent) == 0 {
		return nil, l.total
	}
	start := max(0, len(l.recent)-n)
	out := make([]Entry, len(l.recent)-start)
	copy(out, l.recent[start:])
	return out, l.total
}

// Info appends an informational entry.
func (l *Logbook) Info(format string, args ...any) {
	l.Append(LevelInfo, fmt.Sprintf(format, args...))
}

// Warn appends a warning entry.
func (l *Logbook) Warn(format string, args ...any) {
	l.Append(LevelWarn, fmt.Sprintf(format, args...))
}

// Error appends an error entry.
func (l *Logbook) Error(format string, args ...any) {
	l.Append(LevelError, fmt.Sprintf(format, args...))
}
