// Package task defines the task record and the pure computations the tracker
// runs over it: ROI, filtering and ordering, and summary statistics.
package task

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority in display order.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities for sorting: high=3, medium=2, low=1.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Status tracks how far along a task is.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

const (
	DefaultPriority = PriorityMedium
	DefaultStatus   = StatusPending
)

// Task is one tracked unit of work. ROI is derived from Revenue and TimeTaken
// and is never edited directly.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Revenue   float64   `json:"revenue"`
	TimeTaken float64   `json:"timeTaken"`
	ROI       float64   `json:"roi"`
	Priority  Priority  `json:"priority"`
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Apply replaces every editable field with the draft's values and recomputes
// ROI. ID and CreatedAt are left untouched.
func (t Task) Apply(d Draft) Task {
	t.Title = d.Title
	t.Revenue = d.Revenue
	t.TimeTaken = d.TimeTaken
	t.Priority = d.Priority
	t.Status = d.Status
	t.Notes = d.Notes
	t.ROI = CalculateROI(d.Revenue, d.TimeTaken)
	return t
}

// Draft is a validated set of editable fields, used for both add and edit.
type Draft struct {
	Title     string
	Revenue   float64
	TimeTaken float64
	Priority  Priority
	Status    Status
	Notes     string
}

// Validate checks the draft against the record invariants.
func (d Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}
	if !validAmount(d.Revenue) {
		return &ValidationError{Field: "revenue", Reason: "must be a non-negative number"}
	}
	if !validAmount(d.TimeTaken) {
		return &ValidationError{Field: "timeTaken", Reason: "must be a non-negative number"}
	}
	if !d.Priority.Valid() {
		return &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", d.Priority)}
	}
	if !d.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", d.Status)}
	}
	return nil
}

// DraftOf returns the editable fields of an existing task.
func DraftOf(t Task) Draft {
	return Draft{
		Title:     t.Title,
		Revenue:   t.Revenue,
		TimeTaken: t.TimeTaken,
		Priority:  t.Priority,
		Status:    t.Status,
		Notes:     t.Notes,
	}
}

// Input holds the raw text of an add/edit form.
type Input struct {
	Title     string
	Revenue   string
	TimeTaken string
	Priority  string
	Status    string
	Notes     string
}

// InputOf pre-fills a form from an existing task.
func InputOf(t Task) Input {
	return Input{
		Title:     t.Title,
		Revenue:   FormatNumber(t.Revenue),
		TimeTaken: FormatNumber(t.TimeTaken),
		Priority:  string(t.Priority),
		Status:    string(t.Status),
		Notes:     t.Notes,
	}
}

// ErrRequired is wrapped by validation errors for missing form fields.
var ErrRequired = errors.New("please fill in all required fields")

// ErrInvalid is wrapped by every ValidationError.
var ErrInvalid = errors.New("task: invalid")

// ValidationError names the offending field.
type ValidationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil && e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalid, e.Err}
	}
	return []error{ErrInvalid}
}

// Draft converts the form text into a typed draft. Title, revenue and time
// taken are required; empty priority and status select the defaults.
func (in Input) Draft() (Draft, error) {
	title := strings.TrimSpace(in.Title)
	revenue := strings.TrimSpace(in.Revenue)
	timeTaken := strings.TrimSpace(in.TimeTaken)
	switch {
	case title == "":
		return Draft{}, &ValidationError{Field: "title", Err: ErrRequired}
	case revenue == "":
		return Draft{}, &ValidationError{Field: "revenue", Err: ErrRequired}
	case timeTaken == "":
		return Draft{}, &ValidationError{Field: "timeTaken", Err: ErrRequired}
	}
	rev, ok := ParseNumber(revenue)
	if !ok {
		return Draft{}, &ValidationError{Field: "revenue", Reason: fmt.Sprintf("%q is not a number", revenue)}
	}
	hours, ok := ParseNumber(timeTaken)
	if !ok {
		return Draft{}, &ValidationError{Field: "timeTaken", Reason: fmt.Sprintf("%q is not a number", timeTaken)}
	}
	draft := Draft{
		Title:     title,
		Revenue:   rev,
		TimeTaken: hours,
		Priority:  ParsePriority(in.Priority, DefaultPriority),
		Status:    ParseStatus(in.Status, DefaultStatus),
		Notes:     strings.TrimSpace(in.Notes),
	}
	if p := normalizeEnum(in.Priority); p != "" && !Priority(p).Valid() {
		return Draft{}, &ValidationError{Field: "priority", Reason: fmt.Sprintf("unknown value %q", p)}
	}
	if s := normalizeEnum(in.Status); s != "" && !Status(s).Valid() {
		return Draft{}, &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown value %q", s)}
	}
	if err := draft.Validate(); err != nil {
		return Draft{}, err
	}
	return draft, nil
}

// ParsePriority lower-cases and trims value, returning fallback when it is
// empty or unknown.
func ParsePriority(value string, fallback Priority) Priority {
	p := Priority(normalizeEnum(value))
	if p.Valid() {
		return p
	}
	return fallback
}

// ParseStatus lower-cases and trims value, returning fallback when it is
// empty or unknown.
func ParseStatus(value string, fallback Status) Status {
	s := Status(normalizeEnum(value))
	if s.Valid() {
		return s
	}
	return fallback
}

func normalizeEnum(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func validAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
