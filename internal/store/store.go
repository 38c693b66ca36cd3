// Package store owns the canonical task collection and the single pending
// undo slot, and mirrors the collection into local storage after every
// mutation.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kingrea/roitrack/internal/logbook"
	"github.com/kingrea/roitrack/internal/storage"
	"github.com/kingrea/roitrack/internal/task"
)

var (
	// ErrNotFound is returned when an id is not in the collection.
	ErrNotFound = errors.New("store: task not found")
	// ErrDuplicateID is returned when restoring a task whose id is live.
	ErrDuplicateID = errors.New("store: duplicate task id")
	// ErrNotInitialized is returned by mutations issued before Init.
	ErrNotInitialized = errors.New("store: not initialized")
)

const (
	// DefaultKey is the storage key holding the collection.
	DefaultKey = "tasks"
	// DefaultUndoWindow is how long a deleted task stays restorable.
	DefaultUndoWindow = 5 * time.Second
)

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	backend    storage.Backend
	key        string
	now        func() time.Time
	newID      func() string
	undoWindow time.Duration
	logbook    *logbook.Logbook

	initialized bool
	tasks       []task.Task
	undo        undoSlot
}

// Option customizes a Store during construction.
type Option func(*Store)

// WithClock overrides the clock used for CreatedAt and undo expiry.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides how task ids are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithUndoWindow sets how long a deleted task can be restored.
func WithUndoWindow(window time.Duration) Option {
	return func(s *Store) {
		if window > 0 {
			s.undoWindow = window
		}
	}
}

// WithKey sets the storage key the collection is kept under.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithLogbook records loads, mutations and failures.
func WithLogbook(lb *logbook.Logbook) Option {
	return func(s *Store) {
		s.logbook = lb
	}
}

// New builds a store over backend. Call Init before mutating it.
func New(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend:    backend,
		key:        DefaultKey,
		now:        time.Now,
		newID:      uuid.NewString,
		undoWindow: DefaultUndoWindow,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init loads the collection from storage. Only the first successful call
// does any work; later calls return nil immediately.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	tasks, err := s.load(ctx)
	if err != nil {
		s.logbook.Error("Loading tasks from %s failed: %v", s.location(), err)
		return err
	}
	s.tasks = tasks
	s.initialized = true
	s.logbook.Info("Loaded %d task(s) from %s", len(tasks), s.location())
	return nil
}

// UndoWindow returns the configured undo window.
func (s *Store) UndoWindow() time.Duration {
	return s.undoWindow
}

// All returns a copy of the collection in insertion order.
func (s *Store) All() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]task.Task(nil), s.tasks...)
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Get looks up a task by id.
func (s *Store) Get(id string) (task.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return task.Task{}, false
	}
	return s.tasks[idx], true
}

// Add validates the draft, assigns an id and creation time, computes ROI and
// appends the new task.
func (s *Store) Add(ctx context.Context, d task.Draft) (task.Task, error) {
	if err := d.Validate(); err != nil {
		return task.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return task.Task{}, ErrNotInitialized
	}
	id, err := s.mintID()
	if err != nil {
		return task.Task{}, err
	}
	created := task.Task{ID: id, CreatedAt: s.now().UTC()}.Apply(d)
	s.tasks = append(s.tasks, created)
	s.logbook.Info("Added %q · roi %.2f", created.Title, created.ROI)
	return created, s.persist(ctx)
}

// Update replaces every editable field of the task with the draft, keeping
// its id and creation time, and recomputes ROI.
func (s *Store) Update(ctx context.Context, id string, d task.Draft) (task.Task, error) {
	if err := d.Validate(); err != nil {
		return task.Task{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return task.Task{}, ErrNotInitialized
	}
	idx := s.indexOf(id)
	if idx < 0 {
		s.logbook.Warn("Update skipped: task %s not found", id)
		return task.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.tasks[idx] = s.tasks[idx].Apply(d)
	s.logbook.Info("Updated %q · roi %.2f", s.tasks[idx].Title, s.tasks[idx].ROI)
	return s.tasks[idx], s.persist(ctx)
}

// Remove deletes a task and parks it in the undo slot, replacing whatever
// was pending there.
func (s *Store) Remove(ctx context.Context, id string) (task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return task.Task{}, ErrNotInitialized
	}
	idx := s.indexOf(id)
	if idx < 0 {
		s.logbook.Warn("Delete skipped: task %s not found", id)
		return task.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	removed := s.tasks[idx]
	s.tasks = append(s.tasks[:idx:idx], s.tasks[idx+1:]...)
	if prev, ok := s.undo.current(); ok {
		s.logbook.Info("Undo for %q superseded", prev.Task.Title)
	}
	s.undo.put(removed, s.now().Add(s.undoWindow))
	s.logbook.Info("Deleted %q", removed.Title)
	return removed, s.persist(ctx)
}

// Restore re-inserts a previously removed task. If it is the task waiting
// in the undo slot, the slot is cleared.
func (s *Store) Restore(ctx context.Context, t task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return ErrNotInitialized
	}
	return s.restoreLocked(ctx, t)
}

func (s *Store) restoreLocked(ctx context.Context, t task.Task) error {
	if t.ID == "" {
		return fmt.Errorf("store: restore: %w", &task.ValidationError{Field: "id", Reason: "is required"})
	}
	if s.indexOf(t.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateID, t.ID)
	}
	if pending, ok := s.undo.current(); ok && pending.Task.ID == t.ID {
		s.undo.clear()
	}
	s.tasks = append(s.tasks, t)
	s.logbook.Info("Restored %q", t.Title)
	return s.persist(ctx)
}

// Import stamps a fresh id and creation time on every record and appends
// them all in one mutation. Imported tasks are always new, whatever ids
// they carried.
func (s *Store) Import(ctx context.Context, records []task.Task) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return nil, ErrNotInitialized
	}
	if len(records) == 0 {
		return nil, nil
	}
	now := s.now().UTC()
	imported := make([]task.Task, 0, len(records))
	for _, rec := range records {
		id, err := s.mintID()
		if err != nil {
			return nil, err
		}
		rec.ID = id
		rec.CreatedAt = now
		imported = append(imported, rec)
		// reserve the id so the next mintID sees it
		s.tasks = append(s.tasks, rec)
	}
	s.logbook.Info("Imported %d task(s)", len(imported))
	return imported, s.persist(ctx)
}

// PendingUndo returns the ticket waiting in the undo slot. An expired ticket
// is cleared and reported as absent.
func (s *Store) PendingUndo() (UndoTicket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pendingLocked()
}

func (s *Store) pendingLocked() (UndoTicket, bool) {
	ticket, ok := s.undo.current()
	if !ok {
		return UndoTicket{}, false
	}
	if !s.now().Before(ticket.ExpiresAt) {
		s.undo.clear()
		s.logbook.Info("Undo for %q expired", ticket.Task.Title)
		return UndoTicket{}, false
	}
	return ticket, true
}

// Undo restores the task in the undo slot. It reports false when the slot is
// empty or its window has passed.
func (s *Store) Undo(ctx context.Context) (task.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return task.Task{}, false, ErrNotInitialized
	}
	ticket, ok := s.pendingLocked()
	if !ok {
		return task.Task{}, false, nil
	}
	s.undo.clear()
	if err := s.restoreLocked(ctx, ticket.Task); err != nil {
		return task.Task{}, false, err
	}
	return ticket.Task, true, nil
}

// DismissUndo empties the undo slot. Clearing an empty slot is a no-op.
func (s *Store) DismissUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.undo.clear()
}

// ExpireUndo clears the slot only if it still holds the ticket with seq, so
// a late timer for an earlier delete never clears a newer one.
func (s *Store) ExpireUndo(seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ticket, ok := s.undo.current()
	if !ok || ticket.Seq != seq {
		return false
	}
	s.undo.clear()
	s.logbook.Info("Undo for %q expired", ticket.Task.Title)
	return true
}

func (s *Store) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// mintID never hands out an id that is live or parked in the undo slot.
func (s *Store) mintID() (string, error) {
	for attempt := 0; attempt < 3; attempt++ {
		id := s.newID()
		if id == "" || s.indexOf(id) >= 0 {
			continue
		}
		if pending, ok := s.undo.current(); ok && pending.Task.ID == id {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("%w: id generator kept colliding", ErrDuplicateID)
}

func (s *Store) location() string {
	if s.backend == nil {
		return s.key
	}
	return s.backend.Name() + ":" + s.key
}
