package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/kingrea/roitrack/internal/storage"
	"github.com/kingrea/roitrack/internal/task"
)

// corruptSuffix names the key an unreadable collection is moved to before
// the store starts empty.
const corruptSuffix = ".corrupt"

func (s *Store) load(ctx context.Context) ([]task.Task, error) {
	if s.backend == nil {
		return nil, fmt.Errorf("store: no storage backend")
	}
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []task.Task{}, nil
		}
		return nil, fmt.Errorf("store: load %s: %w", s.key, err)
	}
	tasks, dropped, err := decodeSnapshot(data)
	if err != nil {
		backup := s.key + corruptSuffix
		if setErr := s.backend.Set(ctx, backup, data); setErr != nil {
			return nil, fmt.Errorf("store: unreadable collection %s (%v); backup failed: %w", s.key, err, setErr)
		}
		s.logbook.Warn("Collection %s unreadable (%v); copied to %s and starting empty", s.key, err, backup)
		return []task.Task{}, nil
	}
	if dropped > 0 {
		s.logbook.Warn("Dropped %d malformed task record(s) while loading", dropped)
	}
	return tasks, nil
}

// persist writes the whole collection. The in-memory change stands even when
// the write fails; the error is logged and returned.
func (s *Store) persist(ctx context.Context) error {
	data, err := encodeSnapshot(s.tasks)
	if err != nil {
		s.logbook.Error("Encoding tasks failed: %v", err)
		return fmt.Errorf("store: encode: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, data); err != nil {
		s.logbook.Error("Saving tasks to %s failed: %v", s.location(), err)
		return fmt.Errorf("store: persist: %w", err)
	}
	return nil
}

func encodeSnapshot(tasks []task.Task) ([]byte, error) {
	if tasks == nil {
		tasks = []task.Task{}
	}
	return json.MarshalIndent(tasks, "", "  ")
}

// decodeSnapshot parses a stored collection. Records that cannot be decoded
// or fail the identity checks are dropped and counted; repairable fields are
// reset to their defaults.
func decodeSnapshot(data []byte) ([]task.Task, int, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []task.Task{}, 0, nil
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, 0, err
	}
	tasks := make([]task.Task, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	dropped := 0
	for _, item := range raw {
		var t task.Task
		if err := json.Unmarshal(item, &t); err != nil {
			dropped++
			continue
		}
		t, ok := sanitize(t)
		if !ok {
			dropped++
			continue
		}
		if _, dup := seen[t.ID]; dup {
			dropped++
			continue
		}
		seen[t.ID] = struct{}{}
		tasks = append(tasks, t)
	}
	return tasks, dropped, nil
}

func sanitize(t task.Task) (task.Task, bool) {
	if strings.TrimSpace(t.ID) == "" || strings.TrimSpace(t.Title) == "" {
		return t, false
	}
	if !t.Priority.Valid() {
		t.Priority = task.ParsePriority(string(t.Priority), task.DefaultPriority)
	}
	if !t.Status.Valid() {
		t.Status = task.ParseStatus(string(t.Status), task.DefaultStatus)
	}
	repaired := false
	if !finiteNonNegative(t.Revenue) {
		t.Revenue = 0
		repaired = true
	}
	if !finiteNonNegative(t.TimeTaken) {
		t.TimeTaken = 0
		repaired = true
	}
	// A stored ROI of 0 is kept: imports with an unreadable time carry it
	// alongside the fallback time of 1.
	if repaired || t.ROI != 0 {
		t.ROI = task.CalculateROI(t.Revenue, t.TimeTaken)
	}
	return t, true
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
