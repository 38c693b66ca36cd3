// Package storage provides the local key/value storage the task store
// persists into. Every backend keeps whole values under string keys; the
// tracker only ever uses one key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Get when a key has never been written.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a small synchronous key/value store.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Name identifies the backend in logs ("file", "sqlite", "memory").
	Name() string
	Close() error
}

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// SQLiteFile is the database file name used by the sqlite driver.
const SQLiteFile = "roitrack.db"

// Settings selects and locates a backend.
type Settings struct {
	Driver string
	// Dir holds the backend's files. Ignored by the memory driver.
	Dir string
}

// Open builds the backend named by settings.Driver.
func Open(ctx context.Context, settings Settings) (Backend, error) {
	driver := strings.ToLower(strings.TrimSpace(settings.Driver))
	switch driver {
	case "", DriverFile:
		return NewFileBackend(settings.Dir)
	case DriverSQLite:
		return OpenSQLite(ctx, filepath.Join(settings.Dir, SQLiteFile))
	case DriverMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", settings.Driver)
	}
}

func validateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage: key is required")
	}
	return nil
}
