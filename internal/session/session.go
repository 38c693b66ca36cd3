// Package session wires a project's configuration, logbook, storage backend
// and task store together. The TUI and the headless commands both start from
// a Session.
package session

import (
	"context"
	"fmt"

	"github.com/kingrea/roitrack/internal/config"
	"github.com/kingrea/roitrack/internal/logbook"
	"github.com/kingrea/roitrack/internal/storage"
	"github.com/kingrea/roitrack/internal/store"
)

// Session holds everything opened for one project directory.
type Session struct {
	Config  *config.Config
	Logbook *logbook.Logbook
	Backend storage.Backend
	Store   *store.Store
}

// Option customizes Open.
type Option func(*openOptions)

type openOptions struct {
	backend   storage.Backend
	storeOpts []store.Option
}

// WithBackend uses backend instead of the one named in config.yaml.
func WithBackend(backend storage.Backend) Option {
	return func(o *openOptions) {
		o.backend = backend
	}
}

// WithStoreOptions appends store options after the configured ones.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *openOptions) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// Open prepares .roitrack/ in projectDir, loads the configuration, opens the
// configured backend and initializes the store.
func Open(ctx context.Context, projectDir string, opts ...Option) (*Session, error) {
	var o openOptions
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := config.InitDataDir(projectDir); err != nil {
		return nil, fmt.Errorf("session: init %s: %w", config.DataDir, err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		return nil, err
	}
	// A logbook that cannot be opened only disables logging.
	lb, err := logbook.New(cfg.LogbookPath())
	if err != nil {
		lb = nil
	}

	backend := o.backend
	if backend == nil {
		backend, err = storage.Open(ctx, storage.Settings{
			Driver: cfg.StorageDriver(),
			Dir:    cfg.StorageDir(),
		})
		if err != nil {
			lb.Error("Opening %s storage failed: %v", cfg.StorageDriver(), err)
			return nil, err
		}
	}

	storeOpts := []store.Option{
		store.WithKey(cfg.StorageKey()),
		store.WithUndoWindow(cfg.UndoWindow()),
		store.WithLogbook(lb),
	}
	storeOpts = append(storeOpts, o.storeOpts...)
	st := store.New(backend, storeOpts...)
	if err := st.Init(ctx); err != nil {
		_ = backend.Close()
		return nil, err
	}
	return &Session{Config: cfg, Logbook: lb, Backend: backend, Store: st}, nil
}

// Close releases the storage backend.
func (s *Session) Close() error {
	if s == nil || s.Backend == nil {
		return nil
	}
	return s.Backend.Close()
}
