// internal/config/config.go
//
// This package handles configuration and the .roitrack directory structure.
// Every project that tracks tasks gets a .roitrack/ folder in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DataDir is the name of the directory we create in each project
	DataDir = ".roitrack"

	defaultStorageDriver = "file"
	defaultStoragePath   = "storage"
	defaultStorageKey    = "tasks"
	defaultUndoWindow    = 5 * time.Second
	defaultExportFile    = "tasks.csv"
	defaultLocale        = "en"
	filterAll            = "all"
)

const defaultProjectConfigYAML = `# roitrack project configuration
version: 1

# Where the task collection is kept. driver: file | sqlite | memory.
# path is relative to .roitrack/ unless absolute.
storage:
  driver: file
  path: storage
  key: tasks

# How long a deleted task can be restored.
undo:
  window: 5s

export:
  filename: tasks.csv

display:
  locale: en
  status: all
  priority: all
`

// StorageConfig selects the local storage backend.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Key    string `yaml:"key"`
}

// UndoConfig controls the undo-after-delete window.
type UndoConfig struct {
	Window string `yaml:"window"`
}

// ExportConfig controls CSV export.
type ExportConfig struct {
	Filename string `yaml:"filename"`
}

// DisplayConfig captures table defaults.
type DisplayConfig struct {
	Locale   string `yaml:"locale"`
	Status   string `yaml:"status"`
	Priority string `yaml:"priority"`
}

// ProjectConfig models .roitrack/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	Storage StorageConfig `yaml:"storage"`
	Undo    UndoConfig    `yaml:"undo"`
	Export  ExportConfig  `yaml:"export"`
	Display DisplayConfig `yaml:"display"`

	undoWindow time.Duration
}

// Config holds the runtime configuration.
type Config struct {
	// ProjectDir is the directory where the user ran roitrack from
	ProjectDir string

	// DataProjectDir is ProjectDir/.roitrack
	DataProjectDir string

	Project ProjectConfig
}

// InitDataDir creates the .roitrack directory structure in the given project
// directory and writes a default config.yaml when none exists.
//
// Structure created:
// .roitrack/
// ├── config.yaml
// ├── logs/      <- session logbook
// └── storage/   <- task collection (file or sqlite driver)
func InitDataDir(projectDir string) error {
	dataDir := filepath.Join(projectDir, DataDir)
	dirs := []string{
		filepath.Join(dataDir, "logs"),
		filepath.Join(dataDir, defaultStoragePath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return ensureProjectConfig(filepath.Join(dataDir, "config.yaml"))
}

// NewConfig creates a Config populated from .roitrack/config.yaml and the
// ROITRACK_* environment overrides. A missing file yields the defaults.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:     projectDir,
		DataProjectDir: filepath.Join(projectDir, DataDir),
		Project:        defaultProjectConfig(),
	}
	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}
	cfg.Project.applyEnvOverrides()
	cfg.Project.normalize()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.DataProjectDir, "config.yaml")
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataProjectDir, "logs")
}

// LogbookPath returns the session logbook file.
func (c *Config) LogbookPath() string {
	return filepath.Join(c.LogsDir(), "session.log")
}

// StorageDriver returns the configured storage backend name.
func (c *Config) StorageDriver() string {
	return c.Project.Storage.Driver
}

// StorageDir returns the absolute directory backing file and sqlite storage.
func (c *Config) StorageDir() string {
	return resolvePath(c.DataProjectDir, c.Project.Storage.Path)
}

// StorageKey returns the key the task collection is stored under.
func (c *Config) StorageKey() string {
	return c.Project.Storage.Key
}

// UndoWindow returns how long a deleted task stays restorable.
func (c *Config) UndoWindow() time.Duration {
	return c.Project.undoWindow
}

// ExportPath returns where CSV exports are written.
func (c *Config) ExportPath() string {
	return resolvePath(c.ProjectDir, c.Project.Export.Filename)
}

// Locale returns the collation language for title ordering.
func (c *Config) Locale() string {
	return c.Project.Display.Locale
}

// DefaultStatusFilter returns the status filter the table opens with.
func (c *Config) DefaultStatusFilter() string {
	return c.Project.Display.Status
}

// DefaultPriorityFilter returns the priority filter the table opens with.
func (c *Config) DefaultPriorityFilter() string {
	return c.Project.Display.Priority
}

func (c *Config) loadProjectConfig() error {
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	parsed := defaultProjectConfig()
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	parsed.applyDefaults()
	c.Project = parsed
	return nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Storage: StorageConfig{
			Driver: defaultStorageDriver,
			Path:   defaultStoragePath,
			Key:    defaultStorageKey,
		},
		Undo:   UndoConfig{Window: defaultUndoWindow.String()},
		Export: ExportConfig{Filename: defaultExportFile},
		Display: DisplayConfig{
			Locale:   defaultLocale,
			Status:   filterAll,
			Priority: filterAll,
		},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	defaults := defaultProjectConfig()
	if pc.Version == 0 {
		pc.Version = defaults.Version
	}
	if strings.TrimSpace(pc.Storage.Driver) == "" {
		pc.Storage.Driver = defaults.Storage.Driver
	}
	if strings.TrimSpace(pc.Storage.Path) == "" {
		pc.Storage.Path = defaults.Storage.Path
	}
	if strings.TrimSpace(pc.Storage.Key) == "" {
		pc.Storage.Key = defaults.Storage.Key
	}
	if strings.TrimSpace(pc.Undo.Window) == "" {
		pc.Undo.Window = defaults.Undo.Window
	}
	if strings.TrimSpace(pc.Export.Filename) == "" {
		pc.Export.Filename = defaults.Export.Filename
	}
	if strings.TrimSpace(pc.Display.Locale) == "" {
		pc.Display.Locale = defaults.Display.Locale
	}
	if strings.TrimSpace(pc.Display.Status) == "" {
		pc.Display.Status = filterAll
	}
	if strings.TrimSpace(pc.Display.Priority) == "" {
		pc.Display.Priority = filterAll
	}
}

func (pc *ProjectConfig) applyEnvOverrides() {
	if value := strings.TrimSpace(os.Getenv("ROITRACK_STORAGE_DRIVER")); value != "" {
		pc.Storage.Driver = value
	}
	if value := strings.TrimSpace(os.Getenv("ROITRACK_STORAGE_PATH")); value != "" {
		pc.Storage.Path = value
	}
	if value := strings.TrimSpace(os.Getenv("ROITRACK_UNDO_WINDOW")); value != "" {
		pc.Undo.Window = value
	}
	if value := strings.TrimSpace(os.Getenv("ROITRACK_LOCALE")); value != "" {
		pc.Display.Locale = value
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Storage.Driver = strings.ToLower(strings.TrimSpace(pc.Storage.Driver))
	pc.Storage.Path = strings.TrimSpace(pc.Storage.Path)
	pc.Storage.Key = strings.TrimSpace(pc.Storage.Key)
	pc.Undo.Window = strings.TrimSpace(pc.Undo.Window)
	pc.Export.Filename = strings.TrimSpace(pc.Export.Filename)
	pc.Display.Locale = strings.TrimSpace(pc.Display.Locale)
	pc.Display.Status = strings.ToLower(strings.TrimSpace(pc.Display.Status))
	pc.Display.Priority = strings.ToLower(strings.TrimSpace(pc.Display.Priority))
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Storage.Driver {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("storage.driver must be 'file', 'sqlite' or 'memory'")
	}
	if pc.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}
	window, err := time.ParseDuration(pc.Undo.Window)
	if err != nil {
		return fmt.Errorf("undo.window: %w", err)
	}
	if window <= 0 {
		return fmt.Errorf("undo.window must be positive")
	}
	pc.undoWindow = window
	if !oneOf(pc.Display.Status, filterAll, "pending", "in-progress", "completed") {
		return fmt.Errorf("display.status must be all, pending, in-progress or completed")
	}
	if !oneOf(pc.Display.Priority, filterAll, "low", "medium", "high") {
		return fmt.Errorf("display.priority must be all, low, medium or high")
	}
	return nil
}

func oneOf(value string, allowed ...string) bool {
	for _, candidate := range allowed {
		if value == candidate {
			return true
		}
	}
	return false
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return base
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0o644)
}
