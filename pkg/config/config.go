// Package config loads .chk.yaml, the project-level settings of the chk
// command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ormasoftchile/chk/pkg/snapshot"
)

// FileName is the manifest looked up by Discover.
const FileName = ".chk.yaml"

// Config is the content of .chk.yaml. Zero values mean "use the default";
// the accessor methods apply defaults.
type Config struct {
	Snapshots   Snapshots     `yaml:"snapshots,omitempty"`
	Report      Report        `yaml:"report,omitempty"`
	Interactive bool          `yaml:"interactive,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty"`
	Live        bool          `yaml:"live,omitempty"`

	// Root is the directory holding the manifest. Relative paths resolve
	// against it. Set after loading, not from YAML.
	Root string `yaml:"-"`
}

// Snapshots selects the snapshot store.
type Snapshots struct {
	Backend  string `yaml:"backend,omitempty"`
	Dir      string `yaml:"dir,omitempty"`
	Database string `yaml:"database,omitempty"`
}

// Report controls the output of chk run.
type Report struct {
	Format     string `yaml:"format,omitempty"`
	Head       bool   `yaml:"head,omitempty"`
	NoLocation *bool  `yaml:"no_location,omitempty"`
}

// Backends and formats.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	FormatConsole  = "console"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Default returns the configuration used when no manifest exists.
func Default() *Config {
	return &Config{Root: "."}
}

// Backend returns the store backend (default: file).
func (c *Config) Backend() string {
	if c.Snapshots.Backend != "" {
		return c.Snapshots.Backend
	}
	return BackendFile
}

// SnapshotDir returns the directory of the file store (default: .snapshots).
func (c *Config) SnapshotDir() string {
	return c.resolve(c.Snapshots.Dir, ".snapshots")
}

// Database returns the sqlite file (default: <snapshot dir>/snapshots.db).
func (c *Config) Database() string {
	if c.Snapshots.Database != "" {
		return c.resolve(c.Snapshots.Database, "")
	}
	return filepath.Join(c.SnapshotDir(), "snapshots.db")
}

// Format returns the report format (default: console).
func (c *Config) Format() string {
	if c.Report.Format != "" {
		return c.Report.Format
	}
	return FormatConsole
}

// NoLocation reports whether passing entries hide their location
// (default: true).
func (c *Config) NoLocation() bool {
	if c.Report.NoLocation != nil {
		return *c.Report.NoLocation
	}
	return true
}

func (c *Config) resolve(p, def string) string {
	if p == "" {
		p = def
	}
	if filepath.IsAbs(p) || c.Root == "" {
		return p
	}
	return filepath.Join(c.Root, p)
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	var errs []error
	switch c.Backend() {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("snapshots.backend: unknown backend %q", c.Snapshots.Backend))
	}
	switch c.Format() {
	case FormatConsole, FormatJSON, FormatMarkdown:
	default:
		errs = append(errs, fmt.Errorf("report.format: unknown format %q", c.Report.Format))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout: must not be negative"))
	}
	return errors.Join(errs...)
}

// Load reads and validates a manifest.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Root = filepath.Dir(path)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Discover walks up from dir to the nearest manifest. Without one it
// returns Default rooted at dir.
func Discover(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for d := abs; ; {
		candidate := filepath.Join(d, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return Load(candidate)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(d)
		if parent == d {
			break
		}
		d = parent
	}
	cfg := Default()
	cfg.Root = abs
	return cfg, nil
}

// OpenStore opens the configured snapshot store. The returned close
// function is never nil.
func (c *Config) OpenStore(logger *slog.Logger) (snapshot.Store, func() error, error) {
	noop := func() error { return nil }
	switch c.Backend() {
	case BackendMemory:
		return snapshot.NewMemoryStore(), noop, nil
	case BackendSQLite:
		db := c.Database()
		if err := os.MkdirAll(filepath.Dir(db), 0o755); err != nil {
			return nil, noop, fmt.Errorf("create snapshot dir: %w", err)
		}
		s, err := snapshot.OpenSQLite(db, snapshot.WithSQLiteLogger(logger))
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case BackendFile:
		return snapshot.NewFileStore(c.SnapshotDir()), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown snapshot backend %q", c.Backend())
}
