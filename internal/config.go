package internal

import (
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Snapshot SnapshotConfig    `yaml:"snapshot"`
	Ledger   LedgerConfig      `yaml:"ledger"`
	Filter   FilterConfig      `yaml:"filter"`
	Export   ExportConfig      `yaml:"export"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Snapshot.Validate(); err != nil {
		return err
	}
	if err := c.Ledger.Validate(); err != nil {
		return err
	}
	return c.Export.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// SnapshotConfig locates the snapshot export files.
type SnapshotConfig struct {
	// Path is a snapshot file or a directory of snapshot files.
	Path string `yaml:"path"`
	// Pattern selects files when Path is a directory.
	Pattern string `yaml:"pattern"`
	// Workers bounds how many files are processed in parallel.
	Workers int `yaml:"workers"`
}

// Validate validates the snapshot configuration.
func (c *SnapshotConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.Workers, validation.Required, validation.Min(1)),
	)
}

// LedgerConfig holds the import-ledger database location.
type LedgerConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the ledger configuration.
func (c *LedgerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// FilterConfig points at the wire-content override tables. An empty path
// uses the compiled-in defaults.
type FilterConfig struct {
	OverridesPath string `yaml:"overrides_path"`
}

// ExportConfig controls batch packaging.
type ExportConfig struct {
	Dir               string `yaml:"dir"`
	BatchSize         int    `yaml:"batch_size"`
	PlaceholderAuthor string `yaml:"placeholder_author"`
	// ImportSet names this run in downstream metadata; empty derives a
	// date-stamped name at run time.
	ImportSet string `yaml:"import_set"`
}

// Validate validates the export configuration.
func (c *ExportConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
		validation.Field(&c.BatchSize, validation.Required, validation.Min(1)),
		validation.Field(&c.PlaceholderAuthor, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Snapshot: SnapshotConfig{
			Path:    "./snapshots",
			Pattern: "*.ndjson",
			Workers: 4,
		},
		Ledger: LedgerConfig{
			Path: "./othala.db",
		},
		Export: ExportConfig{
			Dir:               "./export",
			BatchSize:         200,
			PlaceholderAuthor: "staff-placeholder",
		},
	}
}
