// Package config holds runtime configuration: defaults, optional TOML file
// loading, CLI flag binding, and validation. All defaults match the published
// metadata dump so a bare invocation mirrors it.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// --- Enum types for validated string fields ---

// ViewBinding selects how the catalog registrar binds parquet files into a view.
type ViewBinding string

const (
	ViewBindFirstFile ViewBinding = "first-file" // One file per view, first seen wins (default).
	ViewBindGlob      ViewBinding = "glob"       // Every batch of the type via a wildcard scan.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid by [LoadFile], then mutated by CLI flags before being
// passed (by pointer) to packages that need it.
type Config struct {
	// Workspace.
	DataDir string `toml:"data_dir"` // Default: "data".

	// Fetch stage.
	DescriptorURL string   `toml:"descriptor_url"` // Torrent descriptor location.
	SelectPattern string   `toml:"select_pattern"` // Swarm subdirectory selection.
	TorrentClient []string `toml:"torrent_client"` // Default: ["npx", "webtorrent-cli"].
	HTTPTimeout   Duration `toml:"http_timeout"`   // Default: 5m.
	SkipFetch     bool     `toml:"skip_fetch"`     // Use artifacts already in place.

	// Convert stage.
	ChunkSize        int      `toml:"chunk_size"`        // Default: 100000 rows per batch.
	DocumentSuffixes []string `toml:"document_suffixes"` // "" matches extensionless names.

	// Register stage.
	ViewBinding ViewBinding `toml:"view_binding"` // Default: "first-file".

	// Run bookkeeping.
	JournalPath string `toml:"journal"`      // Default: "<data>/journal.db"; "-" disables.
	MetricsFile string `toml:"metrics_file"` // Prometheus textfile; empty disables.
	Strict      bool   `toml:"strict"`       // Exit non-zero when a stage fails.

	// Display and logging.
	Verbose   bool      `toml:"verbose"`
	ColorMode ColorMode `toml:"color"`    // Default: "auto".
	LogFile   string    `toml:"log_file"` // Optional log file path.
}

// Fixed constants of the mirrored dump.
const (
	DefaultDescriptorURL = "https://annas-archive.org/dyn/small_file/torrents/other_aa/aa_derived_mirror_metadata/aa_derived_mirror_metadata_20250223.torrent"
	DefaultSelectPattern = "aa_derived_mirror_metadata_20250223/elasticsearch/*"
	DefaultChunkSize     = 100000
)

// DefaultConfig returns a Config matching the fixed import
// settings. Used as the base before [LoadFile] and flags apply.
func DefaultConfig() Config {
	return Config{
		DataDir:          "data",
		DescriptorURL:    DefaultDescriptorURL,
		SelectPattern:    DefaultSelectPattern,
		TorrentClient:    []string{"npx", "webtorrent-cli"},
		HTTPTimeout:      Duration(5 * time.Minute),
		ChunkSize:        DefaultChunkSize,
		DocumentSuffixes: []string{".txt", ".json", ".jsonl", ".ndjson", ""},
		ViewBinding:      ViewBindFirstFile,
		ColorMode:        ColorAuto,
	}
}

// Validate checks enum fields and numeric bounds.
func (c *Config) Validate() error {
	switch c.ViewBinding {
	case ViewBindFirstFile, ViewBindGlob:
		// valid
	default:
		return fmt.Errorf("invalid view binding %q (use 'first-file' or 'glob')", c.ViewBinding)
	}

	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive (got %d)", c.ChunkSize)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("data directory must not be empty")
	}
	if !c.SkipFetch {
		if c.DescriptorURL == "" {
			return errors.New("descriptor URL must not be empty")
		}
		if len(c.TorrentClient) == 0 || c.TorrentClient[0] == "" {
			return errors.New("torrent client command must not be empty")
		}
	}
	if c.HTTPTimeout < 0 {
		return errors.New("http timeout must not be negative")
	}
	c.DataDir = NormalizeDirArg(c.DataDir)
	return nil
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Layout is the resolved on-disk workspace derived from DataDir.
type Layout struct {
	ArtifactDir   string // Compressed artifacts (<type>.gz).
	DocumentDir   string // Plain line-delimited documents.
	ColumnarDir   string // Parquet batch files.
	CatalogPath   string // DuckDB database file.
	StagingDir    string // Torrent client output, removed after fetch.
	DescriptorTmp string // Downloaded .torrent, removed after fetch.
}

// Layout returns the workspace paths for this configuration.
func (c *Config) Layout() Layout {
	d := c.DataDir
	return Layout{
		ArtifactDir:   filepath.Join(d, "elasticsearch"),
		DocumentDir:   filepath.Join(d, "json"),
		ColumnarDir:   filepath.Join(d, "parquet"),
		CatalogPath:   filepath.Join(d, "metadata.db"),
		StagingDir:    filepath.Join(d, "temp"),
		DescriptorTmp: filepath.Join(d, "elasticsearch", "metadata.torrent"),
	}
}

// Dirs returns the directories the workspace preparer must create, in order.
func (l Layout) Dirs() []string {
	return []string{l.ArtifactDir, l.DocumentDir, l.ColumnarDir}
}

// Journal returns the effective journal database path, or "" when disabled.
func (c *Config) Journal() string {
	switch c.JournalPath {
	case "-":
		return ""
	case "":
		return filepath.Join(c.DataDir, "journal.db")
	default:
		return c.JournalPath
	}
}
