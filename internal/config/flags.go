package config

// This file binds CLI flags onto a pflag.FlagSet owned by the cobra root
// command. Flag values are captured into Overrides and applied after the
// optional TOML file, so precedence is defaults < file < flags.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Overrides holds flag values until [Overrides.Apply] copies the ones the
// user actually set into a Config.
type Overrides struct {
	fs *pflag.FlagSet

	ConfigFile  string
	DataDir     string
	ChunkSize   int
	SkipFetch   bool
	ViewBinding string
	Client      string
	LogFile     string
	MetricsFile string
	Journal     string
	Verbose     bool
	Strict      bool
	forceColor  bool
	noColor     bool
}

// BindFlags registers the persistent flags on fs and returns the holder
// that later applies them. Defaults shown in help come from [DefaultConfig].
func BindFlags(fs *pflag.FlagSet) *Overrides {
	def := DefaultConfig()
	o := &Overrides{fs: fs}

	fs.StringVar(&o.ConfigFile, "config", "", "TOML config file")
	fs.StringVarP(&o.DataDir, "data-dir", "D", def.DataDir, "Workspace root directory")
	fs.IntVar(&o.ChunkSize, "chunk-size", def.ChunkSize, "Maximum rows per parquet batch file")
	fs.BoolVar(&o.SkipFetch, "skip-fetch", false, "Skip the torrent fetch; use artifacts already in place")
	fs.StringVar(&o.ViewBinding, "view-binding", string(def.ViewBinding), "Catalog view binding: first-file | glob")
	fs.StringVar(&o.Client, "client", strings.Join(def.TorrentClient, " "), "Torrent client command")
	fs.StringVarP(&o.LogFile, "log", "l", "", "Append logs to file")
	fs.StringVar(&o.MetricsFile, "metrics-file", "", "Write prometheus textfile metrics to path")
	fs.StringVar(&o.Journal, "journal", "", `Run journal database (default "<data-dir>/journal.db", "-" disables)`)
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "Verbose output")
	fs.BoolVar(&o.Strict, "strict", false, "Exit non-zero when the pipeline fails")
	fs.BoolVar(&o.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&o.noColor, "no-color", false, "Disable colored logs")
	return o
}

// Apply copies every flag the user set into cfg.
func (o *Overrides) Apply(cfg *Config) error {
	changed := func(name string) bool {
		f := o.fs.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("data-dir") {
		cfg.DataDir = NormalizeDirArg(o.DataDir)
	}
	if changed("chunk-size") {
		cfg.ChunkSize = o.ChunkSize
	}
	if changed("skip-fetch") {
		cfg.SkipFetch = o.SkipFetch
	}
	if changed("view-binding") {
		cfg.ViewBinding = ViewBinding(strings.ToLower(o.ViewBinding))
	}
	if changed("client") {
		fields := strings.Fields(o.Client)
		if len(fields) == 0 {
			return fmt.Errorf("--client must name a command")
		}
		cfg.TorrentClient = fields
	}
	if changed("log") {
		cfg.LogFile = o.LogFile
	}
	if changed("metrics-file") {
		cfg.MetricsFile = o.MetricsFile
	}
	if changed("journal") {
		cfg.JournalPath = o.Journal
	}
	if changed("verbose") {
		cfg.Verbose = o.Verbose
	}
	if changed("strict") {
		cfg.Strict = o.Strict
	}
	if o.noColor {
		cfg.ColorMode = ColorNever
	} else if o.forceColor {
		cfg.ColorMode = ColorAlways
	}
	return nil
}

// Resolve builds the effective Config: defaults, then the TOML file named
// by --config (if any), then flags. The result is validated.
func (o *Overrides) Resolve() (Config, error) {
	cfg := DefaultConfig()
	if o.ConfigFile != "" {
		if err := LoadFile(&cfg, o.ConfigFile); err != nil {
			return cfg, err
		}
	}
	if err := o.Apply(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
