// Package check provides system diagnostics (the "check" command) and the
// pre-fetch dependency validation (CheckDeps) for the torrent client, the
// DuckDB engine, and the workspace.
package check

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/metamirror/internal/catalog"
	"github.com/backmassage/metamirror/internal/config"
)

// Sentinel errors returned by CheckDeps.
var (
	ErrClientNotFound  = errors.New("torrent client not found on PATH")
	ErrDataDirReadOnly = errors.New("data directory is not writable")
	ErrCatalogEngine   = errors.New("duckdb engine unusable")
)

// Logger is the minimal logging interface needed by RunCheck.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(string, ...interface{})
}

// RunCheck prints the availability of every external dependency. It is
// informational only and returns the number of failed checks.
func RunCheck(ctx context.Context, cfg *config.Config, log Logger) int {
	log.Info("=== System Check ===")

	failed := 0
	if !checkClient(ctx, cfg, log) {
		failed++
	}
	if !checkCatalog(ctx, log) {
		failed++
	}
	if !checkDataDir(cfg, log) {
		failed++
	}
	return failed
}

// checkClient verifies the torrent client launcher is on PATH and logs the
// first line of its --version output.
func checkClient(ctx context.Context, cfg *config.Config, log Logger) bool {
	if len(cfg.TorrentClient) == 0 {
		log.Error("No torrent client configured")
		return false
	}
	bin := cfg.TorrentClient[0]
	path, err := exec.LookPath(bin)
	if err != nil {
		log.Error("%s not found", bin)
		return false
	}
	log.Debug("%s: %s", bin, path)

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	args := versionArgs(cfg.TorrentClient)
	out, err := exec.CommandContext(ctx, args[0], args[1:]...).Output()
	if err != nil {
		log.Warn("%s found but --version failed: %v", strings.Join(cfg.TorrentClient, " "), err)
		return true
	}
	log.Success("%s: %s", strings.Join(cfg.TorrentClient, " "), firstLine(string(out)))
	return true
}

// checkCatalog opens an in-memory DuckDB database and runs a trivial query.
func checkCatalog(ctx context.Context, log Logger) bool {
	version, err := catalog.EngineVersion(ctx)
	if err != nil {
		log.Error("DuckDB: %v", err)
		return false
	}
	log.Success("DuckDB: %s", version)
	return true
}

// checkDataDir verifies the workspace root can be created and written.
func checkDataDir(cfg *config.Config, log Logger) bool {
	if err := probeWritable(cfg.DataDir); err != nil {
		log.Error("Data directory %s: %v", cfg.DataDir, err)
		return false
	}
	log.Success("Data directory %s is writable", cfg.DataDir)
	return true
}

// CheckDeps is the pre-fetch validation: the torrent client launcher must
// be on PATH, DuckDB must open, and the data directory must be writable.
// Returns a sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	if len(cfg.TorrentClient) == 0 {
		return ErrClientNotFound
	}
	if _, err := exec.LookPath(cfg.TorrentClient[0]); err != nil {
		return fmt.Errorf("%w: %s", ErrClientNotFound, cfg.TorrentClient[0])
	}
	if _, err := catalog.EngineVersion(context.Background()); err != nil {
		return fmt.Errorf("%w: %v", ErrCatalogEngine, err)
	}
	if err := probeWritable(cfg.DataDir); err != nil {
		return fmt.Errorf("%w: %v", ErrDataDirReadOnly, err)
	}
	return nil
}

// --- internal helpers ---

// versionArgs returns the client command with "--version" appended. npx
// gets "--yes" so a missing package is installed instead of prompting.
func versionArgs(client []string) []string {
	args := make([]string, 0, len(client)+2)
	args = append(args, client[0])
	if filepath.Base(client[0]) == "npx" {
		args = append(args, "--yes")
	}
	args = append(args, client[1:]...)
	return append(args, "--version")
}

// probeWritable creates dir if needed and writes then removes a temp file.
func probeWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".metamirror-check-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i > 0 {
		s = s[:i]
	}
	return s
}
