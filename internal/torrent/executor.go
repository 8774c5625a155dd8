package torrent

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Swarm downloads the files matching pattern from the swarm described by
// descriptor into outDir and returns the paths it produced under the
// selected subdirectory. Implementations must not return paths outside
// outDir.
type Swarm interface {
	Fetch(ctx context.Context, descriptor, pattern, outDir string) ([]string, error)
}

// ExecResult holds the outcome of a single client invocation.
type ExecResult struct {
	Args   []string
	Stderr string
	Err    error
}

// WebTorrent runs webtorrent-cli (or a compatible client) as a child process.
type WebTorrent struct {
	// Client is the command prefix, e.g. ["npx", "webtorrent-cli"].
	Client []string

	// Verbose tees the client's stdout/stderr to Output in real time.
	Verbose bool
	Output  io.Writer
}

var _ Swarm = (*WebTorrent)(nil)

// Execute builds and runs the client command. When verbose, output is
// tee'd to w.Output; stderr is always captured for classification.
func (w *WebTorrent) Execute(ctx context.Context, descriptor, pattern, outDir string) ExecResult {
	args := Build(w.Client, descriptor, pattern, outDir, w.Verbose)
	if len(args) == 0 {
		return ExecResult{Err: ErrClientNotFound}
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = nil

	var stderrBuf bytes.Buffer
	out := w.Output
	if out == nil {
		out = os.Stderr
	}
	if w.Verbose {
		cmd.Stdout = out
		cmd.Stderr = io.MultiWriter(&stderrBuf, out)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	return ExecResult{
		Args:   args,
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}

// Fetch implements [Swarm]. After a successful run it lists every regular
// file under the subdirectory named by pattern (sorted). A missing
// subdirectory yields no paths and no error.
func (w *WebTorrent) Fetch(ctx context.Context, descriptor, pattern, outDir string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}

	res := w.Execute(ctx, descriptor, pattern, outDir)
	if res.Err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(res.Err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrClientNotFound, res.Args[0])
		}
		if sentinel := Classify(res.Stderr); sentinel != nil {
			return nil, fmt.Errorf("%w: %s", sentinel, Tail(res.Stderr, 1))
		}
		return nil, fmt.Errorf("%s: %w: %s", strings.Join(res.Args[:min(2, len(res.Args))], " "), res.Err, Tail(res.Stderr, 3))
	}

	return ListSelected(outDir, pattern)
}

// SelectedDir returns the directory under outDir that pattern selects:
// the pattern with a trailing wildcard element removed.
//
//	"dump_2025/elasticsearch/*" -> <outDir>/dump_2025/elasticsearch
func SelectedDir(outDir, pattern string) string {
	p := strings.TrimSuffix(pattern, "/")
	if strings.ContainsAny(path.Base(p), "*?[") {
		p = path.Dir(p)
	}
	if p == "." || p == "" {
		return outDir
	}
	return filepath.Join(outDir, filepath.FromSlash(p))
}

// ListSelected walks the selected subdirectory and returns its regular
// files sorted lexicographically.
func ListSelected(outDir, pattern string) ([]string, error) {
	root := SelectedDir(outDir, pattern)
	var files []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// Tail returns the last n non-empty lines of s joined by " | ".
func Tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	var kept []string
	for i := len(lines) - 1; i >= 0 && len(kept) < n; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			kept = append([]string{l}, kept...)
		}
	}
	return strings.Join(kept, " | ")
}
