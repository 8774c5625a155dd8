package check

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/metamirror/internal/config"
)

// recLogger records log calls by level.
type recLogger struct {
	lines map[string][]string
}

func newRecLogger() *recLogger { return &recLogger{lines: make(map[string][]string)} }

func (l *recLogger) add(level, f string, a ...interface{}) {
	l.lines[level] = append(l.lines[level], fmt.Sprintf(f, a...))
}
func (l *recLogger) Info(f string, a ...interface{})    { l.add("info", f, a...) }
func (l *recLogger) Success(f string, a ...interface{}) { l.add("success", f, a...) }
func (l *recLogger) Warn(f string, a ...interface{})    { l.add("warn", f, a...) }
func (l *recLogger) Error(f string, a ...interface{})   { l.add("error", f, a...) }
func (l *recLogger) Debug(f string, a ...interface{})   { l.add("debug", f, a...) }

// fakeClient writes an executable script that prints a version line.
func fakeClient(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script client")
	}
	path := filepath.Join(t.TempDir(), "fake-torrent")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho fake-torrent 2.1.0\n"), 0o755))
	return path
}

func TestCheckDeps(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	cfg.TorrentClient = []string{fakeClient(t)}
	assert.NoError(t, CheckDeps(&cfg))
	assert.DirExists(t, cfg.DataDir)
}

func TestCheckDeps_ClientMissing(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()

	cfg.TorrentClient = []string{"metamirror-no-such-client"}
	assert.ErrorIs(t, CheckDeps(&cfg), ErrClientNotFound)

	cfg.TorrentClient = nil
	assert.ErrorIs(t, CheckDeps(&cfg), ErrClientNotFound)
}

func TestCheckDeps_DataDirNotWritable(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plain-file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	cfg := config.DefaultConfig()
	cfg.TorrentClient = []string{fakeClient(t)}
	cfg.DataDir = filepath.Join(file, "data")
	assert.ErrorIs(t, CheckDeps(&cfg), ErrDataDirReadOnly)
}

func TestRunCheck(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.TorrentClient = []string{fakeClient(t)}

	log := newRecLogger()
	failed := RunCheck(context.Background(), &cfg, log)
	assert.Equal(t, 0, failed, "errors: %v", log.lines["error"])
	assert.Contains(t, log.lines["success"][0], "fake-torrent 2.1.0")
}

func TestRunCheck_CountsFailures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.TorrentClient = []string{"metamirror-no-such-client"}

	log := newRecLogger()
	assert.Equal(t, 1, RunCheck(context.Background(), &cfg, log))
	assert.Len(t, log.lines["error"], 1)
}

func TestVersionArgs(t *testing.T) {
	tests := []struct {
		name   string
		client []string
		want   []string
	}{
		{"npx gets --yes", []string{"npx", "webtorrent-cli"}, []string{"npx", "--yes", "webtorrent-cli", "--version"}},
		{"direct binary", []string{"webtorrent"}, []string{"webtorrent", "--version"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, versionArgs(tt.client))
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "a", firstLine("\na\nb\n"))
	assert.Equal(t, "single", firstLine("single"))
}
