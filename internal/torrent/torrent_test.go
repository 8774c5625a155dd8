package torrent

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name    string
		client  []string
		pattern string
		verbose bool
		want    []string
	}{
		{
			name:    "npx gets --yes",
			client:  []string{"npx", "webtorrent-cli"},
			pattern: "dump/elasticsearch/*",
			want: []string{"npx", "--yes", "webtorrent-cli", "download", "d.torrent",
				"--select", "dump/elasticsearch/*", "--out", "out", "--quiet"},
		},
		{
			name:    "direct binary verbose",
			client:  []string{"webtorrent"},
			pattern: "dump/*",
			verbose: true,
			want:    []string{"webtorrent", "download", "d.torrent", "--select", "dump/*", "--out", "out"},
		},
		{
			name:   "no pattern",
			client: []string{"webtorrent"},
			want:   []string{"webtorrent", "download", "d.torrent", "--out", "out", "--quiet"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(tt.client, "d.torrent", tt.pattern, "out", tt.verbose)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Nil(t, Build(nil, "d.torrent", "", "out", false))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   error
	}{
		{"shell missing", "sh: 1: webtorrent: command not found", ErrClientNotFound},
		{"npm 404", "npm ERR! 404 Not Found - GET https://registry.npmjs.org/webtorrent-clii", ErrClientNotFound},
		{"bad torrent", "Error: Invalid torrent identifier", ErrBadDescriptor},
		{"empty selection", "Error: no files matched the selection", ErrNoSelection},
		{"unknown", "Error: connect ECONNREFUSED", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.stderr))
		})
	}
}

func TestSelectedDir(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"dump/elasticsearch/*", filepath.Join("out", "dump", "elasticsearch")},
		{"dump/elasticsearch/", filepath.Join("out", "dump", "elasticsearch")},
		{"dump/elasticsearch", filepath.Join("out", "dump", "elasticsearch")},
		{"*", "out"},
		{"", "out"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectedDir("out", tt.pattern), "pattern %q", tt.pattern)
	}
}

func TestListSelected(t *testing.T) {
	out := t.TempDir()
	sel := filepath.Join(out, "dump", "elasticsearch")
	require.NoError(t, os.MkdirAll(filepath.Join(sel, "sub"), 0o755))
	for _, p := range []string{
		filepath.Join(sel, "b.gz"),
		filepath.Join(sel, "a.gz"),
		filepath.Join(sel, "sub", "c.gz"),
		filepath.Join(out, "dump", "other.gz"),
	} {
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	}

	files, err := ListSelected(out, "dump/elasticsearch/*")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(sel, "a.gz"),
		filepath.Join(sel, "b.gz"),
		filepath.Join(sel, "sub", "c.gz"),
	}, files)
}

func TestListSelected_MissingDirIsEmpty(t *testing.T) {
	files, err := ListSelected(t.TempDir(), "dump/elasticsearch/*")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestTail(t *testing.T) {
	s := "one\n\ntwo\nthree\n\n"
	assert.Equal(t, "three", Tail(s, 1))
	assert.Equal(t, "two | three", Tail(s, 2))
	assert.Equal(t, "", Tail("", 2))
}

// fakeClient writes a shell script that mimics "webtorrent download": it
// creates two artifacts under <out>/dump/elasticsearch.
func fakeClient(t *testing.T, body string) []string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script client")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	script := filepath.Join(t.TempDir(), "fake-webtorrent")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\n"+body), 0o755))
	return []string{script}
}

const fakeDownload = `
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "--out" ]; then out="$2"; shift; fi
  shift
done
mkdir -p "$out/dump/elasticsearch"
printf 'a\n' > "$out/dump/elasticsearch/docsA.gz"
printf 'b\n' > "$out/dump/elasticsearch/docsB.gz"
`

func TestWebTorrent_Fetch(t *testing.T) {
	w := &WebTorrent{Client: fakeClient(t, fakeDownload)}
	out := filepath.Join(t.TempDir(), "temp")

	files, err := w.Fetch(context.Background(), "d.torrent", "dump/elasticsearch/*", out)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(out, "dump", "elasticsearch", "docsA.gz"),
		filepath.Join(out, "dump", "elasticsearch", "docsB.gz"),
	}, files)
}

func TestWebTorrent_FetchClassifiesFailure(t *testing.T) {
	w := &WebTorrent{Client: fakeClient(t, "echo 'Error: Invalid torrent identifier' >&2\nexit 1\n")}

	_, err := w.Fetch(context.Background(), "d.torrent", "dump/*", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadDescriptor), "got %v", err)
}

func TestWebTorrent_FetchUnclassifiedFailure(t *testing.T) {
	w := &WebTorrent{Client: fakeClient(t, "echo 'peer exploded' >&2\nexit 3\n")}

	_, err := w.Fetch(context.Background(), "d.torrent", "dump/*", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "peer exploded")
}

func TestWebTorrent_MissingBinary(t *testing.T) {
	w := &WebTorrent{Client: []string{"metamirror-no-such-client-binary"}}

	_, err := w.Fetch(context.Background(), "d.torrent", "dump/*", t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClientNotFound), "got %v", err)
}
