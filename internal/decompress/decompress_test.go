package decompress

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeGzip(t *testing.T, path string, members ...string) {
	t.Helper()
	var buf bytes.Buffer
	for _, m := range members {
		zw := gzip.NewWriter(&buf)
		_, err := zw.Write([]byte(m))
		require.NoError(t, err)
		require.NoError(t, zw.Close())
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func jsonLines(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "{\"id\":%d,\"title\":\"t%d\"}\n", i, i)
	}
	return sb.String()
}

func TestFile_LinesPreserved(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "docsA.gz")
	content := jsonLines(1000)
	writeGzip(t, src, content)

	res, err := File(src, filepath.Join(dir, "docsA"))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), res.Lines)
	assert.Equal(t, int64(len(content)), res.Bytes)

	got, err := os.ReadFile(filepath.Join(dir, "docsA"))
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
}

func TestFile_MultiMember(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "m.gz")
	writeGzip(t, src, "{\"a\":1}\n", "{\"a\":2}\n{\"a\":3}")

	res, err := File(src, filepath.Join(dir, "m"))
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.Lines, "unterminated final line still counts")

	got, err := os.ReadFile(filepath.Join(dir, "m"))
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n{\"a\":2}\n{\"a\":3}", string(got))
}

func TestFile_NotGzip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "bad.gz")
	require.NoError(t, os.WriteFile(src, []byte("plain text"), 0o644))

	_, err := File(src, filepath.Join(dir, "bad"))
	assert.Error(t, err)
}

func TestRun_AllArtifactsOverwritten(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeGzip(t, filepath.Join(src, "docsA.gz"), jsonLines(3))
	writeGzip(t, filepath.Join(src, "records.json.gz"), jsonLines(2))
	require.NoError(t, os.WriteFile(filepath.Join(src, "notes.txt"), []byte("skip"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "docsA"), []byte("stale content that is longer"), 0o644))

	var seen []string
	results, err := Run(context.Background(), src, dst, func(r Result) { seen = append(seen, filepath.Base(r.Dest)) })
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"docsA", "records.json"}, seen)

	got, err := os.ReadFile(filepath.Join(dst, "docsA"))
	require.NoError(t, err)
	assert.Equal(t, jsonLines(3), string(got))

	_, err = os.Stat(filepath.Join(src, "docsA.gz"))
	assert.NoError(t, err, "artifacts are left in place")
}

func TestRun_Cancelled(t *testing.T) {
	src := t.TempDir()
	writeGzip(t, filepath.Join(src, "docsA.gz"), jsonLines(1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, src, t.TempDir(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_EmptyStore(t *testing.T) {
	results, err := Run(context.Background(), t.TempDir(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
