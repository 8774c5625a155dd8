// Package decompress implements the decompress stage: every "<type>.gz"
// artifact is streamed into a plain line-delimited document of the same
// name without the ".gz" suffix. Content is copied verbatim; nothing is
// parsed or validated here.
package decompress

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"

	"github.com/backmassage/metamirror/internal/naming"
	"github.com/backmassage/metamirror/internal/workspace"
)

const bufSize = 1 << 20

// Result describes one expanded artifact.
type Result struct {
	Source string
	Dest   string
	Lines  int64
	Bytes  int64
}

// Run expands every artifact in srcDir into dstDir, overwriting existing
// documents. It is not incremental: each call re-expands every artifact.
// onFile, when non-nil, is called after each artifact completes.
func Run(ctx context.Context, srcDir, dstDir string, onFile func(Result)) ([]Result, error) {
	files, err := workspace.List(srcDir, naming.IsArtifact)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	var results []Result
	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		dst := filepath.Join(dstDir, naming.PlainName(src))
		res, err := File(src, dst)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		if onFile != nil {
			onFile(res)
		}
	}
	return results, nil
}

// File expands one gzip file (multi-member streams included) into dst.
func File(src, dst string) (Result, error) {
	res := Result{Source: src, Dest: dst}

	in, err := os.Open(src)
	if err != nil {
		return res, err
	}
	defer in.Close()

	zr, err := gzip.NewReader(bufio.NewReaderSize(in, bufSize))
	if err != nil {
		return res, fmt.Errorf("%s: %w", filepath.Base(src), err)
	}
	defer zr.Close()

	out, err := os.Create(dst)
	if err != nil {
		return res, err
	}
	lc := &lineCounter{w: out}
	bw := bufio.NewWriterSize(lc, bufSize)

	n, err := io.Copy(bw, zr)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		out.Close()
		return res, fmt.Errorf("%s: %w", filepath.Base(src), err)
	}
	if err := out.Close(); err != nil {
		return res, err
	}

	res.Bytes = n
	res.Lines = lc.lines
	if lc.last != '\n' && n > 0 {
		res.Lines++ // final line without terminator
	}
	return res, nil
}

// lineCounter counts newlines passing through to w.
type lineCounter struct {
	w     io.Writer
	lines int64
	last  byte
}

func (c *lineCounter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.lines += int64(bytes.Count(p[:n], []byte{'\n'}))
	if n > 0 {
		c.last = p[n-1]
	}
	return n, err
}
