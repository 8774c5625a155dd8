package columnar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/backmassage/metamirror/internal/naming"
	"github.com/backmassage/metamirror/internal/workspace"
)

// Options configures a conversion.
type Options struct {
	ChunkSize int      // Maximum records per batch file.
	Suffixes  []string // Accepted document extensions; "" matches none.
}

// Result describes one written batch file.
type Result struct {
	Document string
	Type     string
	Path     string
	Index    int
	Rows     int64
	Bytes    int64
	Columns  int
}

// Run converts every accepted document in srcDir into batch files in
// dstDir. onBatch, when non-nil, is called after each batch is written.
func Run(ctx context.Context, srcDir, dstDir string, opts Options, onBatch func(Result)) ([]Result, error) {
	docs, err := workspace.List(srcDir, func(name string) bool {
		return naming.MatchesSuffix(name, opts.Suffixes)
	})
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}

	var all []Result
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		res, err := ConvertDocument(ctx, doc, dstDir, opts.ChunkSize, onBatch)
		all = append(all, res...)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

// ConvertDocument splits one document into ceil(R/chunkSize) batch files
// named "<type>_chunk_<n>.parquet", n counting from 0. A document with no
// records produces no files.
func ConvertDocument(ctx context.Context, doc, dstDir string, chunkSize int, onBatch func(Result)) ([]Result, error) {
	f, err := os.Open(doc)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	docType := naming.DocumentType(doc)
	br := NewBatchReader(f, filepath.Base(doc), chunkSize)

	var results []Result
	for index := 0; ; index++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		rows, err := br.Next()
		if errors.Is(err, io.EOF) {
			return results, nil
		}
		if err != nil {
			return results, err
		}

		schema := InferSchema(docType, rows)
		path := filepath.Join(dstDir, naming.BatchName(docType, index))
		size, err := WriteBatch(path, schema, rows)
		if err != nil {
			return results, err
		}

		res := Result{
			Document: doc,
			Type:     docType,
			Path:     path,
			Index:    index,
			Rows:     int64(len(rows)),
			Bytes:    size,
			Columns:  len(schema.Columns),
		}
		results = append(results, res)
		if onBatch != nil {
			onBatch(res)
		}
	}
}
