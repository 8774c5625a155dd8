package columnar

import (
	"errors"
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"
)

// ErrNoColumns is returned for a batch whose records are all empty objects.
var ErrNoColumns = errors.New("batch has no columns")

// WriteBatch writes rows as one snappy-compressed Parquet file at path using
// schema. The file is replaced if it exists. It returns the file size.
func WriteBatch(path string, schema *Schema, rows []Record) (int64, error) {
	if len(schema.Columns) == 0 {
		return 0, fmt.Errorf("%s: %w", path, ErrNoColumns)
	}

	pqRows := make([]parquet.Row, 0, len(rows))
	for i, r := range rows {
		row, err := schema.Row(r)
		if err != nil {
			return 0, fmt.Errorf("%s: row %d: %w", path, i, err)
		}
		pqRows = append(pqRows, row)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	w := parquet.NewWriter(f, schema.Parquet(), parquet.Compression(&parquet.Snappy))
	if _, err := w.WriteRows(pqRows); err != nil {
		f.Close()
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		f.Close()
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, err
	}
	return fi.Size(), f.Close()
}

// FileInfo summarizes an existing batch file.
type FileInfo struct {
	Rows    int64
	Columns []string
}

// Stat opens a Parquet file and reports its row count and leaf columns.
func Stat(path string) (FileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return FileInfo{}, err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return FileInfo{}, err
	}
	pf, err := parquet.OpenFile(f, fi.Size())
	if err != nil {
		return FileInfo{}, fmt.Errorf("%s: %w", path, err)
	}
	info := FileInfo{Rows: pf.NumRows()}
	for _, col := range pf.Schema().Columns() {
		if len(col) > 0 {
			info.Columns = append(info.Columns, col[len(col)-1])
		}
	}
	return info, nil
}
