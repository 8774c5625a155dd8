package columnar

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Record is one decoded JSON object. Numbers are kept as json.Number so
// integer columns survive without float rounding.
type Record map[string]any

// Sentinel errors for malformed input.
var (
	ErrMalformedLine = errors.New("malformed JSON line")
	ErrNotObject     = errors.New("line is not a JSON object")
)

// BatchReader yields a document's records in batches of at most size.
type BatchReader struct {
	r    *bufio.Reader
	name string
	size int
	line int64
	eof  bool
}

// NewBatchReader reads line-delimited JSON objects from r. name is used in
// error messages only. size must be positive.
func NewBatchReader(r io.Reader, name string, size int) *BatchReader {
	if size <= 0 {
		size = 1
	}
	return &BatchReader{r: bufio.NewReaderSize(r, 1<<20), name: name, size: size}
}

// Next returns the next batch. It returns io.EOF, and no records, once the
// input is exhausted. The final batch may be shorter than size. Blank lines
// are skipped and do not count towards the batch size.
func (b *BatchReader) Next() ([]Record, error) {
	if b.eof {
		return nil, io.EOF
	}
	batch := make([]Record, 0, min(b.size, 4096))
	for len(batch) < b.size {
		raw, err := b.r.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: %w", b.name, err)
		}
		if len(raw) > 0 {
			b.line++
			if rec, ok, decErr := b.decode(raw); decErr != nil {
				return nil, decErr
			} else if ok {
				batch = append(batch, rec)
			}
		}
		if errors.Is(err, io.EOF) {
			b.eof = true
			break
		}
	}
	if len(batch) == 0 {
		return nil, io.EOF
	}
	return batch, nil
}

// Line returns the number of lines consumed so far.
func (b *BatchReader) Line() int64 { return b.line }

func (b *BatchReader) decode(raw []byte) (Record, bool, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, false, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false, fmt.Errorf("%s:%d: %w: %v", b.name, b.line, ErrMalformedLine, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, false, fmt.Errorf("%s:%d: %w: trailing data", b.name, b.line, ErrMalformedLine)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, false, fmt.Errorf("%s:%d: %w", b.name, b.line, ErrNotObject)
	}
	return Record(obj), true, nil
}
