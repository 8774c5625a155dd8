package columnar

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/parquet-go/parquet-go"
)

// ColumnType is the physical type chosen for an inferred column.
type ColumnType string

const (
	TypeBoolean ColumnType = "BOOLEAN"
	TypeInt64   ColumnType = "INT64"
	TypeDouble  ColumnType = "DOUBLE"
	TypeString  ColumnType = "STRING"
)

// Column is one inferred column. Encoded marks a STRING column whose
// non-string values are stored as JSON text (nested or mixed values).
type Column struct {
	Name    string
	Type    ColumnType
	Encoded bool
}

// ErrTypeMismatch is returned when a record does not fit the schema it is
// converted under.
var ErrTypeMismatch = errors.New("value does not match column type")

// Schema is the explicit record schema of one batch. Columns are sorted by
// name, which is also the Parquet leaf order.
type Schema struct {
	Columns []Column
	pq      *parquet.Schema
	leaf    map[string]int
}

// kind is the JSON value class seen during inference.
type kind int

const (
	kindNull kind = iota
	kindBool
	kindInt
	kindFloat
	kindString
	kindNested
	kindMixed
)

func classify(v any) kind {
	switch x := v.(type) {
	case nil:
		return kindNull
	case bool:
		return kindBool
	case json.Number:
		if _, err := strconv.ParseInt(string(x), 10, 64); err == nil {
			return kindInt
		}
		return kindFloat
	case float64:
		return kindFloat
	case string:
		return kindString
	case map[string]any, []any:
		return kindNested
	default:
		return kindMixed
	}
}

// merge widens two kinds: null yields to anything, int widens to float,
// any other disagreement becomes mixed.
func merge(a, b kind) kind {
	switch {
	case a == b:
		return a
	case a == kindNull:
		return b
	case b == kindNull:
		return a
	case (a == kindInt && b == kindFloat) || (a == kindFloat && b == kindInt):
		return kindFloat
	default:
		return kindMixed
	}
}

// InferSchema derives a schema from rows alone. name becomes the Parquet
// schema name. All-null columns are typed STRING; nested objects/arrays and
// columns mixing kinds become JSON-encoded STRING columns.
func InferSchema(name string, rows []Record) *Schema {
	kinds := make(map[string]kind)
	for _, r := range rows {
		for k, v := range r {
			prev, seen := kinds[k]
			if !seen {
				kinds[k] = classify(v)
				continue
			}
			kinds[k] = merge(prev, classify(v))
		}
	}

	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)

	s := &Schema{Columns: make([]Column, 0, len(names))}
	group := make(parquet.Group, len(names))
	for _, n := range names {
		c := Column{Name: n}
		switch kinds[n] {
		case kindBool:
			c.Type = TypeBoolean
			group[n] = parquet.Optional(parquet.Leaf(parquet.BooleanType))
		case kindInt:
			c.Type = TypeInt64
			group[n] = parquet.Optional(parquet.Int(64))
		case kindFloat:
			c.Type = TypeDouble
			group[n] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		case kindString, kindNull:
			c.Type = TypeString
			group[n] = parquet.Optional(parquet.String())
		default:
			c.Type = TypeString
			c.Encoded = true
			group[n] = parquet.Optional(parquet.String())
		}
		s.Columns = append(s.Columns, c)
	}

	s.pq = parquet.NewSchema(name, group)
	s.leaf = make(map[string]int, len(names))
	for _, n := range names {
		if lc, ok := s.pq.Lookup(n); ok {
			s.leaf[n] = lc.ColumnIndex
		}
	}
	return s
}

// Parquet returns the underlying parquet-go schema.
func (s *Schema) Parquet() *parquet.Schema { return s.pq }

// Row converts r to a Parquet row under this schema. Missing keys and JSON
// nulls become NULL values.
func (s *Schema) Row(r Record) (parquet.Row, error) {
	row := make(parquet.Row, len(s.Columns))
	for _, c := range s.Columns {
		idx := s.leaf[c.Name]
		v, present := r[c.Name]
		if !present || v == nil {
			row[idx] = parquet.NullValue().Level(0, 0, idx)
			continue
		}
		pv, err := toValue(c, v)
		if err != nil {
			return nil, err
		}
		row[idx] = pv.Level(0, 1, idx)
	}
	return row, nil
}

func toValue(c Column, v any) (parquet.Value, error) {
	switch c.Type {
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return parquet.Value{}, fmt.Errorf("column %q: %w: %T in BOOLEAN", c.Name, ErrTypeMismatch, v)
		}
		return parquet.BooleanValue(b), nil
	case TypeInt64:
		num, ok := v.(json.Number)
		if !ok {
			return parquet.Value{}, fmt.Errorf("column %q: %w: %T in INT64", c.Name, ErrTypeMismatch, v)
		}
		n, err := strconv.ParseInt(string(num), 10, 64)
		if err != nil {
			return parquet.Value{}, fmt.Errorf("column %q: %w: %v", c.Name, ErrTypeMismatch, err)
		}
		return parquet.Int64Value(n), nil
	case TypeDouble:
		switch x := v.(type) {
		case json.Number:
			f, err := x.Float64()
			if err != nil {
				return parquet.Value{}, fmt.Errorf("column %q: %w: %v", c.Name, ErrTypeMismatch, err)
			}
			return parquet.DoubleValue(f), nil
		case float64:
			return parquet.DoubleValue(x), nil
		}
		return parquet.Value{}, fmt.Errorf("column %q: %w: %T in DOUBLE", c.Name, ErrTypeMismatch, v)
	default:
		if s, ok := v.(string); ok {
			return parquet.ByteArrayValue([]byte(s)), nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return parquet.Value{}, err
		}
		return parquet.ByteArrayValue(b), nil
	}
}
