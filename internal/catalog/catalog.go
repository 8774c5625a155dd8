package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb" // registers the "duckdb" driver

	"github.com/backmassage/metamirror/internal/naming"
	"github.com/backmassage/metamirror/internal/workspace"
)

// Binding selects which batch files a view reads.
type Binding int

const (
	// BindFirstFile binds the view to the first batch file seen.
	BindFirstFile Binding = iota
	// BindGlob binds the view to all "<type>_chunk_*.parquet" files.
	BindGlob
)

// ErrBadTypeName is returned for a document type that cannot be a view name.
var ErrBadTypeName = errors.New("invalid view name")

// Registration records one CREATE VIEW IF NOT EXISTS statement issued.
type Registration struct {
	View   string
	Source string // Parquet file or glob pattern.
}

// Catalog is an open DuckDB database file.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if absent) the DuckDB database at path. An empty
// path opens an in-memory database.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the database.
func (c *Catalog) Close() error { return c.db.Close() }

// Register issues one view statement per batch file in dir (sorted), or
// one per type with BindGlob. onView, when non-nil, is called for each.
func (c *Catalog) Register(ctx context.Context, dir string, binding Binding, onView func(Registration)) ([]Registration, error) {
	files, err := workspace.List(dir, naming.IsBatch)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	var regs []Registration
	globbed := make(map[string]bool)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return regs, err
		}
		view := naming.BatchType(file)
		source := file
		if binding == BindGlob {
			if globbed[view] {
				continue
			}
			globbed[view] = true
			source = filepath.Join(dir, view+naming.ChunkMarker+"*"+naming.BatchSuffix)
		}

		reg := Registration{View: view, Source: source}
		if err := c.createView(ctx, reg, binding); err != nil {
			return regs, err
		}
		regs = append(regs, reg)
		if onView != nil {
			onView(reg)
		}
	}
	return regs, nil
}

func (c *Catalog) createView(ctx context.Context, reg Registration, binding Binding) error {
	if reg.View == "" {
		return fmt.Errorf("%s: %w", reg.Source, ErrBadTypeName)
	}
	scan := fmt.Sprintf("parquet_scan(%s)", quoteLiteral(reg.Source))
	if binding == BindGlob {
		scan = fmt.Sprintf("parquet_scan(%s, union_by_name = true)", quoteLiteral(reg.Source))
	}
	stmt := fmt.Sprintf("CREATE VIEW IF NOT EXISTS %s AS SELECT * FROM %s", quoteIdent(reg.View), scan)
	if _, err := c.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("create view %s: %w", reg.View, err)
	}
	return nil
}

// View describes a registered view.
type View struct {
	Name string
	SQL  string
}

// Views lists user views in name order.
func (c *Catalog) Views(ctx context.Context) ([]View, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT view_name, sql FROM duckdb_views() WHERE NOT internal ORDER BY view_name`)
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	defer rows.Close()

	var views []View
	for rows.Next() {
		var v View
		var stmt sql.NullString
		if err := rows.Scan(&v.Name, &stmt); err != nil {
			return nil, err
		}
		v.SQL = stmt.String
		views = append(views, v)
	}
	return views, rows.Err()
}

// Count returns the number of rows visible through view.
func (c *Catalog) Count(ctx context.Context, view string) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, "SELECT count(*) FROM "+quoteIdent(view)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", view, err)
	}
	return n, nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// EngineVersion opens a throwaway in-memory database and reports the DuckDB
// library version.
func EngineVersion(ctx context.Context) (string, error) {
	c, err := Open("")
	if err != nil {
		return "", err
	}
	defer c.Close()
	var v string
	if err := c.db.QueryRowContext(ctx, "SELECT version()").Scan(&v); err != nil {
		return "", err
	}
	return v, nil
}
