package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/backmassage/metamirror/internal/catalog"
	"github.com/backmassage/metamirror/internal/columnar"
	"github.com/backmassage/metamirror/internal/config"
	"github.com/backmassage/metamirror/internal/display"
	"github.com/backmassage/metamirror/internal/naming"
	"github.com/backmassage/metamirror/internal/term"
	"github.com/backmassage/metamirror/internal/workspace"
)

// TypeSummary is one document type as found in the columnar store.
type TypeSummary struct {
	Type    string
	Batches int
	Rows    int64
	Bytes   int64
	Gap     bool // Batch indices are not 0..n-1.
	View    bool // A catalog view of this name exists.
}

// Inventory scans the columnar store and, if it exists, the catalog. It
// never creates either.
func Inventory(ctx context.Context, cfg *config.Config) ([]TypeSummary, error) {
	layout := cfg.Layout()
	files, err := workspace.List(layout.ColumnarDir, naming.IsBatch)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	byType := make(map[string]*TypeSummary)
	indices := make(map[string][]int)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := naming.BatchType(f)
		s, ok := byType[t]
		if !ok {
			s = &TypeSummary{Type: t}
			byType[t] = s
		}
		info, err := columnar.Stat(f)
		if err != nil {
			return nil, err
		}
		fi, err := os.Stat(f)
		if err != nil {
			return nil, err
		}
		s.Batches++
		s.Rows += info.Rows
		s.Bytes += fi.Size()
		if idx, ok := naming.BatchIndex(f); ok {
			indices[t] = append(indices[t], idx)
		} else {
			s.Gap = true
		}
	}

	views := make(map[string]bool)
	if _, err := os.Stat(layout.CatalogPath); err == nil {
		cat, err := catalog.Open(layout.CatalogPath)
		if err != nil {
			return nil, err
		}
		defer cat.Close()
		vs, err := cat.Views(ctx)
		if err != nil {
			return nil, err
		}
		for _, v := range vs {
			views[v.Name] = true
		}
	}

	out := make([]TypeSummary, 0, len(byType))
	for t, s := range byType {
		idx := indices[t]
		sort.Ints(idx)
		for i, n := range idx {
			if i != n {
				s.Gap = true
				break
			}
		}
		s.View = views[t]
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// PrintInventory writes an aligned table of rows to w.
func PrintInventory(w io.Writer, rows []TypeSummary) {
	typeW := len("Type")
	for _, r := range rows {
		typeW = max(typeW, len(r.Type))
	}
	typeW = min(typeW, 40)

	header := fmt.Sprintf("  %-*s  %7s  %14s  %10s  %s", typeW, "Type", "Batches", "Rows", "Size", "View")
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, "  "+strings.Repeat("─", len(header)-2))

	for _, r := range rows {
		name := r.Type
		if len(name) > typeW {
			name = name[:typeW-1] + "…"
		}
		view := colorPad("yes", 4, "")
		if !r.View {
			view = colorPad("no", 4, "warn")
		}
		flag := ""
		if r.Gap {
			flag = "  " + term.Red + "[gap]" + term.NC
		}
		fmt.Fprintf(w, "  %-*s  %7d  %14s  %10s  %s%s\n",
			typeW, name, r.Batches, display.FormatCount(r.Rows), display.FormatBytes(r.Bytes), view, flag)
	}
}

// colorPad pads s to width before wrapping it in color, so escape bytes do
// not count towards the column width.
func colorPad(s string, width int, class string) string {
	padded := fmt.Sprintf("%-*s", width, s)
	switch class {
	case "warn":
		return term.Yellow + padded + term.NC
	case "error":
		return term.Red + padded + term.NC
	default:
		return padded
	}
}
