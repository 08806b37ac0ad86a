package tui

import (
	"fmt"
	"sort"
	"strconv"

	table "github.com/charmbracelet/bubbles/table"
	gojson "github.com/goccy/go-json"
)

const maxColW = 24

// refreshAttrsFromCurrent rebuilds the table columns/rows from the merged entries
func (m *Model) refreshAttrsFromCurrent() {
	cols, rows := m.buildAttributes()
	// If there are no rows, disable attributes view to avoid rendering panics
	if len(rows) == 0 {
		m.showAttrs = false
		m.status = "no entries to tabulate"
		return
	}
	tcols := make([]table.Column, 0, len(cols)+1)
	tcols = append(tcols, table.Column{Title: "#", Width: 4})
	for _, c := range cols {
		tcols = append(tcols, table.Column{Title: c, Width: min(len(c)+2, maxColW)})
	}
	trows := make([]table.Row, 0, len(rows))
	for i, r := range rows {
		row := make([]string, 0, len(tcols))
		row = append(row, strconv.Itoa(i+1))
		row = append(row, r...)
		trows = append(trows, table.Row(row))
	}
	// widen columns to fit their content
	for _, r := range trows {
		for j, cell := range r {
			if w := min(len(cell)+2, maxColW); w > tcols[j].Width {
				tcols[j].Width = w
			}
		}
	}
	// Avoid transient mismatch: clear rows, set columns, then set rows
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(tcols)
	m.tbl.SetRows(trows)
}

// buildAttributes returns index and value followed by the sorted union of
// attribute names, with one row per entry.
func (m *Model) buildAttributes() ([]string, [][]string) {
	seen := map[string]bool{}
	var names []string
	for _, f := range m.features {
		for k := range f.attrs {
			if !seen[k] {
				seen[k] = true
				names = append(names, k)
			}
		}
	}
	sort.Strings(names)
	cols := append([]string{"index", m.legendField()}, names...)
	rows := make([][]string, 0, len(m.features))
	for _, f := range m.features {
		vals := make([]string, 0, len(cols))
		vals = append(vals, f.index, f.value)
		for _, k := range names {
			vals = append(vals, formatCell(f.attrs[k]))
		}
		rows = append(rows, vals)
	}
	return cols, rows
}

func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case int64, int, bool:
		return fmt.Sprint(t)
	default:
		bs, err := gojson.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(bs)
	}
}
