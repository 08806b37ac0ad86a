// Package dataset holds tabular data that geometry records are joined against.
package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Row maps a column name to a scalar value (string, int64, float64, bool or nil).
type Row map[string]any

// Dataset is an ordered collection of rows with a declared column set.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// New builds a dataset. Columns keep their given order; duplicates are dropped.
func New(columns []string, rows []Row) *Dataset {
	d := &Dataset{index: make(map[string]int, len(columns)), rows: rows}
	for _, c := range columns {
		if _, ok := d.index[c]; ok {
			continue
		}
		d.index[c] = len(d.columns)
		d.columns = append(d.columns, c)
	}
	return d
}

// Columns returns the column names in declaration order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

func (d *Dataset) Len() int { return len(d.rows) }

// Row returns the i-th row. Callers must not mutate it.
func (d *Dataset) Row(i int) map[string]any { return d.rows[i] }

// ParseScalar converts a text cell into int64, float64, bool or string.
// Empty cells become nil. Numbers with a leading zero ("01", "007") stay
// strings so FIPS-style codes keep their padding.
func ParseScalar(s string) any {
	if s == "" {
		return nil
	}
	if hasLeadingZero(s) {
		return s
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	return s
}

func hasLeadingZero(s string) bool {
	t := strings.TrimPrefix(s, "-")
	return len(t) > 1 && t[0] == '0' && t[1] != '.'
}
