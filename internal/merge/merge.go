// Package merge joins geometry records against a tabular dataset on a shared
// key and produces the ordered entries a choropleth renderer consumes.
//
// Merge is a pure function of its inputs. It never mutates records, their
// geometries or the dataset, and is safe to call from several goroutines.
package merge

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	cerrors "choromap/internal/errors"
)

// Attributes maps a field name to a scalar.
type Attributes map[string]any

// Lookup returns the named attribute and whether it is present.
func (a Attributes) Lookup(name string) (any, bool) {
	v, ok := a[name]
	return v, ok
}

// Record pairs an opaque geometry with its attributes.
type Record[G any] struct {
	Geometry   G
	Attributes Attributes
}

// Table is the dataset side of a merge.
type Table interface {
	HasColumn(name string) bool
	Len() int
	Row(i int) map[string]any
}

// Index is the tuple identifying a merged entry.
type Index []any

func (ix Index) String() string {
	if len(ix) == 1 {
		return fmt.Sprint(ix[0])
	}
	parts := make([]string, len(ix))
	for i, v := range ix {
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (ix Index) key() string {
	parts := make([]string, len(ix))
	for i, v := range ix {
		parts[i] = canonical(v, false, false)
	}
	return tupleKey(parts)
}

// Entry is one merged record. HasValue is false when no value field was
// requested or the matched cell was null.
type Entry[G any] struct {
	Index      Index
	Geometry   G
	Value      any
	HasValue   bool
	Attributes Attributes
	// Position is the record's position in the merge input.
	Position int
	// Row is the matched dataset row's position.
	Row int
}

// Result holds the merged entries in input order and the non-fatal
// warnings raised while producing them.
type Result[G any] struct {
	Entries  []Entry[G]
	Warnings []*cerrors.Error
}

// WarningsOf returns the warnings of one kind.
func (r *Result[G]) WarningsOf(kind cerrors.Kind) []*cerrors.Error {
	var out []*cerrors.Error
	for _, w := range r.Warnings {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}

// Values returns each entry's value, nil where the entry has none.
func (r *Result[G]) Values() []any {
	out := make([]any, len(r.Entries))
	for i, e := range r.Entries {
		if e.HasValue {
			out[i] = e.Value
		}
	}
	return out
}

// Merge joins records against table as configured by spec.
//
// Spec problems (missing columns, empty input) fail before any record is
// looked at. A record without a matching row is dropped with a JoinMiss
// warning under Skip, or fails the whole merge under Abort. Duplicate
// dataset keys resolve to the last row and duplicate index tuples are
// kept; both are reported as warnings.
func Merge[G any](records []Record[G], table Table, spec *Spec) (*Result[G], error) {
	if err := validate(len(records), table, spec); err != nil {
		return nil, err
	}
	log := spec.log
	log.Debug("merge started",
		zap.Int("records", len(records)),
		zap.Int("rows", table.Len()),
		zap.String("on_miss", spec.policy.String()))

	lookup, warnings := buildLookup(table, spec)
	res := &Result[G]{
		Entries:  make([]Entry[G], 0, len(records)),
		Warnings: warnings,
	}
	indexSeen := make(map[string]int, len(records))

	for pos, rec := range records {
		key, missing := recordKey(rec.Attributes, spec)
		rowIdx, found := -1, false
		if missing == "" {
			rowIdx, found = lookup[key]
		}
		if !found {
			w := joinMiss(pos, rec.Attributes, spec, missing)
			if spec.policy == Abort {
				log.Debug("merge aborted", zap.Int("position", pos))
				return nil, w
			}
			res.Warnings = append(res.Warnings, w)
			continue
		}

		row := table.Row(rowIdx)
		e := Entry[G]{
			Geometry:   rec.Geometry,
			Attributes: union(rec.Attributes, row),
			Position:   pos,
			Row:        rowIdx,
		}
		if spec.valueField != "" {
			v, ok := row[spec.valueField]
			e.Value, e.HasValue = v, ok && v != nil
		}
		if len(spec.indexFields) > 0 {
			e.Index = make(Index, len(spec.indexFields))
			for i, f := range spec.indexFields {
				e.Index[i] = row[f]
			}
		} else {
			e.Index = Index{pos}
		}

		ik := e.Index.key()
		if first, dup := indexSeen[ik]; dup {
			res.Warnings = append(res.Warnings, cerrors.New(cerrors.KindDuplicateIndex, "entries share an index").
				WithDetail("index", e.Index.String()).
				WithDetail("first", first).
				WithDetail("position", pos))
		} else {
			indexSeen[ik] = pos
		}
		res.Entries = append(res.Entries, e)
	}

	for _, w := range res.Warnings {
		log.Warn(w.Message, zap.String("kind", string(w.Kind)), zap.Any("details", w.Details))
	}
	log.Debug("merge finished",
		zap.Int("entries", len(res.Entries)),
		zap.Int("warnings", len(res.Warnings)))
	return res, nil
}

func validate(n int, table Table, spec *Spec) error {
	if spec == nil {
		return cerrors.New(cerrors.KindValidation, "merge spec is nil")
	}
	if table == nil {
		return cerrors.New(cerrors.KindValidation, "dataset is nil")
	}
	if len(spec.join.pairs) == 0 {
		return cerrors.New(cerrors.KindValidation, "join spec names no key")
	}
	for _, p := range spec.join.pairs {
		if p.Record == "" || p.Dataset == "" {
			return cerrors.New(cerrors.KindValidation, "join key name is empty")
		}
		if !table.HasColumn(p.Dataset) {
			return cerrors.New(cerrors.KindMissingColumn, "join column not in dataset").
				WithDetail("column", p.Dataset)
		}
	}
	if spec.valueField != "" && !table.HasColumn(spec.valueField) {
		return cerrors.New(cerrors.KindMissingColumn, "value column not in dataset").
			WithDetail("column", spec.valueField)
	}
	for _, f := range spec.indexFields {
		if !table.HasColumn(f) {
			return cerrors.New(cerrors.KindMissingColumn, "index column not in dataset").
				WithDetail("column", f)
		}
	}
	if n == 0 {
		return cerrors.New(cerrors.KindValidation, "no records to merge")
	}
	return nil
}

// buildLookup maps each row's key to its position. Later rows overwrite
// earlier ones; each overwrite is reported. Rows with a null key part are
// not indexed.
func buildLookup(table Table, spec *Spec) (map[string]int, []*cerrors.Error) {
	lookup := make(map[string]int, table.Len())
	var warnings []*cerrors.Error
	parts := make([]string, len(spec.join.pairs))
rows:
	for i := 0; i < table.Len(); i++ {
		row := table.Row(i)
		for j, p := range spec.join.pairs {
			v := row[p.Dataset]
			if v == nil {
				continue rows
			}
			parts[j] = canonical(v, spec.trimSpace, spec.foldCase)
		}
		k := tupleKey(parts)
		if prev, ok := lookup[k]; ok {
			warnings = append(warnings, cerrors.New(cerrors.KindDuplicateKey, "dataset key repeated; later row wins").
				WithDetail("key", displayKey(row, spec.join.names(false))).
				WithDetail("previous", prev).
				WithDetail("row", i))
		}
		lookup[k] = i
	}
	return lookup, warnings
}

// recordKey returns the record's lookup key, or the name of the first key
// attribute that is absent or null.
func recordKey(attrs Attributes, spec *Spec) (string, string) {
	parts := make([]string, len(spec.join.pairs))
	for i, p := range spec.join.pairs {
		v, ok := attrs.Lookup(p.Record)
		if !ok || v == nil {
			return "", p.Record
		}
		parts[i] = canonical(v, spec.trimSpace, spec.foldCase)
	}
	return tupleKey(parts), ""
}

func joinMiss(pos int, attrs Attributes, spec *Spec, missingAttr string) *cerrors.Error {
	if missingAttr != "" {
		return cerrors.New(cerrors.KindJoinMiss, "record has no join attribute").
			WithDetail("position", pos).
			WithDetail("attribute", missingAttr)
	}
	return cerrors.New(cerrors.KindJoinMiss, "no dataset row for record key").
		WithDetail("position", pos).
		WithDetail("key", displayKey(attrs, spec.join.names(true)))
}

func displayKey(m map[string]any, names []string) string {
	if len(names) == 1 {
		return fmt.Sprint(m[names[0]])
	}
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprint(m[n])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (js JoinSpec) names(recordSide bool) []string {
	out := make([]string, len(js.pairs))
	for i, p := range js.pairs {
		if recordSide {
			out[i] = p.Record
		} else {
			out[i] = p.Dataset
		}
	}
	return out
}

func union(attrs Attributes, row map[string]any) Attributes {
	out := make(Attributes, len(attrs)+len(row))
	for k, v := range attrs {
		out[k] = v
	}
	for k, v := range row {
		out[k] = v
	}
	return out
}
