package dataset

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"strings"

	gojson "github.com/goccy/go-json"

	cerrors "choromap/internal/errors"
)

// CSVOptions controls how delimited text is read.
type CSVOptions struct {
	Delimiter rune
	TrimSpace bool
	// RawStrings keeps every cell as a string instead of typing it.
	RawStrings bool
}

// ReadCSV reads a header row followed by data rows. Short rows are padded
// with nil; rows longer than the header are rejected.
func ReadCSV(r io.Reader, opts CSVOptions) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = opts.TrimSpace
	cr.FieldsPerRecord = -1
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindParse, "read csv")
	}
	if len(recs) == 0 {
		return nil, cerrors.New(cerrors.KindParse, "empty csv")
	}
	header := make([]string, len(recs[0]))
	for i, h := range recs[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	rows := make([]Row, 0, len(recs)-1)
	for n, rec := range recs[1:] {
		if len(rec) > len(header) {
			return nil, cerrors.New(cerrors.KindParse, "csv row has more cells than header").
				WithDetail("line", n+2).
				WithDetail("cells", len(rec))
		}
		row := make(Row, len(header))
		for i, col := range header {
			if i >= len(rec) {
				row[col] = nil
				continue
			}
			cell := rec[i]
			if opts.TrimSpace {
				cell = strings.TrimSpace(cell)
			}
			if opts.RawStrings {
				if cell == "" {
					row[col] = nil
				} else {
					row[col] = cell
				}
				continue
			}
			row[col] = ParseScalar(cell)
		}
		rows = append(rows, row)
	}
	return New(header, rows), nil
}

// LoadCSV opens path and reads it with ReadCSV.
func LoadCSV(path string, opts CSVOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindFile, "open dataset").WithDetail("path", path)
	}
	defer f.Close()
	return ReadCSV(f, opts)
}

// LoadJSON reads a JSON array of flat objects. Columns are the union of
// object keys in first-seen order; nested values are kept as-is.
func LoadJSON(path string) (*Dataset, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindFile, "read dataset").WithDetail("path", path)
	}
	return DecodeJSON(b)
}

// DecodeJSON decodes a JSON array of objects into a dataset.
func DecodeJSON(b []byte) (*Dataset, error) {
	dec := gojson.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	// key order is not preserved by map decoding, so walk tokens per object
	tok, err := dec.Token()
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindParse, "decode json dataset")
	}
	if d, ok := tok.(gojson.Delim); !ok || d != '[' {
		return nil, cerrors.New(cerrors.KindParse, "json dataset must be an array of objects")
	}
	var columns []string
	seen := map[string]bool{}
	var rows []Row
	for dec.More() {
		row, keys, err := decodeObject(dec)
		if err != nil {
			return nil, cerrors.Wrap(err, cerrors.KindParse, "decode json dataset").WithDetail("row", len(rows))
		}
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
		rows = append(rows, row)
	}
	return New(columns, rows), nil
}

func decodeObject(dec *gojson.Decoder) (Row, []string, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(gojson.Delim); !ok || d != '{' {
		return nil, nil, cerrors.New(cerrors.KindParse, "expected object")
	}
	row := Row{}
	var keys []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, _ := kt.(string)
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, nil, err
		}
		row[key] = normalizeJSON(v)
		keys = append(keys, key)
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return row, keys, nil
}

func normalizeJSON(v any) any {
	n, ok := v.(gojson.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
