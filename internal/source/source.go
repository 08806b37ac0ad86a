// Package source picks geometry and dataset loaders by file extension.
package source

import (
	"os"
	"path/filepath"
	"strings"

	"choromap/internal/dataset"
	cerrors "choromap/internal/errors"
	"choromap/internal/geom"
	"choromap/internal/merge"
)

// Record is a geometry record as fed to the merger.
type Record = merge.Record[geom.Data]

// GeometryExts lists the extensions LoadGeometry understands.
var GeometryExts = []string{".geojson", ".json", ".csv", ".kml", ".wkt"}

// LoadFeatures loads geometry features from path.
func LoadFeatures(path string) ([]geom.Feature, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".geojson", ".json":
		return geom.LoadFeatures(path)
	case ".csv":
		return geom.LoadCSVFeatures(path)
	case ".kml":
		return geom.LoadKMLFeatures(path)
	case ".wkt":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, cerrors.Wrap(err, cerrors.KindFile, "read wkt").WithDetail("path", path)
		}
		// one geometry per non-empty line
		var fs []geom.Feature
		for i, line := range strings.Split(string(b), "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			d, err := geom.ParseWKTData(line)
			if err != nil {
				return nil, cerrors.Wrap(err, cerrors.KindParse, "wkt line").WithDetail("line", i+1)
			}
			fs = append(fs, geom.Feature{Geometry: d, Properties: map[string]any{"line": int64(i + 1)}})
		}
		if len(fs) == 0 {
			return nil, cerrors.New(cerrors.KindParse, "wkt: no geometries").WithDetail("path", path)
		}
		return fs, nil
	}
	return nil, cerrors.New(cerrors.KindValidation, "unsupported geometry file").
		WithDetail("ext", ext).
		WithDetail("supported", strings.Join(GeometryExts, " "))
}

// LoadGeometry loads path as merge records, one per feature.
func LoadGeometry(path string) ([]Record, error) {
	fs, err := LoadFeatures(path)
	if err != nil {
		return nil, err
	}
	return Records(fs), nil
}

// Records wraps features as merge records.
func Records(fs []geom.Feature) []Record {
	out := make([]Record, len(fs))
	for i, f := range fs {
		out[i] = Record{Geometry: f.Geometry, Attributes: merge.Attributes(f.Properties)}
	}
	return out
}

// LoadDataset loads a CSV, TSV or JSON dataset.
func LoadDataset(path string, opts dataset.CSVOptions) (*dataset.Dataset, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".csv", ".txt":
		return dataset.LoadCSV(path, opts)
	case ".tsv":
		if opts.Delimiter == 0 {
			opts.Delimiter = '\t'
		}
		return dataset.LoadCSV(path, opts)
	case ".json":
		return dataset.LoadJSON(path)
	}
	return nil, cerrors.New(cerrors.KindValidation, "unsupported dataset file").WithDetail("ext", ext)
}
