package geom

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"choromap/internal/dataset"
	cerrors "choromap/internal/errors"
)

// LoadCSVFeatures reads a CSV whose rows are features. Geometry comes from a
// wkt|geometry|geom|the_geom column, else from lat|latitude|y and
// lon|lng|long|longitude|x columns (case-insensitive). Every other column is
// a typed property.
func LoadCSVFeatures(path string) ([]Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindFile, "open csv").WithDetail("path", path)
	}
	defer f.Close()
	return ReadCSVFeatures(f)
}

// ReadCSVFeatures is LoadCSVFeatures over a reader.
func ReadCSVFeatures(r io.Reader) ([]Feature, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1
	recs, err := cr.ReadAll()
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindParse, "read csv")
	}
	if len(recs) == 0 {
		return nil, cerrors.New(cerrors.KindParse, "empty csv")
	}
	header := recs[0]
	idxWKT, idxLat, idxLon := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "wkt", "geometry", "geom", "the_geom":
			if idxWKT == -1 {
				idxWKT = i
			}
		case "lat", "latitude", "y":
			if idxLat == -1 {
				idxLat = i
			}
		case "lon", "lng", "long", "longitude", "x":
			if idxLon == -1 {
				idxLon = i
			}
		}
	}
	if idxWKT == -1 && (idxLat == -1 || idxLon == -1) {
		return nil, cerrors.New(cerrors.KindParse, "csv: no wkt or latitude/longitude columns")
	}
	geomCol := func(i int) bool {
		if idxWKT >= 0 {
			return i == idxWKT
		}
		return i == idxLat || i == idxLon
	}

	var out []Feature
	for n, row := range recs[1:] {
		var d Data
		if idxWKT >= 0 {
			if idxWKT >= len(row) {
				continue
			}
			d, err = ParseWKTData(row[idxWKT])
			if err != nil {
				return nil, cerrors.Wrap(err, cerrors.KindParse, "csv geometry").WithDetail("line", n+2)
			}
		} else {
			if idxLon >= len(row) || idxLat >= len(row) {
				continue
			}
			lon, err1 := strconv.ParseFloat(strings.TrimSpace(row[idxLon]), 64)
			lat, err2 := strconv.ParseFloat(strings.TrimSpace(row[idxLat]), 64)
			if err1 != nil || err2 != nil {
				continue
			}
			d.AddPoint([2]float64{lon, lat})
		}
		props := make(map[string]any, len(header))
		for i, h := range header {
			if geomCol(i) || i >= len(row) {
				continue
			}
			props[strings.TrimSpace(h)] = dataset.ParseScalar(strings.TrimSpace(row[i]))
		}
		out = append(out, Feature{Geometry: d, Properties: props})
	}
	if len(out) == 0 {
		return nil, cerrors.New(cerrors.KindParse, "csv: no valid features parsed")
	}
	return out, nil
}
