package geom

import (
	"os"

	gojson "github.com/goccy/go-json"

	cerrors "choromap/internal/errors"
)

// LoadFeatures reads a GeoJSON file and returns one Feature per GeoJSON
// feature. A bare geometry becomes a single feature without properties.
func LoadFeatures(path string) ([]Feature, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindFile, "read geojson").WithDetail("path", path)
	}
	fs, err := DecodeFeatures(b)
	if err != nil {
		return nil, err
	}
	return fs, nil
}

// DecodeFeatures parses GeoJSON bytes into features.
func DecodeFeatures(b []byte) ([]Feature, error) {
	var raw map[string]any
	if err := gojson.Unmarshal(b, &raw); err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindParse, "decode geojson")
	}
	var out []Feature
	add := func(fm map[string]any) {
		var f Feature
		if g, ok := fm["geometry"].(map[string]any); ok {
			walkGeom(&f.Geometry, g)
		}
		f.Properties, _ = fm["properties"].(map[string]any)
		if f.Properties == nil {
			f.Properties = map[string]any{}
		}
		out = append(out, f)
	}
	t, _ := raw["type"].(string)
	switch t {
	case "Feature":
		add(raw)
	case "FeatureCollection":
		fs, _ := raw["features"].([]any)
		for _, f := range fs {
			if fm, ok := f.(map[string]any); ok {
				add(fm)
			}
		}
	case "":
		return nil, cerrors.New(cerrors.KindParse, "invalid geojson: missing type")
	default:
		var d Data
		walkGeom(&d, raw)
		if !d.Empty() {
			out = append(out, Feature{Geometry: d, Properties: map[string]any{}})
		}
	}
	if len(out) == 0 {
		return nil, cerrors.New(cerrors.KindParse, "no features found")
	}
	return out, nil
}

func walkGeom(d *Data, g map[string]any) {
	gt, _ := g["type"].(string)
	switch gt {
	case "Point":
		if pt, ok := parsePoint(g["coordinates"]); ok {
			d.AddPoint(pt)
		}
	case "MultiPoint":
		if pts, ok := parseArrayPoints(g["coordinates"]); ok {
			for _, p := range pts {
				d.AddPoint(p)
			}
		}
	case "LineString":
		if ls, ok := parseArrayPoints(g["coordinates"]); ok {
			d.AddLine(ls)
		}
	case "MultiLineString":
		if arr, ok := g["coordinates"].([]any); ok {
			for _, el := range arr {
				if ls, ok := parseArrayPoints(el); ok {
					d.AddLine(ls)
				}
			}
		}
	case "Polygon":
		if poly, ok := parsePolygon(g["coordinates"]); ok {
			d.AddPolygon(poly)
		}
	case "MultiPolygon":
		if arr, ok := g["coordinates"].([]any); ok {
			for _, el := range arr {
				if poly, ok := parsePolygon(el); ok {
					d.AddPolygon(poly)
				}
			}
		}
	case "GeometryCollection":
		if gs, ok := g["geometries"].([]any); ok {
			for _, sub := range gs {
				if sm, ok := sub.(map[string]any); ok {
					walkGeom(d, sm)
				}
			}
		}
	}
}

func parsePoint(v any) (pt [2]float64, ok bool) {
	if a, ok := v.([]any); ok && len(a) >= 2 {
		lon, lok := a[0].(float64)
		lat, aok := a[1].(float64)
		if lok && aok {
			return [2]float64{lon, lat}, true
		}
	}
	return [2]float64{}, false
}

func parseArrayPoints(v any) (pts [][2]float64, ok bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	for _, el := range arr {
		if pt, ok := parsePoint(el); ok {
			pts = append(pts, pt)
		}
	}
	return pts, true
}

func parsePolygon(v any) (poly [][][2]float64, ok bool) {
	arr, ok := v.([]any)
	if !ok {
		return nil, false
	}
	for _, ring := range arr {
		if ls, ok := parseArrayPoints(ring); ok {
			poly = append(poly, ls)
		}
	}
	return poly, true
}
