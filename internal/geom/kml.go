package geom

import (
	"encoding/xml"
	"io"
	"os"
	"strconv"
	"strings"

	"choromap/internal/dataset"
	cerrors "choromap/internal/errors"
)

type kmlCoords struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer kmlCoords   `xml:"outerBoundaryIs>LinearRing"`
	Inner []kmlCoords `xml:"innerBoundaryIs>LinearRing"`
}

type kmlGeometry struct {
	Points   []kmlCoords   `xml:"Point"`
	Lines    []kmlCoords   `xml:"LineString"`
	Polygons []kmlPolygon  `xml:"Polygon"`
	Multi    []kmlGeometry `xml:"MultiGeometry"`
}

type kmlPlacemark struct {
	Name string `xml:"name"`
	Data []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:"value"`
	} `xml:"ExtendedData>Data"`
	SimpleData []struct {
		Name  string `xml:"name,attr"`
		Value string `xml:",chardata"`
	} `xml:"ExtendedData>SchemaData>SimpleData"`
	Points   []kmlCoords   `xml:"Point"`
	Lines    []kmlCoords   `xml:"LineString"`
	Polygons []kmlPolygon  `xml:"Polygon"`
	Multi    []kmlGeometry `xml:"MultiGeometry"`
}

// LoadKMLFeatures reads every Placemark, at any nesting depth, as a feature.
// The placemark name and its ExtendedData become properties.
// KML coordinates are "lon,lat[,alt]"; altitude is ignored.
func LoadKMLFeatures(path string) ([]Feature, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, cerrors.Wrap(err, cerrors.KindFile, "open kml").WithDetail("path", path)
	}
	defer f.Close()
	return ReadKMLFeatures(f)
}

// ReadKMLFeatures is LoadKMLFeatures over a reader.
func ReadKMLFeatures(r io.Reader) ([]Feature, error) {
	dec := xml.NewDecoder(r)
	var out []Feature
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, cerrors.Wrap(err, cerrors.KindParse, "decode kml")
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Placemark" {
			continue
		}
		var pm kmlPlacemark
		if err := dec.DecodeElement(&pm, &se); err != nil {
			return nil, cerrors.Wrap(err, cerrors.KindParse, "decode kml placemark")
		}
		var d Data
		addKMLGeometry(&d, kmlGeometry{Points: pm.Points, Lines: pm.Lines, Polygons: pm.Polygons, Multi: pm.Multi})
		if d.Empty() {
			continue
		}
		props := map[string]any{}
		if pm.Name != "" {
			props["name"] = strings.TrimSpace(pm.Name)
		}
		for _, kv := range pm.Data {
			props[kv.Name] = dataset.ParseScalar(strings.TrimSpace(kv.Value))
		}
		for _, kv := range pm.SimpleData {
			props[kv.Name] = dataset.ParseScalar(strings.TrimSpace(kv.Value))
		}
		out = append(out, Feature{Geometry: d, Properties: props})
	}
	if len(out) == 0 {
		return nil, cerrors.New(cerrors.KindParse, "kml: no placemarks with geometry")
	}
	return out, nil
}

func addKMLGeometry(d *Data, g kmlGeometry) {
	for _, p := range g.Points {
		for _, pt := range parseKMLCoords(p.Coordinates) {
			d.AddPoint(pt)
		}
	}
	for _, l := range g.Lines {
		if ls := parseKMLCoords(l.Coordinates); len(ls) > 0 {
			d.AddLine(ls)
		}
	}
	for _, p := range g.Polygons {
		outer := parseKMLCoords(p.Outer.Coordinates)
		if len(outer) == 0 {
			continue
		}
		poly := [][][2]float64{outer}
		for _, in := range p.Inner {
			poly = append(poly, parseKMLCoords(in.Coordinates))
		}
		d.AddPolygon(poly)
	}
	for _, m := range g.Multi {
		addKMLGeometry(d, m)
	}
}

// parseKMLCoords reads whitespace separated "lon,lat[,alt]" tuples.
func parseKMLCoords(s string) [][2]float64 {
	var out [][2]float64
	for _, tuple := range strings.Fields(s) {
		vals := strings.Split(tuple, ",")
		if len(vals) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(strings.TrimSpace(vals[0]), 64)
		lat, err2 := strconv.ParseFloat(strings.TrimSpace(vals[1]), 64)
		if err1 != nil || err2 != nil {
			continue
		}
		out = append(out, [2]float64{lon, lat})
	}
	return out
}
