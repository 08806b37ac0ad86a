package geom

import (
	"regexp"
	"strconv"
	"strings"

	cerrors "choromap/internal/errors"
)

// ParseWKTData parses POINT, MULTIPOINT, LINESTRING, MULTILINESTRING and
// POLYGON text into Data.
func ParseWKTData(wkt string) (Data, error) {
	s := strings.TrimSpace(wkt)
	if s == "" {
		return Data{}, cerrors.New(cerrors.KindParse, "empty wkt")
	}
	up := strings.ToUpper(s)
	var d Data
	body := func(kind, lp, rp string) (string, error) {
		i := strings.Index(s, lp)
		j := strings.LastIndex(s, rp)
		if i < 0 || j <= i {
			return "", cerrors.Newf(cerrors.KindParse, "wkt %s: invalid", kind)
		}
		return s[i+len(lp) : j], nil
	}
	switch {
	case strings.HasPrefix(up, "MULTIPOINT"):
		b, err := body("multipoint", "(", ")")
		if err != nil {
			return Data{}, err
		}
		// both MULTIPOINT(1 2, 3 4) and MULTIPOINT((1 2), (3 4))
		b = strings.NewReplacer("(", "", ")", "").Replace(b)
		for _, p := range parseTuples(b) {
			d.AddPoint(p)
		}
	case strings.HasPrefix(up, "POINT"):
		b, err := body("point", "(", ")")
		if err != nil {
			return Data{}, err
		}
		for _, p := range parseTuples(b) {
			d.AddPoint(p)
		}
	case strings.HasPrefix(up, "MULTILINESTRING"):
		b, err := body("multilinestring", "((", "))")
		if err != nil {
			return Data{}, err
		}
		for _, part := range splitRings(b) {
			d.AddLine(parseTuples(part))
		}
	case strings.HasPrefix(up, "LINESTRING"):
		b, err := body("linestring", "(", ")")
		if err != nil {
			return Data{}, err
		}
		d.AddLine(parseTuples(b))
	case strings.HasPrefix(up, "POLYGON"):
		b, err := body("polygon", "((", "))")
		if err != nil {
			return Data{}, err
		}
		var poly [][][2]float64
		for _, rp := range splitRings(b) {
			poly = append(poly, parseTuples(rp))
		}
		d.AddPolygon(poly)
	default:
		return Data{}, cerrors.New(cerrors.KindParse, "unsupported wkt type")
	}
	if d.n == 0 {
		return Data{}, cerrors.New(cerrors.KindParse, "wkt: no coordinates parsed")
	}
	return d, nil
}

func parseTuples(block string) [][2]float64 {
	var out [][2]float64
	for _, tup := range strings.Split(block, ",") {
		parts := strings.Fields(strings.TrimSpace(tup))
		if len(parts) < 2 {
			continue
		}
		x, e1 := strconv.ParseFloat(parts[0], 64)
		y, e2 := strconv.ParseFloat(parts[1], 64)
		if e1 != nil || e2 != nil {
			continue
		}
		out = append(out, [2]float64{x, y})
	}
	return out
}

var ringSep = regexp.MustCompile(`\)\s*,\s*\(`)

// splitRings splits "a b, c d), (e f, g h" into its parenthesised parts.
func splitRings(s string) []string {
	return ringSep.Split(s, -1)
}
