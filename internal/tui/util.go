package tui

import "choromap/internal/geom"

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// eachVertex calls fn for every vertex of d.
func eachVertex(d geom.Data, fn func(p [2]float64)) {
	for _, p := range d.Points {
		fn(p)
	}
	for _, ls := range d.Lines {
		for _, p := range ls {
			fn(p)
		}
	}
	for _, poly := range d.Polygons {
		for _, ring := range poly {
			for _, p := range ring {
				fn(p)
			}
		}
	}
}
