package geom

type BBox struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// Union returns the smallest box holding both b and o.
func (b BBox) Union(o BBox) BBox {
	return BBox{
		MinX: min(b.MinX, o.MinX),
		MinY: min(b.MinY, o.MinY),
		MaxX: max(b.MaxX, o.MaxX),
		MaxY: max(b.MaxY, o.MaxY),
	}
}

// Data is a minimal geometry container for rendering
type Data struct {
	Points   [][2]float64
	Lines    [][][2]float64
	Polygons [][][][2]float64 // polygons with rings (first outer, following holes)
	BBox     BBox
	n        int // vertices seen, drives bbox init
}

// Empty reports whether d holds no geometry.
func (d Data) Empty() bool {
	return len(d.Points) == 0 && len(d.Lines) == 0 && len(d.Polygons) == 0
}

func (d *Data) extend(pt [2]float64) {
	if d.n == 0 {
		d.BBox = BBox{MinX: pt[0], MinY: pt[1], MaxX: pt[0], MaxY: pt[1]}
	} else {
		d.BBox.MinX = min(d.BBox.MinX, pt[0])
		d.BBox.MinY = min(d.BBox.MinY, pt[1])
		d.BBox.MaxX = max(d.BBox.MaxX, pt[0])
		d.BBox.MaxY = max(d.BBox.MaxY, pt[1])
	}
	d.n++
}

func (d *Data) AddPoint(pt [2]float64) {
	d.Points = append(d.Points, pt)
	d.extend(pt)
}

func (d *Data) AddLine(ls [][2]float64) {
	d.Lines = append(d.Lines, ls)
	for _, p := range ls {
		d.extend(p)
	}
}

func (d *Data) AddPolygon(poly [][][2]float64) {
	d.Polygons = append(d.Polygons, poly)
	for _, ring := range poly {
		for _, p := range ring {
			d.extend(p)
		}
	}
}

// Append copies o's geometry into d.
func (d *Data) Append(o Data) {
	for _, p := range o.Points {
		d.AddPoint(p)
	}
	for _, ls := range o.Lines {
		d.AddLine(ls)
	}
	for _, poly := range o.Polygons {
		d.AddPolygon(poly)
	}
}

// Feature is one geometry with its attribute record.
type Feature struct {
	Geometry   Data
	Properties map[string]any
}

// Extent returns the box covering every non-empty geometry, and false when
// all of them are empty.
func Extent(ds ...Data) (BBox, bool) {
	var bb BBox
	found := false
	for _, d := range ds {
		switch {
		case d.Empty():
		case !found:
			bb, found = d.BBox, true
		default:
			bb = bb.Union(d.BBox)
		}
	}
	return bb, found
}
