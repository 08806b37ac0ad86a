package tui

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"choromap/internal/geom"
)

// cellToLonLat converts a map cell coordinate back to lon/lat using bbox, zoom, and pan.
func (m Model) cellToLonLat(cx, cy, w, h int) (float64, float64, bool) {
	if !m.hasBBox {
		return 0, 0, false
	}
	if w <= 1 || h <= 1 {
		return 0, 0, false
	}
	zx := float64(cx-m.offsetX) / float64(w-1)
	zy := 1.0 - float64(cy-m.offsetY)/float64(h-1)
	nx := 0.5 + (zx-0.5)/m.zoom
	ny := 0.5 + (zy-0.5)/m.zoom
	lon := m.bbox.MinX + nx*(m.bbox.MaxX-m.bbox.MinX)
	lat := m.bbox.MinY + ny*(m.bbox.MaxY-m.bbox.MinY)
	return lon, lat, true
}

func (m Model) renderMap(w, h int) string {
	// High-resolution braille buffer for crisp lines/edges
	br := newBrailleBuf(w, h)
	for _, f := range m.features {
		m.drawData(br, f.geom, f.class, w, h)
	}
	if !m.overlay.Empty() {
		m.drawData(br, m.overlay, clsOverlay, w, h)
	}
	glyphs, cls := br.cells()

	// Hover highlight: a circle at the hovered vertex cell
	if m.hovering {
		cx := m.hoverMicX / 2
		cy := m.hoverMicY / 4
		if cy >= 0 && cy < h && cx >= 0 && cx < w {
			glyphs[cy][cx] = '◯'
			cls[cy][cx] = clsHover
		}
	}

	n := 0
	if m.classifier != nil {
		n = m.classifier.Classes()
	}
	lines := make([]string, h)
	for y := 0; y < h; y++ {
		lines[y] = styleRow(glyphs[y], cls[y], n)
	}
	return strings.Join(lines, "\n")
}

// styleRow colours runs of cells that share a class.
func styleRow(glyphs []rune, cls []int, n int) string {
	var b strings.Builder
	for x := 0; x < len(glyphs); {
		j := x
		for j < len(glyphs) && cls[j] == cls[x] {
			j++
		}
		run := string(glyphs[x:j])
		if cls[x] == clsEmpty {
			b.WriteString(run)
		} else {
			b.WriteString(lipgloss.NewStyle().Foreground(classColor(cls[x], n)).Render(run))
		}
		x = j
	}
	return b.String()
}

// drawData rasterises one geometry with the given class.
func (m Model) drawData(br *brailleBuf, d geom.Data, class, w, h int) {
	// Draw polygons (fill then edges)
	if m.showPolys {
		for _, poly := range d.Polygons {
			var ringsMic [][][2]int
			for _, ring := range poly {
				var sm [][2]int
				for _, p := range ring {
					mx, my, ok := m.screenXYMicro(p[0], p[1], w, h)
					if !ok {
						continue
					}
					sm = append(sm, [2]int{mx, my})
				}
				if len(sm) >= 3 {
					ringsMic = append(ringsMic, sm)
				}
			}
			if len(ringsMic) == 0 {
				continue
			}
			fillRing(br, ringsMic[0], h*4, class)
			// draw edges (high-res)
			for _, r := range ringsMic {
				for i := 0; i < len(r); i++ {
					a := r[i]
					b := r[(i+1)%len(r)]
					br.drawLineMicro(a[0], a[1], b[0], b[1], class)
				}
			}
		}
	}

	// Draw line strings (high-res)
	if m.showLines {
		for _, ls := range d.Lines {
			var prev *[2]int
			for _, p := range ls {
				mx, my, ok := m.screenXYMicro(p[0], p[1], w, h)
				if !ok {
					continue
				}
				if prev != nil {
					br.drawLineMicro(prev[0], prev[1], mx, my, class)
				}
				prev = &[2]int{mx, my}
			}
		}
	}

	if m.showPoints {
		for _, p := range d.Points {
			mx, my, ok := m.screenXYMicro(p[0], p[1], w, h)
			if !ok {
				continue
			}
			br.setPixel(mx, my, class)
		}
	}
}

// fillRing fills the outer ring with the even-odd rule per micro scanline.
// Holes are not cut out.
func fillRing(br *brailleBuf, outer [][2]int, hMic, class int) {
	for yMic := 0; yMic < hMic; yMic++ {
		var xs []int
		for i := 0; i < len(outer); i++ {
			a := outer[i]
			b := outer[(i+1)%len(outer)]
			if a[1] == b[1] { // horizontal edge: skip
				continue
			}
			y0, y1 := a[1], b[1]
			x0, x1 := a[0], b[0]
			if (yMic >= y0 && yMic < y1) || (yMic >= y1 && yMic < y0) {
				t := float64(yMic-y0) / float64(y1-y0)
				xs = append(xs, int(float64(x0)+t*float64(x1-x0)))
			}
		}
		if len(xs) < 2 {
			continue
		}
		sort.Ints(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			xstart, xend := xs[i], xs[i+1]
			for xMic := max(0, xstart); xMic <= xend; xMic++ {
				br.setPixel(xMic, yMic, class)
			}
		}
	}
}

// fitBBox sets the view box to cover every entry and the overlay.
func (m *Model) fitBBox() {
	geoms := make([]geom.Data, 0, len(m.features)+1)
	for _, f := range m.features {
		geoms = append(geoms, f.geom)
	}
	geoms = append(geoms, m.overlay)
	m.bbox, m.hasBBox = geom.Extent(geoms...)
}

// normalize maps lon/lat into [0,1] over bbox. A degenerate axis maps to the centre.
func (m Model) normalize(lon, lat float64) (float64, float64) {
	nx, ny := 0.5, 0.5
	if dx := m.bbox.MaxX - m.bbox.MinX; dx > 0 {
		nx = (lon - m.bbox.MinX) / dx
	}
	if dy := m.bbox.MaxY - m.bbox.MinY; dy > 0 {
		ny = (lat - m.bbox.MinY) / dy
	}
	return nx, ny
}

// screenXYMicro maps lon/lat into a 2x4 microgrid per cell for braille rendering.
func (m Model) screenXYMicro(lon, lat float64, w, h int) (int, int, bool) {
	if !m.hasBBox {
		return 0, 0, false
	}
	nx, ny := m.normalize(lon, lat)
	zx := 0.5 + (nx-0.5)*m.zoom
	zy := 0.5 + (ny-0.5)*m.zoom
	wMic := w * 2
	hMic := h * 4
	sx := int(zx*float64(wMic-1)) + m.offsetX*2
	sy := int((1.0-zy)*float64(hMic-1)) + m.offsetY*4
	return sx, sy, true
}

// screenXY maps lon/lat to current screen integer coordinates considering zoom and pan.
func (m Model) screenXY(lon, lat float64, w, h int) (int, int, bool) {
	if !m.hasBBox {
		return 0, 0, false
	}
	nx, ny := m.normalize(lon, lat)
	// Apply zoom around center (0.5, 0.5)
	zx := 0.5 + (nx-0.5)*m.zoom
	zy := 0.5 + (ny-0.5)*m.zoom
	sx := int(zx*float64(w-1)) + m.offsetX
	sy := int((1.0-zy)*float64(h-1)) + m.offsetY
	return sx, sy, true
}

// nearestFeature finds the feature with a vertex closest to screen cell
// (cx, cy) and returns its position, or -1.
func (m Model) nearestFeature(cx, cy, w, h int) int {
	best, bestD := -1, 1<<31-1
	for i, f := range m.features {
		eachVertex(f.geom, func(p [2]float64) {
			sx, sy, ok := m.screenXY(p[0], p[1], w, h)
			if !ok {
				return
			}
			dx, dy := sx-cx, sy-cy
			if d := dx*dx + dy*dy; d < bestD {
				best, bestD = i, d
			}
		})
	}
	return best
}

// inspectNearest returns the feature closest to the viewport center.
func (m Model) inspectNearest() (int, bool) {
	w, h := m.mapW, m.mapH
	if w <= 0 {
		w = 80
	}
	if h <= 0 {
		h = 24
	}
	i := m.nearestFeature(w/2, h/2, w, h)
	return i, i >= 0
}
