package tui

const (
	clsNone    = -1 // drawn, but the entry has no class
	clsOverlay = -2 // pasted WKT
	clsHover   = -3
	clsEmpty   = -4
)

type brailleBuf struct {
	w, h int       // in cells
	m    [][]uint8 // per-cell 8-bit mask
	cls  [][]int   // per-cell class of the last writer
}

func newBrailleBuf(w, h int) *brailleBuf {
	m := make([][]uint8, h)
	cls := make([][]int, h)
	for i := range m {
		m[i] = make([]uint8, w)
		cls[i] = make([]int, w)
		for x := range cls[i] {
			cls[i][x] = clsEmpty
		}
	}
	return &brailleBuf{w: w, h: h, m: m, cls: cls}
}

// dotBits maps a micro-pixel's column and row inside its cell to the
// braille dot it lights.
var dotBits = [2][4]uint8{
	{0x01, 0x02, 0x04, 0x40},
	{0x08, 0x10, 0x20, 0x80},
}

// setPixel lights micro-pixel (mx, my) and tags its cell with class.
func (b *brailleBuf) setPixel(mx, my, class int) {
	if mx < 0 || my < 0 {
		return
	}
	cx, cy := mx/2, my/4
	if cy >= b.h || cx >= b.w {
		return
	}
	b.m[cy][cx] |= dotBits[mx%2][my%4]
	b.cls[cy][cx] = class
}

// drawLineMicro draws a line on the microgrid using Bresenham
func (b *brailleBuf) drawLineMicro(x0, y0, x1, y1, class int) {
	dx := abs(x1 - x0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -abs(y1 - y0)
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		b.setPixel(x0, y0, class)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// cells returns the glyph and class of every cell.
func (b *brailleBuf) cells() ([][]rune, [][]int) {
	out := make([][]rune, b.h)
	cls := make([][]int, b.h)
	for y := 0; y < b.h; y++ {
		row := make([]rune, b.w)
		for x := 0; x < b.w; x++ {
			row[x] = ' '
			if mask := b.m[y][x]; mask != 0 {
				row[x] = rune(0x2800 + int(mask))
			}
		}
		out[y] = row
		cls[y] = append([]int(nil), b.cls[y]...)
	}
	return out, cls
}
