package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"choromap/internal/geom"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		_, _, m.mapW, m.mapH = m.layout()
	case tea.KeyMsg:
		if m.pasteMode {
			switch msg.String() {
			case "esc":
				m.pasteMode = false
				m.ta.Blur()
				return m, nil
			case "enter":
				m.drawOverlay(m.ta.Value())
				return m, nil
			}
			var cmd tea.Cmd
			m.ta, cmd = m.ta.Update(msg)
			return m, cmd
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			m.inspectPopup = ""
			m.showAttrs = false
		case "1":
			m.showPoints = !m.showPoints
			m.status = fmt.Sprintf("points: %v", m.showPoints)
		case "2":
			m.showLines = !m.showLines
			m.status = fmt.Sprintf("lines: %v", m.showLines)
		case "3":
			m.showPolys = !m.showPolys
			m.status = fmt.Sprintf("polys: %v", m.showPolys)
		case "+", "=":
			if m.zoom < 64 {
				m.zoom *= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case "-", "_":
			if m.zoom > 0.05 {
				m.zoom /= 1.2
				m.status = fmt.Sprintf("zoom: %.2fx", m.zoom)
			}
		case "tab":
			m.showLegend = !m.showLegend
			_, _, m.mapW, m.mapH = m.layout()
		case "p":
			m.pasteMode = !m.pasteMode
			if m.pasteMode {
				m.ta.SetValue("")
				m.status = "paste mode"
				m.ta.Focus()
			} else {
				m.status = "view mode"
				m.ta.Blur()
			}
		case "h":
			m.helpVisible = !m.helpVisible
		case "a":
			m.showAttrs = !m.showAttrs
			if m.showAttrs {
				m.refreshAttrsFromCurrent()
			}
		case "i":
			if i, ok := m.inspectNearest(); ok {
				m.inspectPopup = m.describe(i)
				m.status = "inspect popup"
			} else {
				m.inspectPopup = "no feature nearby"
				m.status = m.inspectPopup
			}
		case "l":
			all := m.showPoints && m.showLines && m.showPolys
			m.showPoints = !all
			m.showLines = !all
			m.showPolys = !all
			m.status = fmt.Sprintf("layers: pts=%v ls=%v poly=%v", m.showPoints, m.showLines, m.showPolys)
		case "up":
			m.offsetY -= 1
		case "down":
			m.offsetY += 1
		case "left":
			m.offsetX -= 2
		case "right":
			m.offsetX += 2
		}
	case tea.MouseMsg:
		m.hover(msg.X, msg.Y)
	case ReloadMsg:
		if msg.Err != nil {
			m.status = "reload failed: " + msg.Err.Error()
			return m, nil
		}
		m.load(msg.Result, msg.Classifier)
		if m.showAttrs {
			m.refreshAttrsFromCurrent()
		}
		m.inspectPopup = ""
		m.status = "reloaded  " + m.status
	}
	return m, nil
}

// drawOverlay parses pasted WKT and draws it above the entries.
func (m *Model) drawOverlay(text string) {
	w := strings.TrimSpace(text)
	if w == "" {
		m.status = "paste: empty"
		return
	}
	d, err := geom.ParseWKTData(w)
	if err != nil {
		m.status = "wkt error: " + err.Error()
		return
	}
	m.overlay.Append(d)
	m.fitBBox()
	m.status = fmt.Sprintf("overlay  counts: pts=%d ls=%d poly=%d", len(d.Points), len(d.Lines), len(d.Polygons))
	m.pasteMode = false
	m.ta.Blur()
}

// hover tracks the mouse over the map and snaps to the nearest vertex.
func (m *Model) hover(x, y int) {
	originX, originY, mapWidth, mapHeight := m.layout()
	if x < originX || x >= originX+mapWidth || y < originY || y >= originY+mapHeight {
		m.hovering = false
		m.hoverHasGeo = false
		m.hoverEntry = -1
		return
	}
	m.hovering = true
	m.hoverCellX = x - originX
	m.hoverCellY = y - originY
	if lon, lat, ok := m.cellToLonLat(m.hoverCellX, m.hoverCellY, mapWidth, mapHeight); ok {
		m.hoverHasGeo = true
		m.hoverLon = lon
		m.hoverLat = lat
	} else {
		m.hoverHasGeo = false
	}

	hxMic := m.hoverCellX * 2
	hyMic := m.hoverCellY * 4
	best := 1<<31 - 1
	bx, by, entry := hxMic, hyMic, -1
	for i, f := range m.features {
		eachVertex(f.geom, func(p [2]float64) {
			mx, my, ok := m.screenXYMicro(p[0], p[1], mapWidth, mapHeight)
			if !ok {
				return
			}
			dx := mx - hxMic
			dy := my - hyMic
			if d := dx*dx + dy*dy; d < best {
				best = d
				bx, by, entry = mx, my, i
			}
		})
	}
	m.hoverMicX, m.hoverMicY = bx, by
	m.hoverEntry = entry
}

// describe renders the inspect popup for feature i.
func (m Model) describe(i int) string {
	f := m.features[i]
	b := f.geom.BBox
	meta := []string{
		fmt.Sprintf("index: %s", f.index),
		fmt.Sprintf("%s: %s", m.legendField(), f.value),
		fmt.Sprintf("bbox: [%.5f, %.5f, %.5f, %.5f]", b.MinX, b.MinY, b.MaxX, b.MaxY),
		fmt.Sprintf("counts: pts=%d ls=%d poly=%d", len(f.geom.Points), len(f.geom.Lines), len(f.geom.Polygons)),
	}
	if f.class >= 0 && m.classifier != nil {
		lo, hi := m.classifier.Bounds(f.class)
		meta = append(meta, fmt.Sprintf("class: %d (%s – %s)", f.class+1, formatBound(lo), formatBound(hi)))
	}
	keys := make([]string, 0, len(f.attrs))
	for k := range f.attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		meta = append(meta, fmt.Sprintf("%s: %s", k, formatCell(f.attrs[k])))
	}
	return strings.Join(meta, "\n")
}

func (m Model) legendField() string {
	if m.valueField == "" {
		return "value"
	}
	return m.valueField
}
