package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	legendWidth  = 28
	headerHeight = 1
	footerHeight = 2
)

// layout returns the map origin and size for the current window.
func (m Model) layout() (originX, originY, w, h int) {
	contentHeight := max(4, m.height-headerHeight-footerHeight)
	contentWidth := max(10, m.width)
	sideW := 0
	if m.showLegend {
		sideW = legendWidth + 1
	}
	return sideW, headerHeight, max(10, contentWidth-sideW), contentHeight
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	_, _, mapWidth, mapHeight := m.layout()
	contentWidth := max(10, m.width)
	contentHeight := mapHeight

	// Header
	header := titleStyle.Render(" choromap ─ " + m.title + " ")
	header = lipgloss.NewStyle().Width(contentWidth).Padding(0).Render(header)

	// track map size for inspect (map canvas has no border)
	m.mapW = max(8, mapWidth)
	m.mapH = max(4, mapHeight)
	var mapView string
	if m.showAttrs {
		// infer a reasonable width from columns
		colW := 0
		for _, c := range m.tbl.Columns() {
			colW += c.Width + 3
		}
		if colW == 0 {
			colW = min(60, contentWidth-6)
		}
		maxW := min(mapWidth, max(32, colW))
		m.tbl.SetWidth(maxW - 4)
		m.tbl.SetHeight(min(mapHeight-2, 20))
		attrsBox := boxStyle.Width(maxW).Render(m.tbl.View())
		mapView = lipgloss.Place(mapWidth, mapHeight, lipgloss.Center, lipgloss.Center, attrsBox)
	} else {
		var canvas string
		if m.pasteMode {
			m.ta.SetWidth(m.mapW)
			m.ta.SetHeight(min(m.mapH, 12))
			canvas = m.ta.View()
		} else {
			canvas = m.renderMap(m.mapW, m.mapH)
		}
		mapView = lipgloss.NewStyle().Width(mapWidth).Height(mapHeight).Render(canvas)
	}

	popup := ""
	if m.inspectPopup != "" && !m.showAttrs {
		maxPopupW := max(20, min(48, contentWidth/2))
		box := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MaxWidth(maxPopupW).Render(m.inspectPopup)
		popup = lipgloss.Place(contentWidth, contentHeight, lipgloss.Left, lipgloss.Center, box)
	}

	body := mapView
	if m.showLegend {
		legend := lipgloss.NewStyle().Width(legendWidth).Height(contentHeight).Render(m.renderLegend())
		body = lipgloss.JoinHorizontal(lipgloss.Top, legend, " ", mapView)
	}

	// Footer / help
	help := m.renderHelp()
	status := dimStyle.Render(" " + m.status + " ")
	coords := ""
	if m.hoverHasGeo {
		coords = fmt.Sprintf("  lon=%.5f lat=%.5f", m.hoverLon, m.hoverLat)
		if m.hoverEntry >= 0 && m.hoverEntry < len(m.features) {
			f := m.features[m.hoverEntry]
			coords += fmt.Sprintf("  [%s] %s", f.index, f.value)
		}
		coords = dimStyle.Render(coords + "  ")
	}
	left := lipgloss.JoinHorizontal(lipgloss.Bottom, status, help)
	spacerW := max(0, contentWidth-lipgloss.Width(left)-lipgloss.Width(coords))
	right := lipgloss.Place(spacerW+lipgloss.Width(coords), 1, lipgloss.Right, lipgloss.Center, coords)
	footer := lipgloss.NewStyle().Width(contentWidth).Render(lipgloss.JoinHorizontal(lipgloss.Bottom, left, right))

	ui := lipgloss.JoinVertical(lipgloss.Left, header, popup, body, footer)
	return appStyle.Width(contentWidth).Height(m.height).Render(ui)
}

// renderLegend lists class bounds next to their colour swatch.
func (m Model) renderLegend() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.legendField()))
	b.WriteString("\n")
	if m.classifier == nil {
		b.WriteString(dimStyle.Render("unclassified"))
		return b.String()
	}
	n := m.classifier.Classes()
	for i := 0; i < n; i++ {
		lo, hi := m.classifier.Bounds(i)
		swatch := lipgloss.NewStyle().Foreground(classColor(i, n)).Render("██")
		fmt.Fprintf(&b, "%s %s – %s\n", swatch, formatBound(lo), formatBound(hi))
	}
	swatch := lipgloss.NewStyle().Foreground(classColor(clsNone, n)).Render("██")
	fmt.Fprintf(&b, "%s %s\n", swatch, dimStyle.Render("no value"))
	return b.String()
}

func formatBound(f float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
}

func (m Model) renderHelp() string {
	if !m.helpVisible {
		return ""
	}
	keys := []string{
		"↑↓←→ pan",
		"+/- zoom",
		"Tab legend",
		"p paste",
		"a attrs",
		"i inspect",
		"l layers",
		"h help",
		"q quit",
	}
	return dimStyle.Render("  " + strings.Join(keys, "  "))
}
