// Package tui renders merged entries as a terminal choropleth.
package tui

import (
	"fmt"

	table "github.com/charmbracelet/bubbles/table"
	textarea "github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"choromap/internal/classify"
	"choromap/internal/geom"
	"choromap/internal/merge"
)

// feature is one merged entry prepared for drawing.
type feature struct {
	geom  geom.Data
	class int
	index string
	value string
	attrs merge.Attributes
}

type Model struct {
	width  int
	height int

	showLegend  bool
	helpVisible bool

	zoom    float64
	offsetX int
	offsetY int

	status string
	title  string

	// Data
	features   []feature
	bbox       geom.BBox
	hasBBox    bool
	classifier *classify.Classifier
	valueField string
	overlay    geom.Data

	// last rendered map size (for inspect)
	mapW int
	mapH int

	// paste mode
	pasteMode bool
	ta        textarea.Model

	// layer visibility
	showPoints bool
	showLines  bool
	showPolys  bool

	// inspect popup
	inspectPopup string

	// hover state
	hovering    bool
	hoverCellX  int
	hoverCellY  int
	hoverMicX   int
	hoverMicY   int
	hoverHasGeo bool
	hoverLon    float64
	hoverLat    float64
	hoverEntry  int

	// attributes table
	showAttrs bool
	tbl       table.Model
}

// ReloadMsg replaces the drawn entries, typically after an input file
// changed. A non-nil Err keeps the current entries.
type ReloadMsg struct {
	Result     *merge.Result[geom.Data]
	Classifier *classify.Classifier
	Err        error
}

// New builds a viewer over a merge result. cls may be nil, in which case
// every entry is drawn unclassified.
func New(title string, res *merge.Result[geom.Data], valueField string, cls *classify.Classifier) Model {
	m := Model{
		helpVisible: true,
		zoom:        1.0,
		title:       title,
		valueField:  valueField,
		showPoints:  true,
		showLines:   true,
		showPolys:   true,
	}
	m.load(res, cls)
	m.showLegend = cls != nil
	// textarea setup
	m.ta = textarea.New()
	m.ta.Placeholder = "Paste WKT here (POINT, MULTIPOINT, LINESTRING, POLYGON) to overlay it. Enter to draw; Esc to cancel."
	m.ta.CharLimit = 0
	m.ta.SetWidth(50)
	m.ta.SetHeight(6)
	// attributes table setup (columns are inferred from the entries)
	m.tbl = table.New(table.WithFocused(true))
	m.tbl.SetHeight(12)
	return m
}

// load replaces the features with res. Zoom, pan and the overlay are kept.
func (m *Model) load(res *merge.Result[geom.Data], cls *classify.Classifier) {
	m.classifier = cls
	m.features = make([]feature, 0, len(res.Entries))
	m.hovering = false
	m.hoverEntry = -1
	for _, e := range res.Entries {
		f := feature{geom: e.Geometry, class: clsNone, index: e.Index.String(), attrs: e.Attributes}
		if e.HasValue {
			f.value = fmt.Sprint(e.Value)
			if cls != nil {
				f.class = cls.Class(e.Value)
			}
		}
		m.features = append(m.features, f)
	}
	m.fitBBox()
	m.status = fmt.Sprintf("%d entries  %d warnings", len(res.Entries), len(res.Warnings))
	if len(res.Warnings) > 0 {
		m.status += "  " + res.Warnings[0].Error()
	}
}

func (m Model) Init() tea.Cmd { return nil }
