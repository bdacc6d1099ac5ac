// Package figure packages labeled series into plotly-compatible figures and
// rasterizes them to PNG.
package figure

import (
	"github.com/aevon-lab/tracelens/internal/series"
)

// Plot types accepted from the form.
const (
	PlotScatter = "Scatter"
	PlotQQ      = "QQ"
	PlotLine    = "Line"
)

// Trace drawing modes.
const (
	ModeMarkers = "markers"
	ModeLines   = "lines"
)

// LegendGroup is shared by every trace so the legend toggles them together.
const LegendGroup = "group1"

// Trace is one visual series. Field names follow plotly's scatter trace.
type Trace struct {
	Type          string `json:"type"`
	Name          string `json:"name"`
	X             []any  `json:"x"`
	Y             []any  `json:"y"`
	Mode          string `json:"mode"`
	HoverTemplate string `json:"hovertemplate"`
	LegendGroup   string `json:"legendgroup"`
}

// Layout carries figure-level presentation.
type Layout struct {
	Title Title `json:"title"`
	XAxis Axis  `json:"xaxis"`
	YAxis Axis  `json:"yaxis"`
}

// Title is a plotly title object.
type Title struct {
	Text string `json:"text"`
}

// Axis is a plotly axis with its title.
type Axis struct {
	Title Title `json:"title"`
}

// Figure is one renderable multi-series chart.
type Figure struct {
	Target string  `json:"target"`
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// ModeFor picks the drawing mode of a plot type.
func ModeFor(plotType string) string {
	switch plotType {
	case PlotScatter, PlotQQ:
		return ModeMarkers
	}
	return ModeLines
}

// HoverTemplate is the hover text of a trace: x, y in scientific notation, label.
func HoverTemplate(label string) string {
	return "%{x}<br>%{y:.4e}<br>" + label
}

// Assemble builds one trace per series in label order. Values are copied as is.
func Assemble(set *series.Set, plotType, xTitle, yTitle string) Figure {
	mode := ModeFor(plotType)
	fig := Figure{
		Target: set.Target,
		Data:   make([]Trace, 0, len(set.Series)),
		Layout: Layout{
			Title: Title{Text: set.Target},
			XAxis: Axis{Title: Title{Text: xTitle}},
			YAxis: Axis{Title: Title{Text: yTitle}},
		},
	}
	for _, sr := range set.Series {
		fig.Data = append(fig.Data, Trace{
			Type:          "scatter",
			Name:          sr.Label,
			X:             sr.Xs(),
			Y:             sr.Ys(),
			Mode:          mode,
			HoverTemplate: HoverTemplate(sr.Label),
			LegendGroup:   LegendGroup,
		})
	}
	return fig
}
