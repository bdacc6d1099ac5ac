package figure

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aevon-lab/tracelens/internal/core/filter"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNothingToRender is returned when no trace holds a numeric y value.
var ErrNothingToRender = errors.New("figure has no plottable points")

// Default raster size.
const (
	DefaultWidth  = 1200
	DefaultHeight = 600
)

type axisKind int

const (
	axisNumeric axisKind = iota
	axisTime
	axisOrdinal
)

// RenderPNG rasterizes fig. Numeric x values get a continuous axis, RFC3339
// strings or times a time axis, and anything else an ordinal axis in
// first-seen order. Points whose y is not numeric are dropped.
func RenderPNG(fig Figure, width, height int) ([]byte, error) {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}

	kind := detectAxis(fig.Data)
	ordinals := ordinalIndex(fig.Data, kind)

	var (
		seriesList []chart.Series
		minX, maxX = math.Inf(1), math.Inf(-1)
		minY, maxY = math.Inf(1), math.Inf(-1)
		plotted    int
	)

	for i, tr := range fig.Data {
		xs := make([]float64, 0, len(tr.X))
		ys := make([]float64, 0, len(tr.Y))
		for j := range tr.X {
			if j >= len(tr.Y) {
				break
			}
			y, ok := filter.ToFloat(tr.Y[j])
			if !ok || math.IsNaN(y) || math.IsInf(y, 0) {
				continue
			}
			x, ok := xValue(tr.X[j], kind, ordinals)
			if !ok {
				continue
			}
			xs = append(xs, x)
			ys = append(ys, y)
			minX, maxX = math.Min(minX, x), math.Max(maxX, x)
			minY, maxY = math.Min(minY, y), math.Max(maxY, y)
		}
		if len(xs) == 0 {
			continue
		}
		plotted += len(xs)

		style := traceStyle(tr.Mode, chart.GetDefaultColor(i))
		if kind == axisTime {
			times := make([]time.Time, len(xs))
			for k, x := range xs {
				times[k] = floatToTime(x)
			}
			seriesList = append(seriesList, chart.TimeSeries{Name: tr.Name, XValues: times, YValues: ys, Style: style})
			continue
		}
		seriesList = append(seriesList, chart.ContinuousSeries{Name: tr.Name, XValues: xs, YValues: ys, Style: style})
	}
	if plotted == 0 {
		return nil, ErrNothingToRender
	}

	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)

	ch := chart.Chart{
		Title:      fig.Layout.Title.Text,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		XAxis:      buildXAxis(fig.Layout.XAxis.Title.Text, kind, ordinals, minX, maxX),
		YAxis: chart.YAxis{
			Name:  fig.Layout.YAxis.Title.Text,
			Range: &chart.ContinuousRange{Min: minY, Max: maxY},
		},
		Series: seriesList,
		Width:  width,
		Height: height,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render figure %q: %w", fig.Target, err)
	}
	return buf.Bytes(), nil
}

func traceStyle(mode string, col drawing.Color) chart.Style {
	if mode == ModeMarkers {
		return chart.Style{StrokeWidth: 0, StrokeColor: drawing.ColorTransparent, DotWidth: 4, DotColor: col}
	}
	return chart.Style{StrokeWidth: 2, StrokeColor: col}
}

func buildXAxis(name string, kind axisKind, ordinals []string, minX, maxX float64) chart.XAxis {
	axis := chart.XAxis{
		Name:  name,
		Range: &chart.ContinuousRange{Min: minX, Max: maxX},
	}
	switch kind {
	case axisTime:
		axis.ValueFormatter = chart.TimeValueFormatterWithFormat(time.RFC3339)
	case axisOrdinal:
		ticks := make([]chart.Tick, len(ordinals))
		for i, label := range ordinals {
			ticks[i] = chart.Tick{Value: float64(i), Label: label}
		}
		axis.Ticks = ticks
	}
	return axis
}

// pad widens a zero-width range so single points still render.
func pad(lo, hi float64) (float64, float64) {
	if lo != hi {
		return lo, hi
	}
	delta := math.Abs(lo) * 0.05
	if delta == 0 {
		delta = 1
	}
	return lo - delta, hi + delta
}

func detectAxis(traces []Trace) axisKind {
	numeric, times, seen := true, true, false
	for _, tr := range traces {
		for _, x := range tr.X {
			if x == nil {
				continue
			}
			seen = true
			if _, ok := filter.ToFloat(x); !ok {
				numeric = false
			}
			if _, ok := asTime(x); !ok {
				times = false
			}
		}
	}
	switch {
	case !seen || numeric:
		return axisNumeric
	case times:
		return axisTime
	}
	return axisOrdinal
}

func ordinalIndex(traces []Trace, kind axisKind) []string {
	if kind != axisOrdinal {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, tr := range traces {
		for _, x := range tr.X {
			label := fmt.Sprint(x)
			if seen[label] {
				continue
			}
			seen[label] = true
			out = append(out, label)
		}
	}
	return out
}

func xValue(x any, kind axisKind, ordinals []string) (float64, bool) {
	switch kind {
	case axisTime:
		t, ok := asTime(x)
		if !ok {
			return 0, false
		}
		return chart.TimeToFloat64(t), true
	case axisOrdinal:
		label := fmt.Sprint(x)
		for i, o := range ordinals {
			if o == label {
				return float64(i), true
			}
		}
		return 0, false
	}
	f, ok := filter.ToFloat(x)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asTime(x any) (time.Time, bool) {
	switch t := x.(type) {
	case time.Time:
		return t, true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

func floatToTime(f float64) time.Time {
	return time.Unix(0, int64(f)).UTC()
}
