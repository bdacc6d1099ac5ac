// Package series turns aggregated buckets into labeled (x, y) sequences.
package series

import (
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	v1 "github.com/aevon-lab/tracelens/internal/api/v1"
	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
	"github.com/aevon-lab/tracelens/internal/core/filter"
	"github.com/shopspring/decimal"
)

// MissingValue is how an absent grouping value renders inside a label.
const MissingValue = "-"

// Point is one (x, y) sample.
type Point struct {
	X any `json:"x"`
	Y any `json:"y"`
}

// Series is the ordered samples of one label.
type Series struct {
	Label  string  `json:"label"`
	Points []Point `json:"points"`
}

// Xs returns the x values in order.
func (s *Series) Xs() []any {
	out := make([]any, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.X
	}
	return out
}

// Ys returns the y values in order.
func (s *Series) Ys() []any {
	out := make([]any, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Y
	}
	return out
}

// Set is the extraction result of one target.
type Set struct {
	Target string
	Series []*Series
	// Malformed counts buckets skipped because x or y did not resolve.
	Malformed int
}

// Labels returns the labels in first-seen order.
func (s *Set) Labels() []string {
	out := make([]string, len(s.Series))
	for i, sr := range s.Series {
		out[i] = sr.Label
	}
	return out
}

// Len returns the total number of points across all series.
func (s *Set) Len() int {
	n := 0
	for _, sr := range s.Series {
		n += len(sr.Points)
	}
	return n
}

// Extractor resolves x and y from each bucket of one target.
type Extractor struct {
	Target string
	Group  []fieldpath.FieldPath
	X      fieldpath.FieldPath
	Y      fieldpath.FieldPath
}

// Extract walks buckets in order. Buckets sharing a label append to the same
// series. A bucket whose x or y is missing is skipped and counted.
func (e Extractor) Extract(buckets []v1.Document) *Set {
	set := &Set{Target: e.Target}
	byLabel := make(map[string]*Series)

	for i, bucket := range buckets {
		x, okX := resolve(bucket, e.X)
		y, okY := resolve(bucket, e.Y)
		if !okX || !okY {
			set.Malformed++
			slog.Debug("[Series] Skipping malformed element",
				"target", e.Target,
				"index", i,
				"x", e.X.String(),
				"y", e.Y.String(),
				"has_x", okX,
				"has_y", okY)
			continue
		}

		label := Label(bucket, e.Group, e.Target)
		sr, ok := byLabel[label]
		if !ok {
			sr = &Series{Label: label}
			byLabel[label] = sr
			set.Series = append(set.Series, sr)
		}
		sr.Points = append(sr.Points, Point{X: x, Y: y})
	}
	return set
}

func resolve(bucket v1.Document, p fieldpath.FieldPath) (any, bool) {
	v, ok := fieldpath.Resolve(bucket, p)
	if !ok {
		return nil, false
	}
	return fieldpath.First(v)
}

// Label renders the grouping tuple of a bucket: values in group order joined
// by a single space. Without grouping keys the label is the target name.
func Label(bucket v1.Document, group []fieldpath.FieldPath, target string) string {
	if len(group) == 0 {
		return target
	}
	key := bucket.Bucket()
	parts := make([]string, len(group))
	for i, g := range group {
		v, ok := key[g.Name]
		if !ok {
			parts[i] = MissingValue
			continue
		}
		parts[i] = FormatValue(v)
	}
	return strings.Join(parts, " ")
}

// FormatValue renders a scalar for display. Numbers render exactly without
// exponent or trailing zeros; nil renders as MissingValue.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return MissingValue
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case decimal.Decimal:
		return t.String()
	case json.Number:
		if d, err := decimal.NewFromString(t.String()); err == nil {
			return d.String()
		}
		return t.String()
	}
	if f, ok := filter.ToFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return MissingValue
	}
	return string(data)
}
