package trace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aevon-lab/tracelens/internal/core/fieldpath"
	"github.com/aevon-lab/tracelens/internal/core/filter"
	"github.com/aevon-lab/tracelens/internal/core/storage"
	"github.com/aevon-lab/tracelens/internal/core/storage/pool"
	"github.com/aevon-lab/tracelens/internal/figure"
	"github.com/aevon-lab/tracelens/internal/metrics"
	"github.com/aevon-lab/tracelens/internal/preset"
	"github.com/aevon-lab/tracelens/internal/query"
	"github.com/aevon-lab/tracelens/internal/schema"
	"github.com/aevon-lab/tracelens/internal/series"
)

// NoDataMessage is shown when a plot request yields nothing.
const NoDataMessage = "Error getting data: No data"

// DefaultCollection holds the trace documents.
const DefaultCollection = "Trace"

// StoreProvider hands out the store of a connection target. The store stays
// usable until the returned release is called.
type StoreProvider interface {
	Get(ctx context.Context, t pool.Target) (storage.DocumentStore, pool.Release, error)
}

// Options tune a Service.
type Options struct {
	Collection    string
	DefaultFCoeff string
}

// Service orchestrates Update and Plot.
type Service struct {
	stores        StoreProvider
	introspector  *schema.Introspector
	presets       preset.Repository
	collection    string
	defaultFCoeff string
}

// Result is the outcome of one Plot.
type Result struct {
	Selection Selection       `json:"selection"`
	Figures   []figure.Figure `json:"figures"`
	Message   string          `json:"message,omitempty"`
	Malformed int             `json:"malformed"`
}

// NewService creates a trace service. presets may be nil.
func NewService(stores StoreProvider, introspector *schema.Introspector, presets preset.Repository, opts Options) *Service {
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}
	return &Service{
		stores:        stores,
		introspector:  introspector,
		presets:       presets,
		collection:    opts.Collection,
		defaultFCoeff: opts.DefaultFCoeff,
	}
}

// openStore fetches the store of t. A target that cannot name a store is bad input.
func (s *Service) openStore(ctx context.Context, t pool.Target) (storage.DocumentStore, pool.Release, error) {
	store, release, err := s.stores.Get(ctx, t)
	if errors.Is(err, pool.ErrInvalidTarget) {
		return nil, nil, fmt.Errorf("%w: %v", ErrMissingInput, err)
	}
	return store, release, err
}

// Update re-discovers the keys and distinct values of the form's store and
// returns the refreshed selection.
func (s *Service) Update(ctx context.Context, sel Selection) (Selection, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.WithLabelValues("update").Observe(time.Since(start).Seconds())
	}()

	store, release, err := s.openStore(ctx, sel.Form.Target())
	if err != nil {
		s.recordRun("update", err)
		return sel, err
	}
	defer release()

	slog.Info("[Trace] Updating", "target", sel.Form.Target().Key(), "collection", s.collection)
	index, err := s.introspector.Introspect(ctx, store, s.collection)
	s.recordQuery("introspect", err)
	if err != nil {
		s.recordRun("update", err)
		return sel, fmt.Errorf("failed to introspect %s: %w", s.collection, err)
	}

	sel.IDKeys = index.IDKeys
	sel.ValueKeys = index.ValueKeys
	sel.IDKeyValues = index.Distinct
	s.recordRun("update", nil)
	return sel, nil
}

// Plot runs every datax target of the form through the pipeline and returns
// one figure per target. A target with excess dimensionality is dropped and
// reported in the message; the others still plot.
func (s *Service) Plot(ctx context.Context, sel Selection) (*Result, error) {
	start := time.Now()
	defer func() {
		metrics.PipelineDuration.WithLabelValues("plot").Observe(time.Since(start).Seconds())
	}()

	res, err := s.plot(ctx, sel)
	s.recordRun("plot", err)
	return res, err
}

func (s *Service) plot(ctx context.Context, sel Selection) (*Result, error) {
	form := sel.Form
	if len(form.DataX) == 0 {
		return nil, ErrNoData
	}

	alpha, err := s.parseFCoeff(form.FCoeff)
	if err != nil {
		return nil, err
	}
	x, err := fieldpath.Parse(form.XAxis)
	if err != nil {
		return nil, fmt.Errorf("%w: xaxis: %v", ErrMissingInput, err)
	}
	yRaw := form.YAxis
	if yRaw == "" {
		yRaw = storage.CollectedY
	}
	y, err := fieldpath.Parse(yRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: yaxis: %v", ErrMissingInput, err)
	}
	group, err := query.ParseGroup(form.Group)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingInput, err)
	}
	match, err := query.ParseMatch(form.Match)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingInput, err)
	}

	mode, known := filter.ParseMode(form.Filter)
	if !known {
		slog.Warn("[Trace] Unsupported filter, passing through", "filter", form.Filter)
	}
	qq := mode == filter.ModeQQ || form.Type == figure.PlotQQ

	store, release, err := s.openStore(ctx, form.Target())
	if err != nil {
		return nil, err
	}
	defer release()

	slog.Info("[Trace] Plotting",
		"target", form.Target().Key(),
		"datax", form.DataX,
		"group", group.Names(),
		"filter", mode,
		"type", form.Type)

	res := &Result{Selection: sel, Figures: []figure.Figure{}}
	var messages []string
	points := 0

	for _, value := range form.DataX {
		req := query.Build(s.collection, match, group, query.Target{Value: value, X: x, Y: y})
		buckets, err := store.Aggregate(ctx, req)
		s.recordQuery("aggregate", err)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate %s: %w", value, err)
		}

		if err := series.CheckExcess(value, buckets, req); err != nil {
			var excess *series.ExcessDimensionError
			if errors.As(err, &excess) {
				metrics.ExcessDimension.Inc()
				slog.Info("[Trace] Dropping target with excess dimensionality", "datax", value, "fields", excess.Fields)
				messages = append(messages, excess.Message())
				continue
			}
			return nil, err
		}

		set := series.Extractor{Target: value, Group: group, X: x, Y: y}.Extract(buckets)
		if set.Malformed > 0 {
			metrics.MalformedElements.Add(float64(set.Malformed))
			res.Malformed += set.Malformed
		}

		condition(set, mode, alpha, qq)
		points += set.Len()
		res.Figures = append(res.Figures, figure.Assemble(set, form.Type, form.XAxis, yRaw))
	}

	if points == 0 && len(messages) == 0 {
		messages = append(messages, NoDataMessage)
	}
	res.Message = strings.Join(messages, "\n")
	return res, nil
}

// condition runs each series through its own filter scan, then the QQ
// transform when asked.
func condition(set *series.Set, mode filter.Mode, alpha float64, qq bool) {
	for _, sr := range set.Series {
		xs := sr.Xs()
		ys := sr.Ys()
		if mode != filter.ModeQQ {
			ys = filter.Apply(mode, alpha, ys)
		}
		if qq {
			xs, ys = filter.QQ(ys)
		}
		pts := make([]series.Point, len(ys))
		for i := range ys {
			pts[i] = series.Point{X: xs[i], Y: ys[i]}
		}
		sr.Points = pts
	}
}

func (s *Service) parseFCoeff(raw string) (float64, error) {
	if raw == "" {
		raw = s.defaultFCoeff
	}
	alpha, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: fCoeff %q is not a number", ErrMissingInput, raw)
	}
	return filter.ClampAlpha(alpha), nil
}

// Presets lists the configured presets.
func (s *Service) Presets(ctx context.Context) ([]preset.Preset, error) {
	if s.presets == nil {
		return []preset.Preset{}, nil
	}
	return s.presets.List(ctx)
}

// PlotPreset plots the named preset against the connection of conn.
func (s *Service) PlotPreset(ctx context.Context, name string, sel Selection) (*Result, error) {
	if s.presets == nil {
		return nil, fmt.Errorf("%w: %q", preset.ErrNotFound, name)
	}
	p, err := s.presets.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Plot(ctx, sel.WithForm(FormFromPreset(*p, sel.Form)))
}

func (s *Service) recordQuery(op string, err error) {
	metrics.StoreQueries.WithLabelValues(op, resultLabel(err)).Inc()
}

func (s *Service) recordRun(action string, err error) {
	metrics.PipelineRuns.WithLabelValues(action, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, storage.ErrUnreachable):
		return metrics.ResultUnreachable
	}
	return metrics.ResultError
}
