// Package forecast composes propagation, coordinate transforms, pass
// detection, and the link budget into the two request-level
// operations: predict passes and compute a margin series. The engine
// holds no per-request state; every request computes fresh and the
// results are discarded with the response.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/linkbudget"
	"github.com/ruddro-roy/satlink-planner/internal/metrics"
	"github.com/ruddro-roy/satlink-planner/internal/passes"
	"github.com/ruddro-roy/satlink-planner/internal/propagation"
	"github.com/ruddro-roy/satlink-planner/internal/tle"
	"github.com/ruddro-roy/satlink-planner/internal/transform"
)

// staleElementsDays is the element age past which requests get a
// warning log. Warn-only: staleness never refuses computation.
const staleElementsDays = 14.0

// Engine runs forecast requests. Safe for concurrent use: all state is
// configuration fixed at construction.
type Engine struct {
	logger  *slog.Logger
	workers int

	// newSource is swapped for a scripted trajectory in tests.
	newSource func(tle.Entry) (propagation.Source, error)
	now       func() time.Time
}

// NewEngine creates an Engine backed by SGP4 propagation. workers
// bounds the margin-series worker pool; values below 1 select
// runtime.NumCPU().
func NewEngine(logger *slog.Logger, workers int) *Engine {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &Engine{
		logger:  logger,
		workers: workers,
		newSource: func(e tle.Entry) (propagation.Source, error) {
			return propagation.NewSourceFromEntry(e)
		},
		now: time.Now,
	}
}

// PredictPasses finds the satellite's visibility windows over the
// site. The first propagation failure aborts the whole request: a
// corrupt state anywhere in the scan invalidates boundary detection.
func (e *Engine) PredictPasses(ctx context.Context, req PassRequest) (*PassForecast, error) {
	if err := validateCommon(req.Site, req.Window, req.StepSeconds); err != nil {
		return nil, err
	}
	if err := validateMask(req.MaskDeg); err != nil {
		return nil, err
	}
	if req.MaxPasses < 1 {
		return nil, &InvalidInputError{Field: "max_passes", Reason: fmt.Sprintf("must be positive, got %d", req.MaxPasses)}
	}

	meta := e.metadata(req.Elements)
	e.warnIfStale(meta)

	src, err := e.newSource(req.Elements)
	if err != nil {
		metrics.RecordForecast("passes", "error")
		return nil, err
	}
	sampler := propagation.NewSampler(src)
	elev := func(t time.Time) (float64, error) {
		state, serr := sampler.StateAt(t)
		if serr != nil {
			return 0, serr
		}
		s := transform.Topocentric(state, t, req.Site, req.MaskDeg)
		return s.ElevationDeg, nil
	}

	started := e.now()
	windows, err := passes.FindPasses(ctx, elev,
		req.Window.Start, req.Window.End,
		time.Duration(req.StepSeconds)*time.Second,
		req.MaskDeg, req.MaxPasses)
	elapsed := e.now().Sub(started)
	if err != nil {
		metrics.RecordForecast("passes", "error")
		return nil, err
	}

	metrics.RecordForecast("passes", "ok")
	metrics.ObserveForecastDuration("passes", elapsed)
	e.logger.Debug("pass prediction complete",
		"catalog_number", meta.CatalogNumber,
		"passes", len(windows),
		"duration_ms", elapsed.Milliseconds(),
	)

	return &PassForecast{Meta: meta, Passes: windows}, nil
}

// ComputeMarginSeries evaluates the link budget on the request's time
// grid. Samples are independent, so they are computed in parallel and
// a failing timestamp is skipped with an annotation instead of failing
// the series.
func (e *Engine) ComputeMarginSeries(ctx context.Context, req MarginRequest) (*MarginForecast, error) {
	if err := validateCommon(req.Site, req.Window, req.StepSeconds); err != nil {
		return nil, err
	}
	if err := validateMask(req.MaskDeg); err != nil {
		return nil, err
	}
	cfg := req.RF.Apply(linkbudget.DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return nil, &InvalidInputError{Field: "rf", Reason: err.Error()}
	}

	meta := e.metadata(req.Elements)
	e.warnIfStale(meta)

	src, err := e.newSource(req.Elements)
	if err != nil {
		metrics.RecordForecast("margin", "error")
		return nil, err
	}

	grid := timeGrid(req.Window, req.StepSeconds)

	started := e.now()
	results := e.evalSamples(ctx, src, grid, req.Site, req.MaskDeg, cfg)
	elapsed := e.now().Sub(started)
	if err := ctx.Err(); err != nil {
		metrics.RecordForecast("margin", "cancelled")
		return nil, err
	}

	out := &MarginForecast{Meta: meta, RF: cfg}
	for i, r := range results {
		if r.err != nil {
			out.Skipped = append(out.Skipped, SkippedSample{Time: grid[i], Reason: r.err.Error()})
			continue
		}
		if req.VisibleOnly && !r.sample.Visible {
			continue
		}
		out.Samples = append(out.Samples, r.sample)
	}

	metrics.RecordForecast("margin", "ok")
	metrics.ObserveForecastDuration("margin", elapsed)
	e.logger.Debug("margin series complete",
		"catalog_number", meta.CatalogNumber,
		"samples", len(out.Samples),
		"skipped", len(out.Skipped),
		"duration_ms", elapsed.Milliseconds(),
	)

	return out, nil
}

func (e *Engine) metadata(entry tle.Entry) Metadata {
	return Metadata{
		CatalogNumber:  entry.CatalogNumber,
		ElementEpoch:   entry.Epoch,
		ElementAgeDays: entry.AgeAt(e.now()),
		ElementSource:  entry.Source,
	}
}

func (e *Engine) warnIfStale(meta Metadata) {
	if meta.ElementAgeDays > staleElementsDays {
		e.logger.Warn("element set is stale",
			"catalog_number", meta.CatalogNumber,
			"age_days", meta.ElementAgeDays,
		)
	}
}

// timeGrid builds the sampling grid: start inclusive, end included
// when it lands on the grid.
func timeGrid(w Window, stepSeconds int) []time.Time {
	step := time.Duration(stepSeconds) * time.Second
	n := int(w.End.Sub(w.Start)/step) + 1
	grid := make([]time.Time, 0, n)
	for t := w.Start; !t.After(w.End); t = t.Add(step) {
		grid = append(grid, t)
	}
	return grid
}

func validateCommon(site transform.Site, w Window, stepSeconds int) error {
	if site.LatDeg < -90 || site.LatDeg > 90 {
		return &InvalidInputError{Field: "latitude", Reason: fmt.Sprintf("must be in [-90, 90], got %v", site.LatDeg)}
	}
	if site.LonDeg < -180 || site.LonDeg > 180 {
		return &InvalidInputError{Field: "longitude", Reason: fmt.Sprintf("must be in [-180, 180], got %v", site.LonDeg)}
	}
	if w.Start.IsZero() || w.End.IsZero() {
		return &InvalidInputError{Field: "window", Reason: "start and end are required"}
	}
	if !w.Start.Before(w.End) {
		return &InvalidInputError{Field: "window", Reason: "start must be before end"}
	}
	if stepSeconds <= 0 {
		return &InvalidInputError{Field: "step_seconds", Reason: fmt.Sprintf("must be positive, got %d", stepSeconds)}
	}
	return nil
}

func validateMask(maskDeg float64) error {
	if maskDeg < 0 || maskDeg >= 90 {
		return &InvalidInputError{Field: "mask_deg", Reason: fmt.Sprintf("must be in [0, 90), got %v", maskDeg)}
	}
	return nil
}
