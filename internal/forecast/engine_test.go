package forecast

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/linkbudget"
	"github.com/ruddro-roy/satlink-planner/internal/propagation"
	"github.com/ruddro-roy/satlink-planner/internal/tle"
	"github.com/ruddro-roy/satlink-planner/internal/transform"
)

const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

func issEntry() tle.Entry {
	return tle.Entry{
		CatalogNumber: 25544,
		Name:          "ISS (ZARYA)",
		Epoch:         time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC),
		Line1:         issLine1,
		Line2:         issLine2,
		Source:        "celestrak",
	}
}

func testEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)), 4)
}

// fixedSource always reports the same inertial state. A position on
// the polar axis stays below the horizon of an equatorial site at
// every timestamp, since Earth rotation leaves the Z axis unchanged.
type fixedSource struct {
	state transform.StateTEME
	calls atomic.Int64
	errAt map[int64]error
}

func (f *fixedSource) StateAt(t time.Time) (transform.StateTEME, error) {
	f.calls.Add(1)
	if err, ok := f.errAt[t.Unix()]; ok {
		return transform.StateTEME{}, err
	}
	return f.state, nil
}

// countingFactory wraps an engine's source factory and counts how
// many times a source was constructed.
type countingFactory struct {
	src   propagation.Source
	calls int
	err   error
}

func (c *countingFactory) new(tle.Entry) (propagation.Source, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.src, nil
}

func validPassRequest() PassRequest {
	start := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	return PassRequest{
		Elements:    issEntry(),
		Site:        transform.NewSite(45.0, -75.0, 0.1),
		Window:      Window{Start: start, End: start.Add(24 * time.Hour)},
		MaskDeg:     10.0,
		StepSeconds: 60,
		MaxPasses:   20,
	}
}

func TestPredictPassesValidationBeforePropagation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PassRequest)
		field  string
	}{
		{"latitude too large", func(r *PassRequest) { r.Site = transform.NewSite(91, 0, 0) }, "latitude"},
		{"longitude too small", func(r *PassRequest) { r.Site = transform.NewSite(0, -181, 0) }, "longitude"},
		{"window reversed", func(r *PassRequest) { r.Window.Start, r.Window.End = r.Window.End, r.Window.Start }, "window"},
		{"window zero", func(r *PassRequest) { r.Window = Window{} }, "window"},
		{"step zero", func(r *PassRequest) { r.StepSeconds = 0 }, "step_seconds"},
		{"mask negative", func(r *PassRequest) { r.MaskDeg = -1 }, "mask_deg"},
		{"mask at zenith", func(r *PassRequest) { r.MaskDeg = 90 }, "mask_deg"},
		{"max passes zero", func(r *PassRequest) { r.MaxPasses = 0 }, "max_passes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := &countingFactory{src: &fixedSource{}}
			eng := testEngine()
			eng.newSource = factory.new

			req := validPassRequest()
			tt.mutate(&req)

			_, err := eng.PredictPasses(context.Background(), req)
			var inv *InvalidInputError
			if !errors.As(err, &inv) {
				t.Fatalf("expected InvalidInputError, got %v", err)
			}
			if inv.Field != tt.field {
				t.Errorf("field = %q, want %q", inv.Field, tt.field)
			}
			if factory.calls != 0 {
				t.Errorf("source constructed %d times before validation failure", factory.calls)
			}
		})
	}
}

func TestComputeMarginSeriesValidationBeforePropagation(t *testing.T) {
	factory := &countingFactory{src: &fixedSource{}}
	eng := testEngine()
	eng.newSource = factory.new

	start := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	badBW := -1.0
	req := MarginRequest{
		Elements:    issEntry(),
		Site:        transform.NewSite(45, -75, 0.1),
		Window:      Window{Start: start, End: start.Add(time.Hour)},
		StepSeconds: 60,
		RF:          linkbudget.Overrides{BandwidthHz: &badBW},
	}

	_, err := eng.ComputeMarginSeries(context.Background(), req)
	var inv *InvalidInputError
	if !errors.As(err, &inv) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if inv.Field != "rf" {
		t.Errorf("field = %q, want %q", inv.Field, "rf")
	}
	if factory.calls != 0 {
		t.Errorf("source constructed %d times before validation failure", factory.calls)
	}
}

func TestPredictPassesNeverVisibleIsEmptyNotError(t *testing.T) {
	src := &fixedSource{state: transform.StateTEME{Z: -7000}}
	factory := &countingFactory{src: src}
	eng := testEngine()
	eng.newSource = factory.new

	start := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	req := PassRequest{
		Elements:    issEntry(),
		Site:        transform.NewSite(0, 0, 0),
		Window:      Window{Start: start, End: start.Add(time.Hour)},
		MaskDeg:     0,
		StepSeconds: 60,
		MaxPasses:   10,
	}

	got, err := eng.PredictPasses(context.Background(), req)
	if err != nil {
		t.Fatalf("PredictPasses: %v", err)
	}
	if len(got.Passes) != 0 {
		t.Errorf("expected no passes, got %d", len(got.Passes))
	}
	if src.calls.Load() == 0 {
		t.Error("source was never sampled")
	}
}

func TestPredictPassesMetadata(t *testing.T) {
	eng := testEngine()
	eng.now = func() time.Time {
		return time.Date(2024, 4, 14, 12, 0, 0, 0, time.UTC)
	}
	eng.newSource = (&countingFactory{src: &fixedSource{state: transform.StateTEME{Z: -7000}}}).new

	req := validPassRequest()
	req.Site = transform.NewSite(0, 0, 0)
	req.Window.End = req.Window.Start.Add(10 * time.Minute)

	got, err := eng.PredictPasses(context.Background(), req)
	if err != nil {
		t.Fatalf("PredictPasses: %v", err)
	}
	if got.Meta.CatalogNumber != 25544 {
		t.Errorf("catalog number = %d, want 25544", got.Meta.CatalogNumber)
	}
	if !got.Meta.ElementEpoch.Equal(issEntry().Epoch) {
		t.Errorf("epoch = %v, want %v", got.Meta.ElementEpoch, issEntry().Epoch)
	}
	if got.Meta.ElementAgeDays != 5.0 {
		t.Errorf("age = %v days, want 5", got.Meta.ElementAgeDays)
	}
	if got.Meta.ElementSource != "celestrak" {
		t.Errorf("source = %q, want %q", got.Meta.ElementSource, "celestrak")
	}
}

func TestPredictPassesISSDay(t *testing.T) {
	eng := testEngine()
	got, err := eng.PredictPasses(context.Background(), validPassRequest())
	if err != nil {
		t.Fatalf("PredictPasses: %v", err)
	}
	// A 51.6 degree inclination orbit covers a mid-latitude site
	// several times a day; the orbital period caps the count.
	if len(got.Passes) < 1 || len(got.Passes) > 16 {
		t.Fatalf("pass count = %d, want within [1, 16]", len(got.Passes))
	}
	for i, w := range got.Passes {
		if !w.Rise.Before(w.Set) {
			t.Errorf("pass %d: rise %v not before set %v", i, w.Rise, w.Set)
		}
		if w.MaxElevationTime.Before(w.Rise) || w.MaxElevationTime.After(w.Set) {
			t.Errorf("pass %d: peak time %v outside window", i, w.MaxElevationTime)
		}
		if w.MaxElevationDeg < 10.0 {
			t.Errorf("pass %d: peak elevation %v below mask", i, w.MaxElevationDeg)
		}
		if i > 0 && !got.Passes[i-1].Set.Before(w.Rise) {
			t.Errorf("pass %d overlaps previous", i)
		}
	}
}

func TestComputeMarginSeriesISS(t *testing.T) {
	eng := testEngine()
	start := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	txOverride := 20.0
	req := MarginRequest{
		Elements:    issEntry(),
		Site:        transform.NewSite(45, -75, 0.1),
		Window:      Window{Start: start, End: start.Add(time.Hour)},
		StepSeconds: 60,
		RF:          linkbudget.Overrides{TxPowerDBW: &txOverride},
	}

	got, err := eng.ComputeMarginSeries(context.Background(), req)
	if err != nil {
		t.Fatalf("ComputeMarginSeries: %v", err)
	}
	if len(got.Samples) != 61 {
		t.Fatalf("sample count = %d, want 61", len(got.Samples))
	}
	if len(got.Skipped) != 0 {
		t.Errorf("unexpected skips: %v", got.Skipped)
	}

	// Effective RF config echoes the applied overrides over defaults.
	if got.RF.TxPowerDBW != 20.0 {
		t.Errorf("echoed tx power = %v, want 20", got.RF.TxPowerDBW)
	}
	if got.RF.Band != linkbudget.BandUHF {
		t.Errorf("echoed band = %v, want default UHF", got.RF.Band)
	}

	for i, s := range got.Samples {
		want := start.Add(time.Duration(i) * time.Minute)
		if !s.Time.Equal(want) {
			t.Fatalf("sample %d at %v, want %v", i, s.Time, want)
		}
		if s.RangeKm <= 0 {
			t.Errorf("sample %d: range %v", i, s.RangeKm)
		}
	}
}

func TestComputeMarginSeriesSkipsFailingSamples(t *testing.T) {
	start := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	src := &fixedSource{
		state: transform.StateTEME{Z: -7000},
		errAt: map[int64]error{
			start.Add(2 * time.Minute).Unix(): &propagation.Error{
				CatalogNumber: 25544,
				At:            start.Add(2 * time.Minute),
				Reason:        propagation.ReasonNaN,
			},
		},
	}
	eng := testEngine()
	eng.newSource = (&countingFactory{src: src}).new

	req := MarginRequest{
		Elements:    issEntry(),
		Site:        transform.NewSite(0, 0, 0),
		Window:      Window{Start: start, End: start.Add(5 * time.Minute)},
		StepSeconds: 60,
	}

	got, err := eng.ComputeMarginSeries(context.Background(), req)
	if err != nil {
		t.Fatalf("ComputeMarginSeries: %v", err)
	}
	if len(got.Samples) != 5 {
		t.Errorf("sample count = %d, want 5", len(got.Samples))
	}
	if len(got.Skipped) != 1 {
		t.Fatalf("skipped count = %d, want 1", len(got.Skipped))
	}
	if !got.Skipped[0].Time.Equal(start.Add(2 * time.Minute)) {
		t.Errorf("skipped time = %v, want %v", got.Skipped[0].Time, start.Add(2*time.Minute))
	}
	if got.Skipped[0].Reason == "" {
		t.Error("skipped sample has no reason")
	}
}

func TestComputeMarginSeriesVisibleOnly(t *testing.T) {
	start := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	src := &fixedSource{state: transform.StateTEME{Z: -7000}}
	eng := testEngine()
	eng.newSource = (&countingFactory{src: src}).new

	req := MarginRequest{
		Elements:    issEntry(),
		Site:        transform.NewSite(0, 0, 0),
		Window:      Window{Start: start, End: start.Add(10 * time.Minute)},
		StepSeconds: 60,
		VisibleOnly: true,
	}

	got, err := eng.ComputeMarginSeries(context.Background(), req)
	if err != nil {
		t.Fatalf("ComputeMarginSeries: %v", err)
	}
	if len(got.Samples) != 0 {
		t.Errorf("sample count = %d, want 0 for a never-visible trajectory", len(got.Samples))
	}
}

func TestPredictPassesAbortsOnPropagationFailure(t *testing.T) {
	start := time.Date(2024, 4, 9, 12, 0, 0, 0, time.UTC)
	failAt := start.Add(5 * time.Minute)
	propErr := &propagation.Error{CatalogNumber: 25544, At: failAt, Reason: propagation.ReasonNaN}
	src := &fixedSource{
		state: transform.StateTEME{Z: -7000},
		errAt: map[int64]error{failAt.Unix(): propErr},
	}
	eng := testEngine()
	eng.newSource = (&countingFactory{src: src}).new

	req := PassRequest{
		Elements:    issEntry(),
		Site:        transform.NewSite(0, 0, 0),
		Window:      Window{Start: start, End: start.Add(time.Hour)},
		StepSeconds: 60,
		MaxPasses:   10,
	}

	_, err := eng.PredictPasses(context.Background(), req)
	var pe *propagation.Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected propagation.Error, got %v", err)
	}
	if !pe.At.Equal(failAt) {
		t.Errorf("failing timestamp = %v, want %v", pe.At, failAt)
	}
}
