package propagation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ruddro-roy/satlink-planner/internal/transform"
)

// Real ISS orbital elements (epoch April 2024).
const (
	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

func TestSGP4SourceStateAt(t *testing.T) {
	src, err := NewSGP4Source(issLine1, issLine2, 25544)
	if err != nil {
		t.Fatalf("NewSGP4Source failed: %v", err)
	}

	target := time.Date(2024, 4, 10, 12, 0, 0, 0, time.UTC)
	state, err := src.StateAt(target)
	if err != nil {
		t.Fatalf("StateAt failed: %v", err)
	}

	// TEME position magnitude for the ISS: ~6371 + 420 ≈ 6791 km.
	mag := math.Sqrt(state.X*state.X + state.Y*state.Y + state.Z*state.Z)
	if mag < 6500 || mag > 7000 {
		t.Errorf("TEME position magnitude = %.1f km, expected ~6791 km (ISS orbit)", mag)
	}

	// LEO orbital speed is ~7.7 km/s.
	speed := math.Sqrt(state.VX*state.VX + state.VY*state.VY + state.VZ*state.VZ)
	if speed < 7.0 || speed > 8.5 {
		t.Errorf("TEME speed = %.2f km/s, expected ~7.7 km/s", speed)
	}
}

func TestSGP4SourceDeterministic(t *testing.T) {
	src, err := NewSGP4Source(issLine1, issLine2, 25544)
	if err != nil {
		t.Fatalf("NewSGP4Source failed: %v", err)
	}

	target := time.Date(2024, 4, 10, 18, 30, 15, 0, time.UTC)
	a, err1 := src.StateAt(target)
	b, err2 := src.StateAt(target)
	if err1 != nil || err2 != nil {
		t.Fatalf("StateAt failed: %v / %v", err1, err2)
	}
	if a != b {
		t.Errorf("StateAt is not deterministic: %+v vs %+v", a, b)
	}
}

func TestSGP4SourceInvalidTLE(t *testing.T) {
	_, err := NewSGP4Source("invalid line 1", "invalid line 2", 99999)
	if err == nil {
		t.Fatal("expected error for invalid TLE, got nil")
	}

	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("error type = %T, want *propagation.Error", err)
	}
	if perr.Reason != ReasonInit {
		t.Errorf("reason = %q, want %q", perr.Reason, ReasonInit)
	}
	if perr.CatalogNumber != 99999 {
		t.Errorf("catalog number = %d, want 99999", perr.CatalogNumber)
	}
}

// scriptedSource counts calls and fails at one specific timestamp.
type scriptedSource struct {
	calls int
	fail  time.Time
}

func (s *scriptedSource) StateAt(t time.Time) (transform.StateTEME, error) {
	s.calls++
	if t.Equal(s.fail) {
		return transform.StateTEME{}, &Error{CatalogNumber: 1, At: t, Reason: ReasonNaN}
	}
	return transform.StateTEME{X: 7000}, nil
}

func TestSamplerMemoizes(t *testing.T) {
	src := &scriptedSource{}
	sampler := NewSampler(src)

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		if _, err := sampler.StateAt(at); err != nil {
			t.Fatalf("StateAt failed: %v", err)
		}
	}
	if src.calls != 1 {
		t.Errorf("underlying source called %d times, want 1", src.calls)
	}
}

func TestSamplerDoesNotMemoizeErrors(t *testing.T) {
	bad := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := &scriptedSource{fail: bad}
	sampler := NewSampler(src)

	for i := 0; i < 3; i++ {
		_, err := sampler.StateAt(bad)
		var perr *Error
		if !errors.As(err, &perr) {
			t.Fatalf("iteration %d: error type = %T, want *propagation.Error", i, err)
		}
		if !perr.At.Equal(bad) {
			t.Errorf("error timestamp = %v, want %v", perr.At, bad)
		}
	}
	if src.calls != 3 {
		t.Errorf("underlying source called %d times, want 3 (errors not cached)", src.calls)
	}
}
