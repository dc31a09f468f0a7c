// Package passes finds the time windows during which a satellite is
// above an observer's elevation mask, given only a continuous
// elevation-over-time function. Propagation and coordinate transforms
// stay behind that function, so the detector is testable against
// analytic trajectories.
package passes

import (
	"context"
	"time"
)

// ElevationFunc returns the satellite's elevation above the observer's
// horizon (degrees) at t. It must be evaluable at arbitrary instants,
// not just grid points.
type ElevationFunc func(t time.Time) (float64, error)

const (
	// crossingTolerance bounds the rise/set refinement error.
	crossingTolerance = time.Second

	// minWindowDuration suppresses grazing micro-passes: a window
	// whose peak barely clears the mask shows up on the grid as one
	// or two samples of float-noise visibility, and discarding
	// anything shorter than this keeps it from being reported as a
	// pass (or as two).
	minWindowDuration = 10 * time.Second
)

// Window is one visibility pass. Invariants: Rise < MaxElevationTime <
// Set and DurationSeconds = Set − Rise exactly. MaxElevationDeg is the
// refined local maximum of the elevation function, not the best grid
// sample.
type Window struct {
	Rise             time.Time `json:"rise"`
	Set              time.Time `json:"set"`
	MaxElevationTime time.Time `json:"max_elevation_time"`
	MaxElevationDeg  float64   `json:"max_elevation_deg"`
	DurationSeconds  float64   `json:"duration_seconds"`

	// Partial marks a window clipped by the requested range: the
	// satellite was already above the mask at the range start, or had
	// not yet set at the range end. Clipped boundaries are the range
	// boundaries themselves.
	Partial bool `json:"partial,omitempty"`
}

// FindPasses scans [start, end] on a fixed grid of step spacing,
// refines every mask crossing by bisection to within a second, and
// locates each window's true peak elevation. It returns windows in
// rise order, at most maxPasses of them. The first propagation failure
// aborts the scan: a corrupt state invalidates boundary detection.
func FindPasses(ctx context.Context, elev ElevationFunc, start, end time.Time, step time.Duration, maskDeg float64, maxPasses int) ([]Window, error) {
	var windows []Window

	el, err := elev(start)
	if err != nil {
		return nil, err
	}

	inPass := el >= maskDeg
	var (
		rise       time.Time
		clippedAtStart bool
		gridMaxT   time.Time
		gridMaxEl  float64
	)
	if inPass {
		rise = start
		clippedAtStart = true
		gridMaxT, gridMaxEl = start, el
	}

	prev := start
	t := start.Add(step)
	for {
		if t.After(end) {
			t = end
		}
		if err := ctx.Err(); err != nil {
			return windows, err
		}

		el, err = elev(t)
		if err != nil {
			return windows, err
		}

		switch {
		case !inPass && el >= maskDeg:
			rise, err = bisectCrossing(elev, prev, t, maskDeg, true, crossingTolerance)
			if err != nil {
				return windows, err
			}
			inPass = true
			clippedAtStart = false
			gridMaxT, gridMaxEl = t, el

		case inPass && el < maskDeg:
			set, err := bisectCrossing(elev, prev, t, maskDeg, false, crossingTolerance)
			if err != nil {
				return windows, err
			}
			w, ok, err := buildWindow(elev, rise, set, gridMaxT, step, clippedAtStart)
			if err != nil {
				return windows, err
			}
			if ok {
				windows = append(windows, w)
				if len(windows) >= maxPasses {
					return windows, nil
				}
			}
			inPass = false

		case inPass:
			if el > gridMaxEl {
				gridMaxT, gridMaxEl = t, el
			}
		}

		prev = t
		if !t.Before(end) {
			break
		}
		t = t.Add(step)
	}

	// Still above the mask at the end of the range: truncate to end.
	if inPass {
		w, ok, err := buildWindow(elev, rise, end, gridMaxT, step, true)
		if err != nil {
			return windows, err
		}
		if ok {
			windows = append(windows, w)
		}
	}

	return windows, nil
}

// buildWindow refines the peak inside [rise, set] and assembles the
// Window, or reports ok=false for a sub-minimum grazing window.
func buildWindow(elev ElevationFunc, rise, set, gridMaxT time.Time, step time.Duration, partial bool) (Window, bool, error) {
	if set.Sub(rise) < minWindowDuration {
		return Window{}, false, nil
	}

	// Peak search interval: one grid step either side of the best grid
	// sample, clamped strictly inside (rise, set) so the ordering
	// invariant holds even when the peak hugs a clipped boundary.
	lo := gridMaxT.Add(-step)
	hi := gridMaxT.Add(step)
	inner := crossingTolerance
	if riseBound := rise.Add(inner); lo.Before(riseBound) {
		lo = riseBound
	}
	if setBound := set.Add(-inner); hi.After(setBound) {
		hi = setBound
	}
	if hi.Before(lo) {
		lo, hi = hi, lo
	}

	maxT, maxEl, err := ternaryMax(elev, lo, hi, crossingTolerance)
	if err != nil {
		return Window{}, false, err
	}

	return Window{
		Rise:             rise,
		Set:              set,
		MaxElevationTime: maxT,
		MaxElevationDeg:  maxEl,
		DurationSeconds:  set.Sub(rise).Seconds(),
		Partial:          partial,
	}, true, nil
}
