package passes

import "time"

// The crossing and peak refinements are deliberately tiny, standalone
// routines: they are the most bug-prone part of pass detection
// (interval boundaries, sign conventions) and are tested in isolation
// against analytic elevation functions.

// bisectCrossing refines a mask crossing known to lie in (lo, hi].
// For a rise, lo is below the mask and hi at-or-above; for a set the
// reverse. The returned time is the first grid-independent instant on
// the far side of the crossing, within tol of the true crossing.
func bisectCrossing(elev ElevationFunc, lo, hi time.Time, maskDeg float64, rising bool, tol time.Duration) (time.Time, error) {
	for hi.Sub(lo) > tol {
		mid := lo.Add(hi.Sub(lo) / 2)
		el, err := elev(mid)
		if err != nil {
			return time.Time{}, err
		}
		if (el >= maskDeg) == rising {
			hi = mid
		} else {
			lo = mid
		}
	}
	return hi, nil
}

// ternaryMax locates the maximum of elev on [lo, hi], assuming the
// function is unimodal there. Callers seed [lo, hi] from the best grid
// sample so the assumption holds within one grid step of the peak.
func ternaryMax(elev ElevationFunc, lo, hi time.Time, tol time.Duration) (time.Time, float64, error) {
	for hi.Sub(lo) > tol {
		third := hi.Sub(lo) / 3
		m1 := lo.Add(third)
		m2 := hi.Add(-third)

		e1, err := elev(m1)
		if err != nil {
			return time.Time{}, 0, err
		}
		e2, err := elev(m2)
		if err != nil {
			return time.Time{}, 0, err
		}

		if e1 < e2 {
			lo = m1
		} else {
			hi = m2
		}
	}

	mid := lo.Add(hi.Sub(lo) / 2)
	el, err := elev(mid)
	if err != nil {
		return time.Time{}, 0, err
	}
	return mid, el, nil
}
