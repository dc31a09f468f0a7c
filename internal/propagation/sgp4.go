package propagation

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/ruddro-roy/satlink-planner/internal/tle"
	"github.com/ruddro-roy/satlink-planner/internal/transform"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite — pure Go,
// no CGO, explicit TEME output, and it ships GSTimeFromDate/ECIToECEF
// which the transform tests cross-validate against.
//
// The library's Propagate takes Satellite by value, so SGP4 error codes
// are not visible to the caller. Failures are detected by checking the
// output for NaN/Inf and unreasonable position magnitudes.

// Plausible orbit radius bounds in km (just below LEO to beyond GEO).
const (
	minOrbitRadiusKm = 6200.0
	maxOrbitRadiusKm = 50000.0
)

// SGP4Source propagates a single element set with the SGP4 model.
type SGP4Source struct {
	sat    satellite.Satellite
	catnum int
}

// NewSGP4Source initializes the SGP4 model from TLE lines.
//
// Lines are pre-validated because go-satellite calls log.Fatal on
// malformed input, which would kill the process.
func NewSGP4Source(line1, line2 string, catnum int) (*SGP4Source, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, &Error{CatalogNumber: catnum, Reason: ReasonInit, Err: err}
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, &Error{
			CatalogNumber: catnum,
			Reason:        ReasonInit,
			Err:           fmt.Errorf("sgp4 init code=%d %s", sat.Error, sat.ErrorStr),
		}
	}
	return &SGP4Source{sat: sat, catnum: catnum}, nil
}

// NewSourceFromEntry initializes an SGP4Source from a parsed element entry.
func NewSourceFromEntry(e tle.Entry) (*SGP4Source, error) {
	return NewSGP4Source(e.Line1, e.Line2, e.CatalogNumber)
}

// validateTLELines performs basic format validation on TLE lines.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// StateAt computes the TEME state at t. Sub-second precision is
// truncated: SGP4 epoch math operates on whole seconds, which is ample
// for planning-grade look angles.
func (p *SGP4Source) StateAt(t time.Time) (transform.StateTEME, error) {
	t = t.UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if hasNaN(pos) || hasNaN(vel) {
		return transform.StateTEME{}, &Error{
			CatalogNumber: p.catnum,
			At:            t,
			Reason:        ReasonNaN,
			Err:           fmt.Errorf("sgp4 output is NaN/Inf"),
		}
	}

	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < minOrbitRadiusKm || mag > maxOrbitRadiusKm {
		return transform.StateTEME{}, &Error{
			CatalogNumber: p.catnum,
			At:            t,
			Reason:        ReasonMagnitude,
			Err:           fmt.Errorf("position magnitude %.1f km outside [%g, %g]", mag, minOrbitRadiusKm, maxOrbitRadiusKm),
		}
	}

	return transform.StateTEME{
		X: pos.X, Y: pos.Y, Z: pos.Z,
		VX: vel.X, VY: vel.Y, VZ: vel.Z,
	}, nil
}

func hasNaN(v satellite.Vector3) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) ||
		math.IsInf(v.X, 0) || math.IsInf(v.Y, 0) || math.IsInf(v.Z, 0)
}
