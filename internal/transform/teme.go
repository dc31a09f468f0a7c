// Package transform converts satellite state vectors into ground-relative
// look angles for a fixed observer.
//
// SGP4 produces positions in the TEME (True Equator Mean Equinox)
// inertial frame. The TEME→ECEF step here is a simplified Vallado-style
// rotation using GMST only, ignoring polar motion and the equation of
// equinoxes. That introduces tens of meters of error at most, which is
// fine for pass planning but not for precision orbit determination.
// Downstream numeric expectations depend on this simplified rotation,
// so it must not be silently upgraded.
//
// All distances in this package are kilometers.
//
// Reference: Vallado, "Fundamentals of Astrodynamics and Applications", Ch. 3-4.
package transform

import (
	"math"
	"time"
)

// StateTEME is a satellite position and velocity in the TEME frame (km, km/s).
type StateTEME struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// PositionECEF is a satellite position and velocity in the Earth-fixed
// frame (km, km/s).
type PositionECEF struct {
	X, Y, Z    float64
	VX, VY, VZ float64
}

// TEMEToECEF rotates a TEME state into the Earth-fixed frame at the
// given UTC time.
func TEMEToECEF(teme StateTEME, t time.Time) PositionECEF {
	return TEMEToECEFWithGMST(teme, GMST(t))
}

// TEMEToECEFWithGMST rotates TEME to ECEF using a precomputed GMST
// angle (radians). Useful when many states share the same timestamp.
//
// Position: r_ECEF = R3(θ)·r_TEME.
// Velocity: v_ECEF = R3(θ)·v_TEME − ω × r_ECEF, ω = [0, 0, ω_earth].
func TEMEToECEFWithGMST(teme StateTEME, gmst float64) PositionECEF {
	cosG := math.Cos(gmst)
	sinG := math.Sin(gmst)

	x := teme.X*cosG + teme.Y*sinG
	y := -teme.X*sinG + teme.Y*cosG
	z := teme.Z

	vx := teme.VX*cosG + teme.VY*sinG
	vy := -teme.VX*sinG + teme.VY*cosG
	vz := teme.VZ

	return PositionECEF{
		X: x, Y: y, Z: z,
		// ω × r_ECEF = [-ω·y, ω·x, 0]
		VX: vx + OmegaEarth*y,
		VY: vy - OmegaEarth*x,
		VZ: vz,
	}
}
