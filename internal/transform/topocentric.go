package transform

import (
	"math"
	"time"
)

// horizontalEps is the horizontal line-of-sight magnitude (km) below
// which azimuth is clamped to 0. Directly at zenith the horizontal
// component vanishes and atan2 would amplify floating-point noise.
const horizontalEps = 1e-9

// LookAngles holds azimuth, elevation, and slant range from observer
// to satellite.
type LookAngles struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	RangeKm      float64
}

// TopocentricSample is the ground-relative view of a satellite at one
// instant, derived per request and never stored.
type TopocentricSample struct {
	Time         time.Time `json:"time"`
	ElevationDeg float64   `json:"elev_deg"`
	AzimuthDeg   float64   `json:"az_deg"`
	RangeKm      float64   `json:"range_km"`
	Visible      bool      `json:"visible"` // elevation ≥ mask
}

// ECEFLookAngles computes azimuth, elevation, and range from a site to
// a satellite ECEF position (km), using the SEZ (South-East-Zenith)
// topocentric rotation per Vallado Section 4.4.
func ECEFLookAngles(site Site, satX, satY, satZ float64) LookAngles {
	rx := satX - site.ecefX
	ry := satY - site.ecefY
	rz := satZ - site.ecefZ

	// Rotate the ECEF range vector into SEZ.
	south := site.sinLat*site.cosLon*rx + site.sinLat*site.sinLon*ry - site.cosLat*rz
	east := -site.sinLon*rx + site.cosLon*ry
	zenith := site.cosLat*site.cosLon*rx + site.cosLat*site.sinLon*ry + site.sinLat*rz

	rangeKm := math.Sqrt(south*south + east*east + zenith*zenith)

	el := math.Asin(zenith / rangeKm)

	// Azimuth is clockwise from North; North = -South in SEZ.
	var az float64
	if math.Hypot(south, east) > horizontalEps {
		az = math.Atan2(east, -south)
		if az < 0 {
			az += 2 * math.Pi
		}
	}

	return LookAngles{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
		RangeKm:      rangeKm,
	}
}

// Topocentric converts a TEME state at a timestamp into the observer's
// local frame and flags visibility against the mask angle.
func Topocentric(state StateTEME, t time.Time, site Site, maskDeg float64) TopocentricSample {
	ecef := TEMEToECEF(state, t)
	la := ECEFLookAngles(site, ecef.X, ecef.Y, ecef.Z)
	return TopocentricSample{
		Time:         t,
		ElevationDeg: la.ElevationDeg,
		AzimuthDeg:   la.AzimuthDeg,
		RangeKm:      la.RangeKm,
		Visible:      la.ElevationDeg >= maskDeg,
	}
}
