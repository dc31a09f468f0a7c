package transform

import "math"

// WGS-84 ellipsoid parameters (km).
const (
	wgs84A  = 6378.137              // semi-major axis
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// Site is a fixed ground station. Geodetic trig terms and the ECEF
// position are precomputed once so they can be reused across the many
// per-timestamp lookups of a forecast request.
type Site struct {
	LatDeg, LonDeg float64
	HeightKm       float64 // above the WGS-84 ellipsoid, may be negative

	sinLat, cosLat float64
	sinLon, cosLon float64
	ecefX, ecefY, ecefZ float64 // km
}

// NewSite builds a Site from geodetic coordinates. Latitude and
// longitude are degrees, height is km above the ellipsoid. Range
// checking belongs to the caller; NewSite only does geometry.
func NewSite(latDeg, lonDeg, heightKm float64) Site {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	s := Site{
		LatDeg:   latDeg,
		LonDeg:   lonDeg,
		HeightKm: heightKm,
		sinLat:   math.Sin(lat),
		cosLat:   math.Cos(lat),
		sinLon:   math.Sin(lon),
		cosLon:   math.Cos(lon),
	}

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*s.sinLat*s.sinLat)

	s.ecefX = (n + heightKm) * s.cosLat * s.cosLon
	s.ecefY = (n + heightKm) * s.cosLat * s.sinLon
	s.ecefZ = (n*(1-wgs84E2) + heightKm) * s.sinLat

	return s
}

// ECEF returns the site's Earth-fixed Cartesian position in km.
func (s Site) ECEF() (x, y, z float64) {
	return s.ecefX, s.ecefY, s.ecefZ
}
