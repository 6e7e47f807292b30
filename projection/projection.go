// Package projection converts between geographic coordinates (longitude and
// latitude in degrees) and planar coordinates in metres on the GRS80 ellipsoid.
//
// Two projections are provided: an equal-area Albers conic, used wherever an
// area or an area-weighted centroid is computed, and an oblique stereographic
// centred on a region, used for convex hulls.
package projection

import "math"

// Projection maps lon/lat degrees to x/y metres and back.
type Projection interface {
	Forward(lon, lat float64) (x, y float64)
	Inverse(x, y float64) (lon, lat float64)
}

const (
	// GRS80
	semiMajorAxis     = 6378137.0
	inverseFlattening = 298.257222101

	epsilon       = 1e-10
	maxIterations = 30
)

var (
	flattening      = 1 / inverseFlattening
	eccentricitySq  = flattening * (2 - flattening)
	eccentricity    = math.Sqrt(eccentricitySq)
	degreesToRadian = math.Pi / 180
)

func toRadians(deg float64) float64 {
	return deg * degreesToRadian
}

func toDegrees(rad float64) float64 {
	return rad / degreesToRadian
}

// adjustLongitude wraps a longitude in radians to [-π, π].
func adjustLongitude(lam float64) float64 {
	if math.Abs(lam) <= math.Pi {
		return lam
	}
	lam = math.Mod(lam+math.Pi, 2*math.Pi)
	if lam < 0 {
		lam += 2 * math.Pi
	}
	return lam - math.Pi
}
