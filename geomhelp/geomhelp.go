package geomhelp

import (
	"math"

	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/muesli/reflow/truncate"
	"github.com/paulmach/orb"
)

// OrientationSum returns Σ (x₂-x₁)(y₂+y₁) over consecutive vertices, the last one
// paired with itself (so an unclosed ring is not closed implicitly).
// Positive means clockwise when x points east and y points north.
func OrientationSum(ring orb.Ring) float64 {
	sum := 0.
	for i := 0; i < len(ring)-1; i++ {
		sum += (ring[i+1][0] - ring[i][0]) * (ring[i+1][1] + ring[i][1])
	}
	return sum
}

// IsFinite reports whether both ordinates are neither NaN nor infinite.
func IsFinite(pt [2]float64) bool {
	return !math.IsNaN(pt[0]) && !math.IsInf(pt[0], 0) && !math.IsNaN(pt[1]) && !math.IsInf(pt[1], 0)
}

func RingToGeomPolygon(ring orb.Ring) geom.Polygon {
	lr := make([][2]float64, len(ring))
	for i := range ring {
		lr[i] = ring[i]
	}
	return geom.Polygon{lr}
}

func PolygonToGeomPolygon(p orb.Polygon) geom.Polygon {
	poly := make(geom.Polygon, len(p))
	for i, ring := range p {
		poly[i] = make([][2]float64, len(ring))
		for j := range ring {
			poly[i][j] = ring[j]
		}
	}
	return poly
}

func MultiPolygonToGeomMultiPolygon(mp orb.MultiPolygon) geom.MultiPolygon {
	multi := make(geom.MultiPolygon, len(mp))
	for i := range mp {
		multi[i] = PolygonToGeomPolygon(mp[i])
	}
	return multi
}

func GeomPolygonToPolygon(p geom.Polygon) orb.Polygon {
	poly := make(orb.Polygon, len(p))
	for i, ring := range p {
		poly[i] = make(orb.Ring, len(ring))
		for j := range ring {
			poly[i][j] = ring[j]
		}
	}
	return poly
}

func GeomMultiPolygonToMultiPolygon(mp geom.MultiPolygon) orb.MultiPolygon {
	multi := make(orb.MultiPolygon, len(mp))
	for i := range mp {
		multi[i] = GeomPolygonToPolygon(mp[i])
	}
	return multi
}

func WktMustEncode(g geom.Geometry, maxLen uint) (s string) {
	p, isPoly := g.(geom.Polygon)
	if !isPoly {
		return wktMustEncodeTruncated(g, maxLen)
	}

	var lines []geom.LineString
	var points []geom.Point
	pp := make(geom.Polygon, len(p))
	copy(pp, p)
	for r := 0; r < len(pp); r++ {
		switch len(pp[r]) {
		default:
			continue
		case 0:
		case 1:
			points = append(points, pp[r][0])
		case 2:
			lines = append(lines, pp[r])
		}
		pp = append(pp[:r], pp[r+1:]...)
		r--
	}

	if len(pp) > 0 {
		s = wktMustEncodeTruncated(pp, maxLen)
	}
	for i := range lines {
		s += wktMustEncodeTruncated(lines[i], maxLen)
	}
	for i := range points {
		s += wktMustEncodeTruncated(points[i], maxLen)
	}
	return s
}

func wktMustEncodeTruncated(geom geom.Geometry, width uint) string {
	if width == 0 {
		return wkt.MustEncode(geom)
	}
	return truncate.StringWithTail(wkt.MustEncode(geom), width, "...")
}
