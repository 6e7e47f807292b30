// Package shape holds polygons projected to a plane and the planar measurements on them.
package shape

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/pdok/comparea/geomhelp"
	"github.com/pdok/comparea/mapslicehelp"
	"github.com/pdok/comparea/projection"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

const wktExcerptLength = 80

// DegenerateGeometryError is returned for rings that cannot be measured: fewer
// than three distinct vertices, or coordinates that do not project to finite values.
type DegenerateGeometryError struct {
	Reason string
	WKT    string
}

func (e *DegenerateGeometryError) Error() string {
	if e.WKT == "" {
		return "degenerate geometry: " + e.Reason
	}
	return fmt.Sprintf("degenerate geometry: %s: %s", e.Reason, e.WKT)
}

func newDegenerateGeometryError(reason string, ring orb.Ring) *DegenerateGeometryError {
	return &DegenerateGeometryError{Reason: reason, WKT: wktExcerpt(ring)}
}

func wktExcerpt(ring orb.Ring) (s string) {
	defer func() {
		if recover() != nil {
			s = ""
		}
	}()
	return geomhelp.WktMustEncode(geomhelp.RingToGeomPolygon(ring), wktExcerptLength)
}

// Shape is one or more closed rings in the plane of a projection.
// Parts may overlap, a Union does not dissolve them.
type Shape struct {
	proj  projection.Projection
	parts []*geom.Polygon
}

// FromRing projects a lon/lat ring and closes it.
func FromRing(ring orb.Ring, p projection.Projection) (*Shape, error) {
	if n := mapslicehelp.CountDistinct(ring); n < 3 {
		return nil, newDegenerateGeometryError(fmt.Sprintf("ring has %d distinct vertices, need at least 3", n), ring)
	}
	flat := make([]float64, 0, 2*(len(ring)+1))
	for _, pt := range ring {
		if !geomhelp.IsFinite(pt) {
			return nil, newDegenerateGeometryError(fmt.Sprintf("vertex %v is not finite", pt), ring)
		}
		x, y := p.Forward(pt[0], pt[1])
		if !geomhelp.IsFinite([2]float64{x, y}) {
			return nil, newDegenerateGeometryError(fmt.Sprintf("vertex %v does not project to finite coordinates", pt), ring)
		}
		flat = append(flat, x, y)
	}
	if !ring.Closed() {
		flat = append(flat, flat[0], flat[1])
	}
	return &Shape{
		proj:  p,
		parts: []*geom.Polygon{geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})},
	}, nil
}

// Projection returns the projection the shape lives in.
func (s *Shape) Projection() projection.Projection {
	return s.proj
}

// Area returns the unsigned planar area in square metres, summed over the parts.
func (s *Shape) Area() float64 {
	area := 0.
	for _, part := range s.parts {
		a := part.Area()
		if a < 0 {
			a = -a
		}
		area += a
	}
	return area
}

// Centroid returns the area-weighted planar centroid. When the area is zero
// the centroid of the boundary is returned instead.
func (s *Shape) Centroid() orb.Point {
	if len(s.parts) == 0 {
		return orb.Point{}
	}
	c := xy.PolygonsCentroid(s.parts[0], s.parts[1:]...)
	return orb.Point{c[0], c[1]}
}

// ConvexHull returns the convex hull of all parts as a single-part shape.
// Collinear input yields a hull with zero area.
func (s *Shape) ConvexHull() *Shape {
	var flat []float64
	for _, part := range s.parts {
		flat = append(flat, part.FlatCoords()...)
	}
	var ring []float64
	switch hull := xy.ConvexHullFlat(geom.XY, flat).(type) {
	case *geom.Polygon:
		ring = hull.FlatCoords()
	case *geom.LineString:
		ring = append(hull.FlatCoords(), hull.FlatCoords()[:2]...)
	case *geom.Point:
		ring = append(hull.FlatCoords(), hull.FlatCoords()...)
	}
	hull := &Shape{proj: s.proj}
	if len(ring) > 0 {
		ring = append([]float64(nil), ring...)
		hull.parts = []*geom.Polygon{geom.NewPolygonFlat(geom.XY, ring, []int{len(ring)})}
	}
	return hull
}

// Union merges the parts of others into a copy of s.
func (s *Shape) Union(others ...*Shape) (*Shape, error) {
	u := &Shape{proj: s.proj, parts: append([]*geom.Polygon(nil), s.parts...)}
	for _, other := range others {
		if other.proj != s.proj {
			return nil, errors.New("cannot union shapes in different projections")
		}
		u.parts = append(u.parts, other.parts...)
	}
	return u, nil
}

// Rings returns the closed planar rings, one per part.
func (s *Shape) Rings() []orb.Ring {
	rings := make([]orb.Ring, len(s.parts))
	for i, part := range s.parts {
		rings[i] = flatToRing(part.FlatCoords())
	}
	return rings
}

// Unproject returns the parts as closed rings in lon/lat.
func (s *Shape) Unproject() []orb.Ring {
	rings := s.Rings()
	for _, ring := range rings {
		for i, pt := range ring {
			lon, lat := s.proj.Inverse(pt[0], pt[1])
			ring[i] = orb.Point{lon, lat}
		}
	}
	return rings
}

func flatToRing(flat []float64) orb.Ring {
	ring := make(orb.Ring, 0, len(flat)/2)
	for i := 0; i+1 < len(flat); i += 2 {
		ring = append(ring, orb.Point{flat[i], flat[i+1]})
	}
	return ring
}
