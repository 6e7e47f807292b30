// Package metric computes summary statistics of the polygons in GeoJSON features:
// area, centroid, bounding box, convex hull and solidity.
//
// Areas and centroids are measured in an equal-area projection. Convex hulls are
// taken in a stereographic projection centred on the feature, which keeps the
// hull's edges close to the shortest paths between its vertices.
package metric

import (
	"errors"

	"github.com/paulmach/orb"
	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/projection"
	"github.com/pdok/comparea/shape"
)

const squareMetresPerSquareKilometre = 1e6

// Calculator computes metrics with the projections from a projection.Config.
// It holds no mutable state and is safe for concurrent use.
type Calculator struct {
	cfg       projection.Config
	equalArea *projection.Albers
}

// New returns a Calculator for cfg. Zero-valued parameters get their defaults.
func New(cfg projection.Config) (*Calculator, error) {
	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	equalArea, err := cfg.EqualArea()
	if err != nil {
		return nil, err
	}
	return &Calculator{cfg: cfg, equalArea: equalArea}, nil
}

// Default returns a Calculator using the default projections.
func Default() *Calculator {
	c, err := New(projection.DefaultConfig())
	if err != nil {
		panic(err)
	}
	return c
}

// EqualArea returns the projection areas and centroids are measured in.
func (c *Calculator) EqualArea() projection.Projection {
	return c.equalArea
}

// Area returns the area of obj in square metres. The area of a collection is the
// sum of the areas of its features. Overlapping parts are counted twice.
func (c *Calculator) Area(obj feature.Object) (float64, error) {
	area := 0.
	err := walk(obj, func(ring orb.Ring) error {
		s, err := shape.FromRing(ring, c.equalArea)
		if err != nil {
			return err
		}
		area += s.Area()
		return nil
	})
	return area, err
}

// Centroid returns the area-weighted centroid of obj in lon/lat. Each outer ring
// contributes its own centroid, taken in the equal-area plane and projected back to
// lon/lat. A collection weighs the centroids of its features by their areas.
// An object without area has its centroid at exactly (0, 0).
func (c *Calculator) Centroid(obj feature.Object) (orb.Point, error) {
	var sum weightedSum
	if fc, ok := obj.(*feature.FeatureCollection); ok {
		for _, f := range fc.Features {
			centroid, err := c.Centroid(f)
			if err != nil {
				return orb.Point{}, err
			}
			area, err := c.Area(f)
			if err != nil {
				return orb.Point{}, err
			}
			sum.add(centroid, area)
		}
		return sum.mean(), nil
	}
	err := walk(obj, func(ring orb.Ring) error {
		s, err := shape.FromRing(ring, c.equalArea)
		if err != nil {
			return err
		}
		planar := s.Centroid()
		lon, lat := c.equalArea.Inverse(planar[0], planar[1])
		sum.add(orb.Point{lon, lat}, s.Area())
		return nil
	})
	if err != nil {
		return orb.Point{}, err
	}
	return sum.mean(), nil
}

type weightedSum struct {
	lon, lat, weight float64
}

func (w *weightedSum) add(pt orb.Point, weight float64) {
	if weight == 0 {
		return
	}
	w.lon += pt.Lon() * weight
	w.lat += pt.Lat() * weight
	w.weight += weight
}

func (w *weightedSum) mean() orb.Point {
	if w.weight == 0 {
		return orb.Point{0, 0}
	}
	return orb.Point{w.lon / w.weight, w.lat / w.weight}
}

// ConvexHull returns the convex hull of all polygons in obj, in a stereographic
// projection centred on the centroid of obj.
func (c *Calculator) ConvexHull(obj feature.Object) (*shape.Shape, error) {
	centroid, err := c.Centroid(obj)
	if err != nil {
		return nil, err
	}
	local, err := c.cfg.LocalStereographic(centroid[0], centroid[1])
	if err != nil {
		return nil, err
	}
	var union *shape.Shape
	err = walk(obj, func(ring orb.Ring) error {
		s, err := shape.FromRing(ring, local)
		if err != nil {
			return err
		}
		if union == nil {
			union = s
			return nil
		}
		union, err = union.Union(s)
		return err
	})
	if err != nil {
		return nil, err
	}
	if union == nil {
		return nil, &shape.DegenerateGeometryError{Reason: "no polygon to take the convex hull of"}
	}
	return union.ConvexHull(), nil
}

// ConvexHullPolygon returns the convex hull of obj as a lon/lat polygon.
func (c *Calculator) ConvexHullPolygon(obj feature.Object) (orb.Polygon, error) {
	hull, err := c.ConvexHull(obj)
	if err != nil {
		return nil, err
	}
	return orb.Polygon(hull.Unproject()), nil
}

// ConvexArea returns the area of the convex hull of obj in square metres.
func (c *Calculator) ConvexArea(obj feature.Object) (float64, error) {
	hull, err := c.ConvexHull(obj)
	if err != nil {
		return 0, err
	}
	return hull.Area(), nil
}

// Solidity returns the ratio of the area of obj to the area of its convex hull.
// Lower values mean more concave or fragmented. Convex shapes come out slightly
// above 1, because of the stereographic scale factor the hull is measured with.
func (c *Calculator) Solidity(obj feature.Object) (float64, error) {
	area, err := c.Area(obj)
	if err != nil {
		return 0, err
	}
	convexArea, err := c.ConvexArea(obj)
	if err != nil {
		return 0, err
	}
	if convexArea == 0 {
		return 0, &shape.DegenerateGeometryError{Reason: "convex hull has no area"}
	}
	return area / convexArea, nil
}

// IsGeometryError reports whether err is caused by the geometry of a feature,
// as opposed to its encoding.
func IsGeometryError(err error) bool {
	var unsupported *feature.UnsupportedGeometryError
	var degenerate *shape.DegenerateGeometryError
	return errors.As(err, &unsupported) || errors.As(err, &degenerate)
}
