// Package normalize rewrites the polygons of GeoJSON features: it orients their
// rings clockwise and cuts collections down to a region of interest.
package normalize

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/geomhelp"
)

// MakeClockwise reverses every counter-clockwise ring in obj, in place.
// All rings of a Polygon are oriented, of a MultiPolygon only the outer ring of each part.
func MakeClockwise(obj feature.Object) error {
	switch o := obj.(type) {
	case *feature.Feature:
		return makeGeometryClockwise(o.Geometry)
	case *feature.FeatureCollection:
		for i, f := range o.Features {
			if err := MakeClockwise(f); err != nil {
				return fmt.Errorf("feature %d: %w", i, err)
			}
		}
		return nil
	default:
		return feature.NewUnsupportedGeometryError(nil)
	}
}

// Clockwise returns a copy of obj with its rings oriented clockwise, obj itself is left alone.
func Clockwise(obj feature.Object) (feature.Object, error) {
	c := feature.Clone(obj)
	if err := MakeClockwise(c); err != nil {
		return nil, err
	}
	return c, nil
}

func makeGeometryClockwise(g feature.Geometry) error {
	switch g := g.(type) {
	case *feature.Polygon:
		for _, ring := range g.Coordinates {
			makeRingClockwise(ring)
		}
	case *feature.MultiPolygon:
		for _, part := range g.Coordinates {
			if len(part) > 0 {
				makeRingClockwise(part[0])
			}
		}
	case *feature.GeometryCollection:
		for _, member := range g.Geometries {
			if err := makeGeometryClockwise(member); err != nil {
				return err
			}
		}
	default:
		return feature.NewUnsupportedGeometryError(g)
	}
	return nil
}

func makeRingClockwise(ring orb.Ring) {
	if geomhelp.OrientationSum(ring) > 0 {
		return
	}
	ring.Reverse()
}

// AddFeature returns a collection holding copies of the features of base followed by
// a copy of extra. A single Feature as base becomes the first member.
func AddFeature(base feature.Object, extra *feature.Feature) (*feature.FeatureCollection, error) {
	switch b := base.(type) {
	case *feature.FeatureCollection:
		fc := feature.CloneFeatureCollection(b)
		fc.Features = append(fc.Features, feature.CloneFeature(extra))
		return fc, nil
	case *feature.Feature:
		return feature.NewFeatureCollection(feature.CloneFeature(b), feature.CloneFeature(extra)), nil
	default:
		return nil, fmt.Errorf("cannot add a feature to a %T", base)
	}
}
