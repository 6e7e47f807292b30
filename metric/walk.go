package metric

import (
	"github.com/paulmach/orb"
	"github.com/pdok/comparea/feature"
)

type visitRingFunc func(ring orb.Ring) error

// walk calls visit with the outer ring of every polygon in obj, in document order.
// Holes are not visited.
func walk(obj feature.Object, visit visitRingFunc) error {
	switch o := obj.(type) {
	case *feature.Feature:
		return walkGeometry(o.Geometry, visit)
	case *feature.FeatureCollection:
		for _, f := range o.Features {
			if err := walk(f, visit); err != nil {
				return err
			}
		}
		return nil
	default:
		return feature.NewUnsupportedGeometryError(nil)
	}
}

func walkGeometry(g feature.Geometry, visit visitRingFunc) error {
	switch g := g.(type) {
	case *feature.Polygon:
		if len(g.Coordinates) == 0 {
			return nil
		}
		return visit(g.Coordinates[0])
	case *feature.MultiPolygon:
		for _, part := range g.Coordinates {
			if len(part) == 0 {
				continue
			}
			if err := visit(part[0]); err != nil {
				return err
			}
		}
		return nil
	case *feature.GeometryCollection:
		for _, member := range g.Geometries {
			if err := walkGeometry(member, visit); err != nil {
				return err
			}
		}
		return nil
	default:
		return feature.NewUnsupportedGeometryError(g)
	}
}
