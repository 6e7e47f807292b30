// Package sieve drops polygons and holes that are too small to matter.
package sieve

import (
	"github.com/paulmach/orb"
	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/processing"
	"github.com/pdok/comparea/projection"
	"github.com/pdok/comparea/shape"
)

const squareMetresPerSquareKilometre = 1e6

// ringArea is the area of a ring in p, 0 for rings that don't span an area
func ringArea(ring orb.Ring, p projection.Projection) float64 {
	s, err := shape.FromRing(ring, p)
	if err != nil {
		return 0.
	}
	return s.Area()
}

// area of a polygon, its holes subtracted
func area(polygon orb.Polygon, p projection.Projection) float64 {
	if len(polygon) == 0 {
		return 0.
	}
	interior := .0
	for _, hole := range polygon[1:] {
		interior += ringArea(hole, p)
	}
	return ringArea(polygon[0], p) - interior
}

// polygonSieve will sieve a given polygon
func polygonSieve(polygon orb.Polygon, p projection.Projection, minArea float64) orb.Polygon {
	if area(polygon, p) <= minArea {
		return nil
	}
	sieved := orb.Polygon{polygon[0]}
	for _, hole := range polygon[1:] {
		if ringArea(hole, p) > minArea {
			sieved = append(sieved, hole)
		}
	}
	return sieved
}

func geometrySieve(g feature.Geometry, p projection.Projection, minArea float64) (feature.Geometry, error) {
	switch g := g.(type) {
	case *feature.Polygon:
		if sieved := polygonSieve(g.Coordinates, p, minArea); sieved != nil {
			return &feature.Polygon{Coordinates: sieved, Foreign: g.Foreign}, nil
		}
		return nil, nil
	case *feature.MultiPolygon:
		var parts orb.MultiPolygon
		for _, part := range g.Coordinates {
			if sieved := polygonSieve(part, p, minArea); sieved != nil {
				parts = append(parts, sieved)
			}
		}
		if len(parts) == 0 {
			return nil, nil
		}
		return &feature.MultiPolygon{Coordinates: parts, Foreign: g.Foreign}, nil
	case *feature.GeometryCollection:
		var members []feature.Geometry
		for _, member := range g.Geometries {
			sieved, err := geometrySieve(member, p, minArea)
			if err != nil {
				return nil, err
			}
			if sieved != nil {
				members = append(members, sieved)
			}
		}
		if len(members) == 0 {
			return nil, nil
		}
		return &feature.GeometryCollection{Geometries: members, Foreign: g.Foreign}, nil
	default:
		return nil, feature.NewUnsupportedGeometryError(g)
	}
}

// Sieve returns a ProcessFunc that removes the polygons and holes with an area (in p)
// of at most minAreaKm2. Features without a polygon left are dropped.
func Sieve(p projection.Projection, minAreaKm2 float64) processing.ProcessFunc {
	minArea := minAreaKm2 * squareMetresPerSquareKilometre
	return func(f *feature.Feature) (*feature.Feature, error) {
		out := feature.CloneFeature(f)
		sieved, err := geometrySieve(out.Geometry, p, minArea)
		if err != nil {
			return nil, err
		}
		if sieved == nil {
			return nil, nil
		}
		out.Geometry = sieved
		return out, nil
	}
}
