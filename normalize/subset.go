package normalize

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/mapslicehelp"
	"github.com/pdok/comparea/projection"
	"github.com/pdok/comparea/shape"
)

// Range is an open interval of degrees.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies strictly between Min and Max.
func (r Range) Contains(v float64) bool {
	return r.Min < v && v < r.Max
}

func (r Range) String() string {
	return fmt.Sprintf("(%g, %g)", r.Min, r.Max)
}

var (
	AllLongitudes = Range{Min: -180, Max: 180}
	AllLatitudes  = Range{Min: -90, Max: 90}
)

// Subset returns a copy of obj that keeps only the polygons whose outer ring has
// its centroid, measured in p, strictly inside lng and lat.
//
// A Polygon outside the ranges loses its outer ring but stays in place, a MultiPolygon
// loses the parts outside. Members of a GeometryCollection are filtered one by one.
func Subset(obj feature.Object, lng, lat Range, p projection.Projection) (feature.Object, error) {
	s := &subsetter{lng: lng, lat: lat, proj: p}
	c := feature.Clone(obj)
	if err := s.object(c); err != nil {
		return nil, err
	}
	return c, nil
}

type subsetter struct {
	lng, lat Range
	proj     projection.Projection
}

func (s *subsetter) object(obj feature.Object) error {
	switch o := obj.(type) {
	case *feature.Feature:
		return s.geometry(o.Geometry)
	case *feature.FeatureCollection:
		for i, f := range o.Features {
			if err := s.geometry(f.Geometry); err != nil {
				return fmt.Errorf("feature %d: %w", i, err)
			}
		}
		return nil
	default:
		return feature.NewUnsupportedGeometryError(nil)
	}
}

func (s *subsetter) geometry(g feature.Geometry) error {
	switch g := g.(type) {
	case *feature.Polygon:
		if len(g.Coordinates) == 0 {
			return nil
		}
		inside, err := s.inside(g.Coordinates[0])
		if err != nil {
			return err
		}
		if !inside {
			g.Coordinates = g.Coordinates[1:]
		}
	case *feature.MultiPolygon:
		outside := make(map[int]struct{})
		for i, part := range g.Coordinates {
			if len(part) == 0 {
				continue
			}
			inside, err := s.inside(part[0])
			if err != nil {
				return fmt.Errorf("part %d: %w", i, err)
			}
			if !inside {
				outside[i] = struct{}{}
			}
		}
		g.Coordinates = mapslicehelp.DeleteFromSliceByIndex(g.Coordinates, outside, 0)
	case *feature.GeometryCollection:
		for _, member := range g.Geometries {
			if err := s.geometry(member); err != nil {
				return err
			}
		}
	default:
		return feature.NewUnsupportedGeometryError(g)
	}
	return nil
}

func (s *subsetter) inside(ring orb.Ring) (bool, error) {
	sh, err := shape.FromRing(ring, s.proj)
	if err != nil {
		return false, err
	}
	c := sh.Centroid()
	lon, lat := s.proj.Inverse(c[0], c[1])
	return s.lng.Contains(lon) && s.lat.Contains(lat), nil
}
