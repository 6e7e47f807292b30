package metric

import (
	"encoding/json"

	"github.com/paulmach/orb"
	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/shape"
)

// BBox is a bounding box in degrees, ordered [minLat, minLon, maxLat, maxLon].
type BBox [4]float64

func newBBox(b orb.Bound) *BBox {
	return &BBox{b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon()}
}

// Bound returns the box as an orb.Bound.
func (b *BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b[1], b[0]}, Max: orb.Point{b[3], b[2]}}
}

func (b *BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64(*b))
}

// BBox returns the bounding box of obj, straight from the lon/lat coordinates of
// the outer rings. For a collection, features whose geometry is unsupported or
// has no coordinates are left out, and the result is nil when no feature is left.
func (c *Calculator) BBox(obj feature.Object) (*BBox, error) {
	if fc, ok := obj.(*feature.FeatureCollection); ok {
		return c.collectionBBox(fc)
	}
	bound, ok, err := rawBound(obj)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, &shape.DegenerateGeometryError{Reason: "no coordinates to take the bounding box of"}
	}
	return newBBox(bound), nil
}

func (c *Calculator) collectionBBox(fc *feature.FeatureCollection) (*BBox, error) {
	var bound orb.Bound
	found := false
	for _, f := range fc.Features {
		b, err := c.BBox(f)
		if err != nil {
			if IsGeometryError(err) {
				continue
			}
			return nil, err
		}
		if !found {
			bound = b.Bound()
			found = true
			continue
		}
		bound = bound.Union(b.Bound())
	}
	if !found {
		return nil, nil
	}
	return newBBox(bound), nil
}

func rawBound(obj feature.Object) (bound orb.Bound, found bool, err error) {
	err = walk(obj, func(ring orb.Ring) error {
		if len(ring) == 0 {
			return nil
		}
		if !found {
			bound = ring.Bound()
			found = true
			return nil
		}
		bound = bound.Union(ring.Bound())
		return nil
	})
	return bound, found, err
}
