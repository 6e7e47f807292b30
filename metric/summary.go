package metric

import (
	"github.com/paulmach/orb"
	"github.com/pdok/comparea/feature"
)

// Summary holds every metric of one object.
type Summary struct {
	AreaKm2       float64   `json:"area_km2"`
	ConvexAreaKm2 float64   `json:"convex_area_km2"`
	Solidity      float64   `json:"solidity"`
	Centroid      orb.Point `json:"centroid"`
	BBox          *BBox     `json:"bbox"`
}

// Summarize computes all metrics of obj. Unlike Solidity it does not fail on a
// hull without area, the solidity is left at 0 instead.
func (c *Calculator) Summarize(obj feature.Object) (Summary, error) {
	var s Summary
	area, err := c.Area(obj)
	if err != nil {
		return s, err
	}
	s.AreaKm2 = area / squareMetresPerSquareKilometre
	if s.Centroid, err = c.Centroid(obj); err != nil {
		return s, err
	}
	if s.BBox, err = c.BBox(obj); err != nil {
		return s, err
	}
	convexArea, err := c.ConvexArea(obj)
	if err != nil {
		return s, err
	}
	s.ConvexAreaKm2 = convexArea / squareMetresPerSquareKilometre
	if convexArea > 0 {
		s.Solidity = area / convexArea
	}
	return s, nil
}
