package processing

import (
	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/metric"
	"github.com/pdok/comparea/schema"
)

const (
	PropertySolidity = "solidity"
	PropertyCentroid = "centroid"
	PropertyBBox     = "bbox"
)

// Annotate returns a ProcessFunc that copies the metrics of a feature into its properties:
// area_km2, solidity, centroid ([lon, lat]) and bbox ([minLat, minLon, maxLat, maxLon]).
func Annotate(calc *metric.Calculator) ProcessFunc {
	return func(in *feature.Feature) (*feature.Feature, error) {
		summary, err := calc.Summarize(in)
		if err != nil {
			return nil, err
		}
		out := feature.CloneFeature(in)
		if out.Properties == nil {
			out.Properties = make(map[string]interface{})
		}
		out.Properties[schema.PropertyAreaKm2] = summary.AreaKm2
		out.Properties[PropertySolidity] = summary.Solidity
		out.Properties[PropertyCentroid] = []float64{summary.Centroid.Lon(), summary.Centroid.Lat()}
		if summary.BBox != nil {
			out.Properties[PropertyBBox] = summary.BBox[:]
		} else {
			out.Properties[PropertyBBox] = nil
		}
		return out, nil
	}
}

// Chain runs fs one after the other, stopping at the first that drops the feature.
func Chain(fs ...ProcessFunc) ProcessFunc {
	return func(f *feature.Feature) (*feature.Feature, error) {
		var err error
		for _, process := range fs {
			if f, err = process(f); err != nil || f == nil {
				return nil, err
			}
		}
		return f, nil
	}
}

// Keep passes every feature on unchanged.
func Keep(f *feature.Feature) (*feature.Feature, error) {
	return f, nil
}
