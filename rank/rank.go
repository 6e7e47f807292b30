// Package rank orders and compares regions by their area.
package rank

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb/geo"
	"github.com/pdok/comparea/feature"
	"github.com/pdok/comparea/mapslicehelp"
	"github.com/pdok/comparea/metric"
	"github.com/pdok/comparea/schema"
	"github.com/umpc/go-sortedmap"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const squareMetresPerSquareKilometre = 1e6

// ErrNoArea is returned when comparing against a region without area.
var ErrNoArea = errors.New("region has no area")

type Entry struct {
	Rank    int         `json:"rank"`
	ID      interface{} `json:"id"`
	Name    string      `json:"name,omitempty"`
	AreaKm2 float64     `json:"area_km2"`
}

type sizedFeature struct {
	index int
	area  float64
}

// ByArea ranks the features of fc from largest to smallest. Features whose area can't
// be computed (unsupported or degenerate geometry) are left out. Equal areas keep
// the order of the collection.
func ByArea(fc *feature.FeatureCollection, calc *metric.Calculator) ([]Entry, error) {
	sizes := sortedmap.New(len(fc.Features), func(x, y interface{}) bool {
		a, b := x.(sizedFeature), y.(sizedFeature)
		if a.area != b.area {
			return a.area > b.area
		}
		return a.index < b.index
	})
	for i, f := range fc.Features {
		area, err := calc.Area(f)
		if metric.IsGeometryError(err) {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		sizes.Insert(i, sizedFeature{index: i, area: area})
	}

	entries := make([]Entry, 0, sizes.Len())
	for _, key := range sizes.Keys() {
		sized := sizes.Map()[key].(sizedFeature)
		f := fc.Features[sized.index]
		entries = append(entries, Entry{
			Rank:    len(entries) + 1,
			ID:      f.ID,
			Name:    name(f),
			AreaKm2: sized.area / squareMetresPerSquareKilometre,
		})
	}
	return entries, nil
}

// GroupBy sums the area of the features per value of property, in order of first
// appearance. Features without the property are grouped under "".
func GroupBy(fc *feature.FeatureCollection, calc *metric.Calculator, property string) (*orderedmap.OrderedMap[string, float64], error) {
	groups := orderedmap.New[string, float64]()
	for i, f := range fc.Features {
		area, err := calc.Area(f)
		if metric.IsGeometryError(err) {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		key := ""
		if v, ok := f.Properties[property]; ok && v != nil {
			key = fmt.Sprint(v)
		}
		total, _ := groups.Get(key)
		groups.Set(key, total+area/squareMetresPerSquareKilometre)
	}
	return groups, nil
}

// Largest returns the group with the largest area. On a tie the group seen last wins
// and ties counts the groups sharing that area.
func Largest(groups *orderedmap.OrderedMap[string, float64]) (group string, areaKm2 float64, ties uint) {
	return mapslicehelp.FindLastKeyWithMaxValue(groups)
}

// Comparison relates two regions.
type Comparison struct {
	A metric.Summary `json:"a"`
	B metric.Summary `json:"b"`
	// AreaRatio is the area of A divided by the area of B.
	AreaRatio          float64 `json:"area_ratio"`
	CentroidDistanceKm float64 `json:"centroid_distance_km"`
}

// Compare summarizes a and b and relates their sizes and positions.
func Compare(a, b feature.Object, calc *metric.Calculator) (Comparison, error) {
	var c Comparison
	var err error
	if c.A, err = calc.Summarize(a); err != nil {
		return c, fmt.Errorf("first region: %w", err)
	}
	if c.B, err = calc.Summarize(b); err != nil {
		return c, fmt.Errorf("second region: %w", err)
	}
	if c.B.AreaKm2 == 0 {
		return c, ErrNoArea
	}
	c.AreaRatio = c.A.AreaKm2 / c.B.AreaKm2
	c.CentroidDistanceKm = geo.Distance(c.A.Centroid, c.B.Centroid) / 1000
	return c, nil
}

// Bigger names the larger of the two regions, "a", "b" or "" when they are the same size.
func (c Comparison) Bigger() string {
	switch {
	case c.AreaRatio > 1:
		return "a"
	case c.AreaRatio < 1:
		return "b"
	default:
		return ""
	}
}

func name(f *feature.Feature) string {
	if s, ok := f.Properties[schema.PropertyName].(string); ok {
		return s
	}
	return ""
}
